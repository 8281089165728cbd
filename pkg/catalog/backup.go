package catalog

import (
	"context"
	"encoding/json"
	"time"

	errs "github.com/municipiolabs/gacetas/pkg/errors"
)

// BackupVersion identifies the backup payload layout.
const BackupVersion = "1.0"

// Backup is the portable JSON snapshot of the whole catalog.
type Backup struct {
	Files      []File     `json:"files"`
	Categories []Category `json:"categories"`
	ExportDate string     `json:"exportDate"` // ISO-8601
	Version    string     `json:"version"`
}

// backupPayload distinguishes an absent collection from an empty one
// during import validation.
type backupPayload struct {
	Files      *[]File     `json:"files"`
	Categories *[]Category `json:"categories"`
	ExportDate string      `json:"exportDate"`
	Version    string      `json:"version"`
}

// Export snapshots both collections into a backup document. Available
// in any access state.
func (s *Store) Export() Backup {
	return Backup{
		Files:      s.files.List(),
		Categories: s.categories.List(),
		ExportDate: time.Now().UTC().Format(time.RFC3339),
		Version:    BackupVersion,
	}
}

// ExportJSON serializes the backup document.
func (s *Store) ExportJSON() ([]byte, error) {
	data, err := json.MarshalIndent(s.Export(), "", "  ")
	if err != nil {
		return nil, errs.WrapParse("json", "backup", err)
	}
	return data, nil
}

// Import replaces the entire catalog with the contents of a backup
// document. The current state is discarded, not merged. Requires an
// admin session; payloads missing either collection are rejected
// before anything is touched.
func (s *Store) Import(ctx context.Context, data []byte) error {
	if err := s.gate("import"); err != nil {
		return err
	}

	var payload backupPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return errs.NewParseError("json", "backup", "invalid backup document", err)
	}
	if payload.Files == nil {
		return errs.NewValidationError("files", nil, "backup is missing the files collection")
	}
	if payload.Categories == nil {
		return errs.NewValidationError("categories", nil, "backup is missing the categories collection")
	}

	// Clear existing state through the adapter first. Files go before
	// categories so referential checks in stricter adapters hold.
	for _, file := range s.files.List() {
		if err := s.adapter.DeleteFile(ctx, file.ID); err != nil {
			return errs.WrapPersistence("delete", "file", string(file.ID), err)
		}
	}
	for _, category := range s.categories.List() {
		if err := s.adapter.DeleteCategory(ctx, category.ID); err != nil {
			return errs.WrapPersistence("delete", "category", string(category.ID), err)
		}
	}

	// Recreate from the backup. Adapters honor caller-supplied ids, so
	// file-to-category references survive the round trip.
	categories := make([]Category, 0, len(*payload.Categories))
	for _, category := range *payload.Categories {
		created, err := s.adapter.CreateCategory(ctx, category)
		if err != nil {
			return errs.WrapPersistence("create", "category", string(category.ID), err)
		}
		categories = append(categories, created)
	}

	files := make([]File, 0, len(*payload.Files))
	for _, file := range *payload.Files {
		created, err := s.adapter.CreateFile(ctx, file)
		if err != nil {
			return errs.WrapPersistence("create", "file", string(file.ID), err)
		}
		files = append(files, created)
	}

	s.categories.Replace(categories)
	s.files.Replace(files)

	s.logger.Info().
		Int("categories", len(categories)).
		Int("files", len(files)).
		Msg("Catalog imported from backup")

	s.notify()
	return nil
}
