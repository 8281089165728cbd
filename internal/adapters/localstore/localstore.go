// Package localstore is the synchronous, single-process persistence
// adapter. Each record is one JSON document on the local filesystem:
//
//	<dir>/categories/<id>.json
//	<dir>/files/<id>.json
//
// It offers no change subscriptions: its durable state has no writers
// other than the owning process, so the catalog store keeps its own
// cache current after each mutation.
package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/municipiolabs/gacetas/pkg/catalog"
	errs "github.com/municipiolabs/gacetas/pkg/errors"
	"github.com/municipiolabs/gacetas/pkg/logging"
)

const (
	categoriesDir = "categories"
	filesDir      = "files"
)

// Adapter persists catalog records as JSON documents under a data
// directory.
type Adapter struct {
	dir    string
	logger *zerolog.Logger

	// mu serializes id generation and multi-file operations within
	// this process.
	mu     sync.Mutex
	lastID int64
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter's logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// New creates a local adapter rooted at dir, creating the record
// directories when missing.
func New(dir string, opts ...Option) (*Adapter, error) {
	if dir == "" {
		return nil, errs.NewValidationError("dir", dir, "data directory is required")
	}

	a := &Adapter{
		dir:    dir,
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}

	for _, sub := range []string{categoriesDir, filesDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, errs.WrapIO("mkdir", filepath.Join(dir, sub), err)
		}
	}
	return a, nil
}

// newID generates a millisecond-timestamp id, bumped on collision so
// two records created within the same millisecond stay distinct.
func (a *Adapter) newID() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := time.Now().UnixMilli()
	if id <= a.lastID {
		id = a.lastID + 1
	}
	a.lastID = id
	return strconv.FormatInt(id, 10)
}

// ListCategories loads every category document. Malformed documents
// are skipped with a warning so one corrupt record cannot take the
// whole catalog down.
func (a *Adapter) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	var out []catalog.Category
	err := a.readAll(categoriesDir, func(path string, data []byte) {
		var c catalog.Category
		if err := json.Unmarshal(data, &c); err != nil {
			a.logger.Warn().Err(err).Str("path", path).Msg("Skipping malformed category document")
			return
		}
		out = append(out, c)
	})
	return out, err
}

// ListFiles loads every file document, skipping malformed ones.
func (a *Adapter) ListFiles(ctx context.Context) ([]catalog.File, error) {
	var out []catalog.File
	err := a.readAll(filesDir, func(path string, data []byte) {
		var f catalog.File
		if err := json.Unmarshal(data, &f); err != nil {
			a.logger.Warn().Err(err).Str("path", path).Msg("Skipping malformed file document")
			return
		}
		out = append(out, f)
	})
	return out, err
}

// readAll walks one record directory and hands each document to fn.
func (a *Adapter) readAll(sub string, fn func(path string, data []byte)) error {
	dir := filepath.Join(a.dir, sub)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errs.WrapIO("read", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return errs.WrapIO("read", path, err)
		}
		fn(path, data)
	}
	return nil
}

// CreateCategory writes a new category document, assigning an id when
// the record carries none. Caller-supplied ids are honored so backup
// imports keep references intact.
func (a *Adapter) CreateCategory(ctx context.Context, c catalog.Category) (catalog.Category, error) {
	if c.ID == "" {
		c.ID = catalog.CategoryID(a.newID())
	}
	if err := a.writeDoc(categoriesDir, string(c.ID), c); err != nil {
		return catalog.Category{}, err
	}
	return c, nil
}

// UpdateCategory replaces an existing category document in full.
func (a *Adapter) UpdateCategory(ctx context.Context, c catalog.Category) error {
	if !a.exists(categoriesDir, string(c.ID)) {
		return errs.NewNotFoundError("category", string(c.ID))
	}
	return a.writeDoc(categoriesDir, string(c.ID), c)
}

// DeleteCategory removes a category document.
func (a *Adapter) DeleteCategory(ctx context.Context, id catalog.CategoryID) error {
	return a.removeDoc(categoriesDir, "category", string(id))
}

// CreateFile writes a new file document, assigning an id when the
// record carries none.
func (a *Adapter) CreateFile(ctx context.Context, f catalog.File) (catalog.File, error) {
	if f.ID == "" {
		f.ID = catalog.FileID(a.newID())
	}
	if err := a.writeDoc(filesDir, string(f.ID), f); err != nil {
		return catalog.File{}, err
	}
	return f, nil
}

// UpdateFile replaces an existing file document in full.
func (a *Adapter) UpdateFile(ctx context.Context, f catalog.File) error {
	if !a.exists(filesDir, string(f.ID)) {
		return errs.NewNotFoundError("file", string(f.ID))
	}
	return a.writeDoc(filesDir, string(f.ID), f)
}

// DeleteFile removes a file document.
func (a *Adapter) DeleteFile(ctx context.Context, id catalog.FileID) error {
	return a.removeDoc(filesDir, "file", string(id))
}

func (a *Adapter) docPath(sub, id string) string {
	return filepath.Join(a.dir, sub, id+".json")
}

func (a *Adapter) exists(sub, id string) bool {
	_, err := os.Stat(a.docPath(sub, id))
	return err == nil
}

// writeDoc marshals the record and writes it atomically via a rename.
func (a *Adapter) writeDoc(sub, id string, record any) error {
	path := a.docPath(sub, id)
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return errs.WrapParse("json", path, err)
	}

	tmp := fmt.Sprintf("%s.tmp-%d", path, time.Now().UnixNano())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errs.WrapIO("write", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errs.WrapIO("rename", path, err)
	}
	return nil
}

func (a *Adapter) removeDoc(sub, resource, id string) error {
	path := a.docPath(sub, id)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return errs.NewNotFoundError(resource, id)
		}
		return errs.WrapIO("remove", path, err)
	}
	return nil
}
