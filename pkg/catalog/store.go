package catalog

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/agentstation/utc"
	"github.com/rs/zerolog"

	errs "github.com/municipiolabs/gacetas/pkg/errors"
	"github.com/municipiolabs/gacetas/pkg/logging"
)

// AccessChecker reports whether the current session may mutate the
// catalog. The session package provides the concrete implementation;
// a store constructed without one trusts its caller completely.
type AccessChecker interface {
	IsAdmin() bool
}

// Counter selects which approximate per-file counter to increment.
type Counter int

const (
	// CounterView counts previews.
	CounterView Counter = iota
	// CounterDownload counts downloads.
	CounterDownload
)

// Upload describes one file being added to the catalog.
type Upload struct {
	// Name is the original filename including extension.
	Name string

	// Size is the content length in bytes.
	Size int64

	// Content is the file content. May be nil when the store has no
	// blob store attached (metadata-only catalogs).
	Content io.Reader

	// UploadedBy names the admin performing the upload.
	UploadedBy string

	// Progress, if set, observes blob transfer progress.
	Progress func(transferred, total int64)
}

// Store owns the in-memory file and category collections and keeps them
// synchronized with the persistence adapter. It is the single in-memory
// source of truth for the rest of the application: no other component
// writes the collections directly.
type Store struct {
	adapter    Adapter
	blobs      BlobStore
	access     AccessChecker
	logger     *zerolog.Logger
	files      *Files
	categories *Categories
	onChange   func()
	subs       []Subscription
	subscribed bool
	loaded     bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithBlobStore attaches a blob store for file content.
func WithBlobStore(blobs BlobStore) StoreOption {
	return func(s *Store) {
		s.blobs = blobs
	}
}

// WithAccessChecker attaches the session gate for mutation operations.
func WithAccessChecker(access AccessChecker) StoreOption {
	return func(s *Store) {
		s.access = access
	}
}

// WithLogger sets the store's logger.
func WithLogger(logger *zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithOnChange registers a hook fired after every cache change, local
// or pushed. The presentation layer uses it to re-query and re-render.
func WithOnChange(fn func()) StoreOption {
	return func(s *Store) {
		s.onChange = fn
	}
}

// NewStore creates a catalog store over the given adapter. Call Load
// before use and Subscribe when the adapter supports change
// notifications.
func NewStore(adapter Adapter, opts ...StoreOption) *Store {
	s := &Store{
		adapter:    adapter,
		logger:     logging.Default(),
		files:      NewFiles(),
		categories: NewCategories(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Load performs the initial load of both collections. When the category
// collection is empty it is seeded with the default categories. On
// adapter failure the store stays empty and usable only as a degraded
// public-read catalog.
func (s *Store) Load(ctx context.Context) error {
	categories, err := s.adapter.ListCategories(ctx)
	if err != nil {
		return errs.NewInitializationError("categories", err)
	}

	files, err := s.adapter.ListFiles(ctx)
	if err != nil {
		return errs.NewInitializationError("files", err)
	}

	if len(categories) == 0 {
		categories = s.seedDefaults(ctx)
	}

	s.categories.Replace(categories)
	s.files.Replace(files)
	s.loaded = true

	s.logger.Info().
		Int("categories", len(categories)).
		Int("files", len(files)).
		Msg("Catalog loaded")

	s.notify()
	return nil
}

// seedDefaults creates the default categories through the adapter.
// Individual failures are logged, not propagated: the catalog remains
// usable with whatever subset was created.
func (s *Store) seedDefaults(ctx context.Context) []Category {
	seeded := make([]Category, 0, 4)
	for _, category := range DefaultCategories() {
		created, err := s.adapter.CreateCategory(ctx, category)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("category", category.Name).
				Msg("Failed to seed default category")
			continue
		}
		seeded = append(seeded, created)
	}
	return seeded
}

// Subscribe registers for full-collection snapshots when the adapter
// supports them. Each snapshot replaces the matching collection
// atomically and fires the change hook. Adapters without the
// Subscriber capability make this a no-op: their durable state has no
// external writers to reconcile against.
func (s *Store) Subscribe(ctx context.Context) error {
	subscriber, ok := s.adapter.(Subscriber)
	if !ok {
		return nil
	}

	catSub, err := subscriber.SubscribeCategories(ctx, func(categories []Category) {
		s.categories.Replace(categories)
		s.notify()
	})
	if err != nil {
		return errs.WrapPersistence("subscribe", "category", "", err)
	}

	fileSub, err := subscriber.SubscribeFiles(ctx, func(files []File) {
		s.files.Replace(files)
		s.notify()
	})
	if err != nil {
		_ = catSub.Close()
		return errs.WrapPersistence("subscribe", "file", "", err)
	}

	s.subs = append(s.subs, catSub, fileSub)
	s.subscribed = true
	return nil
}

// Close releases any active subscriptions.
func (s *Store) Close() error {
	var firstErr error
	for _, sub := range s.subs {
		if err := sub.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.subs = nil
	s.subscribed = false
	return firstErr
}

// Files returns the cached files in display order (upload date
// descending).
func (s *Store) Files() []File {
	return s.files.List()
}

// Categories returns the cached categories ordered by name.
func (s *Store) Categories() []Category {
	return s.categories.List()
}

// File returns a file from the cache by id.
func (s *Store) File(id FileID) (File, error) {
	file, ok := s.files.Get(id)
	if !ok {
		return File{}, errs.NewNotFoundError("file", string(id))
	}
	return file, nil
}

// Category returns a category from the cache by id.
func (s *Store) Category(id CategoryID) (Category, error) {
	category, ok := s.categories.Get(id)
	if !ok {
		return Category{}, errs.NewNotFoundError("category", string(id))
	}
	return category, nil
}

// Query evaluates the category filter and search term against the
// current cache.
func (s *Store) Query(filter string, term string) Result {
	return Query(s.files.List(), s.categories.List(), filter, term)
}

// AddFile validates the target category, stores the content blob,
// persists the metadata record, and increments the owning category's
// file count. Requires an admin session.
func (s *Store) AddFile(ctx context.Context, up Upload, categoryID CategoryID) (File, error) {
	if err := s.gate("addFile"); err != nil {
		return File{}, err
	}

	category, ok := s.categories.Get(categoryID)
	if !ok {
		return File{}, errs.NewValidationError("categoryId", string(categoryID),
			"does not resolve to a live category")
	}

	now := utc.Now()
	fileType := FileType(up.Name)
	file := File{
		Name:          up.Name,
		Type:          fileType,
		Size:          up.Size,
		FormattedSize: FormatFileSize(up.Size),
		Description:   AutoDescription(fileType, now.Time),
		CategoryID:    categoryID,
		CoverColor:    CoverClass(fileType),
		UploadedBy:    up.UploadedBy,
		UploadDate:    now,
	}

	if s.blobs != nil && up.Content != nil {
		locator, err := s.putBlob(ctx, up, now)
		if err != nil {
			return File{}, errs.WrapPersistence("create", "blob", up.Name, err)
		}
		file.StoragePath = locator

		url, err := s.blobs.URL(ctx, locator)
		if err != nil {
			s.logger.Warn().Err(err).Str("locator", locator).
				Msg("Failed to resolve download URL")
		} else {
			file.DownloadURL = url
		}
	}

	created, err := s.adapter.CreateFile(ctx, file)
	if err != nil {
		return File{}, errs.WrapPersistence("create", "file", "", err)
	}

	// Read-modify-write: concurrent admins can race here and lose an
	// update. Accepted: the counter is reconciled by the next snapshot
	// and is not a correctness target.
	category.FileCount++
	category.UpdatedAt = now
	if err := s.adapter.UpdateCategory(ctx, category); err != nil {
		s.logger.Warn().Err(err).
			Str("category_id", string(category.ID)).
			Msg("Failed to update category file count")
	}

	if !s.subscribed {
		s.files.Set(created)
		s.categories.Set(category)
		s.notify()
	}

	s.logger.Info().
		Str("file_id", string(created.ID)).
		Str("name", created.Name).
		Str("category_id", string(categoryID)).
		Msg("File uploaded")

	return created, nil
}

// putBlob stores upload content under a timestamped name, reporting
// progress to the upload's observer when one is attached.
func (s *Store) putBlob(ctx context.Context, up Upload, now utc.Time) (string, error) {
	content := up.Content
	if up.Progress != nil {
		content = &progressReader{r: up.Content, total: up.Size, report: up.Progress}
	}
	name := fmt.Sprintf("files/%d_%s", now.UnixMilli(), up.Name)
	return s.blobs.Put(ctx, name, content, up.Size)
}

// DeleteFile removes the metadata record (authoritative), best-effort
// deletes the content blob, and decrements the owning category's file
// count. Requires an admin session.
func (s *Store) DeleteFile(ctx context.Context, id FileID) error {
	if err := s.gate("deleteFile"); err != nil {
		return err
	}

	file, ok := s.files.Get(id)
	if !ok {
		return errs.NewNotFoundError("file", string(id))
	}

	if err := s.adapter.DeleteFile(ctx, id); err != nil {
		return errs.WrapPersistence("delete", "file", string(id), err)
	}

	if s.blobs != nil && file.StoragePath != "" {
		if err := s.blobs.Delete(ctx, file.StoragePath); err != nil {
			// Metadata deletion is authoritative; an orphaned blob is
			// logged and left behind.
			s.logger.Warn().Err(err).
				Str("locator", file.StoragePath).
				Msg("Failed to delete file content")
		}
	}

	if category, ok := s.categories.Get(file.CategoryID); ok {
		if category.FileCount > 0 {
			category.FileCount--
		}
		category.UpdatedAt = utc.Now()
		if err := s.adapter.UpdateCategory(ctx, category); err != nil {
			s.logger.Warn().Err(err).
				Str("category_id", string(category.ID)).
				Msg("Failed to update category file count")
		}
		if !s.subscribed {
			s.categories.Set(category)
		}
	}

	if !s.subscribed {
		_ = s.files.Delete(id)
		s.notify()
	}

	s.logger.Info().
		Str("file_id", string(id)).
		Str("name", file.Name).
		Msg("File deleted")

	return nil
}

// AddCategory persists a new category with a zero file count. Requires
// an admin session; the name must be non-empty and unique
// case-insensitively among live categories.
func (s *Store) AddCategory(ctx context.Context, name, color string) (Category, error) {
	if err := s.gate("addCategory"); err != nil {
		return Category{}, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, errs.NewValidationError("name", name, "cannot be empty")
	}

	if existing, ok := s.categories.FindByName(name); ok {
		return Category{}, errs.NewConflictError("category", string(existing.ID),
			"a category with that name already exists")
	}

	now := utc.Now()
	created, err := s.adapter.CreateCategory(ctx, Category{
		Name:      name,
		Color:     color,
		FileCount: 0,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Category{}, errs.WrapPersistence("create", "category", "", err)
	}

	if !s.subscribed {
		s.categories.Set(created)
		s.notify()
	}

	s.logger.Info().
		Str("category_id", string(created.ID)).
		Str("name", created.Name).
		Msg("Category added")

	return created, nil
}

// RenameCategory updates a category's name in place; the id is stable.
// An empty name after trimming is a no-op. Requires an admin session.
func (s *Store) RenameCategory(ctx context.Context, id CategoryID, newName string) error {
	if err := s.gate("renameCategory"); err != nil {
		return err
	}

	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil
	}

	category, ok := s.categories.Get(id)
	if !ok {
		return errs.NewNotFoundError("category", string(id))
	}

	category.Name = newName
	category.UpdatedAt = utc.Now()
	if err := s.adapter.UpdateCategory(ctx, category); err != nil {
		return errs.WrapPersistence("update", "category", string(id), err)
	}

	if !s.subscribed {
		s.categories.Set(category)
		s.notify()
	}
	return nil
}

// DeleteCategory removes a category. Requires an admin session; fails
// while any file still references the category.
func (s *Store) DeleteCategory(ctx context.Context, id CategoryID) error {
	if err := s.gate("deleteCategory"); err != nil {
		return err
	}

	category, ok := s.categories.Get(id)
	if !ok {
		return errs.NewNotFoundError("category", string(id))
	}

	if n := s.files.CountByCategory(id); n > 0 {
		return errs.NewConflictError("category", string(id),
			fmt.Sprintf("still owns %d file(s)", n))
	}

	if err := s.adapter.DeleteCategory(ctx, id); err != nil {
		return errs.WrapPersistence("delete", "category", string(id), err)
	}

	if !s.subscribed {
		_ = s.categories.Delete(id)
		s.notify()
	}

	s.logger.Info().
		Str("category_id", string(id)).
		Str("name", category.Name).
		Msg("Category deleted")

	return nil
}

// UpdateDescription replaces a file's description. Requires an admin
// session.
func (s *Store) UpdateDescription(ctx context.Context, id FileID, description string) error {
	if err := s.gate("updateDescription"); err != nil {
		return err
	}

	file, ok := s.files.Get(id)
	if !ok {
		return errs.NewNotFoundError("file", string(id))
	}

	file.Description = description
	if err := s.adapter.UpdateFile(ctx, file); err != nil {
		return errs.WrapPersistence("update", "file", string(id), err)
	}

	if !s.subscribed {
		s.files.Set(file)
		s.notify()
	}
	return nil
}

// IncrementCounter bumps a file's view or download counter and returns
// the updated record. Public readers trigger this too, so it is not
// admin-gated. The read-modify-write is not serialized across
// concurrent readers: the counters are approximate.
func (s *Store) IncrementCounter(ctx context.Context, id FileID, counter Counter) (File, error) {
	file, ok := s.files.Get(id)
	if !ok {
		return File{}, errs.NewNotFoundError("file", string(id))
	}

	switch counter {
	case CounterView:
		file.ViewCount++
	case CounterDownload:
		file.DownloadCount++
	}

	if err := s.adapter.UpdateFile(ctx, file); err != nil {
		return File{}, errs.WrapPersistence("update", "file", string(id), err)
	}

	if !s.subscribed {
		s.files.Set(file)
		s.notify()
	}
	return file, nil
}

// gate rejects mutations outside an admin session.
func (s *Store) gate(operation string) error {
	if !s.loaded {
		return errs.NewReadOnlyError(operation)
	}
	if s.access != nil && !s.access.IsAdmin() {
		return errs.NewPermissionError(operation)
	}
	return nil
}

// notify fires the change hook, if any.
func (s *Store) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}

// progressReader reports bytes read to an observer callback.
type progressReader struct {
	r           io.Reader
	total       int64
	transferred int64
	report      func(transferred, total int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.transferred += int64(n)
		p.report(p.transferred, p.total)
	}
	return n, err
}
