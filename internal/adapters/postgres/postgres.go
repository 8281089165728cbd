// Package postgres is the remote persistence adapter backed by
// PostgreSQL. All queries are plain SQL through pgx, no ORM. Besides
// the CRUD contract it implements the subscriber capability: table
// triggers publish change notifications and a dedicated listener
// connection turns them into full-collection snapshots for the
// catalog store.
package postgres

import (
	"context"
	"embed"
	"errors"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/municipiolabs/gacetas/pkg/catalog"
	errs "github.com/municipiolabs/gacetas/pkg/errors"
	"github.com/municipiolabs/gacetas/pkg/logging"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Adapter persists catalog records in PostgreSQL.
type Adapter struct {
	pool     *pgxpool.Pool
	dsn      string
	logger   *zerolog.Logger
	listener *listener
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter's logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// New connects to PostgreSQL and verifies the connection with a ping.
func New(ctx context.Context, dsn string, opts ...Option) (*Adapter, error) {
	if dsn == "" {
		return nil, errs.NewValidationError("dsn", dsn, "database DSN is required")
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errs.NewInitializationError("postgres", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errs.NewInitializationError("postgres", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errs.NewInitializationError("postgres", err)
	}

	a := &Adapter{
		pool:   pool,
		dsn:    dsn,
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.listener = newListener(a, a.logger)

	a.logger.Info().Msg("Connected to PostgreSQL")
	return a, nil
}

// Migrate applies the embedded schema migrations.
func (a *Adapter) Migrate() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return errs.NewInitializationError("migrations", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateURL(a.dsn))
	if err != nil {
		return errs.NewInitializationError("migrations", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errs.NewInitializationError("migrations", err)
	}

	version, dirty, _ := m.Version()
	a.logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("Migrations applied")
	return nil
}

// migrateURL rewrites a postgres DSN for the golang-migrate pgx5
// driver.
func migrateURL(dsn string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix)
		}
	}
	return dsn
}

// Close stops the change listener and releases the pool.
func (a *Adapter) Close() {
	a.listener.stop()
	a.pool.Close()
}

// Healthy reports whether the database answers a ping. Used by the
// server's health endpoint.
func (a *Adapter) Healthy(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := a.pool.Ping(ctx); err != nil {
		return errs.WrapPersistence("ping", "database", "", err)
	}
	return nil
}

const categoryColumns = "id, name, color, file_count, created_by, created_at, updated_at"

// ListCategories loads every category.
func (a *Adapter) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	rows, err := a.pool.Query(ctx,
		"SELECT "+categoryColumns+" FROM categories ORDER BY name ASC")
	if err != nil {
		return nil, errs.WrapPersistence("list", "category", "", err)
	}
	defer rows.Close()

	var out []catalog.Category
	for rows.Next() {
		var c catalog.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.FileCount,
			&c.CreatedBy, &c.CreatedAt.Time, &c.UpdatedAt.Time); err != nil {
			return nil, errs.WrapPersistence("scan", "category", "", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.WrapPersistence("list", "category", "", err)
	}
	return out, nil
}

// CreateCategory inserts a category, assigning a UUID when the record
// carries no id. Caller-supplied ids are honored so backup imports
// keep references intact.
func (a *Adapter) CreateCategory(ctx context.Context, c catalog.Category) (catalog.Category, error) {
	if c.ID == "" {
		c.ID = catalog.CategoryID(uuid.NewString())
	}
	_, err := a.pool.Exec(ctx, `
		INSERT INTO categories (id, name, color, file_count, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.Name, c.Color, c.FileCount, c.CreatedBy, c.CreatedAt.Time, c.UpdatedAt.Time)
	if err != nil {
		return catalog.Category{}, errs.WrapPersistence("create", "category", string(c.ID), err)
	}
	return c, nil
}

// UpdateCategory replaces an existing category row in full.
func (a *Adapter) UpdateCategory(ctx context.Context, c catalog.Category) error {
	tag, err := a.pool.Exec(ctx, `
		UPDATE categories
		SET name = $2, color = $3, file_count = $4, created_by = $5, updated_at = $6
		WHERE id = $1`,
		c.ID, c.Name, c.Color, c.FileCount, c.CreatedBy, c.UpdatedAt.Time)
	if err != nil {
		return errs.WrapPersistence("update", "category", string(c.ID), err)
	}
	if tag.RowsAffected() == 0 {
		return errs.NewNotFoundError("category", string(c.ID))
	}
	return nil
}

// DeleteCategory removes a category row.
func (a *Adapter) DeleteCategory(ctx context.Context, id catalog.CategoryID) error {
	tag, err := a.pool.Exec(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return errs.WrapPersistence("delete", "category", string(id), err)
	}
	if tag.RowsAffected() == 0 {
		return errs.NewNotFoundError("category", string(id))
	}
	return nil
}

const fileColumns = `id, name, type, size, formatted_size, description, category_id,
	download_url, storage_path, cover_color, uploaded_by, view_count, download_count, upload_date`

// ListFiles loads every file.
func (a *Adapter) ListFiles(ctx context.Context) ([]catalog.File, error) {
	rows, err := a.pool.Query(ctx,
		"SELECT "+fileColumns+" FROM files ORDER BY upload_date DESC")
	if err != nil {
		return nil, errs.WrapPersistence("list", "file", "", err)
	}
	defer rows.Close()

	var out []catalog.File
	for rows.Next() {
		var f catalog.File
		if err := rows.Scan(&f.ID, &f.Name, &f.Type, &f.Size, &f.FormattedSize,
			&f.Description, &f.CategoryID, &f.DownloadURL, &f.StoragePath,
			&f.CoverColor, &f.UploadedBy, &f.ViewCount, &f.DownloadCount,
			&f.UploadDate.Time); err != nil {
			return nil, errs.WrapPersistence("scan", "file", "", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.WrapPersistence("list", "file", "", err)
	}
	return out, nil
}

// CreateFile inserts a file, assigning a UUID when the record carries
// no id.
func (a *Adapter) CreateFile(ctx context.Context, f catalog.File) (catalog.File, error) {
	if f.ID == "" {
		f.ID = catalog.FileID(uuid.NewString())
	}
	_, err := a.pool.Exec(ctx, `
		INSERT INTO files (id, name, type, size, formatted_size, description, category_id,
			download_url, storage_path, cover_color, uploaded_by, view_count, download_count, upload_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		f.ID, f.Name, f.Type, f.Size, f.FormattedSize, f.Description, f.CategoryID,
		f.DownloadURL, f.StoragePath, f.CoverColor, f.UploadedBy,
		f.ViewCount, f.DownloadCount, f.UploadDate.Time)
	if err != nil {
		return catalog.File{}, errs.WrapPersistence("create", "file", string(f.ID), err)
	}
	return f, nil
}

// UpdateFile replaces an existing file row in full.
func (a *Adapter) UpdateFile(ctx context.Context, f catalog.File) error {
	tag, err := a.pool.Exec(ctx, `
		UPDATE files
		SET name = $2, type = $3, size = $4, formatted_size = $5, description = $6,
			category_id = $7, download_url = $8, storage_path = $9, cover_color = $10,
			uploaded_by = $11, view_count = $12, download_count = $13
		WHERE id = $1`,
		f.ID, f.Name, f.Type, f.Size, f.FormattedSize, f.Description, f.CategoryID,
		f.DownloadURL, f.StoragePath, f.CoverColor, f.UploadedBy,
		f.ViewCount, f.DownloadCount)
	if err != nil {
		return errs.WrapPersistence("update", "file", string(f.ID), err)
	}
	if tag.RowsAffected() == 0 {
		return errs.NewNotFoundError("file", string(f.ID))
	}
	return nil
}

// DeleteFile removes a file row.
func (a *Adapter) DeleteFile(ctx context.Context, id catalog.FileID) error {
	tag, err := a.pool.Exec(ctx, "DELETE FROM files WHERE id = $1", id)
	if err != nil {
		return errs.WrapPersistence("delete", "file", string(id), err)
	}
	if tag.RowsAffected() == 0 {
		return errs.NewNotFoundError("file", string(id))
	}
	return nil
}
