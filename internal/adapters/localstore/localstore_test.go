package localstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/municipiolabs/gacetas/pkg/catalog"
	errs "github.com/municipiolabs/gacetas/pkg/errors"
	"github.com/municipiolabs/gacetas/pkg/logging"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	a, err := New(t.TempDir(), WithLogger(&logging.Nop))
	require.NoError(t, err)
	return a
}

func TestNewRequiresDir(t *testing.T) {
	_, err := New("")
	assert.True(t, errs.IsValidation(err), "got %v", err)
}

func TestCategoryCRUD(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	created, err := a.CreateCategory(ctx, catalog.Category{Name: "Decretos", Color: "#e74c3c"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	list, err := a.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Decretos", list[0].Name)

	created.Name = "Decretos Municipales"
	created.FileCount = 3
	require.NoError(t, a.UpdateCategory(ctx, created))

	list, err = a.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Decretos Municipales", list[0].Name)
	assert.Equal(t, 3, list[0].FileCount)

	require.NoError(t, a.DeleteCategory(ctx, created.ID))
	list, err = a.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFileCRUD(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	created, err := a.CreateFile(ctx, catalog.File{Name: "ordenanza.pdf", CategoryID: "c1"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	created.Description = "Texto"
	require.NoError(t, a.UpdateFile(ctx, created))

	list, err := a.ListFiles(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Texto", list[0].Description)

	require.NoError(t, a.DeleteFile(ctx, created.ID))
	list, err = a.ListFiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCallerSuppliedIDs(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	created, err := a.CreateCategory(ctx, catalog.Category{ID: "keep-me", Name: "Actas"})
	require.NoError(t, err)
	assert.Equal(t, catalog.CategoryID("keep-me"), created.ID)
}

func TestUniqueIDsWithinMillisecond(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	seen := make(map[catalog.FileID]bool)
	for i := 0; i < 50; i++ {
		f, err := a.CreateFile(ctx, catalog.File{Name: "x.pdf"})
		require.NoError(t, err)
		require.False(t, seen[f.ID], "duplicate id %s", f.ID)
		seen[f.ID] = true
	}
}

func TestUpdateMissingRecord(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	err := a.UpdateCategory(ctx, catalog.Category{ID: "ghost"})
	assert.True(t, errs.IsNotFound(err), "got %v", err)

	err = a.UpdateFile(ctx, catalog.File{ID: "ghost"})
	assert.True(t, errs.IsNotFound(err), "got %v", err)
}

func TestDeleteMissingRecord(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	assert.True(t, errs.IsNotFound(a.DeleteCategory(ctx, "ghost")))
	assert.True(t, errs.IsNotFound(a.DeleteFile(ctx, "ghost")))
}

func TestListSkipsMalformedDocuments(t *testing.T) {
	dir := t.TempDir()
	a, err := New(dir, WithLogger(&logging.Nop))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = a.CreateCategory(ctx, catalog.Category{Name: "Buena"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "categories", "broken.json"), []byte("{nope"), 0o644))

	list, err := a.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Buena", list[0].Name)
}

func TestBlobs(t *testing.T) {
	blobs, err := NewBlobs(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	locator, err := blobs.Put(ctx, "files/123_acta.pdf", strings.NewReader("contenido"), 9)
	require.NoError(t, err)
	assert.Equal(t, "files/123_acta.pdf", locator)

	url, err := blobs.URL(ctx, locator)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "file://"), "url = %s", url)

	require.NoError(t, blobs.Delete(ctx, locator))
	// Idempotent.
	require.NoError(t, blobs.Delete(ctx, locator))
}

func TestBlobsRejectEscapes(t *testing.T) {
	blobs, err := NewBlobs(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = blobs.Put(ctx, "../outside.pdf", strings.NewReader("x"), 1)
	assert.True(t, errs.IsValidation(err), "got %v", err)

	_, err = blobs.Put(ctx, "/etc/passwd", strings.NewReader("x"), 1)
	assert.True(t, errs.IsValidation(err), "got %v", err)
}

func TestAdapterDrivesCatalogStore(t *testing.T) {
	dir := t.TempDir()
	a, err := New(filepath.Join(dir, "data"), WithLogger(&logging.Nop))
	require.NoError(t, err)
	blobs, err := NewBlobs(filepath.Join(dir, "blobs"))
	require.NoError(t, err)

	store := catalog.NewStore(a,
		catalog.WithBlobStore(blobs),
		catalog.WithLogger(&logging.Nop))
	ctx := context.Background()
	require.NoError(t, store.Load(ctx))
	require.Len(t, store.Categories(), 4) // seeded defaults

	file, err := store.AddFile(ctx, catalog.Upload{
		Name:    "ordenanza.pdf",
		Size:    9,
		Content: strings.NewReader("contenido"),
	}, store.Categories()[0].ID)
	require.NoError(t, err)

	// A second store over the same directory sees the same state.
	b, err := New(filepath.Join(dir, "data"), WithLogger(&logging.Nop))
	require.NoError(t, err)
	reopened := catalog.NewStore(b, catalog.WithLogger(&logging.Nop))
	require.NoError(t, reopened.Load(ctx))

	got, err := reopened.File(file.ID)
	require.NoError(t, err)
	assert.Equal(t, "ordenanza.pdf", got.Name)
	assert.Len(t, reopened.Categories(), 4)
}
