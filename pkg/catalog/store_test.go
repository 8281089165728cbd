package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/municipiolabs/gacetas/pkg/errors"
	"github.com/municipiolabs/gacetas/pkg/logging"
)

// memAdapter is an in-memory Adapter for tests. Individual operations
// can be made to fail by name.
type memAdapter struct {
	mu         sync.Mutex
	categories map[CategoryID]Category
	files      map[FileID]File
	nextID     int
	failOps    map[string]error
}

func newMemAdapter() *memAdapter {
	return &memAdapter{
		categories: make(map[CategoryID]Category),
		files:      make(map[FileID]File),
		failOps:    make(map[string]error),
	}
}

func (m *memAdapter) fail(op string) {
	m.failOps[op] = fmt.Errorf("%s: injected failure", op)
}

func (m *memAdapter) check(op string) error {
	return m.failOps[op]
}

func (m *memAdapter) ListCategories(ctx context.Context) ([]Category, error) {
	if err := m.check("ListCategories"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, c)
	}
	return out, nil
}

func (m *memAdapter) ListFiles(ctx context.Context) ([]File, error) {
	if err := m.check("ListFiles"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]File, 0, len(m.files))
	for _, f := range m.files {
		out = append(out, f)
	}
	return out, nil
}

func (m *memAdapter) CreateCategory(ctx context.Context, category Category) (Category, error) {
	if err := m.check("CreateCategory"); err != nil {
		return Category{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if category.ID == "" {
		m.nextID++
		category.ID = CategoryID(fmt.Sprintf("cat-%d", m.nextID))
	}
	m.categories[category.ID] = category
	return category, nil
}

func (m *memAdapter) UpdateCategory(ctx context.Context, category Category) error {
	if err := m.check("UpdateCategory"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[category.ID] = category
	return nil
}

func (m *memAdapter) DeleteCategory(ctx context.Context, id CategoryID) error {
	if err := m.check("DeleteCategory"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.categories, id)
	return nil
}

func (m *memAdapter) CreateFile(ctx context.Context, file File) (File, error) {
	if err := m.check("CreateFile"); err != nil {
		return File{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if file.ID == "" {
		m.nextID++
		file.ID = FileID(fmt.Sprintf("file-%d", m.nextID))
	}
	m.files[file.ID] = file
	return file, nil
}

func (m *memAdapter) UpdateFile(ctx context.Context, file File) error {
	if err := m.check("UpdateFile"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[file.ID] = file
	return nil
}

func (m *memAdapter) DeleteFile(ctx context.Context, id FileID) error {
	if err := m.check("DeleteFile"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, id)
	return nil
}

// memBlobs is an in-memory BlobStore.
type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut bool
	failDel bool
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: make(map[string][]byte)}
}

func (b *memBlobs) Put(ctx context.Context, name string, content io.Reader, size int64) (string, error) {
	if b.failPut {
		return "", fmt.Errorf("put: injected failure")
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[name] = data
	return name, nil
}

func (b *memBlobs) Delete(ctx context.Context, locator string) error {
	if b.failDel {
		return fmt.Errorf("delete: injected failure")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, locator)
	return nil
}

func (b *memBlobs) URL(ctx context.Context, locator string) (string, error) {
	return "mem://" + locator, nil
}

type accessStub struct{ admin bool }

func (a *accessStub) IsAdmin() bool { return a.admin }

func newTestStore(t *testing.T, adapter *memAdapter, opts ...StoreOption) *Store {
	t.Helper()
	base := []StoreOption{
		WithAccessChecker(&accessStub{admin: true}),
		WithLogger(&logging.Nop),
	}
	store := NewStore(adapter, append(base, opts...)...)
	require.NoError(t, store.Load(context.Background()))
	return store
}

func TestLoadSeedsDefaultCategories(t *testing.T) {
	adapter := newMemAdapter()
	store := newTestStore(t, adapter)

	categories := store.Categories()
	require.Len(t, categories, 4)

	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
		assert.Zero(t, c.FileCount)
		assert.NotEmpty(t, c.Color)
	}
	assert.Equal(t, []string{
		"Actas de Sesiones",
		"Decretos",
		"Ordenanzas Municipales",
		"Resoluciones",
	}, names)
}

func TestLoadDoesNotReseedExisting(t *testing.T) {
	adapter := newMemAdapter()
	_, err := adapter.CreateCategory(context.Background(), Category{Name: "Solo Una"})
	require.NoError(t, err)

	store := newTestStore(t, adapter)
	assert.Len(t, store.Categories(), 1)
}

func TestLoadAdapterFailure(t *testing.T) {
	adapter := newMemAdapter()
	adapter.fail("ListCategories")

	store := NewStore(adapter,
		WithAccessChecker(&accessStub{admin: true}),
		WithLogger(&logging.Nop))

	err := store.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrInitialization)
	assert.Empty(t, store.Categories())
	assert.Empty(t, store.Files())

	// The degraded store serves reads only, even to admins.
	_, err = store.AddCategory(context.Background(), "Multas", "#000000")
	assert.ErrorIs(t, err, errs.ErrReadOnly)
}

func TestLoadOrdersAdapterResults(t *testing.T) {
	// The adapter returns records in map iteration order; the store
	// must still list them canonically.
	adapter := newMemAdapter()
	ctx := context.Background()
	for _, name := range []string{"Zonas", "Actas", "Multas"} {
		_, err := adapter.CreateCategory(ctx, Category{Name: name})
		require.NoError(t, err)
	}
	for i, f := range []File{
		{Name: "old.pdf", UploadDate: dayStamp(2025, 1)},
		{Name: "new.pdf", UploadDate: dayStamp(2025, 6)},
		{Name: "mid.pdf", UploadDate: dayStamp(2025, 3)},
	} {
		_, err := adapter.CreateFile(ctx, f)
		require.NoError(t, err, i)
	}

	store := newTestStore(t, adapter)

	var catNames, fileNames []string
	for _, c := range store.Categories() {
		catNames = append(catNames, c.Name)
	}
	for _, f := range store.Files() {
		fileNames = append(fileNames, f.Name)
	}
	assert.Equal(t, []string{"Actas", "Multas", "Zonas"}, catNames)
	assert.Equal(t, []string{"new.pdf", "mid.pdf", "old.pdf"}, fileNames)
}

func TestAddFile(t *testing.T) {
	adapter := newMemAdapter()
	blobs := newMemBlobs()
	store := newTestStore(t, adapter, WithBlobStore(blobs))

	category := store.Categories()[0]
	file, err := store.AddFile(context.Background(), Upload{
		Name:       "ordenanza-99.pdf",
		Size:       2048,
		Content:    strings.NewReader("contenido"),
		UploadedBy: "Administrador",
	}, category.ID)
	require.NoError(t, err)

	assert.NotEmpty(t, file.ID)
	assert.Equal(t, "pdf", file.Type)
	assert.Equal(t, "2 KB", file.FormattedSize)
	assert.Equal(t, "pdf-cover", file.CoverColor)
	assert.Contains(t, file.Description, "Documento PDF subido el ")
	assert.True(t, strings.HasPrefix(file.DownloadURL, "mem://"))
	assert.NotEmpty(t, file.StoragePath)

	// The owning category's count was incremented in the adapter and
	// in the cache.
	updated, err := store.Category(category.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.FileCount)
	assert.Equal(t, 1, adapter.categories[category.ID].FileCount)
}

func TestAddFileDeadCategory(t *testing.T) {
	adapter := newMemAdapter()
	store := newTestStore(t, adapter)

	_, err := store.AddFile(context.Background(), Upload{Name: "x.pdf"}, "no-such")
	assert.True(t, errs.IsValidation(err), "got %v", err)
	assert.Empty(t, store.Files())
}

func TestAddFileBlobFailure(t *testing.T) {
	adapter := newMemAdapter()
	blobs := newMemBlobs()
	blobs.failPut = true
	store := newTestStore(t, adapter, WithBlobStore(blobs))

	_, err := store.AddFile(context.Background(), Upload{
		Name:    "x.pdf",
		Content: strings.NewReader("data"),
	}, store.Categories()[0].ID)
	assert.True(t, errs.IsPersistence(err), "got %v", err)

	// No metadata record, no count change.
	assert.Empty(t, store.Files())
	assert.Zero(t, store.Categories()[0].FileCount)
}

func TestAddFileProgress(t *testing.T) {
	adapter := newMemAdapter()
	store := newTestStore(t, adapter, WithBlobStore(newMemBlobs()))

	content := bytes.Repeat([]byte("a"), 100)
	var last int64
	_, err := store.AddFile(context.Background(), Upload{
		Name:    "x.pdf",
		Size:    int64(len(content)),
		Content: bytes.NewReader(content),
		Progress: func(transferred, total int64) {
			last = transferred
			assert.Equal(t, int64(100), total)
		},
	}, store.Categories()[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), last)
}

func TestDeleteFile(t *testing.T) {
	adapter := newMemAdapter()
	blobs := newMemBlobs()
	store := newTestStore(t, adapter, WithBlobStore(blobs))

	category := store.Categories()[0]
	file, err := store.AddFile(context.Background(), Upload{
		Name:    "x.pdf",
		Content: strings.NewReader("data"),
	}, category.ID)
	require.NoError(t, err)

	require.NoError(t, store.DeleteFile(context.Background(), file.ID))

	assert.Empty(t, store.Files())
	assert.Empty(t, blobs.objects)

	updated, err := store.Category(category.ID)
	require.NoError(t, err)
	assert.Zero(t, updated.FileCount)
}

func TestDeleteFileBlobFailureIsNotFatal(t *testing.T) {
	adapter := newMemAdapter()
	blobs := newMemBlobs()
	store := newTestStore(t, adapter, WithBlobStore(blobs))

	file, err := store.AddFile(context.Background(), Upload{
		Name:    "x.pdf",
		Content: strings.NewReader("data"),
	}, store.Categories()[0].ID)
	require.NoError(t, err)

	blobs.failDel = true
	// Metadata deletion is authoritative; the orphaned blob is only
	// logged.
	require.NoError(t, store.DeleteFile(context.Background(), file.ID))
	assert.Empty(t, store.Files())
}

func TestDeleteFileAdapterFailureLeavesCache(t *testing.T) {
	adapter := newMemAdapter()
	store := newTestStore(t, adapter, WithBlobStore(newMemBlobs()))

	file, err := store.AddFile(context.Background(), Upload{
		Name:    "x.pdf",
		Content: strings.NewReader("data"),
	}, store.Categories()[0].ID)
	require.NoError(t, err)

	adapter.fail("DeleteFile")
	err = store.DeleteFile(context.Background(), file.ID)
	assert.True(t, errs.IsPersistence(err), "got %v", err)

	// The failed mutation left the cache intact.
	_, err = store.File(file.ID)
	assert.NoError(t, err)
}

func TestDeleteFileNotFound(t *testing.T) {
	store := newTestStore(t, newMemAdapter())
	err := store.DeleteFile(context.Background(), "ghost")
	assert.True(t, errs.IsNotFound(err), "got %v", err)
}

func TestAddCategory(t *testing.T) {
	store := newTestStore(t, newMemAdapter())

	created, err := store.AddCategory(context.Background(), "Licitaciones", "#8e44ad")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Zero(t, created.FileCount)
	assert.Len(t, store.Categories(), 5)
}

func TestAddCategoryValidation(t *testing.T) {
	store := newTestStore(t, newMemAdapter())

	t.Run("empty name", func(t *testing.T) {
		_, err := store.AddCategory(context.Background(), "   ", "#fff")
		assert.True(t, errs.IsValidation(err), "got %v", err)
	})

	t.Run("duplicate name case-insensitive", func(t *testing.T) {
		_, err := store.AddCategory(context.Background(), "DECRETOS", "#fff")
		assert.True(t, errs.IsConflict(err), "got %v", err)
	})
}

func TestRenameCategory(t *testing.T) {
	store := newTestStore(t, newMemAdapter())
	category := store.Categories()[0]

	require.NoError(t, store.RenameCategory(context.Background(), category.ID, "Actas"))

	renamed, err := store.Category(category.ID)
	require.NoError(t, err)
	assert.Equal(t, "Actas", renamed.Name)
	assert.Equal(t, category.ID, renamed.ID)
}

func TestRenameCategoryEmptyIsNoOp(t *testing.T) {
	store := newTestStore(t, newMemAdapter())
	category := store.Categories()[0]

	require.NoError(t, store.RenameCategory(context.Background(), category.ID, "   "))

	unchanged, err := store.Category(category.ID)
	require.NoError(t, err)
	assert.Equal(t, category.Name, unchanged.Name)
}

func TestDeleteCategory(t *testing.T) {
	store := newTestStore(t, newMemAdapter())
	category := store.Categories()[0]

	require.NoError(t, store.DeleteCategory(context.Background(), category.ID))
	assert.Len(t, store.Categories(), 3)
}

func TestDeleteCategoryWithFiles(t *testing.T) {
	store := newTestStore(t, newMemAdapter(), WithBlobStore(newMemBlobs()))
	category := store.Categories()[0]

	_, err := store.AddFile(context.Background(), Upload{
		Name:    "x.pdf",
		Content: strings.NewReader("data"),
	}, category.ID)
	require.NoError(t, err)

	err = store.DeleteCategory(context.Background(), category.ID)
	assert.True(t, errs.IsConflict(err), "got %v", err)
	assert.Len(t, store.Categories(), 4)
}

func TestUpdateDescription(t *testing.T) {
	store := newTestStore(t, newMemAdapter(), WithBlobStore(newMemBlobs()))

	file, err := store.AddFile(context.Background(), Upload{
		Name:    "x.pdf",
		Content: strings.NewReader("data"),
	}, store.Categories()[0].ID)
	require.NoError(t, err)

	require.NoError(t, store.UpdateDescription(context.Background(), file.ID, "Texto nuevo"))

	updated, err := store.File(file.ID)
	require.NoError(t, err)
	assert.Equal(t, "Texto nuevo", updated.Description)
}

func TestIncrementCounterWithoutAdmin(t *testing.T) {
	adapter := newMemAdapter()
	admin := newTestStore(t, adapter, WithBlobStore(newMemBlobs()))
	file, err := admin.AddFile(context.Background(), Upload{
		Name:    "x.pdf",
		Content: strings.NewReader("data"),
	}, admin.Categories()[0].ID)
	require.NoError(t, err)

	// Counters are public operations.
	public := NewStore(adapter,
		WithAccessChecker(&accessStub{admin: false}),
		WithLogger(&logging.Nop))
	require.NoError(t, public.Load(context.Background()))

	viewed, err := public.IncrementCounter(context.Background(), file.ID, CounterView)
	require.NoError(t, err)
	assert.Equal(t, 1, viewed.ViewCount)

	downloaded, err := public.IncrementCounter(context.Background(), file.ID, CounterDownload)
	require.NoError(t, err)
	assert.Equal(t, 1, downloaded.DownloadCount)
}

func TestMutationsRequireAdmin(t *testing.T) {
	adapter := newMemAdapter()
	seed := newTestStore(t, adapter, WithBlobStore(newMemBlobs()))
	file, err := seed.AddFile(context.Background(), Upload{
		Name:    "x.pdf",
		Content: strings.NewReader("data"),
	}, seed.Categories()[0].ID)
	require.NoError(t, err)

	store := NewStore(adapter,
		WithAccessChecker(&accessStub{admin: false}),
		WithLogger(&logging.Nop))
	require.NoError(t, store.Load(context.Background()))
	categoryID := store.Categories()[0].ID

	ctx := context.Background()
	mutations := map[string]func() error{
		"addFile": func() error {
			_, err := store.AddFile(ctx, Upload{Name: "y.pdf"}, categoryID)
			return err
		},
		"deleteFile": func() error { return store.DeleteFile(ctx, file.ID) },
		"addCategory": func() error {
			_, err := store.AddCategory(ctx, "Nueva", "#fff")
			return err
		},
		"renameCategory": func() error { return store.RenameCategory(ctx, categoryID, "Otra") },
		"deleteCategory": func() error { return store.DeleteCategory(ctx, categoryID) },
		"updateDescription": func() error {
			return store.UpdateDescription(ctx, file.ID, "x")
		},
		"import": func() error { return store.Import(ctx, []byte(`{}`)) },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			err := mutate()
			assert.True(t, errs.IsPermission(err), "got %v", err)
		})
	}

	// Nothing changed.
	assert.Len(t, store.Files(), 1)
	assert.Len(t, store.Categories(), 4)
}

func TestOnChangeHook(t *testing.T) {
	adapter := newMemAdapter()
	var changes int
	store := NewStore(adapter,
		WithAccessChecker(&accessStub{admin: true}),
		WithLogger(&logging.Nop),
		WithOnChange(func() { changes++ }))
	require.NoError(t, store.Load(context.Background()))
	require.Equal(t, 1, changes) // initial load

	_, err := store.AddCategory(context.Background(), "Nueva", "#fff")
	require.NoError(t, err)
	assert.Equal(t, 2, changes)
}

func TestQueryThroughStore(t *testing.T) {
	store := newTestStore(t, newMemAdapter(), WithBlobStore(newMemBlobs()))
	category := store.Categories()[1] // Decretos

	_, err := store.AddFile(context.Background(), Upload{
		Name:    "decreto-7.pdf",
		Content: strings.NewReader("data"),
	}, category.ID)
	require.NoError(t, err)

	result := store.Query(string(category.ID), "decreto")
	require.Len(t, result.Files, 1)
	assert.Equal(t, "decreto-7.pdf", result.Files[0].Name)
}
