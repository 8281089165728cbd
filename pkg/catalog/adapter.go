package catalog

import (
	"context"
	"io"
)

// Adapter abstracts a durable store of category and file records. The
// catalog store depends only on this contract; concrete forms include a
// synchronous local document store and an asynchronous remote database.
//
// List results may come back in any order; the collections apply the
// canonical ordering (categories by name ascending, files by upload
// date descending) on every read.
type Adapter interface {
	ListCategories(ctx context.Context) ([]Category, error)
	ListFiles(ctx context.Context) ([]File, error)

	// CreateCategory persists a new category and returns it with its
	// store-assigned id.
	CreateCategory(ctx context.Context, category Category) (Category, error)
	UpdateCategory(ctx context.Context, category Category) error
	DeleteCategory(ctx context.Context, id CategoryID) error

	// CreateFile persists a new file record and returns it with its
	// store-assigned id.
	CreateFile(ctx context.Context, file File) (File, error)
	UpdateFile(ctx context.Context, file File) error
	DeleteFile(ctx context.Context, id FileID) error
}

// Snapshot delivery callbacks. Each invocation carries the full
// collection; the receiver replaces its view wholesale.
type (
	CategoriesSnapshotFunc func(categories []Category)
	FilesSnapshotFunc      func(files []File)
)

// Subscriber is the optional adapter capability of pushing
// full-collection snapshots whenever a collection changes, whether the
// change originated in this process or another writer. Adapters without
// external writers need not implement it.
type Subscriber interface {
	SubscribeCategories(ctx context.Context, fn CategoriesSnapshotFunc) (Subscription, error)
	SubscribeFiles(ctx context.Context, fn FilesSnapshotFunc) (Subscription, error)
}

// Subscription is a handle on an active snapshot subscription.
type Subscription interface {
	Close() error
}

// BlobStore holds uploaded file content. Locators are opaque to the
// catalog; it only passes them back for deletion and URL resolution.
// Delete failures are non-fatal to callers: the metadata store is
// authoritative.
type BlobStore interface {
	Put(ctx context.Context, name string, r io.Reader, size int64) (locator string, err error)
	Delete(ctx context.Context, locator string) error
	URL(ctx context.Context, locator string) (string, error)
}
