package localstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	errs "github.com/municipiolabs/gacetas/pkg/errors"
)

// Blobs stores file content under a local directory, implementing the
// catalog blob store contract. Locators are paths relative to the blob
// root.
type Blobs struct {
	dir string
}

// NewBlobs creates a directory-backed blob store rooted at dir.
func NewBlobs(dir string) (*Blobs, error) {
	if dir == "" {
		return nil, errs.NewValidationError("dir", dir, "blob directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.WrapIO("mkdir", dir, err)
	}
	return &Blobs{dir: dir}, nil
}

// Put copies the content beneath the blob root and returns the
// relative locator. The name may carry path separators; path escapes
// are rejected.
func (b *Blobs) Put(ctx context.Context, name string, content io.Reader, size int64) (string, error) {
	path, err := b.resolve(name)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errs.WrapIO("mkdir", filepath.Dir(path), err)
	}

	out, err := os.Create(path)
	if err != nil {
		return "", errs.WrapIO("create", path, err)
	}

	if _, err := io.Copy(out, content); err != nil {
		_ = out.Close()
		_ = os.Remove(path)
		return "", errs.WrapIO("write", path, err)
	}
	if err := out.Close(); err != nil {
		return "", errs.WrapIO("close", path, err)
	}
	return filepath.ToSlash(name), nil
}

// Delete removes a stored blob. Deleting an absent locator is not an
// error.
func (b *Blobs) Delete(ctx context.Context, locator string) error {
	path, err := b.resolve(locator)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errs.WrapIO("remove", path, err)
	}
	return nil
}

// URL returns a file URL for the stored blob.
func (b *Blobs) URL(ctx context.Context, locator string) (string, error) {
	path, err := b.resolve(locator)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errs.WrapIO("resolve", path, err)
	}
	return "file://" + filepath.ToSlash(abs), nil
}

// resolve maps a locator to a path inside the blob root.
func (b *Blobs) resolve(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", errs.NewValidationError("name", name, "escapes the blob directory")
	}
	return filepath.Join(b.dir, clean), nil
}
