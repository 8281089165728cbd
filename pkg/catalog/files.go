package catalog

import (
	"fmt"
	"maps"
	"sort"
	"sync"
)

// Files is a concurrent safe map of file records.
type Files struct {
	mu    sync.RWMutex
	files map[FileID]*File
}

// FilesOption defines a function that configures a Files instance.
type FilesOption func(*Files)

// WithFilesList initializes the map from a slice of files.
func WithFilesList(files []File) FilesOption {
	return func(f *Files) {
		f.files = make(map[FileID]*File, len(files))
		for i := range files {
			copied := files[i]
			f.files[copied.ID] = &copied
		}
	}
}

// WithFilesMap initializes the map with existing files.
func WithFilesMap(files map[FileID]*File) FilesOption {
	return func(f *Files) {
		if files != nil {
			f.files = make(map[FileID]*File, len(files))
			maps.Copy(f.files, files)
		}
	}
}

// NewFiles creates a new Files map with optional configuration.
func NewFiles(opts ...FilesOption) *Files {
	f := &Files{
		files: make(map[FileID]*File),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Get returns a copy of a file by id and whether it exists.
func (f *Files) Get(id FileID) (File, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	file, ok := f.files[id]
	if !ok {
		return File{}, false
	}
	return *file, true
}

// Set sets a file by id, overwriting any existing entry.
func (f *Files) Set(file File) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[file.ID] = &file
}

// Add adds a file, returning an error if its id already exists.
func (f *Files) Add(file File) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.files[file.ID]; exists {
		return fmt.Errorf("file with ID %s already exists", file.ID)
	}

	f.files[file.ID] = &file
	return nil
}

// Delete removes a file by id. Returns an error if the file doesn't exist.
func (f *Files) Delete(id FileID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.files[id]; !exists {
		return fmt.Errorf("file with ID %s not found", id)
	}

	delete(f.files, id)
	return nil
}

// Exists checks if a file exists without returning it.
func (f *Files) Exists(id FileID) bool {
	f.mu.RLock()
	_, exists := f.files[id]
	f.mu.RUnlock()
	return exists
}

// Len returns the number of files.
func (f *Files) Len() int {
	f.mu.RLock()
	length := len(f.files)
	f.mu.RUnlock()
	return length
}

// CountByCategory returns the number of files assigned to the category.
func (f *Files) CountByCategory(id CategoryID) int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	count := 0
	for _, file := range f.files {
		if file.CategoryID == id {
			count++
		}
	}
	return count
}

// List returns copies of all files sorted by upload date descending
// (newest first), ties broken by id for a deterministic order.
func (f *Files) List() []File {
	f.mu.RLock()
	files := make([]File, 0, len(f.files))
	for _, file := range f.files {
		files = append(files, *file)
	}
	f.mu.RUnlock()

	sort.Slice(files, func(i, j int) bool {
		ti, tj := files[i].UploadDate.Time, files[j].UploadDate.Time
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return files[i].ID < files[j].ID
	})
	return files
}

// Replace swaps the entire collection for the given snapshot. Used by
// adapter change notifications so readers never observe a partial
// replace.
func (f *Files) Replace(files []File) {
	replacement := make(map[FileID]*File, len(files))
	for i := range files {
		copied := files[i]
		replacement[copied.ID] = &copied
	}

	f.mu.Lock()
	f.files = replacement
	f.mu.Unlock()
}
