// Package catalog provides the core catalog system for managing
// municipal documents. It owns the in-memory collections of files and
// categories, keeps them synchronized with a pluggable persistence
// adapter, and exposes the mutation and query operations the rest of
// the application is built on.
//
// The catalog is designed to be thread-safe: collections are guarded
// concurrent maps, and adapter change notifications replace a
// collection atomically so readers never observe a partial snapshot.
//
// Example usage:
//
//	store := catalog.NewStore(adapter,
//	    catalog.WithBlobStore(blobs),
//	    catalog.WithAccessChecker(session),
//	)
//	if err := store.Load(ctx); err != nil {
//	    log.Fatal().Err(err).Msg("catalog unavailable")
//	}
//	result := store.Query(catalog.FilterAll, "decreto")
package catalog

import (
	"github.com/agentstation/utc"
)

// CategoryID identifies a category. Locally assigned IDs are numeric
// timestamps; store-assigned IDs are opaque keys. Stable for the
// category's lifetime.
type CategoryID string

// FileID identifies a file, assigned at upload time.
type FileID string

// Category groups uploaded documents. Its FileCount is a denormalized
// count of files currently assigned to it and must always equal the
// true count of files whose CategoryID references it.
type Category struct {
	ID        CategoryID `json:"id"`                  // Unique identifier, stable for the category's lifetime
	Name      string     `json:"name"`                // Display name, unique case-insensitively among live categories
	Color     string     `json:"color"`               // Display color token, carried through unmodified
	FileCount int        `json:"fileCount"`           // Denormalized count of files assigned to this category
	CreatedBy string     `json:"createdBy,omitempty"` // Name of the admin that created the category
	CreatedAt utc.Time   `json:"createdAt"`           // Creation timestamp
	UpdatedAt utc.Time   `json:"updatedAt"`           // Last mutation timestamp
}

// File is one uploaded document's metadata record. The blob content
// itself lives behind the DownloadURL/StoragePath locators, which the
// catalog never interprets beyond handing them to a BlobStore.
type File struct {
	ID            FileID     `json:"id"`                    // Unique identifier, assigned at upload time
	Name          string     `json:"name"`                  // Original filename including extension
	Type          string     `json:"type"`                  // Lower-cased filename extension, derived
	Size          int64      `json:"size"`                  // Byte count
	FormattedSize string     `json:"formattedSize"`         // Human-readable size rendering
	Description   string     `json:"description"`           // Free text, auto-generated at upload, admin-editable
	CategoryID    CategoryID `json:"categoryId"`            // Owning category, live at upload time
	DownloadURL   string     `json:"downloadURL,omitempty"` // Opaque content locator for download/preview
	StoragePath   string     `json:"storagePath,omitempty"` // Opaque blob-store locator
	CoverColor    string     `json:"coverColor"`            // Display cover class derived from Type
	UploadedBy    string     `json:"uploadedBy,omitempty"`  // Name of the admin that uploaded the file
	ViewCount     int        `json:"viewCount"`             // Approximate preview counter
	DownloadCount int        `json:"downloadCount"`         // Approximate download counter
	UploadDate    utc.Time   `json:"uploadDate"`            // Set once at upload
}

