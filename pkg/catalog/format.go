package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// sizeUnits are the binary-prefix units used by FormatFileSize.
var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// coverClasses maps a file type to its display cover class.
var coverClasses = map[string]string{
	"pdf":  "pdf-cover",
	"doc":  "doc-cover",
	"docx": "doc-cover",
	"jpg":  "image-cover",
	"jpeg": "image-cover",
	"png":  "image-cover",
	"gif":  "image-cover",
}

// coverIcons maps a file type to its display icon class.
var coverIcons = map[string]string{
	"pdf":  "fas fa-file-pdf",
	"doc":  "fas fa-file-word",
	"docx": "fas fa-file-word",
	"jpg":  "fas fa-file-image",
	"jpeg": "fas fa-file-image",
	"png":  "fas fa-file-image",
	"gif":  "fas fa-file-image",
}

// FileType returns the lower-cased extension of a filename, without the
// dot. A name without a dot yields the whole name lower-cased.
func FileType(filename string) string {
	parts := strings.Split(filename, ".")
	return strings.ToLower(parts[len(parts)-1])
}

// FormatFileSize renders a byte count using binary-prefix units, the
// value rounded to at most two decimals with trailing zeros trimmed.
// Zero and negative counts render as "0 Bytes".
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}

	const k = 1024
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(k)))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}

	value := math.Round(float64(bytes)/math.Pow(k, float64(i))*100) / 100
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + sizeUnits[i]
}

// CoverClass returns the display cover class for a file type,
// defaulting to the generic document cover.
func CoverClass(fileType string) string {
	if class, ok := coverClasses[fileType]; ok {
		return class
	}
	return "doc-cover"
}

// CoverIcon returns the display icon class for a file type.
func CoverIcon(fileType string) string {
	if icon, ok := coverIcons[fileType]; ok {
		return icon
	}
	return "fas fa-file"
}

// AutoDescription builds the default description assigned to a file at
// upload time.
func AutoDescription(fileType string, uploadedAt time.Time) string {
	return fmt.Sprintf("Documento %s subido el %s.",
		strings.ToUpper(fileType), uploadedAt.Format("02/01/2006"))
}
