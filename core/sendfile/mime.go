package sendfile

import (
	"path/filepath"
	"strings"
)

// DefaultMimeType is returned for unknown extensions
const DefaultMimeType = "application/octet-stream"

var mimeTypes = map[string]string{
	"json":  "application/json",
	"xml":   "application/xml",
	"html":  "text/html",
	"htm":   "text/html",
	"css":   "text/css",
	"js":    "text/javascript",
	"mjs":   "text/javascript",
	"txt":   "text/plain",
	"md":    "text/markdown",
	"csv":   "text/csv",
	"png":   "image/png",
	"jpg":   "image/jpeg",
	"jpeg":  "image/jpeg",
	"gif":   "image/gif",
	"svg":   "image/svg+xml",
	"ico":   "image/x-icon",
	"webp":  "image/webp",
	"pdf":   "application/pdf",
	"zip":   "application/zip",
	"gz":    "application/gzip",
	"wasm":  "application/wasm",
	"mp3":   "audio/mpeg",
	"wav":   "audio/wav",
	"mp4":   "video/mp4",
	"woff":  "font/woff",
	"woff2": "font/woff2",
	"bin":   DefaultMimeType,
	"exe":   DefaultMimeType,
	"dll":   DefaultMimeType,
}

// LookupMimeType returns the MIME type for a file extension given without
// the leading dot. Matching is case-insensitive.
func LookupMimeType(ext string) string {
	if t, ok := mimeTypes[strings.ToLower(ext)]; ok {
		return t
	}
	return DefaultMimeType
}

// GetContentType returns the MIME type for a file name based on its extension
func GetContentType(filename string) string {
	return LookupMimeType(strings.TrimPrefix(filepath.Ext(filename), "."))
}
