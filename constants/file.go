package constants

import (
	"path/filepath"
	"strings"
)

// Format classes used to pick a normalization/extraction strategy.
const (
	PDF    = "PDF"
	IMAGE  = "IMAGE"
	TEXT   = "TEXT"
	OFFICE = "OFFICE"
	OTHER  = "OTHER"
)

// AllowedExtensions holds the default allowed file extensions for the
// upload-directory watcher.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"doc":  {},
	"docx": {},
	"ppt":  {},
	"pptx": {},
	"xls":  {},
	"xlsx": {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"tiff": {},
	"tif":  {},
	"bmp":  {},
	"gif":  {},
	"webp": {},
	"txt":  {},
	"csv":  {},
}

var imageExts = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {}, "tiff": {}, "tif": {},
	"bmp": {}, "gif": {}, "webp": {},
}

var officeExts = map[string]struct{}{
	"doc": {}, "docx": {}, "ppt": {}, "pptx": {}, "xls": {}, "xlsx": {},
	"odt": {}, "ods": {}, "odp": {}, "rtf": {},
}

var textExts = map[string]struct{}{
	"txt": {}, "csv": {}, "html": {}, "htm": {}, "xml": {}, "json": {},
	"yaml": {}, "yml": {}, "md": {}, "log": {}, "sql": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat classifies a normalized extension into a format class.
func MapExtToFormat(ext string) string {
	ext = NormalizeExt(ext)
	switch {
	case ext == "pdf":
		return PDF
	case hasKey(imageExts, ext):
		return IMAGE
	case hasKey(officeExts, ext):
		return OFFICE
	case hasKey(textExts, ext):
		return TEXT
	default:
		return OTHER
	}
}

var mimeByExt = map[string]string{
	"pdf":  "application/pdf",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"tiff": "image/tiff",
	"tif":  "image/tiff",
	"bmp":  "image/bmp",
	"gif":  "image/gif",
	"webp": "image/webp",
	"txt":  "text/plain",
	"csv":  "text/plain",
	"html": "text/html",
	"htm":  "text/html",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"doc":  "application/msword",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"ppt":  "application/vnd.ms-powerpoint",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"xls":  "application/vnd.ms-excel",
}

// MIMEType resolves a MIME type from the file extension. Unknown
// extensions default to application/pdf, which is what the extraction
// service expects for converted documents.
func MIMEType(path string) string {
	ext := NormalizeExt(filepath.Ext(path))
	if mt, ok := mimeByExt[ext]; ok {
		return mt
	}
	if hasKey(textExts, ext) {
		return "text/plain"
	}
	return "application/pdf"
}

func hasKey(m map[string]struct{}, k string) bool {
	_, ok := m[k]
	return ok
}
