package constants

import (
	"path/filepath"
	"strings"
)

// MaxUploadBytes is the largest file either pipeline will hand to an OCR provider (20 MB).
const MaxUploadBytes int64 = 20 * 1024 * 1024

// DefaultChunkSize is the per-request character limit of the translation provider.
const DefaultChunkSize = 100_000

// AllowedExtensions holds the file extensions accepted for OCR.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// mimeByExt maps an allowed extension to the MIME type sent to providers.
var mimeByExt = map[string]string{
	"pdf":  "application/pdf",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// NormalizeMime lowercases a content type and strips parameters ("; charset=...").
func NormalizeMime(mimeType string) string {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if mt == "image/jpg" {
		mt = "image/jpeg"
	}
	return mt
}

// IsAllowedMime reports whether a content type is one of pdf, jpeg or png.
func IsAllowedMime(mimeType string) bool {
	switch NormalizeMime(mimeType) {
	case "application/pdf", "image/jpeg", "image/png":
		return true
	}
	return false
}

// IsAllowedExt reports whether a file extension (with or without the dot) is accepted.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

// MimeForExt returns the provider MIME type for an allowed extension, or "".
func MimeForExt(ext string) string {
	return mimeByExt[NormalizeExt(ext)]
}

// ResolveMime picks the effective MIME type from a declared content type and a file name.
// The declared type wins when it is allowed; otherwise the extension decides. Returns "" when neither is allowed.
func ResolveMime(declared, fileName string) string {
	if IsAllowedMime(declared) {
		return NormalizeMime(declared)
	}
	return MimeForExt(filepath.Ext(fileName))
}

// IsPDF reports whether the MIME type denotes a PDF document.
func IsPDF(mimeType string) bool {
	return NormalizeMime(mimeType) == "application/pdf"
}
