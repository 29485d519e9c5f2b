package ingest

import (
	"path"
	"regexp"
)

var w9PathPattern = regexp.MustCompile(`^users/([^/]+)/laborers/([^/]+)/documents/w9/(.+)$`)

// UploadTarget identifies the laborer a W-9 upload belongs to.
type UploadTarget struct {
	UserID    string
	LaborerID string
	FileName  string
}

// MatchPath reports whether objectPath is a W-9 upload and which laborer it targets.
func MatchPath(objectPath string) (UploadTarget, bool) {
	m := w9PathPattern.FindStringSubmatch(objectPath)
	if m == nil {
		return UploadTarget{}, false
	}
	return UploadTarget{UserID: m[1], LaborerID: m[2], FileName: path.Base(m[3])}, true
}
