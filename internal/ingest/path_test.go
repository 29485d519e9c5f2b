package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchPath(t *testing.T) {
	tests := []struct {
		path string
		want UploadTarget
		ok   bool
	}{
		{"users/u1/laborers/l9/documents/w9/form.pdf", UploadTarget{"u1", "l9", "form.pdf"}, true},
		{"users/u1/laborers/l9/documents/w9/2026/scan.png", UploadTarget{"u1", "l9", "scan.png"}, true},
		{"users/u1/laborers/l9/documents/id/form.pdf", UploadTarget{}, false},
		{"users/u1/laborers/l9/documents/w9/", UploadTarget{}, false},
		{"tenants/u1/laborers/l9/documents/w9/form.pdf", UploadTarget{}, false},
		{"users//laborers/l9/documents/w9/form.pdf", UploadTarget{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := MatchPath(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsHidden(t *testing.T) {
	assert.True(t, IsHidden(".form.pdf.part"))
	assert.True(t, IsHidden("users/u1/.tmp/documents/w9/form.pdf"))
	assert.False(t, IsHidden("users/u1/laborers/l9/documents/w9/form.pdf"))
	assert.False(t, IsHidden("./form.pdf"))
}
