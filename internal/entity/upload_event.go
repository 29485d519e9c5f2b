package entity

// UploadEvent is the "new file" notification consumed by the upload pipeline.
type UploadEvent struct {
	Path        string  `json:"path"`
	Bucket      string  `json:"bucket"`
	ContentType string  `json:"contentType"`
	MediaLink   *string `json:"mediaLink,omitempty"`
	Size        int64   `json:"size,omitempty"`
}
