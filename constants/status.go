package constants

// OcrStatus is the value stored in a laborer record's w9OcrStatus field.
type OcrStatus string

// Stable values (store these exact strings).
const (
	OcrStatusIdle        OcrStatus = "idle"         // nothing uploaded yet
	OcrStatusProcessing  OcrStatus = "processing"   // upload accepted, OCR running
	OcrStatusComplete    OcrStatus = "complete"     // fields written
	OcrStatusNeedsReview OcrStatus = "needs_review" // low confidence, prior data kept
	OcrStatusFailed      OcrStatus = "failed"       // terminal failure, w9OcrError set
)

// IsTerminal reports whether a pipeline run ends in this status.
func (s OcrStatus) IsTerminal() bool {
	switch s {
	case OcrStatusComplete, OcrStatusNeedsReview, OcrStatusFailed:
		return true
	}
	return false
}
