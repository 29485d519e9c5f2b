// Package ocr turns document bytes into text through an external OCR provider.
package ocr

import (
	"context"
	"time"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/common"
)

// Provider names, used in logs and metrics labels.
const (
	ProviderVision = "vision"
	ProviderSpace  = "ocrspace"
	ProviderLocal  = "local"
)

// Client extracts text from file bytes. Failures are *common.AppError values carrying an OCR_* code.
type Client interface {
	Extract(ctx context.Context, data []byte, mimeType string) (Result, error)
	Name() string
}

// Result is a successful extraction.
type Result struct {
	Text     string
	Provider string
	Method   string // "document_text" | "text" | "ocrspace" | "pdf-text" | "pdf-ocr" | "image-ocr"
	Pages    int
	Duration time.Duration
}

// ValidateInput rejects files the providers are not asked to read, before any network call.
func ValidateInput(data []byte, mimeType string, maxBytes int64) error {
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return common.NewCodedError(common.CodeFileTooLarge, nil)
	}
	if !constants.IsAllowedMime(mimeType) {
		return common.NewCodedError(common.CodeBadRequest, nil)
	}
	return nil
}

// withTimeout bounds a provider call; the deadline surfaces as OCR_TIMEOUT.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return common.WithTimeout(ctx, d)
}
