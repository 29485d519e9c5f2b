// Package translate sends chunked text through a translation provider.
package translate

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/docintel/internal/chunker"
	"github.com/joseph-ayodele/docintel/internal/common"
)

// Provider translates one chunk of text.
type Provider interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
	Name() string
}

// Client drives a Provider over an ordered chunk sequence.
type Client struct {
	provider Provider
	logger   *slog.Logger
}

func NewClient(provider Provider, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{provider: provider, logger: logger}
}

// Provider returns the wrapped provider.
func (c *Client) Provider() Provider { return c.provider }

// Translate translates chunks one at a time, in order. The first failure aborts the whole
// operation and no partial output is returned.
func (c *Client) Translate(ctx context.Context, chunks []string, sourceLang, targetLang string) ([]string, error) {
	out := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		start := time.Now()
		translated, err := c.provider.Translate(ctx, chunk, sourceLang, targetLang)
		if err != nil {
			code := Classify(err)
			c.logger.Error("translation chunk failed",
				"request_id", common.RequestIDFromContext(ctx),
				"provider", c.provider.Name(),
				"chunk", i+1,
				"chunks", len(chunks),
				"code", code,
				"error", err,
			)
			appErr := common.NewCodedError(code, err)
			appErr.Details = map[string]any{"chunkIndex": i, "chunkCount": len(chunks)}
			return nil, appErr
		}
		c.logger.Debug("translation chunk done",
			"request_id", common.RequestIDFromContext(ctx),
			"chunk", i+1,
			"chunks", len(chunks),
			"chars", len(chunk),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		out = append(out, translated)
	}
	return out, nil
}

// Join reassembles translated chunks, restoring the paragraph break between them.
func Join(parts []string) string {
	return strings.Join(parts, chunker.Separator)
}
