// Package ingest drives W-9 uploads from a storage event to an updated laborer record.
package ingest

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/common"
	"github.com/joseph-ayodele/docintel/internal/entity"
	"github.com/joseph-ayodele/docintel/internal/metrics"
	"github.com/joseph-ayodele/docintel/internal/ocr"
	"github.com/joseph-ayodele/docintel/internal/repository"
	"github.com/joseph-ayodele/docintel/internal/storage"
	"github.com/joseph-ayodele/docintel/internal/w9"
)

// Fetcher downloads uploaded objects. storage.Store satisfies it.
type Fetcher interface {
	Download(ctx context.Context, bucket, key string, maxBytes int64) ([]byte, error)
}

// Pipeline processes one upload event per Handle call. It holds no per-event state.
type Pipeline struct {
	files    Fetcher
	ocr      ocr.Client
	laborers repository.Laborers
	metrics  *metrics.Recorder
	logger   *slog.Logger
	maxBytes int64
	now      func() time.Time
}

type PipelineOption func(*Pipeline)

func WithMetrics(m *metrics.Recorder) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

func WithMaxBytes(n int64) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxBytes = n
		}
	}
}

func NewPipeline(files Fetcher, ocrClient ocr.Client, laborers repository.Laborers, logger *slog.Logger, opts ...PipelineOption) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		files:    files,
		ocr:      ocrClient,
		laborers: laborers,
		logger:   logger,
		maxBytes: constants.MaxUploadBytes,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Handle runs the upload state machine for ev. Unrelated paths are ignored.
// Processing failures end in the failed status, not in a returned error; only a failed
// status write is returned. A record deleted mid-flight ends the run quietly.
func (p *Pipeline) Handle(ctx context.Context, ev entity.UploadEvent) error {
	target, ok := MatchPath(ev.Path)
	if !ok {
		p.logger.Debug("ignoring non-W-9 upload", "path", ev.Path)
		return nil
	}
	start := time.Now()
	log := p.logger.With("user_id", target.UserID, "laborer_id", target.LaborerID, "path", ev.Path)
	log.Info("W-9 upload received", "content_type", ev.ContentType, "bucket", ev.Bucket)

	mimeType := constants.ResolveMime(ev.ContentType, target.FileName)
	if mimeType == "" {
		log.Warn("unsupported W-9 file type", "content_type", ev.ContentType)
		return p.finish(ctx, log, target, failedPatch(unsupportedTypeMessage, p.now()), constants.OcrStatusFailed)
	}

	if err := p.laborers.Merge(ctx, target.UserID, target.LaborerID, processingPatch(ev.Path, p.now())); err != nil {
		return p.writeErr(log, err)
	}

	data, err := p.files.Download(ctx, ev.Bucket, ev.Path, p.maxBytes)
	if err != nil {
		code := common.CodeFileDownloadFailed
		if errors.Is(err, storage.ErrTooLarge) {
			code = common.CodeFileTooLarge
		}
		log.Error("W-9 download failed", "error", err)
		return p.finish(ctx, log, target, failedPatch(common.SafeMessage(code), p.now()), constants.OcrStatusFailed)
	}

	res, err := p.ocr.Extract(ctx, data, mimeType)
	if err == nil && strings.TrimSpace(res.Text) == "" {
		err = common.NewCodedError(common.CodeNoTextDetected, nil)
	}
	p.metrics.ObserveOCR(p.ocr.Name(), resultLabel(err), res.Duration)
	if err != nil {
		appErr := common.AsAppError(err)
		log.Error("W-9 OCR failed", "code", appErr.Code, "error", err)
		return p.finish(ctx, log, target, failedPatch(appErr.Message, p.now()), constants.OcrStatusFailed)
	}

	parsed := w9.Parse(res.Text)
	existing, err := p.laborers.Get(ctx, target.UserID, target.LaborerID)
	if err != nil {
		return p.writeErr(log, err)
	}
	patch, status := resultPatch(parsed, existing, p.now())
	log.Info("W-9 parsed",
		"confidence", parsed.Confidence,
		"fields_found", len(parsed.Fields),
		"ocr_method", res.Method,
		"elapsed_ms", time.Since(start).Milliseconds())
	return p.finish(ctx, log, target, patch, status)
}

func (p *Pipeline) finish(ctx context.Context, log *slog.Logger, target UploadTarget, patch repository.Patch, status constants.OcrStatus) error {
	if err := p.laborers.Merge(ctx, target.UserID, target.LaborerID, patch); err != nil {
		return p.writeErr(log, err)
	}
	p.metrics.ObserveUpload(string(status))
	log.Info("W-9 status updated", "status", status)
	return nil
}

func (p *Pipeline) writeErr(log *slog.Logger, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		log.Warn("laborer record no longer exists, stopping")
		return nil
	}
	log.Error("laborer record update failed", "error", err)
	return common.WrapError(err, "update laborer record")
}

func resultLabel(err error) string {
	if err == nil {
		return "OK"
	}
	return common.CodeOf(err)
}
