// Package scan implements the on-demand OCR and translation callable.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/chunker"
	"github.com/joseph-ayodele/docintel/internal/common"
	"github.com/joseph-ayodele/docintel/internal/metrics"
	"github.com/joseph-ayodele/docintel/internal/ocr"
	"github.com/joseph-ayodele/docintel/internal/storage"
	"github.com/joseph-ayodele/docintel/internal/translate"
)

// Request is the callable payload. FileURL is accepted as an older name for FileRef,
// and FileSizeBytes for FileSize.
type Request struct {
	FileRef       string `json:"fileRef,omitempty"`
	FileURL       string `json:"fileUrl,omitempty"`
	FileName      string `json:"fileName"`
	FileType      string `json:"fileType"`
	FileSize      int64  `json:"fileSize,omitempty"`
	FileSizeBytes int64  `json:"fileSizeBytes,omitempty"`
}

// size is the larger of the two declared sizes.
func (r Request) size() int64 {
	return max(r.FileSize, r.FileSizeBytes)
}

func (r Request) ref() string {
	if s := strings.TrimSpace(r.FileRef); s != "" {
		return s
	}
	return strings.TrimSpace(r.FileURL)
}

// Result is a successful scan. English/Spanish duplicate OriginalText/TranslatedText for older clients.
type Result struct {
	OK             bool   `json:"ok"`
	English        string `json:"english"`
	Spanish        string `json:"spanish"`
	OriginalText   string `json:"originalText"`
	TranslatedText string `json:"translatedText"`
	RequestID      string `json:"requestId"`
}

// ErrorPayload is the structured failure returned to callers.
type ErrorPayload struct {
	OK        bool           `json:"ok"`
	ErrorCode string         `json:"errorCode"`
	Message   string         `json:"message"`
	RequestID string         `json:"requestId"`
	Details   map[string]any `json:"details,omitempty"`
}

// NewErrorPayload converts any error into the callable error shape.
func NewErrorPayload(err error) ErrorPayload {
	appErr := common.AsAppError(err)
	return ErrorPayload{
		ErrorCode: appErr.Code,
		Message:   appErr.Message,
		RequestID: appErr.RequestID,
		Details:   appErr.Details,
	}
}

// Resolver fetches the bytes behind a file reference on behalf of a user. *storage.Resolver satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, userID, fileRef string, maxBytes int64) ([]byte, error)
}

// Translator translates chunks all-or-nothing. *translate.Client satisfies it.
type Translator interface {
	Translate(ctx context.Context, chunks []string, sourceLang, targetLang string) ([]string, error)
}

type Config struct {
	SourceLang string
	TargetLang string
	ChunkSize  int
	MaxBytes   int64
	Debug      bool
}

// Pipeline is safe for concurrent use; it keeps no per-request state.
type Pipeline struct {
	cfg        Config
	files      Resolver
	ocr        ocr.Client
	translator Translator
	metrics    *metrics.Recorder
	logger     *slog.Logger
}

// NewPipeline wires the scan dependencies. A nil translator returns the OCR text untranslated.
func NewPipeline(cfg Config, files Resolver, ocrClient ocr.Client, translator Translator, rec *metrics.Recorder, logger *slog.Logger) *Pipeline {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = constants.DefaultChunkSize
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = constants.MaxUploadBytes
	}
	if cfg.SourceLang == "" {
		cfg.SourceLang = "en"
	}
	if cfg.TargetLang == "" {
		cfg.TargetLang = "es"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{cfg: cfg, files: files, ocr: ocrClient, translator: translator, metrics: rec, logger: logger}
}

// Scan validates req, reads the file, OCRs it and translates the text.
// Errors are always *common.AppError values carrying the request id.
func (p *Pipeline) Scan(ctx context.Context, userID string, req Request) (res *Result, err error) {
	requestID := common.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = common.WithRequestID(ctx, requestID)
	}
	start := time.Now()
	log := p.logger.With("request_id", requestID, "user_id", userID)

	defer func() {
		if r := recover(); r != nil {
			err = common.NewCodedError(common.CodeUnknown, fmt.Errorf("panic: %v", r))
		}
		if err != nil {
			appErr := common.AsAppError(err)
			appErr.RequestID = requestID
			err = appErr
			if p.cfg.Debug {
				log.Error("scan failed", "code", appErr.Code, "error", appErr.Cause)
			} else {
				log.Error("scan failed", "code", appErr.Code)
			}
			p.metrics.ObserveScan(appErr.Code, time.Since(start))
			return
		}
		p.metrics.ObserveScan("OK", time.Since(start))
	}()

	mimeType, err := p.validate(userID, req)
	if err != nil {
		return nil, err
	}
	log.Info("scan started", "file_name", req.FileName, "file_type", mimeType, "file_size", req.size())

	data, err := p.files.Resolve(ctx, userID, req.ref(), p.cfg.MaxBytes)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrRefDenied):
			return nil, common.NewAppError(common.CodeBadRequest, "fileRef is not accessible.", err)
		case isTooLarge(err):
			return nil, common.NewCodedError(common.CodeFileTooLarge, err)
		}
		return nil, common.NewCodedError(common.CodeFileDownloadFailed, err)
	}

	extracted, err := p.ocr.Extract(ctx, data, mimeType)
	if err == nil && strings.TrimSpace(extracted.Text) == "" {
		err = common.NewCodedError(common.CodeNoTextDetected, nil)
	}
	p.metrics.ObserveOCR(p.ocr.Name(), resultLabel(err), extracted.Duration)
	if err != nil {
		return nil, err
	}
	log.Info("ocr complete", "provider", extracted.Provider, "method", extracted.Method, "chars", len(extracted.Text))

	translated := ""
	if p.translator != nil {
		chunks := chunker.Split(extracted.Text, p.cfg.ChunkSize)
		parts, err := p.translator.Translate(ctx, chunks, p.cfg.SourceLang, p.cfg.TargetLang)
		if err != nil {
			return nil, err
		}
		p.metrics.AddTranslatedChunks(len(parts))
		translated = translate.Join(parts)
		log.Info("translation complete", "chunks", len(chunks))
	}

	log.Info("scan complete", "elapsed_ms", time.Since(start).Milliseconds())
	return &Result{
		OK:             true,
		English:        extracted.Text,
		Spanish:        translated,
		OriginalText:   extracted.Text,
		TranslatedText: translated,
		RequestID:      requestID,
	}, nil
}

// validate runs every check that needs no network call, in the order callers rely on.
func (p *Pipeline) validate(userID string, req Request) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", common.NewCodedError(common.CodeUnauthenticated, nil)
	}
	if req.ref() == "" {
		return "", common.NewAppError(common.CodeBadRequest, "fileRef is required.", nil)
	}
	if req.size() > p.cfg.MaxBytes {
		appErr := common.NewCodedError(common.CodeFileTooLarge, nil)
		appErr.Details = map[string]any{"maxBytes": p.cfg.MaxBytes, "fileSize": req.size()}
		return "", appErr
	}
	mimeType := constants.ResolveMime(req.FileType, req.FileName)
	if mimeType == "" {
		return "", common.NewAppError(common.CodeBadRequest, "Unsupported file type. Allowed: PDF, JPG, JPEG, PNG.", nil)
	}
	return mimeType, nil
}

func isTooLarge(err error) bool {
	return err != nil && (errors.Is(err, storage.ErrTooLarge) || common.CodeOf(err) == common.CodeFileTooLarge)
}

func resultLabel(err error) string {
	if err == nil {
		return "OK"
	}
	return common.CodeOf(err)
}
