package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joseph-ayodele/docintel/constants"
)

// LocalConfig configures the host-binary provider.
type LocalConfig struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	TessdataDir   string
	DPI           int // rasterization DPI for scanned PDFs, default 300
	MaxPages      int // 0 = no limit
	PSM           int // e.g., 6 is good for uniform block of text

	Timeout      time.Duration
	MaxFileBytes int64
}

// LocalClient reads documents with pdftotext, falling back to pdftoppm + tesseract for scanned PDFs.
type LocalClient struct {
	cfg    LocalConfig
	runner Runner
	logger *slog.Logger
}

// NewLocalClient builds the provider; a nil runner executes real binaries.
func NewLocalClient(cfg LocalConfig, runner Runner, logger *slog.Logger) *LocalClient {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = constants.MaxUploadBytes
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	return &LocalClient{cfg: cfg, runner: runner, logger: logger}
}

func (c *LocalClient) Name() string { return ProviderLocal }

// Extract writes the bytes to a temp file and runs the binaries over it.
func (c *LocalClient) Extract(ctx context.Context, data []byte, mimeType string) (Result, error) {
	start := time.Now()
	if err := ValidateInput(data, mimeType, c.cfg.MaxFileBytes); err != nil {
		return Result{}, err
	}

	ctx, cancel := withTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	tmpDir, err := os.MkdirTemp("", "docintel-ocr-*")
	if err != nil {
		return Result{}, newError(Failure{Err: err})
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			c.logger.Warn("failed to remove temp dir", "path", tmpDir, "error", err)
		}
	}()

	ext := ".png"
	switch constants.NormalizeMime(mimeType) {
	case "application/pdf":
		ext = ".pdf"
	case "image/jpeg":
		ext = ".jpg"
	}
	path := filepath.Join(tmpDir, "input"+ext)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return Result{}, newError(Failure{Err: err})
	}

	var (
		text   string
		pages  int
		method string
	)
	if constants.IsPDF(mimeType) {
		text, pages, method, err = c.extractPDF(ctx, path, tmpDir)
	} else {
		method = "image-ocr"
		pages = 1
		text, err = c.tesseract(ctx, path)
	}
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %v", ctx.Err(), err)
		}
		return Result{}, newError(Failure{Err: err})
	}

	text = Normalize(text)
	if text == "" {
		return Result{}, newError(Failure{Err: ErrNoText})
	}
	c.logger.Debug("local ocr done", "method", method, "pages", pages, "chars", len(text))
	return Result{Text: text, Provider: ProviderLocal, Method: method, Pages: pages, Duration: time.Since(start)}, nil
}

// extractPDF prefers the embedded text layer and rasterizes only when it is empty.
func (c *LocalClient) extractPDF(ctx context.Context, path, tmpDir string) (string, int, string, error) {
	out, errb, err := c.runner.Run(ctx, c.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err == nil && strings.TrimSpace(string(out)) != "" {
		text := string(out)
		return text, 1 + strings.Count(strings.TrimRight(text, "\f"), "\f"), "pdf-text", nil
	}
	if err != nil {
		c.logger.Debug("pdftotext failed, rasterizing", "error", err, "stderr", truncate(string(errb), 512))
	}

	prefix := filepath.Join(tmpDir, "page")
	if _, errb, err := c.runner.Run(ctx, c.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", c.cfg.DPI), "-png", path, prefix); err != nil {
		return "", 0, "pdf-ocr", fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 512))
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if c.cfg.MaxPages > 0 && len(matches) > c.cfg.MaxPages {
		matches = matches[:c.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", 0, "pdf-ocr", errors.New("pdftoppm produced no pages")
	}

	var b strings.Builder
	var lastErr error
	for _, img := range matches {
		txt, err := c.tesseract(ctx, img)
		if err != nil {
			lastErr = err
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(txt)
	}
	if b.Len() == 0 && lastErr != nil {
		return "", len(matches), "pdf-ocr", lastErr
	}
	return b.String(), len(matches), "pdf-ocr", nil
}

func (c *LocalClient) tesseract(ctx context.Context, path string) (string, error) {
	args := []string{path, "stdout", "-l", c.cfg.TesseractLang}
	if c.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", c.cfg.PSM))
	}
	if c.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", c.cfg.TessdataDir)
	}
	out, errb, err := c.runner.Run(ctx, c.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	return string(out), nil
}
