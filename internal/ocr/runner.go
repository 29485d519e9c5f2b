package ocr

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"time"
)

// stderrCap bounds how much tool stderr is kept for logs and error messages.
const stderrCap = 8 << 10

// Runner lets us stub pdftotext/pdftoppm/tesseract in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs OCR tools on the host.
type ExecRunner struct {
	Logger *slog.Logger
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start).Milliseconds()

	errOut := stderr.Bytes()
	if len(errOut) > stderrCap {
		errOut = errOut[:stderrCap]
	}
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		logger.Error("ocr tool failed", "tool", name, "elapsed_ms", elapsed, "error", err, "stderr", string(errOut))
		return stdout.Bytes(), errOut, err
	}
	logger.Debug("ocr tool ok", "tool", name, "elapsed_ms", elapsed, "stdout_bytes", stdout.Len())
	return stdout.Bytes(), errOut, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
