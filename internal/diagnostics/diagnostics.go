// Package diagnostics reports whether the pipelines' dependencies are usable.
package diagnostics

import (
	"context"
	"log/slog"
	"sort"
	"time"
)

// Check names in the report.
const (
	CheckVision      = "vision"
	CheckTranslation = "translation"
	CheckStorage     = "storage"
	CheckProjectID   = "projectId"
	CheckRecordStore = "recordStore"
)

// Pinger is any dependency with a cheap liveness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check is the outcome of one dependency probe.
type Check struct {
	OK          bool   `json:"ok"`
	Initialized bool   `json:"initialized"`
	Provider    string `json:"provider,omitempty"`
	Value       string `json:"value,omitempty"`
	Error       string `json:"error,omitempty"`
	LatencyMs   int64  `json:"latencyMs,omitempty"`
}

// Report is the diagnostics response body.
type Report struct {
	OK        bool             `json:"ok"`
	RequestID string           `json:"requestId"`
	Timestamp time.Time        `json:"timestamp"`
	Checks    map[string]Check `json:"checks"`
}

// Failed lists the names of failing checks in order.
func (r Report) Failed() []string {
	var out []string
	for name, c := range r.Checks {
		if !c.OK {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Deps are the handles to probe. Nil handles report as not initialized.
type Deps struct {
	VisionProvider      string // name of the upload-flow OCR client, "" when none was built
	TranslationProvider string // name of the translation provider, "" when disabled
	Storage             Pinger
	RecordStore         Pinger
	ProjectID           string
}

type Checker struct {
	deps    Deps
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

func NewChecker(deps Deps, timeout time.Duration, logger *slog.Logger) *Checker {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{deps: deps, timeout: timeout, logger: logger, now: time.Now}
}

// Run probes every dependency. The report is OK only when every check is.
func (c *Checker) Run(ctx context.Context, requestID string) Report {
	r := Report{
		RequestID: requestID,
		Timestamp: c.now().UTC(),
		Checks: map[string]Check{
			CheckVision:      initialized(c.deps.VisionProvider),
			CheckTranslation: initialized(c.deps.TranslationProvider),
			CheckProjectID:   {OK: c.deps.ProjectID != "", Initialized: c.deps.ProjectID != "", Value: c.deps.ProjectID},
			CheckStorage:     c.ping(ctx, c.deps.Storage),
		},
	}
	if c.deps.RecordStore != nil {
		r.Checks[CheckRecordStore] = c.ping(ctx, c.deps.RecordStore)
	}

	r.OK = true
	for _, check := range r.Checks {
		r.OK = r.OK && check.OK
	}
	if !r.OK {
		c.logger.Warn("diagnostics failing", "request_id", requestID, "checks", r.Failed())
	}
	return r
}

func initialized(provider string) Check {
	return Check{OK: provider != "", Initialized: provider != "", Provider: provider}
}

func (c *Checker) ping(ctx context.Context, p Pinger) Check {
	if p == nil {
		return Check{}
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := p.Ping(ctx)
	check := Check{OK: err == nil, Initialized: true, LatencyMs: time.Since(start).Milliseconds()}
	if err != nil {
		check.Error = err.Error()
	}
	return check
}
