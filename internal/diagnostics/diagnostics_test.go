package diagnostics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

var okPing = pingerFunc(func(context.Context) error { return nil })

func TestChecker_AllPass(t *testing.T) {
	c := NewChecker(Deps{
		VisionProvider:      "vision",
		TranslationProvider: "google",
		Storage:             okPing,
		RecordStore:         okPing,
		ProjectID:           "docintel-prod",
	}, time.Second, nil)
	fixed := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	r := c.Run(context.Background(), "req-9")
	assert.True(t, r.OK)
	assert.Equal(t, "req-9", r.RequestID)
	assert.Equal(t, fixed, r.Timestamp)
	assert.Empty(t, r.Failed())
	assert.True(t, r.Checks[CheckVision].Initialized)
	assert.Equal(t, "docintel-prod", r.Checks[CheckProjectID].Value)
}

func TestChecker_Failures(t *testing.T) {
	tests := []struct {
		name   string
		deps   Deps
		failed []string
	}{
		{
			name:   "nothing configured",
			deps:   Deps{},
			failed: []string{CheckProjectID, CheckStorage, CheckTranslation, CheckVision},
		},
		{
			name: "storage down",
			deps: Deps{
				VisionProvider: "vision", TranslationProvider: "google", ProjectID: "p",
				Storage: pingerFunc(func(context.Context) error { return errors.New("connection refused") }),
			},
			failed: []string{CheckStorage},
		},
		{
			name: "record store times out",
			deps: Deps{
				VisionProvider: "vision", TranslationProvider: "google", ProjectID: "p", Storage: okPing,
				RecordStore: pingerFunc(func(ctx context.Context) error { <-ctx.Done(); return ctx.Err() }),
			},
			failed: []string{CheckRecordStore},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewChecker(tt.deps, 20*time.Millisecond, nil).Run(context.Background(), "req")
			assert.False(t, r.OK)
			assert.Equal(t, tt.failed, r.Failed())
		})
	}
}

func TestChecker_StorageErrorIsReported(t *testing.T) {
	deps := Deps{Storage: pingerFunc(func(context.Context) error { return errors.New("bucket missing") })}
	r := NewChecker(deps, time.Second, nil).Run(context.Background(), "req")

	s := r.Checks[CheckStorage]
	assert.True(t, s.Initialized)
	assert.False(t, s.OK)
	assert.Equal(t, "bucket missing", s.Error)
}
