package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_ExposesPipelineMetrics(t *testing.T) {
	r := New()
	r.ObserveOCR("ocrspace", "OCR_QUOTA", 150*time.Millisecond)
	r.ObserveUpload("needs_review")
	r.ObserveScan("OK", 2*time.Second)
	r.AddTranslatedChunks(3)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `docintel_ocr_calls_total{provider="ocrspace",result="OCR_QUOTA"} 1`)
	assert.Contains(t, body, `docintel_w9_uploads_total{status="needs_review"} 1`)
	assert.Contains(t, body, `docintel_scan_requests_total{code="OK"} 1`)
	assert.Contains(t, body, `docintel_translated_chunks_total 3`)
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveOCR("vision", "OK", time.Second)
		r.ObserveUpload("complete")
		r.ObserveScan("UNKNOWN", time.Second)
		r.AddTranslatedChunks(1)
	})
}
