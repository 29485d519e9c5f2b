package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/docintel/internal/auth"
	"github.com/joseph-ayodele/docintel/internal/common"
	"github.com/joseph-ayodele/docintel/internal/diagnostics"
	"github.com/joseph-ayodele/docintel/internal/metrics"
	"github.com/joseph-ayodele/docintel/internal/scan"
)

type fakeScanner struct {
	gotUser string
	gotReq  scan.Request
	err     error
}

func (f *fakeScanner) Scan(ctx context.Context, userID string, req scan.Request) (*scan.Result, error) {
	f.gotUser, f.gotReq = userID, req
	if f.err != nil {
		return nil, f.err
	}
	rid := common.RequestIDFromContext(ctx)
	return &scan.Result{OK: true, English: "hi", Spanish: "hola", OriginalText: "hi", TranslatedText: "hola", RequestID: rid}, nil
}

type fakeDiagnoser struct{ ok bool }

func (f fakeDiagnoser) Run(_ context.Context, requestID string) diagnostics.Report {
	return diagnostics.Report{
		OK:        f.ok,
		RequestID: requestID,
		Checks:    map[string]diagnostics.Check{diagnostics.CheckVision: {OK: f.ok, Initialized: f.ok}},
	}
}

type fakeExporter struct{}

func (fakeExporter) ReviewQueueXLSX(context.Context, string) ([]byte, error) {
	return []byte("PK"), nil
}

func newTestRouter(s Scanner, d Diagnoser) http.Handler {
	return NewRouter(RouterDeps{
		Scanner:       s,
		Diagnostics:   d,
		Exporter:      fakeExporter{},
		Authenticator: auth.NoneAuthenticator{},
		Metrics:       metrics.New(),
	})
}

func TestScanEndpoint_Success(t *testing.T) {
	s := &fakeScanner{}
	h := newTestRouter(s, fakeDiagnoser{ok: true})

	body := `{"fileRef":"s3://uploads/a.pdf","fileName":"a.pdf","fileType":"application/pdf","fileSize":10}`
	req := httptest.NewRequest(http.MethodPost, "/v1/scan", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestIDHeader, "req-abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-abc", rec.Header().Get(requestIDHeader))
	assert.Equal(t, auth.LocalUserID, s.gotUser)
	assert.Equal(t, "s3://uploads/a.pdf", s.gotReq.FileRef)

	var res scan.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.OK)
	assert.Equal(t, "hola", res.Spanish)
	assert.Equal(t, "req-abc", res.RequestID)
}

func TestScanEndpoint_ErrorPayload(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unauthenticated", common.NewCodedError(common.CodeUnauthenticated, nil), http.StatusUnauthorized, common.CodeUnauthenticated},
		{"too large", common.NewCodedError(common.CodeFileTooLarge, nil), http.StatusBadRequest, common.CodeFileTooLarge},
		{"ocr", common.NewCodedError(common.CodeOCRTimeout, nil), http.StatusInternalServerError, common.CodeOCRTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := common.AsAppError(tt.err)
			appErr.RequestID = "req-1"
			h := newTestRouter(&fakeScanner{err: appErr}, fakeDiagnoser{ok: true})

			req := httptest.NewRequest(http.MethodPost, "/v1/scan", bytes.NewBufferString(`{}`))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			var payload scan.ErrorPayload
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
			assert.False(t, payload.OK)
			assert.Equal(t, tt.code, payload.ErrorCode)
			assert.Equal(t, common.SafeMessage(tt.code), payload.Message)
			assert.Equal(t, "req-1", payload.RequestID)
		})
	}
}

func TestScanEndpoint_MalformedBody(t *testing.T) {
	s := &fakeScanner{}
	h := newTestRouter(s, fakeDiagnoser{ok: true})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/scan", bytes.NewBufferString(`{"fileRef":`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), common.CodeBadRequest)
	assert.Empty(t, s.gotUser)
}

func TestScanEndpoint_IdentityCheckedBeforeBody(t *testing.T) {
	s := &fakeScanner{}
	h := NewRouter(RouterDeps{
		Scanner:       s,
		Diagnostics:   fakeDiagnoser{ok: true},
		Authenticator: auth.NewHMACAuthenticator([]byte("secret"), "", "", nil),
		Metrics:       metrics.New(),
	})

	for _, body := range []string{`{"fileRef":`, `{"fileRef":"users/u1/a.pdf"}`} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/scan", bytes.NewBufferString(body)))

		assert.Equal(t, http.StatusUnauthorized, rec.Code, body)
		var payload scan.ErrorPayload
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Equal(t, common.CodeUnauthenticated, payload.ErrorCode)
		assert.NotEmpty(t, payload.RequestID)
	}
	assert.Empty(t, s.gotUser)
}

func TestDiagnosticsEndpoint(t *testing.T) {
	for _, ok := range []bool{true, false} {
		h := newTestRouter(&fakeScanner{}, fakeDiagnoser{ok: ok})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/diagnostics", nil))

		want := http.StatusOK
		if !ok {
			want = http.StatusServiceUnavailable
		}
		assert.Equal(t, want, rec.Code)

		var report diagnostics.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.Equal(t, ok, report.OK)
		assert.NotEmpty(t, report.RequestID)
		assert.Contains(t, report.Checks, diagnostics.CheckVision)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(&fakeScanner{}, fakeDiagnoser{ok: true})

	req := httptest.NewRequest(http.MethodOptions, "/v1/diagnostics", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodGet)
}

func TestReviewQueueEndpoint(t *testing.T) {
	h := newTestRouter(&fakeScanner{}, fakeDiagnoser{ok: true})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/review-queue.xlsx", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, "PK", rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(&fakeScanner{}, fakeDiagnoser{ok: true})
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "docintel_http_requests_total")
}

func TestHealthServer_MirrorsDiagnostics(t *testing.T) {
	ctx := context.Background()
	for _, tt := range []struct {
		ok   bool
		want healthpb.HealthCheckResponse_ServingStatus
	}{
		{true, healthpb.HealthCheckResponse_SERVING},
		{false, healthpb.HealthCheckResponse_NOT_SERVING},
	} {
		hs := NewHealthServer(fakeDiagnoser{ok: tt.ok}, 0, nil)
		hs.Refresh(ctx)

		for _, svc := range []string{"", ScanService} {
			resp, err := hs.hs.Check(ctx, &healthpb.HealthCheckRequest{Service: svc})
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.GetStatus())
		}
	}
}
