package scan

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docintel/internal/common"
	"github.com/joseph-ayodele/docintel/internal/ocr"
	"github.com/joseph-ayodele/docintel/internal/storage"
	"github.com/joseph-ayodele/docintel/internal/translate"
)

type fakeResolver struct {
	data  []byte
	err   error
	calls int
}

func (f *fakeResolver) Resolve(_ context.Context, _, _ string, _ int64) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

type fakeOCR struct {
	text  string
	err   error
	calls int
}

func (f *fakeOCR) Name() string { return "fake" }

func (f *fakeOCR) Extract(_ context.Context, _ []byte, _ string) (ocr.Result, error) {
	f.calls++
	if f.err != nil {
		return ocr.Result{}, f.err
	}
	return ocr.Result{Text: f.text, Provider: "fake"}, nil
}

// upperProvider "translates" by upper-casing and can fail on a given call.
type upperProvider struct {
	failOn int
	calls  int
}

func (p *upperProvider) Name() string { return "upper" }

func (p *upperProvider) Translate(_ context.Context, text, _, _ string) (string, error) {
	p.calls++
	if p.calls == p.failOn {
		return "", errors.New("rpc error: code = ResourceExhausted desc = quota exceeded")
	}
	return strings.ToUpper(text), nil
}

func validRequest() Request {
	return Request{FileRef: "s3://uploads/contract.pdf", FileName: "contract.pdf", FileType: "application/pdf", FileSize: 1024}
}

func TestScan_Success(t *testing.T) {
	tr := &upperProvider{}
	p := NewPipeline(Config{}, &fakeResolver{data: []byte("%PDF")}, &fakeOCR{text: "hello world"}, translate.NewClient(tr, nil), nil, nil)

	ctx := common.WithRequestID(context.Background(), "req-1")
	res, err := p.Scan(ctx, "user-1", validRequest())
	require.NoError(t, err)

	assert.True(t, res.OK)
	assert.Equal(t, "hello world", res.English)
	assert.Equal(t, "hello world", res.OriginalText)
	assert.Equal(t, "HELLO WORLD", res.Spanish)
	assert.Equal(t, "HELLO WORLD", res.TranslatedText)
	assert.Equal(t, "req-1", res.RequestID)
}

func TestScan_ValidationFailsBeforeNetwork(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		req    func(r *Request)
		code   string
		kind   common.Kind
	}{
		{"unauthenticated", "", func(r *Request) {}, common.CodeUnauthenticated, common.KindUnauthenticated},
		{"missing ref", "u1", func(r *Request) { r.FileRef = "" }, common.CodeBadRequest, common.KindInvalidArgument},
		{"25MB file", "u1", func(r *Request) { r.FileSize = 25 * 1024 * 1024 }, common.CodeFileTooLarge, common.KindInvalidArgument},
		{"25MB file as fileSizeBytes", "u1", func(r *Request) { r.FileSize = 0; r.FileSizeBytes = 25 * 1024 * 1024 }, common.CodeFileTooLarge, common.KindInvalidArgument},
		{"bad type", "u1", func(r *Request) { r.FileType = "text/plain"; r.FileName = "notes.txt" }, common.CodeBadRequest, common.KindInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, o, tr := &fakeResolver{}, &fakeOCR{text: "x"}, &upperProvider{}
			p := NewPipeline(Config{}, files, o, translate.NewClient(tr, nil), nil, nil)
			req := validRequest()
			tt.req(&req)

			res, err := p.Scan(context.Background(), tt.userID, req)
			require.Error(t, err)
			assert.Nil(t, res)

			appErr := common.AsAppError(err)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.kind, appErr.Kind)
			assert.NotEmpty(t, appErr.RequestID)
			assert.Zero(t, files.calls)
			assert.Zero(t, o.calls)
			assert.Zero(t, tr.calls)
		})
	}
}

func TestScan_AcceptsExtensionWhenTypeMissing(t *testing.T) {
	p := NewPipeline(Config{}, &fakeResolver{data: []byte("img")}, &fakeOCR{text: "ok"}, nil, nil, nil)
	req := validRequest()
	req.FileType = ""
	req.FileName = "photo.JPG"
	req.FileRef = ""
	req.FileURL = "https://example.com/photo.jpg"

	res, err := p.Scan(context.Background(), "u1", req)
	require.NoError(t, err)
	assert.Equal(t, "ok", res.English)
	assert.Empty(t, res.Spanish)
}

func TestScan_DownloadFailures(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{storage.ErrObjectNotFound, common.CodeFileDownloadFailed},
		{errors.New("connection reset"), common.CodeFileDownloadFailed},
		{storage.ErrTooLarge, common.CodeFileTooLarge},
		{storage.ErrRefDenied, common.CodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			o := &fakeOCR{text: "x"}
			p := NewPipeline(Config{}, &fakeResolver{err: tt.err}, o, nil, nil, nil)

			_, err := p.Scan(context.Background(), "u1", validRequest())
			assert.Equal(t, tt.code, common.CodeOf(err))
			assert.Zero(t, o.calls)
		})
	}
}

func TestScan_OCRFailurePropagatesCode(t *testing.T) {
	o := &fakeOCR{err: common.NewCodedError(common.CodeOCRQuota, errors.New("429"))}
	p := NewPipeline(Config{}, &fakeResolver{data: []byte("x")}, o, nil, nil, nil)

	_, err := p.Scan(context.Background(), "u1", validRequest())
	appErr := common.AsAppError(err)
	assert.Equal(t, common.CodeOCRQuota, appErr.Code)
	assert.Equal(t, common.KindInternal, appErr.Kind)
}

func TestScan_EmptyTextIsNoTextDetected(t *testing.T) {
	p := NewPipeline(Config{}, &fakeResolver{data: []byte("x")}, &fakeOCR{text: " \n"}, nil, nil, nil)

	_, err := p.Scan(context.Background(), "u1", validRequest())
	assert.Equal(t, common.CodeNoTextDetected, common.CodeOf(err))
}

func TestScan_TranslationIsAllOrNothing(t *testing.T) {
	text := strings.Repeat("a", 8) + "\n\n" + strings.Repeat("b", 8) + "\n\n" + strings.Repeat("c", 8)
	tr := &upperProvider{failOn: 2}
	p := NewPipeline(Config{ChunkSize: 10}, &fakeResolver{data: []byte("x")}, &fakeOCR{text: text}, translate.NewClient(tr, nil), nil, nil)

	res, err := p.Scan(context.Background(), "u1", validRequest())
	assert.Nil(t, res)
	appErr := common.AsAppError(err)
	assert.Equal(t, common.CodeTranslateQuota, appErr.Code)
	assert.Equal(t, 1, appErr.Details["chunkIndex"])
	assert.Equal(t, 3, appErr.Details["chunkCount"])
	assert.Equal(t, 2, tr.calls)
}

func TestScan_ChunkedTranslationReassembles(t *testing.T) {
	text := strings.Repeat("a", 8) + "\n\n" + strings.Repeat("b", 8)
	p := NewPipeline(Config{ChunkSize: 10}, &fakeResolver{data: []byte("x")}, &fakeOCR{text: text}, translate.NewClient(&upperProvider{}, nil), nil, nil)

	res, err := p.Scan(context.Background(), "u1", validRequest())
	require.NoError(t, err)
	assert.Equal(t, "AAAAAAAA\n\nBBBBBBBB", res.TranslatedText)
}

type panicOCR struct{}

func (panicOCR) Name() string { return "panic" }
func (panicOCR) Extract(context.Context, []byte, string) (ocr.Result, error) {
	panic("unexpected")
}

func TestScan_PanicBecomesUnknown(t *testing.T) {
	p := NewPipeline(Config{}, &fakeResolver{data: []byte("x")}, panicOCR{}, nil, nil, nil)

	_, err := p.Scan(context.Background(), "u1", validRequest())
	payload := NewErrorPayload(err)
	assert.False(t, payload.OK)
	assert.Equal(t, common.CodeUnknown, payload.ErrorCode)
	assert.Equal(t, common.SafeMessage(common.CodeUnknown), payload.Message)
	assert.NotEmpty(t, payload.RequestID)
}

func TestScan_RefusesReferencesOutsideCaller(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Upload(ctx, "", "users/bob/laborers/l1/documents/w9/w9.pdf", bytes.NewReader([]byte("%PDF")), 4, "application/pdf"))
	require.NoError(t, store.Upload(ctx, "", "users/alice/scans/w9.pdf", bytes.NewReader([]byte("%PDF")), 4, "application/pdf"))

	internal := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("%PDF"))
	}))
	t.Cleanup(internal.Close)

	resolver := storage.NewResolver(store, internal.Client(), 0, nil,
		storage.WithDefaultBucket("uploads"), storage.WithAllowedHosts("files.example.com"))

	tests := []struct {
		name string
		ref  string
	}{
		{"other user key", "users/bob/laborers/l1/documents/w9/w9.pdf"},
		{"other user bucket ref", "s3://uploads/users/bob/laborers/l1/documents/w9/w9.pdf"},
		{"foreign bucket", "gs://private/users/alice/scans/w9.pdf"},
		{"unlisted https host", internal.URL + "/admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &fakeOCR{text: "leaked"}
			p := NewPipeline(Config{}, resolver, o, nil, nil, nil)
			req := validRequest()
			req.FileRef = tt.ref

			res, err := p.Scan(ctx, "alice", req)
			assert.Nil(t, res)
			assert.Equal(t, common.CodeBadRequest, common.CodeOf(err))
			assert.Equal(t, common.KindInvalidArgument, common.AsAppError(err).Kind)
			assert.Zero(t, o.calls)
		})
	}

	o := &fakeOCR{text: "mine"}
	req := validRequest()
	req.FileRef = "s3://uploads/users/alice/scans/w9.pdf"
	res, err := NewPipeline(Config{}, resolver, o, nil, nil, nil).Scan(ctx, "alice", req)
	require.NoError(t, err)
	assert.Equal(t, "mine", res.English)
}

func TestRequest_FileSizeBytesAlias(t *testing.T) {
	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{"fileRef":"users/u1/a.pdf","fileSizeBytes":2048}`), &req))
	assert.Equal(t, int64(2048), req.size())
}
