package ocr

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	gax "github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/docintel/constants"
)

// visionPages is the page cap of the synchronous file annotation call.
var visionPages = []int32{1, 2, 3, 4, 5}

// annotator is the slice of the Vision client we call.
type annotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
	BatchAnnotateFiles(ctx context.Context, req *visionpb.BatchAnnotateFilesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateFilesResponse, error)
	Close() error
}

// VisionClient reads forms with Cloud Vision: document text detection first, plain text detection as fallback.
type VisionClient struct {
	api          annotator
	timeout      time.Duration
	maxFileBytes int64
	logger       *slog.Logger
}

// NewVisionClient dials Cloud Vision with application default credentials.
func NewVisionClient(ctx context.Context, timeout time.Duration, logger *slog.Logger) (*VisionClient, error) {
	api, err := vision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return nil, err
	}
	return newVisionClient(api, timeout, logger), nil
}

func newVisionClient(api annotator, timeout time.Duration, logger *slog.Logger) *VisionClient {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &VisionClient{api: api, timeout: timeout, maxFileBytes: constants.MaxUploadBytes, logger: logger}
}

func (c *VisionClient) Name() string { return ProviderVision }

// Close releases the underlying connection.
func (c *VisionClient) Close() error { return c.api.Close() }

// Extract runs DOCUMENT_TEXT_DETECTION, then TEXT_DETECTION when the first pass found nothing.
func (c *VisionClient) Extract(ctx context.Context, data []byte, mimeType string) (Result, error) {
	start := time.Now()
	if err := ValidateInput(data, mimeType, c.maxFileBytes); err != nil {
		return Result{}, err
	}

	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	for _, pass := range []struct {
		feature visionpb.Feature_Type
		method  string
	}{
		{visionpb.Feature_DOCUMENT_TEXT_DETECTION, "document_text"},
		{visionpb.Feature_TEXT_DETECTION, "text"},
	} {
		text, pages, err := c.annotate(ctx, data, mimeType, pass.feature)
		if err != nil {
			return Result{}, newError(Failure{Err: err})
		}
		if text = Normalize(text); text != "" {
			return Result{Text: text, Provider: ProviderVision, Method: pass.method, Pages: pages, Duration: time.Since(start)}, nil
		}
		c.logger.Debug("vision pass found no text", "method", pass.method)
	}
	return Result{}, newError(Failure{Err: ErrNoText})
}

func (c *VisionClient) annotate(ctx context.Context, data []byte, mimeType string, feature visionpb.Feature_Type) (string, int, error) {
	features := []*visionpb.Feature{{Type: feature}}
	if constants.IsPDF(mimeType) {
		return c.annotateFile(ctx, data, features)
	}

	resp, err := c.api.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:    &visionpb.Image{Content: data},
			Features: features,
		}},
	}, gax.WithTimeout(c.timeout))
	if err != nil {
		return "", 0, err
	}
	if len(resp.GetResponses()) == 0 {
		return "", 0, nil
	}
	text, err := imageText(resp.GetResponses()[0])
	return text, 1, err
}

// annotateFile sends a PDF inline; each page comes back as its own image response.
func (c *VisionClient) annotateFile(ctx context.Context, data []byte, features []*visionpb.Feature) (string, int, error) {
	resp, err := c.api.BatchAnnotateFiles(ctx, &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{{
			InputConfig: &visionpb.InputConfig{Content: data, MimeType: "application/pdf"},
			Features:    features,
			Pages:       visionPages,
		}},
	}, gax.WithTimeout(c.timeout))
	if err != nil {
		return "", 0, err
	}
	if len(resp.GetResponses()) == 0 {
		return "", 0, nil
	}
	file := resp.GetResponses()[0]
	if e := file.GetError(); e != nil && e.GetCode() != 0 {
		return "", 0, status.ErrorProto(e)
	}

	var parts []string
	for _, page := range file.GetResponses() {
		text, err := imageText(page)
		if err != nil {
			return "", 0, err
		}
		if strings.TrimSpace(text) != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n"), len(file.GetResponses()), nil
}

// imageText prefers the full document annotation and falls back to the first text annotation.
func imageText(r *visionpb.AnnotateImageResponse) (string, error) {
	if r == nil {
		return "", errors.New("empty vision response")
	}
	if e := r.GetError(); e != nil && e.GetCode() != 0 {
		return "", status.ErrorProto(e)
	}
	if t := r.GetFullTextAnnotation().GetText(); strings.TrimSpace(t) != "" {
		return t, nil
	}
	if anns := r.GetTextAnnotations(); len(anns) > 0 {
		return anns[0].GetDescription(), nil
	}
	return "", nil
}
