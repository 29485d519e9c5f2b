package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/docintel/constants"
)

const (
	DefaultSpaceURL = "https://api.ocr.space/parse/image"
	defaultTimeout  = 30 * time.Second
	maxResponseSize = 16 << 20
)

// SpaceConfig configures the OCR.space HTTP provider.
type SpaceConfig struct {
	APIKey       string
	Endpoint     string        // default DefaultSpaceURL
	Language     string        // default "eng"
	Engine       int           // OCREngine, default 2
	Timeout      time.Duration // client-side deadline, default 30s
	MaxFileBytes int64         // default 20 MiB
}

// SpaceClient reads documents through the OCR.space parse API in a single request.
type SpaceClient struct {
	cfg    SpaceConfig
	http   *http.Client
	schema *jsonschema.Schema
	logger *slog.Logger
}

// spaceResponseSchema is the subset of the OCR.space response we rely on.
const spaceResponseSchema = `{
  "type": "object",
  "required": ["IsErroredOnProcessing"],
  "properties": {
    "ParsedResults": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "ParsedText": {"type": ["string", "null"]},
          "FileParseExitCode": {"type": ["integer", "string"]},
          "ErrorMessage": {"type": ["string", "null"]},
          "ErrorDetails": {"type": ["string", "null"]}
        }
      }
    },
    "OCRExitCode": {"type": ["integer", "string"]},
    "IsErroredOnProcessing": {"type": "boolean"},
    "ErrorMessage": {"type": ["string", "array", "null"], "items": {"type": "string"}},
    "ErrorDetails": {"type": ["string", "null"]}
  }
}`

type spaceResponse struct {
	ParsedResults []struct {
		ParsedText   string `json:"ParsedText"`
		ErrorMessage string `json:"ErrorMessage"`
		ErrorDetails string `json:"ErrorDetails"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"`
	ErrorDetails          string          `json:"ErrorDetails"`
}

// errorText flattens ErrorMessage, which the API sends either as a string or a list of strings.
func (r spaceResponse) errorText() string {
	if len(r.ErrorMessage) == 0 {
		return r.ErrorDetails
	}
	var one string
	if err := json.Unmarshal(r.ErrorMessage, &one); err == nil {
		return strings.TrimSpace(one + " " + r.ErrorDetails)
	}
	var many []string
	if err := json.Unmarshal(r.ErrorMessage, &many); err == nil {
		return strings.TrimSpace(strings.Join(many, "; ") + " " + r.ErrorDetails)
	}
	return r.ErrorDetails
}

// NewSpaceClient builds the provider once per process. A nil httpClient uses a fresh http.Client.
func NewSpaceClient(cfg SpaceConfig, httpClient *http.Client, logger *slog.Logger) (*SpaceClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultSpaceURL
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.Engine <= 0 {
		cfg.Engine = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = constants.MaxUploadBytes
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("ocrspace.json", strings.NewReader(spaceResponseSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("ocrspace.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &SpaceClient{cfg: cfg, http: httpClient, schema: schema, logger: logger}, nil
}

func (c *SpaceClient) Name() string { return ProviderSpace }

// Configured reports whether an API key is present.
func (c *SpaceClient) Configured() bool { return c.cfg.APIKey != "" }

// Extract posts the file as a base64 data URL and returns the concatenated parsed text.
func (c *SpaceClient) Extract(ctx context.Context, data []byte, mimeType string) (Result, error) {
	start := time.Now()
	if err := ValidateInput(data, mimeType, c.cfg.MaxFileBytes); err != nil {
		return Result{}, err
	}
	if c.cfg.APIKey == "" {
		return Result{}, newError(Failure{Err: ErrAPIKeyMissing})
	}

	body, contentType, err := c.buildForm(data, mimeType)
	if err != nil {
		return Result{}, newError(Failure{Err: err})
	}

	ctx, cancel := withTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, body)
	if err != nil {
		return Result{}, newError(Failure{Err: err})
	}
	req.Header.Set("Content-Type", contentType)

	c.logger.Debug("ocr.space request", "bytes", len(data), "mime", mimeType, "language", c.cfg.Language)
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %v", ctx.Err(), err)
		}
		return Result{}, newError(Failure{Err: err})
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %v", ctx.Err(), err)
		}
		return Result{}, newError(Failure{Err: err, HTTPStatus: resp.StatusCode})
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("ocr.space non-200", "status", resp.StatusCode, "body", truncate(string(raw), 512))
		return Result{}, newError(Failure{
			Err:        fmt.Errorf("ocr.space returned http %d", resp.StatusCode),
			HTTPStatus: resp.StatusCode,
			Message:    truncate(string(raw), 512),
		})
	}

	parsed, err := c.decode(raw)
	if err != nil {
		c.logger.Warn("ocr.space malformed response", "error", err, "body", truncate(string(raw), 512))
		return Result{}, newError(Failure{Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err), HTTPStatus: resp.StatusCode})
	}

	if parsed.IsErroredOnProcessing {
		return Result{}, newError(Failure{Err: ErrProviderProcessing, HTTPStatus: resp.StatusCode, Message: parsed.errorText()})
	}

	var b strings.Builder
	for _, pr := range parsed.ParsedResults {
		page := strings.TrimSpace(pr.ParsedText)
		if page == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(page)
	}
	text := Normalize(b.String())
	if text == "" {
		return Result{}, newError(Failure{Err: ErrNoText, Message: parsed.errorText()})
	}

	return Result{
		Text:     text,
		Provider: ProviderSpace,
		Method:   ProviderSpace,
		Pages:    len(parsed.ParsedResults),
		Duration: time.Since(start),
	}, nil
}

func (c *SpaceClient) buildForm(data []byte, mimeType string) (io.Reader, string, error) {
	mimeType = constants.NormalizeMime(mimeType)
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"apikey", c.cfg.APIKey},
		{"language", c.cfg.Language},
		{"isOverlayRequired", "false"},
		{"OCREngine", fmt.Sprintf("%d", c.cfg.Engine)},
		{"filetype", spaceFileType(mimeType)},
		{"base64Image", "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func (c *SpaceClient) decode(raw []byte) (spaceResponse, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return spaceResponse{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := c.schema.Validate(v); err != nil {
		return spaceResponse{}, fmt.Errorf("response does not match schema: %w", err)
	}
	var out spaceResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return spaceResponse{}, fmt.Errorf("decode: %w", err)
	}
	return out, nil
}

func spaceFileType(mimeType string) string {
	switch mimeType {
	case "application/pdf":
		return "PDF"
	case "image/png":
		return "PNG"
	default:
		return "JPG"
	}
}
