package translate

import (
	"context"
	"fmt"
	"time"

	translateapi "cloud.google.com/go/translate/apiv3"
	"cloud.google.com/go/translate/apiv3/translatepb"
	gax "github.com/googleapis/gax-go/v2"

	"github.com/joseph-ayodele/docintel/internal/common"
)

const defaultCallTimeout = 30 * time.Second

// translationAPI is the slice of the Cloud Translation client we call.
type translationAPI interface {
	TranslateText(ctx context.Context, req *translatepb.TranslateTextRequest, opts ...gax.CallOption) (*translatepb.TranslateTextResponse, error)
	Close() error
}

// GoogleProvider calls Cloud Translation v3 for a fixed project. Each call is bounded by timeout.
type GoogleProvider struct {
	api     translationAPI
	parent  string
	timeout time.Duration
}

// NewGoogleProvider dials Cloud Translation with application default credentials.
func NewGoogleProvider(ctx context.Context, projectID string, timeout time.Duration) (*GoogleProvider, error) {
	if projectID == "" {
		return nil, fmt.Errorf("translate: project id is required")
	}
	api, err := translateapi.NewTranslationClient(ctx)
	if err != nil {
		return nil, err
	}
	return newGoogleProvider(api, projectID, timeout), nil
}

func newGoogleProvider(api translationAPI, projectID string, timeout time.Duration) *GoogleProvider {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &GoogleProvider{api: api, parent: fmt.Sprintf("projects/%s/locations/global", projectID), timeout: timeout}
}

func (p *GoogleProvider) Name() string { return "google" }

// Close releases the underlying connection.
func (p *GoogleProvider) Close() error { return p.api.Close() }

func (p *GoogleProvider) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	ctx, cancel := common.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.api.TranslateText(ctx, &translatepb.TranslateTextRequest{
		Parent:             p.parent,
		SourceLanguageCode: sourceLang,
		TargetLanguageCode: targetLang,
		MimeType:           "text/plain",
		Contents:           []string{text},
	}, gax.WithTimeout(p.timeout))
	if err != nil {
		return "", err
	}
	if len(resp.GetTranslations()) == 0 {
		return "", fmt.Errorf("translate: empty response")
	}
	return resp.GetTranslations()[0].GetTranslatedText(), nil
}
