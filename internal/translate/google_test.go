package translate

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/translate/apiv3/translatepb"
	gax "github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTranslationAPI struct {
	req      *translatepb.TranslateTextRequest
	deadline time.Time
	bounded  bool
	opts     int
	block    bool
}

func (f *fakeTranslationAPI) TranslateText(ctx context.Context, req *translatepb.TranslateTextRequest, opts ...gax.CallOption) (*translatepb.TranslateTextResponse, error) {
	f.req = req
	f.deadline, f.bounded = ctx.Deadline()
	f.opts = len(opts)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &translatepb.TranslateTextResponse{
		Translations: []*translatepb.Translation{{TranslatedText: "hola mundo"}},
	}, nil
}

func (f *fakeTranslationAPI) Close() error { return nil }

func TestGoogleProvider_BuildsRequest(t *testing.T) {
	api := &fakeTranslationAPI{}
	p := newGoogleProvider(api, "my-project", 0)

	out, err := p.Translate(context.Background(), "hello world", "en", "es")
	require.NoError(t, err)
	assert.Equal(t, "hola mundo", out)
	assert.Equal(t, "projects/my-project/locations/global", api.req.GetParent())
	assert.Equal(t, "en", api.req.GetSourceLanguageCode())
	assert.Equal(t, "es", api.req.GetTargetLanguageCode())
	assert.Equal(t, "text/plain", api.req.GetMimeType())
	assert.Equal(t, []string{"hello world"}, api.req.GetContents())
}

func TestGoogleProvider_BoundsEachCall(t *testing.T) {
	api := &fakeTranslationAPI{}
	p := newGoogleProvider(api, "my-project", 2*time.Second)

	start := time.Now()
	_, err := p.Translate(context.Background(), "hello", "en", "es")
	require.NoError(t, err)
	require.True(t, api.bounded)
	assert.WithinDuration(t, start.Add(2*time.Second), api.deadline, time.Second)
	assert.Equal(t, 1, api.opts)
}

func TestGoogleProvider_TimesOut(t *testing.T) {
	p := newGoogleProvider(&fakeTranslationAPI{block: true}, "my-project", 20*time.Millisecond)

	_, err := p.Translate(context.Background(), "hello", "en", "es")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
