package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, 30*time.Second, cfg.OCR.Timeout)
	assert.Equal(t, int64(20*1024*1024), cfg.OCR.MaxFileBytes)
	assert.Equal(t, "en", cfg.Translate.SourceLang)
	assert.Equal(t, "es", cfg.Translate.TargetLang)
	assert.Equal(t, 100000, cfg.Translate.ChunkSize)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "none", cfg.Auth.Mode)
	assert.Equal(t, 4, cfg.Ingest.Workers)
	assert.Equal(t, 256, cfg.Ingest.QueueSize)
	assert.Equal(t, 3*time.Minute, cfg.Ingest.Timeout)
	assert.False(t, cfg.Storage.UsesMinio())
	assert.Equal(t, 30*time.Second, cfg.Translate.Timeout)
	assert.Empty(t, cfg.Storage.AllowedDownloadHosts())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("OCR_TIMEOUT", "10s")
	t.Setenv("TRANSLATE_TARGET_LANG", "fr")
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("AUTH_MODE", "hmac")
	t.Setenv("AUTH_JWT_SECRET", "s3cret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.OCR.Timeout)
	assert.Equal(t, "fr", cfg.Translate.TargetLang)
	assert.True(t, cfg.Storage.UsesMinio())
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, []string{"localhost:9000"}, cfg.Storage.AllowedDownloadHosts())
}

func TestLoadConfig_DownloadHosts(t *testing.T) {
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("DOWNLOAD_ALLOWED_HOSTS", "files.example.com,cdn.example.com")
	t.Setenv("TRANSLATE_TIMEOUT", "5s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"files.example.com", "cdn.example.com"}, cfg.Storage.AllowedDownloadHosts())
	assert.Equal(t, 5*time.Second, cfg.Translate.Timeout)
}

func TestLoadConfig_ValidationWrapsInvalidInput(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mysql")
	_, err := LoadConfig()
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown store driver", map[string]string{"STORE_DRIVER": "mysql"}},
		{"hmac without secret", map[string]string{"AUTH_MODE": "hmac"}},
		{"jwks without url", map[string]string{"AUTH_MODE": "jwks"}},
		{"zero workers", map[string]string{"INGEST_WORKERS": "0"}},
		{"zero translate timeout", map[string]string{"TRANSLATE_TIMEOUT": "0s"}},
		{"bad log level", map[string]string{"DOCINTEL_LOG_LEVEL": "loud"}},
		{"unparsable duration", map[string]string{"OCR_TIMEOUT": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			require.Error(t, err)
			assert.Equal(t, CodeConfig, CodeOf(err))
		})
	}
}
