package common

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	OCR       OCRConfig
	Translate TranslateConfig
	Store     StoreConfig
	Storage   StorageConfig
	Auth      AuthConfig
	Ingest    IngestConfig
}

// ServerConfig holds process and HTTP/gRPC surface configuration
type ServerConfig struct {
	HTTPAddr  string `envconfig:"DOCINTEL_HTTP_ADDR" default:":8080" validate:"required"`
	GRPCAddr  string `envconfig:"DOCINTEL_GRPC_ADDR" default:":9090"`
	LogLevel  string `envconfig:"DOCINTEL_LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat string `envconfig:"DOCINTEL_LOG_FORMAT" default:"text" validate:"oneof=text json"`
	Debug     bool   `envconfig:"DOCINTEL_DEBUG" default:"false"`
	ProjectID string `envconfig:"GOOGLE_CLOUD_PROJECT" default:""`
}

// OCRConfig holds OCR provider configuration
type OCRConfig struct {
	VisionEnabled bool          `envconfig:"VISION_ENABLED" default:"false"`
	SpaceAPIKey   string        `envconfig:"OCR_SPACE_API_KEY" default:""`
	SpaceURL      string        `envconfig:"OCR_SPACE_URL" default:"https://api.ocr.space/parse/image" validate:"required,url"`
	Timeout       time.Duration `envconfig:"OCR_TIMEOUT" default:"30s" validate:"gt=0"`
	MaxFileBytes  int64         `envconfig:"OCR_MAX_FILE_BYTES" default:"20971520" validate:"gt=0"`
	Language      string        `envconfig:"OCR_LANGUAGE" default:"eng"`
	TessdataDir   string        `envconfig:"TESSDATA_PREFIX" default:""`
}

// TranslateConfig holds translation provider configuration
type TranslateConfig struct {
	Enabled    bool   `envconfig:"TRANSLATE_ENABLED" default:"false"`
	SourceLang string `envconfig:"TRANSLATE_SOURCE_LANG" default:"en" validate:"required"`
	TargetLang string `envconfig:"TRANSLATE_TARGET_LANG" default:"es" validate:"required"`
	ChunkSize  int    `envconfig:"TRANSLATE_CHUNK_SIZE" default:"100000" validate:"gt=0"`
	// Timeout bounds each chunk's provider call.
	Timeout time.Duration `envconfig:"TRANSLATE_TIMEOUT" default:"30s" validate:"gt=0"`
}

// StoreConfig holds record store configuration
type StoreConfig struct {
	Driver          string        `envconfig:"STORE_DRIVER" default:"sqlite" validate:"oneof=sqlite postgres"`
	DSN             string        `envconfig:"STORE_DSN" default:"docintel.db" validate:"required"`
	MaxConns        int32         `envconfig:"DB_MAX_CONNS" default:"20"`
	MinConns        int32         `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	MaxConnIdleTime time.Duration `envconfig:"DB_MAX_CONN_IDLE_TIME" default:"5m"`
	DialTimeout     time.Duration `envconfig:"DB_DIAL_TIMEOUT" default:"3s"`
}

// StorageConfig holds object storage configuration
type StorageConfig struct {
	MinioEndpoint  string `envconfig:"MINIO_ENDPOINT" default:""`
	MinioAccessKey string `envconfig:"MINIO_ACCESS_KEY" default:""`
	MinioSecretKey string `envconfig:"MINIO_SECRET_KEY" default:""`
	MinioUseSSL    bool   `envconfig:"MINIO_USE_SSL" default:"false"`
	Bucket         string `envconfig:"MINIO_BUCKET" default:"uploads" validate:"required"`
	LocalRoot      string `envconfig:"LOCAL_UPLOAD_ROOT" default:"./uploads"`
	// DownloadHosts lists the hosts scan may fetch https:// file URLs from.
	DownloadHosts []string `envconfig:"DOWNLOAD_ALLOWED_HOSTS"`
}

// AuthConfig holds identity check configuration
type AuthConfig struct {
	Mode      string `envconfig:"AUTH_MODE" default:"none" validate:"oneof=none hmac jwks"`
	JWTSecret string `envconfig:"AUTH_JWT_SECRET" default:"" validate:"required_if=Mode hmac"`
	JWKSURL   string `envconfig:"AUTH_JWKS_URL" default:"" validate:"required_if=Mode jwks"`
	Issuer    string `envconfig:"AUTH_ISSUER" default:""`
	Audience  string `envconfig:"AUTH_AUDIENCE" default:""`
}

// IngestConfig holds upload pipeline worker configuration
type IngestConfig struct {
	Workers   int           `envconfig:"INGEST_WORKERS" default:"4" validate:"gt=0"`
	QueueSize int           `envconfig:"INGEST_QUEUE_SIZE" default:"256" validate:"gt=0"`
	Timeout   time.Duration `envconfig:"INGEST_TIMEOUT" default:"3m" validate:"gt=0"`
}

// AllowedDownloadHosts returns DownloadHosts, or the object store endpoint when none are listed.
func (s StorageConfig) AllowedDownloadHosts() []string {
	if len(s.DownloadHosts) > 0 {
		return s.DownloadHosts
	}
	if s.MinioEndpoint != "" {
		return []string{s.MinioEndpoint}
	}
	return nil
}

// UsesMinio reports whether an object store endpoint is configured.
func (s StorageConfig) UsesMinio() bool {
	return s.MinioEndpoint != ""
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, NewAppError(CodeConfig, "failed to read environment", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded configuration
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return NewAppError(CodeConfig,
				fmt.Sprintf("%s failed %q validation", fe.Namespace(), fe.Tag()), ErrInvalidInput)
		}
		return NewAppError(CodeConfig, "invalid configuration", err)
	}
	return nil
}
