// Package auth establishes the caller identity for the callable endpoints.
package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/joseph-ayodele/docintel/internal/common"
)

const (
	NoneAuthentication string = "none"
	HMACAuthentication string = "hmac"
	JWKSAuthentication string = "jwks"

	// LocalUserID is the identity every request gets when authentication is off.
	LocalUserID = "local"
)

// Authenticator resolves a bearer token to a user id.
type Authenticator interface {
	Authenticate(token string) (string, error)
}

func NewAuthenticator(cfg common.AuthConfig, logger *slog.Logger) (Authenticator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("authentication configured", "mode", cfg.Mode)

	switch cfg.Mode {
	case HMACAuthentication:
		return NewHMACAuthenticator([]byte(cfg.JWTSecret), cfg.Issuer, cfg.Audience, logger), nil
	case JWKSAuthentication:
		return NewJWKSAuthenticator(cfg.JWKSURL, cfg.Issuer, cfg.Audience, logger)
	case NoneAuthentication, "":
		return NoneAuthenticator{}, nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
}

// NoneAuthenticator accepts every request as LocalUserID.
type NoneAuthenticator struct{}

func (NoneAuthenticator) Authenticate(string) (string, error) { return LocalUserID, nil }

// Middleware attaches the user id of a valid bearer token to the request context.
// It never rejects a request; handlers decide whether an identity is required.
func Middleware(a Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if _, none := a.(NoneAuthenticator); !none && token == "" {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := a.Authenticate(token)
			if err != nil {
				logger.Warn("token rejected", "request_id", common.RequestIDFromContext(r.Context()), "error", err)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(common.WithUserID(r.Context(), userID)))
		})
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
