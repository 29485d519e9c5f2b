package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	keyfunc "github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

var ErrMissingSubject = errors.New("token has no subject")

// JWTAuthenticator validates signed JWTs and returns their subject as the user id.
type JWTAuthenticator struct {
	keyFn   jwt.Keyfunc
	opts    []jwt.ParserOption
	logger  *slog.Logger
}

// NewHMACAuthenticator validates HS256 tokens signed with secret.
func NewHMACAuthenticator(secret []byte, issuer, audience string, logger *slog.Logger) *JWTAuthenticator {
	keyFn := func(*jwt.Token) (any, error) { return secret, nil }
	return newJWTAuthenticator(keyFn, []string{jwt.SigningMethodHS256.Name}, issuer, audience, logger)
}

// NewJWKSAuthenticator validates RS256/ES256 tokens against a remote key set.
func NewJWKSAuthenticator(jwksURL, issuer, audience string, logger *slog.Logger) (*JWTAuthenticator, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	k, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to get jwks public keys: %w", err)
	}
	return NewJWKSAuthenticatorWithKeyFn(k.Keyfunc, issuer, audience, logger), nil
}

func NewJWKSAuthenticatorWithKeyFn(keyFn jwt.Keyfunc, issuer, audience string, logger *slog.Logger) *JWTAuthenticator {
	methods := []string{jwt.SigningMethodRS256.Name, jwt.SigningMethodES256.Name}
	return newJWTAuthenticator(keyFn, methods, issuer, audience, logger)
}

func newJWTAuthenticator(keyFn jwt.Keyfunc, methods []string, issuer, audience string, logger *slog.Logger) *JWTAuthenticator {
	if logger == nil {
		logger = slog.Default()
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods(methods), jwt.WithIssuedAt(), jwt.WithExpirationRequired()}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return &JWTAuthenticator{keyFn: keyFn, opts: opts, logger: logger}
}

func (a *JWTAuthenticator) Authenticate(token string) (string, error) {
	t, err := jwt.NewParser(a.opts...).Parse(token, a.keyFn)
	if err != nil {
		a.logger.Debug("token parse failed", "error", err)
		return "", fmt.Errorf("failed to authenticate token: %w", err)
	}
	if !t.Valid {
		return "", errors.New("failed to parse or validate token")
	}
	sub, err := t.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	if sub == "" {
		return "", ErrMissingSubject
	}
	return sub, nil
}
