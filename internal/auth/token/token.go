// Package token verifies the EdDSA access tokens that carry caller identity
// into the catalog API.
package token

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/civikit/catalog/internal/errors"
	"github.com/civikit/catalog/internal/platform/requestctx"
)

// tokenEnv holds raw env values before post-parse validation.
type tokenEnv struct {
	Issuer    string `env:"CIVIKIT_CATALOG_TOKEN_ISSUER"`
	Audience  string `env:"CIVIKIT_CATALOG_TOKEN_AUDIENCE"`
	PublicKey string `env:"CIVIKIT_CATALOG_TOKEN_PUBLIC_KEY"`
}

// Config defines how access tokens are verified.
type Config struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

// accessClaims is the internal claims type used for JWT parsing.
type accessClaims struct {
	jwt.RegisteredClaims
	UserID           string `json:"user_id"`
	OrganizationID   int64  `json:"organization_id"`
	OrganizationCode string `json:"organization_code"`
}

// LoadConfigFromEnv reads token verification configuration.
func LoadConfigFromEnv(now func() time.Time) (Config, error) {
	var raw tokenEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse token env: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	publicKey := strings.TrimSpace(raw.PublicKey)
	if issuer == "" {
		return Config{}, fmt.Errorf("CIVIKIT_CATALOG_TOKEN_ISSUER is required")
	}
	if audience == "" {
		return Config{}, fmt.Errorf("CIVIKIT_CATALOG_TOKEN_AUDIENCE is required")
	}
	if publicKey == "" {
		return Config{}, fmt.Errorf("CIVIKIT_CATALOG_TOKEN_PUBLIC_KEY is required")
	}
	keyBytes, err := decodeBase64(publicKey)
	if err != nil {
		return Config{}, fmt.Errorf("decode token public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return Config{}, fmt.Errorf("token public key must be %d bytes", ed25519.PublicKeySize)
	}
	if now == nil {
		now = time.Now
	}
	return Config{
		Issuer:   issuer,
		Audience: audience,
		Key:      ed25519.PublicKey(keyBytes),
		Now:      now,
	}, nil
}

// Verify checks an access token and returns the caller it identifies.
func Verify(token string, cfg Config) (requestctx.Caller, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return requestctx.Caller{}, apperrors.New(apperrors.CodeUnauthenticated, "access token is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Issuer == "" || cfg.Audience == "" || len(cfg.Key) != ed25519.PublicKeySize {
		return requestctx.Caller{}, errors.New("token verifier is not configured")
	}

	var parsed accessClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(token *jwt.Token) (any, error) {
		return cfg.Key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return requestctx.Caller{}, mapJWTError(err)
	}

	if parsed.Issuer == "" || parsed.Issuer != cfg.Issuer {
		return requestctx.Caller{}, apperrors.New(apperrors.CodeUnauthenticated, "access token issuer mismatch")
	}
	if !audienceContains(parsed.Audience, cfg.Audience) {
		return requestctx.Caller{}, apperrors.New(apperrors.CodeUnauthenticated, "access token audience mismatch")
	}
	if parsed.ExpiresAt == nil {
		return requestctx.Caller{}, apperrors.New(apperrors.CodeUnauthenticated, "access token exp is required")
	}

	now := cfg.Now().UTC()
	if !parsed.ExpiresAt.Time.UTC().After(now) {
		return requestctx.Caller{}, apperrors.New(apperrors.CodeUnauthenticated, "access token is expired")
	}
	if parsed.NotBefore != nil && now.Before(parsed.NotBefore.Time.UTC()) {
		return requestctx.Caller{}, apperrors.New(apperrors.CodeUnauthenticated, "access token not active yet")
	}

	if strings.TrimSpace(parsed.UserID) == "" {
		return requestctx.Caller{}, apperrors.New(apperrors.CodeUnauthenticated, "access token user is required")
	}
	if parsed.OrganizationID <= 0 {
		return requestctx.Caller{}, apperrors.New(apperrors.CodeUnauthorized, "access token carries no organization scope")
	}

	return requestctx.Caller{
		UserID:           parsed.UserID,
		OrganizationID:   parsed.OrganizationID,
		OrganizationCode: strings.TrimSpace(parsed.OrganizationCode),
	}, nil
}

// Mint signs an access token for a caller. Used by development tooling; the
// production issuer lives outside this service.
func Mint(caller requestctx.Caller, cfg Config, key ed25519.PrivateKey, ttl time.Duration) (string, error) {
	if len(key) != ed25519.PrivateKeySize {
		return "", errors.New("signing key must be an ed25519 private key")
	}
	now := time.Now
	if cfg.Now != nil {
		now = cfg.Now
	}
	issuedAt := now().UTC()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
		UserID:           caller.UserID,
		OrganizationID:   caller.OrganizationID,
		OrganizationCode: caller.OrganizationCode,
	}
	return jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(key)
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return apperrors.New(apperrors.CodeUnauthenticated, "access token signature is invalid")
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.New(apperrors.CodeUnauthenticated, "access token alg is invalid")
	}
	return apperrors.New(apperrors.CodeUnauthenticated, "access token is invalid")
}

// audienceContains reports whether the audience list contains the given value.
func audienceContains(aud jwt.ClaimStrings, value string) bool {
	for _, item := range aud {
		if item == value {
			return true
		}
	}
	return false
}

func decodeBase64(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
