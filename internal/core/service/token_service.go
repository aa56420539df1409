package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tientodo/todo-api/internal/core/domain"
)

const minSecretLength = 32

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
	defaultIssuer     = "todo-api"
)

// TokenService mints and verifies HS256-signed identity tokens. The signing
// key and issuer are fixed at construction and read-only afterwards, so a
// single instance is safe for concurrent use.
type TokenService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService builds a TokenService. A secret shorter than 32 characters
// is a misconfiguration and returns an error; callers treat it as fatal at
// startup.
func NewTokenService(secret, issuer string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d characters, got %d", minSecretLength, len(secret))
	}
	if issuer == "" {
		issuer = defaultIssuer
	}
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	return &TokenService{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// Issue signs a token for subject with the given extra claims and ttl.
func (s *TokenService) Issue(subject string, extra map[string]any, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{}
	for k, v := range extra {
		claims[k] = v
	}
	claims["sub"] = subject
	claims["iss"] = s.issuer
	claims["iat"] = jwt.NewNumericDate(now)
	claims["exp"] = jwt.NewNumericDate(now.Add(ttl))

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// IssueAccessToken mints a short-lived token authorizing API calls.
func (s *TokenService) IssueAccessToken(username string) (string, error) {
	return s.Issue(username, nil, s.accessTTL)
}

// IssueRefreshToken mints a long-lived token carrying the refresh marker.
// Refresh tokens are only exchangeable for new access tokens; the request
// authenticator rejects them on protected routes.
func (s *TokenService) IssueRefreshToken(username string) (string, error) {
	return s.Issue(username, map[string]any{"type": domain.TokenTypeRefresh}, s.refreshTTL)
}

// Parse verifies the signature and issuer and decodes the claims. An expired
// token still yields its claims alongside domain.ErrTokenExpired so callers
// can decide how to treat expiry.
func (s *TokenService) Parse(token string) (*domain.TokenClaims, error) {
	if token == "" {
		return nil, domain.ErrTokenEmptyClaims
	}

	raw := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, raw, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, domain.ErrTokenUnsupported
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer))

	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTokenUnsupported):
			return nil, domain.ErrTokenUnsupported
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, domain.ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, domain.ErrTokenSignatureInvalid
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return nil, domain.ErrTokenWrongIssuer
		case errors.Is(err, jwt.ErrTokenExpired):
			// Signature already verified; hand the claims back with the error.
			return mapClaims(raw), domain.ErrTokenExpired
		default:
			return nil, domain.ErrTokenMalformed
		}
	}

	return mapClaims(raw), nil
}

// TokenError classifies a token's usability: nil means valid and unexpired,
// otherwise one of the domain token errors. The error messages are safe to
// return to clients.
func (s *TokenService) TokenError(token string) error {
	claims, err := s.Parse(token)
	if err != nil {
		return err
	}
	if !claims.ExpiresAt.IsZero() && claims.ExpiresAt.Before(time.Now()) {
		return domain.ErrTokenExpired
	}
	return nil
}

// IsValid reports whether the token parses cleanly and is unexpired.
func (s *TokenService) IsValid(token string) bool {
	return s.TokenError(token) == nil
}

// IsValidFor reports whether the token is valid and its subject matches
// username.
func (s *TokenService) IsValidFor(token, username string) bool {
	claims, err := s.Parse(token)
	if err != nil {
		return false
	}
	return claims.Subject == username
}

// IsRefreshToken reports whether the token carries the refresh marker claim.
// Absent claim or an unreadable token yields false, never an error.
func (s *TokenService) IsRefreshToken(token string) bool {
	claims, err := s.Parse(token)
	if err != nil && !errors.Is(err, domain.ErrTokenExpired) {
		return false
	}
	return claims.IsRefresh()
}

// RemainingTTL returns the time until expiry, floored at zero.
func (s *TokenService) RemainingTTL(token string) time.Duration {
	claims, err := s.Parse(token)
	if err != nil || claims.ExpiresAt.IsZero() {
		return 0
	}
	if remaining := time.Until(claims.ExpiresAt); remaining > 0 {
		return remaining
	}
	return 0
}

// AccessTTL returns the configured access-token lifetime.
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL returns the configured refresh-token lifetime.
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

func mapClaims(raw jwt.MapClaims) *domain.TokenClaims {
	claims := &domain.TokenClaims{}
	if sub, err := raw.GetSubject(); err == nil {
		claims.Subject = sub
	}
	if iss, err := raw.GetIssuer(); err == nil {
		claims.Issuer = iss
	}
	if iat, err := raw.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	if exp, err := raw.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	if typ, ok := raw["type"].(string); ok {
		claims.TokenType = typ
	}
	return claims
}
