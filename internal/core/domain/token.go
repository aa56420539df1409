package domain

import (
	"errors"
	"time"
)

// TokenTypeRefresh is the value of the "type" claim carried by refresh tokens.
// Access tokens carry no "type" claim.
const TokenTypeRefresh = "refresh"

// Token classification errors. The messages double as the client-facing 401
// diagnostics; parser internals never leave the server.
var ErrTokenExpired = errors.New("token has expired")
var ErrTokenSignatureInvalid = errors.New("invalid token signature")
var ErrTokenMalformed = errors.New("malformed token")
var ErrTokenUnsupported = errors.New("unsupported token format")
var ErrTokenEmptyClaims = errors.New("token claims string is empty")
var ErrTokenWrongIssuer = errors.New("token issued by unknown issuer")

var ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
var ErrNotRefreshToken = errors.New("token is not a refresh token")

// TokenClaims is the decoded, verified payload of a signed token. Tokens are
// never persisted; everything needed to validate one is in the claims and the
// server's signing key.
type TokenClaims struct {
	Subject   string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	TokenType string // "refresh" for refresh tokens, empty otherwise
}

// IsRefresh reports whether the claims mark a refresh token.
func (c *TokenClaims) IsRefresh() bool {
	return c.TokenType == TokenTypeRefresh
}
