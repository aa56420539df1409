package ports

import (
	"time"

	"github.com/tientodo/todo-api/internal/core/domain"
)

// TokenService issues and verifies the signed tokens that carry request
// identity. Parse returns claims even for expired tokens so callers can
// decide how to treat expiry; TokenError is the single classification point
// used to produce precise 401 diagnostics.
type TokenService interface {
	Issue(subject string, extra map[string]any, ttl time.Duration) (string, error)
	IssueAccessToken(username string) (string, error)
	IssueRefreshToken(username string) (string, error)

	Parse(token string) (*domain.TokenClaims, error)
	TokenError(token string) error
	IsValid(token string) bool
	IsValidFor(token, username string) bool
	IsRefreshToken(token string) bool
	RemainingTTL(token string) time.Duration
}
