package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tientodo/todo-api/internal/api/metrics"
	"github.com/tientodo/todo-api/internal/core/domain"
	"github.com/tientodo/todo-api/internal/core/ports"
)

const bearerPrefix = "Bearer "

// publicPaths is the explicit allow-list of routes exempt from bearer
// authentication. Everything else under /api requires a valid, non-refresh
// access token.
var publicPaths = map[string]struct{}{
	"/api/auth/register": {},
	"/api/auth/login":    {},
	"/api/auth/refresh":  {},
}

// IsPublicPath reports whether the request path is exempt from the auth
// middleware. Matching is exact.
func IsPublicPath(path string) bool {
	_, ok := publicPaths[path]
	return ok
}

// Auth authenticates a request from its bearer token and attaches the
// resolved user to the echo context.
//
// A request without an Authorization header (or with a non-bearer scheme)
// passes through unauthenticated; protected handlers fail closed when no
// identity was established. A request that does present a bearer token is
// judged strictly: any defect is a 401 with a precise, machine-readable
// message. Internal failures also map to 401 — authentication never leaks a
// 500.
func Auth(tokens ports.TokenService, users ports.UserResolver, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if IsPublicPath(c.Request().URL.Path) {
				return next(c)
			}

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(authHeader, bearerPrefix) {
				return next(c)
			}
			token := authHeader[len(bearerPrefix):]

			if err := tokens.TokenError(token); err != nil {
				log.Warn().
					Str("method", c.Request().Method).
					Str("path", c.Request().URL.Path).
					Msg("bearer token rejected: " + err.Error())
				metrics.TokenRejectionsTotal.WithLabelValues(rejectionReason(err)).Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			// A refresh token must never authenticate an API call, even
			// though it is structurally valid.
			if tokens.IsRefreshToken(token) {
				log.Warn().
					Str("method", c.Request().Method).
					Str("path", c.Request().URL.Path).
					Msg("refresh token used as access token")
				metrics.TokenRejectionsTotal.WithLabelValues("refresh_as_access").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized,
					"refresh tokens cannot be used for API access")
			}

			claims, err := tokens.Parse(token)
			if err != nil {
				metrics.TokenRejectionsTotal.WithLabelValues("internal").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication failed")
			}

			user, err := users.GetUserByUsername(c.Request().Context(), claims.Subject)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					// Account deleted after the token was issued.
					log.Warn().Str("username", claims.Subject).Msg("token references non-existent user")
					metrics.TokenRejectionsTotal.WithLabelValues("user_deleted").Inc()
					return echo.NewHTTPError(http.StatusUnauthorized, "user account no longer exists")
				}
				log.Error().Err(err).Msg("identity resolution failed")
				metrics.TokenRejectionsTotal.WithLabelValues("internal").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication failed")
			}

			// The token must still validate against the resolved user before
			// the identity is trusted.
			if !tokens.IsValidFor(token, user.Username) {
				log.Warn().Str("username", user.Username).Msg("token subject mismatch")
				metrics.TokenRejectionsTotal.WithLabelValues("subject_mismatch").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "token validation failed")
			}

			c.Set("user", user)
			c.Set("username", user.Username)

			return next(c)
		}
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrTokenSignatureInvalid):
		return "invalid_signature"
	case errors.Is(err, domain.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, domain.ErrTokenUnsupported):
		return "unsupported"
	case errors.Is(err, domain.ErrTokenEmptyClaims):
		return "empty_claims"
	case errors.Is(err, domain.ErrTokenWrongIssuer):
		return "wrong_issuer"
	default:
		return "internal"
	}
}
