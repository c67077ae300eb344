package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mora-creators/onboarding/internal/core/domain"
)

const sessionKey = "session"

// SessionResolver turns a bearer token into a session.
type SessionResolver interface {
	CurrentSession(ctx context.Context, token string) (*domain.Session, error)
}

// Auth requires a valid session and injects it into the context.
func Auth(resolver SessionResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := bearerToken(c.Request())
			if err != nil {
				return err
			}

			session, err := resolver.CurrentSession(c.Request().Context(), token)
			if errors.Is(err, domain.ErrNoSession) {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if err != nil {
				return err
			}

			setSession(c, session)
			return next(c)
		}
	}
}

// OptionalAuth injects the session when one resolves. A missing or
// unresolvable token is not an error; lookup failures are logged and the
// request continues unauthenticated.
func OptionalAuth(resolver SessionResolver, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := bearerToken(c.Request())
			if err != nil {
				return next(c)
			}

			session, err := resolver.CurrentSession(c.Request().Context(), token)
			switch {
			case err == nil:
				setSession(c, session)
			case !errors.Is(err, domain.ErrNoSession):
				log.Error().Err(err).Str("path", c.Path()).Msg("session lookup failed")
			}
			return next(c)
		}
	}
}

// SessionFrom returns the session injected by Auth or OptionalAuth, or nil.
func SessionFrom(c echo.Context) *domain.Session {
	s, _ := c.Get(sessionKey).(*domain.Session)
	return s
}

// BearerToken returns the raw token of the request, or "".
func BearerToken(c echo.Context) string {
	token, _ := bearerToken(c.Request())
	return token
}

func setSession(c echo.Context, s *domain.Session) {
	c.Set(sessionKey, s)
	c.Set("uid", s.AccountID)
	c.Set("role", s.Role)
}

func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return parts[1], nil
}
