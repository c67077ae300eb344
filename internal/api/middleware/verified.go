package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireVerifiedEmail rejects sessions whose email is not confirmed yet.
// It runs after Auth.
func RequireVerifiedEmail() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session := SessionFrom(c)
			if session == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
			}
			if !session.EmailVerified {
				return echo.NewHTTPError(http.StatusForbidden, "email not verified")
			}
			return next(c)
		}
	}
}
