package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mora-creators/onboarding/internal/api/middleware"
	"github.com/mora-creators/onboarding/internal/core/domain"
)

// Failure attaches the generic message shown to users when err is not one
// of the known domain errors.
type Failure struct {
	Message string
	Err     error
}

func (f *Failure) Error() string { return f.Message + ": " + f.Err.Error() }
func (f *Failure) Unwrap() error { return f.Err }

func fail(msg string, err error) error {
	return &Failure{Message: msg, Err: err}
}

const (
	msgSignupFailed = "Failed to create account. Please try again."
	msgSubmitFailed = "Failed to submit onboarding. Please try again."
)

// ctxSession returns the session injected by the Auth middleware. It fails
// fast when the middleware did not run.
func ctxSession(c echo.Context) (*domain.Session, error) {
	s := middleware.SessionFrom(c)
	if s == nil || s.AccountID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return s, nil
}
