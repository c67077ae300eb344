package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mora-creators/onboarding/internal/api/handler"
	"github.com/mora-creators/onboarding/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes.
//   - Renders field validation errors with their inline messages.
//   - Logs unexpected errors without leaking details to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity, errorResponse{Error: ve.Error(), Fields: ve.Fields}
	}

	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	if code, msg, ok := knownError(err); ok {
		return code, errorResponse{Error: msg}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	msg := "internal server error"
	var f *handler.Failure
	if errors.As(err, &f) {
		msg = f.Message
	}
	return http.StatusInternalServerError, errorResponse{Error: msg}
}

// knownError maps domain errors to deterministic HTTP codes.
func knownError(err error) (int, string, bool) {
	switch {
	// Account-creation codes carry user-facing wording.
	case errors.Is(err, domain.ErrEmailInUse):
		return http.StatusConflict, "Email is already registered.", true
	case errors.Is(err, domain.ErrInvalidEmail):
		return http.StatusBadRequest, "Invalid email address.", true
	case errors.Is(err, domain.ErrWeakPassword):
		return http.StatusBadRequest, "Password is too weak.", true

	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials", true
	case errors.Is(err, domain.ErrNoSession):
		return http.StatusUnauthorized, "not signed in", true
	case errors.Is(err, domain.ErrInvalidVerificationToken):
		return http.StatusBadRequest, err.Error(), true
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden", true
	case errors.Is(err, domain.ErrProfileNotFound),
		errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrFlowNotFound):
		return http.StatusNotFound, err.Error(), true

	case errors.Is(err, domain.ErrStepMismatch),
		errors.Is(err, domain.ErrSubmitRequired),
		errors.Is(err, domain.ErrFlowComplete),
		errors.Is(err, domain.ErrSubmitInProgress):
		return http.StatusConflict, err.Error(), true
	case errors.Is(err, domain.ErrMissingIDImages),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusUnprocessableEntity, err.Error(), true
	case errors.Is(err, domain.ErrUnexpectedFile):
		return http.StatusBadRequest, err.Error(), true
	case errors.Is(err, domain.ErrUploadTooLarge):
		return http.StatusRequestEntityTooLarge, err.Error(), true

	case errors.Is(err, domain.ErrRejectNotImplemented):
		return http.StatusNotImplemented, err.Error(), true
	}
	return 0, "", false
}
