package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mora-creators/onboarding/internal/api/metrics"
	"github.com/mora-creators/onboarding/internal/api/middleware"
	"github.com/mora-creators/onboarding/internal/core/domain"
	"github.com/mora-creators/onboarding/internal/core/ports"
)

type AuthHandler struct {
	service ports.SignupService
}

func NewAuthHandler(service ports.SignupService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Signup creates the account and its pending profile, then queues the
// verification email.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Signup form"
// @Success      201   {object}  signupResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]any
// @Failure      500   {object}  map[string]string
// @Router       /v1/auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	res, err := h.service.Signup(c.Request().Context(), ports.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		metrics.SignupsTotal.WithLabelValues(signupResult(err)).Inc()
		var ve *domain.ValidationError
		if errors.As(err, &ve) || isAccountError(err) {
			return err
		}
		return fail(msgSignupFailed, err)
	}

	metrics.SignupsTotal.WithLabelValues("created").Inc()
	return c.JSON(http.StatusCreated, signupResponse{
		UID:      res.Account.ID,
		Username: res.Profile.Username,
		Email:    res.Account.Email,
		Next:     res.Next,
	})
}

func isAccountError(err error) bool {
	return errors.Is(err, domain.ErrEmailInUse) ||
		errors.Is(err, domain.ErrInvalidEmail) ||
		errors.Is(err, domain.ErrWeakPassword)
}

func signupResult(err error) string {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve), errors.Is(err, domain.ErrInvalidEmail):
		return "invalid"
	case errors.Is(err, domain.ErrEmailInUse):
		return "email_in_use"
	case errors.Is(err, domain.ErrWeakPassword):
		return "weak_password"
	default:
		return "error"
	}
}

// Login opens a session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /v1/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	session, err := h.service.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	next := domain.RouteOnboarding
	if !session.EmailVerified {
		next = domain.RouteVerify
	}
	return c.JSON(http.StatusOK, toSessionResponse(session, next))
}

// Logout revokes the caller's session.
//
// @Summary      Logout
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401   {object}  map[string]string
// @Router       /v1/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if _, err := ctxSession(c); err != nil {
		return err
	}
	if err := h.service.SignOut(c.Request().Context(), middleware.BearerToken(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// VerifyEmail consumes the token of an emailed verification link.
//
// @Summary      Confirm email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      verifyEmailRequest  true  "Verification token"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Router       /v1/auth/verify-email [post]
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req verifyEmailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	session, err := h.service.ConfirmEmail(c.Request().Context(), req.Token)
	if err != nil {
		return err
	}
	metrics.VerificationsTotal.WithLabelValues("link").Inc()
	return c.JSON(http.StatusOK, toSessionResponse(session, domain.RouteOnboarding))
}
