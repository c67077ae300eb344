package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mora-creators/onboarding/internal/api/metrics"
	"github.com/mora-creators/onboarding/internal/api/middleware"
	"github.com/mora-creators/onboarding/internal/core/domain"
	"github.com/mora-creators/onboarding/internal/core/ports"
)

// OnboardingHandler exposes the per-user onboarding flow.
type OnboardingHandler struct {
	service ports.OnboardingService
}

func NewOnboardingHandler(service ports.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{service: service}
}

// Mount returns the flow view. Anonymous callers get the welcome step with
// the fallback display name.
//
// @Summary      Current onboarding step
// @Tags         onboarding
// @Produce      json
// @Success      200  {object}  flowResponse
// @Router       /v1/onboarding [get]
func (h *OnboardingHandler) Mount(c echo.Context) error {
	view, err := h.service.Mount(c.Request().Context(), middleware.SessionFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toFlowResponse(view))
}

// Advance moves the flow one step forward.
//
// @Summary      Advance the onboarding flow
// @Tags         onboarding
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      advanceRequest  true  "Current step and its fields"
// @Success      200   {object}  flowResponse
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]any
// @Router       /v1/onboarding/advance [post]
func (h *OnboardingHandler) Advance(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req advanceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	view, err := h.service.Advance(c.Request().Context(), session, ports.AdvanceInput{
		From: domain.Step(req.From),
		Form: req.Form,
	})
	if err != nil {
		return err
	}
	metrics.StepsAdvancedTotal.WithLabelValues(view.Step.String()).Inc()
	return c.JSON(http.StatusOK, toFlowResponse(view))
}

// Documents stages one file for the current step.
//
// @Summary      Attach a document
// @Tags         onboarding
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        kind  formData  string  true  "id_front, id_back or avatar"
// @Param        file  formData  file    true  "Image file"
// @Success      200   {object}  flowResponse
// @Failure      400   {object}  map[string]string
// @Failure      413   {object}  map[string]string
// @Router       /v1/onboarding/documents [post]
func (h *OnboardingHandler) Documents(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	kind, err := domain.ParseDocumentKind(c.FormValue("kind"))
	if err != nil {
		return err
	}
	header, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "file is required"})
	}
	src, err := header.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	start := time.Now()
	view, err := h.service.Stage(c.Request().Context(), session, fileInput(kind, header, src))
	metrics.StageDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toFlowResponse(view))
}

// Submit completes the profile and sends it to review.
//
// @Summary      Submit the onboarding
// @Tags         onboarding
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        bio          formData  string  false  "Short bio"
// @Param        avatar       formData  file    false  "Profile picture"
// @Success      200          {object}  flowResponse
// @Failure      409          {object}  map[string]string
// @Failure      500          {object}  map[string]string
// @Router       /v1/onboarding/submit [post]
func (h *OnboardingHandler) Submit(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}

	in := ports.SubmitInput{Form: formFromRequest(c)}
	if header, err := c.FormFile("avatar"); err == nil {
		src, err := header.Open()
		if err != nil {
			return err
		}
		defer src.Close()
		avatar := fileInput(domain.DocumentAvatar, header, src)
		in.Avatar = &avatar
	} else if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
	}

	view, err := h.service.Submit(c.Request().Context(), session, in)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues(submitResult(err)).Inc()
		if isClientError(err) {
			return err
		}
		return fail(msgSubmitFailed, err)
	}
	metrics.SubmissionsTotal.WithLabelValues("submitted").Inc()
	return c.JSON(http.StatusOK, toFlowResponse(view))
}

// Dashboard reports the lifecycle status of the caller's profile.
//
// @Summary      Profile status
// @Tags         onboarding
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dashboardResponse
// @Failure      404  {object}  map[string]string
// @Router       /v1/dashboard [get]
func (h *OnboardingHandler) Dashboard(c echo.Context) error {
	session, err := ctxSession(c)
	if err != nil {
		return err
	}
	view, err := h.service.Dashboard(c.Request().Context(), session)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dashboardResponse{Profile: view.Profile, Next: view.Next})
}

func fileInput(kind domain.DocumentKind, header *multipart.FileHeader, src multipart.File) ports.FileInput {
	return ports.FileInput{
		Kind:        kind,
		Filename:    header.Filename,
		ContentType: header.Header.Get(echo.HeaderContentType),
		Size:        header.Size,
		Reader:      src,
	}
}

// formFromRequest reads the ProfileCompletion fields. Earlier steps may be
// resent; empty values never clear what the flow already holds.
func formFromRequest(c echo.Context) domain.OnboardingForm {
	return domain.OnboardingForm{
		FirstName:   c.FormValue("firstName"),
		MiddleName:  c.FormValue("middleName"),
		LastName:    c.FormValue("lastName"),
		DateOfBirth: c.FormValue("dateOfBirth"),
		Country:     c.FormValue("country"),
		NationalID:  c.FormValue("nationalId"),
		DialCode:    c.FormValue("dialCode"),
		PhoneNumber: c.FormValue("phoneNumber"),
		Bio:         c.FormValue("bio"),
	}
}

func submitResult(err error) string {
	var ve *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrSubmitInProgress):
		return "in_progress"
	case errors.As(err, &ve), errors.Is(err, domain.ErrStepMismatch), errors.Is(err, domain.ErrFlowComplete):
		return "invalid"
	default:
		return "error"
	}
}

// isClientError reports whether err is a domain condition the client can act on.
func isClientError(err error) bool {
	var ve *domain.ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, domain.ErrSubmitInProgress) ||
		errors.Is(err, domain.ErrStepMismatch) ||
		errors.Is(err, domain.ErrFlowComplete) ||
		errors.Is(err, domain.ErrUploadTooLarge) ||
		errors.Is(err, domain.ErrUnexpectedFile) ||
		errors.Is(err, domain.ErrNoSession) ||
		errors.Is(err, domain.ErrProfileNotFound) ||
		errors.Is(err, domain.ErrInvalidTransition)
}
