package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mora-creators/onboarding/internal/api/metrics"
	"github.com/mora-creators/onboarding/internal/core/ports"
)

// ReviewHandler serves the admin review queue.
type ReviewHandler struct {
	service ports.ReviewService
}

func NewReviewHandler(service ports.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// List handles GET /v1/admin/reviews.
//
// @Summary      Profiles awaiting review
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  reviewListResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /v1/admin/reviews [get]
func (h *ReviewHandler) List(c echo.Context) error {
	profiles, err := h.service.ListPending(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reviewListResponse{Profiles: profiles, Count: len(profiles)})
}

// Detail handles GET /v1/admin/reviews/:uid.
//
// @Summary      Profile with signed document links
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        uid  path      string  true  "Account id"
// @Success      200  {object}  reviewDetailResponse
// @Failure      404  {object}  map[string]string
// @Router       /v1/admin/reviews/{uid} [get]
func (h *ReviewHandler) Detail(c echo.Context) error {
	detail, err := h.service.Detail(c.Request().Context(), c.Param("uid"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReviewDetailResponse(detail))
}

// Approve handles POST /v1/admin/reviews/:uid/approve.
//
// @Summary      Approve a profile
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        uid  path      string  true  "Account id"
// @Success      200  {object}  domain.UserProfile
// @Failure      404  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Router       /v1/admin/reviews/{uid}/approve [post]
func (h *ReviewHandler) Approve(c echo.Context) error {
	profile, err := h.service.Approve(c.Request().Context(), c.Param("uid"))
	if err != nil {
		return err
	}
	metrics.ApprovalsTotal.Inc()
	return c.JSON(http.StatusOK, profile)
}

// Reject handles POST /v1/admin/reviews/:uid/reject.
//
// @Summary      Reject a profile
// @Tags         admin
// @Security     BearerAuth
// @Param        uid  path      string  true  "Account id"
// @Failure      501  {object}  map[string]string
// @Router       /v1/admin/reviews/{uid}/reject [post]
func (h *ReviewHandler) Reject(c echo.Context) error {
	if err := h.service.Reject(c.Request().Context(), c.Param("uid")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
