package handler

import (
	"time"

	"github.com/mora-creators/onboarding/internal/core/domain"
)

// --- Auth ---

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupResponse struct {
	UID      string `json:"uid"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Next     string `json:"next"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type verifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

type sessionResponse struct {
	Token         string    `json:"token"`
	UID           string    `json:"uid"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	ExpiresAt     time.Time `json:"expires_at"`
	Next          string    `json:"next,omitempty"`
}

// --- Onboarding ---

type advanceRequest struct {
	From int                   `json:"from" validate:"gte=0,lte=4"`
	Form domain.OnboardingForm `json:"form"`
}

type flowResponse struct {
	Authenticated          bool                  `json:"authenticated"`
	DisplayName            string                `json:"displayName"`
	Step                   int                   `json:"step"`
	StepName               string                `json:"stepName"`
	Form                   domain.OnboardingForm `json:"form"`
	Staged                 []domain.DocumentKind `json:"staged"`
	ReviewSecondsRemaining int                   `json:"reviewSecondsRemaining,omitempty"`
	Next                   string                `json:"next"`
}

type dashboardResponse struct {
	Profile *domain.UserProfile `json:"profile"`
	Next    string              `json:"next"`
}

// --- Review ---

type reviewListResponse struct {
	Profiles []*domain.UserProfile `json:"profiles"`
	Count    int                   `json:"count"`
}

type reviewDetailResponse struct {
	Profile    *domain.UserProfile `json:"profile"`
	IDFrontURL string              `json:"idFrontUrl,omitempty"`
	IDBackURL  string              `json:"idBackUrl,omitempty"`
}
