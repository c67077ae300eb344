package ports

import (
	"context"
	"io"

	"github.com/mora-creators/onboarding/internal/core/domain"
)

// SignupInput carries the three fields of the signup form.
type SignupInput struct {
	Username string
	Email    string
	Password string
}

// SignupResult is returned after the account and profile were created.
type SignupResult struct {
	Account *domain.Account
	Profile *domain.UserProfile
	// Next is the route the client should navigate to.
	Next string
}

// SignupService covers account creation and session handling.
type SignupService interface {
	Signup(ctx context.Context, in SignupInput) (*SignupResult, error)
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	SignOut(ctx context.Context, token string) error
	ConfirmEmail(ctx context.Context, token string) (*domain.Session, error)
}

// FileInput is a file attached by the client.
type FileInput struct {
	Kind        domain.DocumentKind
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// AdvanceInput moves the flow one step forward from From.
type AdvanceInput struct {
	From domain.Step
	Form domain.OnboardingForm
}

// SubmitInput is the ProfileCompletion payload. Avatar is optional; when nil
// a previously staged avatar is used if any.
type SubmitInput struct {
	Form   domain.OnboardingForm
	Avatar *FileInput
}

// FlowView is what the onboarding page renders.
type FlowView struct {
	Authenticated bool
	DisplayName   string
	Step          domain.Step
	Form          domain.OnboardingForm
	Staged        []domain.DocumentKind
	// ReviewSecondsRemaining is cosmetic and only set once under review.
	ReviewSecondsRemaining int
	Next                   string
}

// DashboardView reports the lifecycle status of the caller's profile.
type DashboardView struct {
	Profile *domain.UserProfile
	Next    string
}

// OnboardingService drives the per-user onboarding flow.
type OnboardingService interface {
	Mount(ctx context.Context, session *domain.Session) (*FlowView, error)
	Advance(ctx context.Context, session *domain.Session, in AdvanceInput) (*FlowView, error)
	Stage(ctx context.Context, session *domain.Session, in FileInput) (*FlowView, error)
	Submit(ctx context.Context, session *domain.Session, in SubmitInput) (*FlowView, error)
	Dashboard(ctx context.Context, session *domain.Session) (*DashboardView, error)
}

// ReviewDetail is a pending profile with short-lived links to its documents.
type ReviewDetail struct {
	Profile    *domain.UserProfile
	IDFrontURL string
	IDBackURL  string
}

// ReviewService is the admin review workflow.
type ReviewService interface {
	ListPending(ctx context.Context) ([]*domain.UserProfile, error)
	Detail(ctx context.Context, uid string) (*ReviewDetail, error)
	Approve(ctx context.Context, uid string) (*domain.UserProfile, error)
	Reject(ctx context.Context, uid string) error
}
