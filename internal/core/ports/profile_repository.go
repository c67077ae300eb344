package ports

import (
	"context"
	"time"

	"github.com/mora-creators/onboarding/internal/core/domain"
)

// ProfileRepository is the profile store, keyed by account id.
type ProfileRepository interface {
	Create(ctx context.Context, p *domain.UserProfile) error
	FindByID(ctx context.Context, uid string) (*domain.UserProfile, error)
	// SubmitOnboarding writes the accumulated form, photo URL and completion
	// time and sets status to in_review. It updates; it never inserts.
	SubmitOnboarding(ctx context.Context, uid string, sub domain.OnboardingSubmission) error
	// Activate sets status to active and stamps the approval time.
	Activate(ctx context.Context, uid string, approvedAt time.Time) error
	ListByStatus(ctx context.Context, status domain.ProfileStatus) ([]*domain.UserProfile, error)
}

// DocumentRepository is the manifest of uploaded files.
type DocumentRepository interface {
	Record(ctx context.Context, doc *domain.UploadedDocument) error
	// ListByOwner returns the owner's documents, newest first.
	ListByOwner(ctx context.Context, uid string) ([]*domain.UploadedDocument, error)
}
