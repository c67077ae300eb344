package ports

import (
	"context"

	"github.com/mora-creators/onboarding/internal/core/domain"
)

// FlowStore persists onboarding progress between requests.
type FlowStore interface {
	// Get returns domain.ErrFlowNotFound when the user has not started.
	Get(ctx context.Context, uid string) (*domain.Flow, error)
	Save(ctx context.Context, flow *domain.Flow) error
}

// StagingStore holds attached files until the submit transition uploads them.
type StagingStore interface {
	Put(ctx context.Context, uid string, file *domain.StagedFile) error
	// Get returns (nil, nil) when nothing of that kind is staged.
	Get(ctx context.Context, uid string, kind domain.DocumentKind) (*domain.StagedFile, error)
	Clear(ctx context.Context, uid string) error
}

// SubmitGuard prevents concurrent submit transitions for the same user.
// Acquire returns a holder token; Release only frees the guard while that
// token still holds it.
type SubmitGuard interface {
	Acquire(ctx context.Context, uid string) (token string, ok bool, err error)
	Release(ctx context.Context, uid, token string) error
}

// VerificationEmail is a queued out-of-band message.
type VerificationEmail struct {
	To       string
	Username string
	Link     string
}

// MailQueue accepts messages for asynchronous delivery.
type MailQueue interface {
	Enqueue(msg VerificationEmail)
}
