package ports

import (
	"context"

	"github.com/mora-creators/onboarding/internal/core/domain"
)

// IdentityProvider issues accounts, sessions and email-verification links.
type IdentityProvider interface {
	CreateAccount(ctx context.Context, email, password string) (*domain.Account, error)
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	// CurrentSession resolves a bearer token. It returns domain.ErrNoSession
	// when the token is invalid, expired or signed out.
	CurrentSession(ctx context.Context, token string) (*domain.Session, error)
	SignOut(ctx context.Context, token string) error

	IssueVerificationLink(ctx context.Context, account *domain.Account) (string, error)
	// ConsumeVerificationLink marks the account verified, opens a session and
	// notifies subscribers of the account.
	ConsumeVerificationLink(ctx context.Context, token string) (*domain.Session, error)
	SubscribeSessionChanges(ctx context.Context, accountID string) (SessionSubscription, error)
}

// SessionSubscription delivers session-change notifications until closed.
// Sessions received here never carry a bearer token.
type SessionSubscription interface {
	Changes() <-chan *domain.Session
	Close() error
}
