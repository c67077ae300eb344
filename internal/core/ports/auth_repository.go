package ports

import (
	"context"
	"time"

	"github.com/mora-creators/onboarding/internal/core/domain"
)

// AccountRepository persists identity-provider accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	MarkEmailVerified(ctx context.Context, id string) error
	TouchSignIn(ctx context.Context, id string, at time.Time) error
}

// SessionStore keeps server-side session registrations, verification tokens
// and the session-change channel.
type SessionStore interface {
	SaveSession(ctx context.Context, sessionID, accountID string, ttl time.Duration) error
	SessionExists(ctx context.Context, sessionID string) (bool, error)
	DeleteSession(ctx context.Context, sessionID string) error

	SaveVerificationToken(ctx context.Context, token, accountID string, ttl time.Duration) error
	// ConsumeVerificationToken returns the account id and deletes the token.
	ConsumeVerificationToken(ctx context.Context, token string) (string, error)

	PublishSessionChange(ctx context.Context, session *domain.Session) error
	SubscribeSessionChanges(ctx context.Context, accountID string) (SessionSubscription, error)
}
