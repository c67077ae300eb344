// Package identity is the built-in identity provider: password accounts,
// JWT sessions revocable through Redis, and emailed verification links.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/mora-creators/onboarding/internal/core/domain"
	"github.com/mora-creators/onboarding/internal/core/ports"
)

const (
	defaultSessionTTL      = 24 * time.Hour
	defaultVerificationTTL = 24 * time.Hour
	minPasswordLength      = 6
)

// Config configures the provider.
type Config struct {
	JWTSecret       string
	SessionTTL      time.Duration
	VerificationTTL time.Duration
	// PublicBaseURL prefixes emailed verification links.
	PublicBaseURL string
	// AdminEmails are granted the admin role at account creation.
	AdminEmails []string
	BcryptCost  int
}

var _ ports.IdentityProvider = (*Provider)(nil)

// Provider implements ports.IdentityProvider.
type Provider struct {
	accounts ports.AccountRepository
	sessions ports.SessionStore
	cfg      Config
	admins   map[string]bool
	validate *validator.Validate
	now      func() time.Time
	log      zerolog.Logger
}

func NewProvider(accounts ports.AccountRepository, sessions ports.SessionStore, cfg Config, log zerolog.Logger) *Provider {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.VerificationTTL <= 0 {
		cfg.VerificationTTL = defaultVerificationTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	admins := make(map[string]bool, len(cfg.AdminEmails))
	for _, e := range cfg.AdminEmails {
		if e = normalizeEmail(e); e != "" {
			admins[e] = true
		}
	}
	return &Provider{
		accounts: accounts,
		sessions: sessions,
		cfg:      cfg,
		admins:   admins,
		validate: validator.New(),
		now:      time.Now,
		log:      log,
	}
}

type sessionClaims struct {
	SessionID     string `json:"sid"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

// CreateAccount registers a password account. It fails with
// domain.ErrInvalidEmail, domain.ErrWeakPassword or domain.ErrEmailInUse.
func (p *Provider) CreateAccount(ctx context.Context, email, password string) (*domain.Account, error) {
	email = normalizeEmail(email)
	if err := p.validate.Var(email, "required,email"); err != nil {
		return nil, domain.ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, domain.ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := domain.RoleUser
	if p.admins[email] {
		role = domain.RoleAdmin
	}
	account := &domain.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    p.now().UTC(),
	}
	if err := p.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	p.log.Info().Str("uid", account.ID).Str("role", role).Msg("account registered")
	return account, nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	account, err := p.accounts.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	session, err := p.openSession(ctx, account)
	if err != nil {
		return nil, err
	}
	if err := p.accounts.TouchSignIn(ctx, account.ID, session.IssuedAt); err != nil {
		p.log.Warn().Err(err).Str("uid", account.ID).Msg("failed to record sign-in")
	}
	return session, nil
}

// CurrentSession accepts a token only while its server-side registration
// exists, so signed-out tokens stop working before they expire. A token
// minted before the email was confirmed picks up the verified flag from the
// account.
func (p *Provider) CurrentSession(ctx context.Context, token string) (*domain.Session, error) {
	claims, err := p.parse(token)
	if err != nil {
		return nil, domain.ErrNoSession
	}
	ok, err := p.sessions.SessionExists(ctx, claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("current session: %w", err)
	}
	if !ok {
		return nil, domain.ErrNoSession
	}

	session := claimsToSession(claims, token)
	if !session.EmailVerified {
		account, err := p.accounts.FindByID(ctx, claims.Subject)
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrNoSession
		}
		if err != nil {
			return nil, fmt.Errorf("current session: %w", err)
		}
		session.EmailVerified = account.EmailVerified
	}
	return session, nil
}

func (p *Provider) SignOut(ctx context.Context, token string) error {
	claims, err := p.parse(token)
	if err != nil {
		return domain.ErrNoSession
	}
	if err := p.sessions.DeleteSession(ctx, claims.SessionID); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// IssueVerificationLink stores a single-use token and returns the link to
// email. The token travels in the URL fragment.
func (p *Provider) IssueVerificationLink(ctx context.Context, account *domain.Account) (string, error) {
	token, err := randomToken()
	if err != nil {
		return "", err
	}
	if err := p.sessions.SaveVerificationToken(ctx, token, account.ID, p.cfg.VerificationTTL); err != nil {
		return "", fmt.Errorf("save verification token: %w", err)
	}
	return strings.TrimRight(p.cfg.PublicBaseURL, "/") + domain.RouteVerify + "#access_token=" + token, nil
}

// ConsumeVerificationLink marks the email verified, opens a session and
// notifies every watcher of the account.
func (p *Provider) ConsumeVerificationLink(ctx context.Context, token string) (*domain.Session, error) {
	uid, err := p.sessions.ConsumeVerificationToken(ctx, token)
	if err != nil {
		return nil, err
	}
	account, err := p.accounts.FindByID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("verify email: %w", err)
	}
	if err := p.accounts.MarkEmailVerified(ctx, uid); err != nil {
		return nil, fmt.Errorf("verify email: %w", err)
	}
	account.EmailVerified = true

	session, err := p.openSession(ctx, account)
	if err != nil {
		return nil, err
	}
	if err := p.sessions.PublishSessionChange(ctx, session); err != nil {
		p.log.Error().Err(err).Str("uid", uid).Msg("failed to publish session change")
	}
	return session, nil
}

func (p *Provider) SubscribeSessionChanges(ctx context.Context, accountID string) (ports.SessionSubscription, error) {
	return p.sessions.SubscribeSessionChanges(ctx, accountID)
}

func (p *Provider) openSession(ctx context.Context, account *domain.Account) (*domain.Session, error) {
	now := p.now().UTC().Truncate(time.Second)
	claims := sessionClaims{
		SessionID:     uuid.NewString(),
		Email:         account.Email,
		Role:          account.Role,
		EmailVerified: account.EmailVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.cfg.SessionTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(p.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	if err := p.sessions.SaveSession(ctx, claims.SessionID, account.ID, p.cfg.SessionTTL); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return claimsToSession(&claims, token), nil
}

func (p *Provider) parse(token string) (*sessionClaims, error) {
	if token == "" {
		return nil, jwt.ErrTokenMalformed
	}
	claims := &sessionClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(p.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(p.now))
	if err != nil {
		return nil, err
	}
	if !tkn.Valid || claims.Subject == "" || claims.SessionID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func claimsToSession(c *sessionClaims, token string) *domain.Session {
	s := &domain.Session{
		ID:            c.SessionID,
		AccountID:     c.Subject,
		Email:         c.Email,
		Role:          c.Role,
		EmailVerified: c.EmailVerified,
		Token:         token,
	}
	if c.IssuedAt != nil {
		s.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
