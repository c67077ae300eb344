package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/mora-creators/onboarding/internal/core/domain"
	"github.com/mora-creators/onboarding/internal/core/ports"
)

var looseEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type signupForm struct {
	Username string `validate:"required,min=3"`
	Email    string `validate:"required,loose_email"`
	Password string `validate:"required,min=8"`
}

// signupMessages are the inline messages shown next to each field.
var signupMessages = map[string]string{
	"Username.required": "Username is required",
	"Username.min":      "Min 3 characters",
	"Email.required":    "Email is required",
	"Email.loose_email": "Invalid email address",
	"Password.required": "Password is required",
	"Password.min":      "Min 8 characters",
}

// SignupService implements account creation, sign-in and email confirmation.
type SignupService struct {
	identity ports.IdentityProvider
	profiles ports.ProfileRepository
	mail     ports.MailQueue
	validate *validator.Validate
	now      func() time.Time
	log      zerolog.Logger
}

func NewSignupService(identity ports.IdentityProvider, profiles ports.ProfileRepository, mail ports.MailQueue, log zerolog.Logger) *SignupService {
	v := validator.New()
	_ = v.RegisterValidation("loose_email", func(fl validator.FieldLevel) bool {
		return looseEmail.MatchString(fl.Field().String())
	})
	return &SignupService{
		identity: identity,
		profiles: profiles,
		mail:     mail,
		validate: v,
		now:      time.Now,
		log:      log,
	}
}

// ValidateSignup checks the signup form locally. It returns a
// *domain.ValidationError, or nil when every field is acceptable.
func (s *SignupService) ValidateSignup(in ports.SignupInput) error {
	form := signupForm{
		Username: strings.TrimSpace(in.Username),
		Email:    strings.TrimSpace(in.Email),
		Password: in.Password,
	}
	err := s.validate.Struct(form)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	out := &domain.ValidationError{}
	for _, fe := range ve {
		msg, ok := signupMessages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = "Invalid value"
		}
		out.Add(strings.ToLower(fe.Field()), msg)
	}
	return out.OrNil()
}

// Signup validates the form, creates the account and its pending profile and
// queues the verification email. Nothing reaches the identity provider when
// validation fails.
func (s *SignupService) Signup(ctx context.Context, in ports.SignupInput) (*ports.SignupResult, error) {
	if err := s.ValidateSignup(in); err != nil {
		return nil, err
	}
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)

	account, err := s.identity.CreateAccount(ctx, email, in.Password)
	if err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("account creation failed")
		return nil, fmt.Errorf("signup: %w", err)
	}

	profile := &domain.UserProfile{
		UID:       account.ID,
		Username:  username,
		Email:     account.Email,
		Status:    domain.StatusPending,
		Role:      account.Role,
		CreatedAt: s.now().UTC(),
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		s.log.Error().Err(err).Str("uid", account.ID).Msg("failed to create profile")
		return nil, fmt.Errorf("signup: create profile: %w", err)
	}

	link, err := s.identity.IssueVerificationLink(ctx, account)
	if err != nil {
		// The account is usable; the user can request sign-in later.
		s.log.Error().Err(err).Str("uid", account.ID).Msg("failed to issue verification link")
	} else {
		s.mail.Enqueue(ports.VerificationEmail{To: account.Email, Username: username, Link: link})
	}

	s.log.Info().Str("uid", account.ID).Str("username", username).Msg("account created")

	return &ports.SignupResult{Account: account, Profile: profile, Next: domain.RouteVerify}, nil
}

func (s *SignupService) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	return s.identity.SignIn(ctx, strings.TrimSpace(email), password)
}

func (s *SignupService) SignOut(ctx context.Context, token string) error {
	return s.identity.SignOut(ctx, token)
}

// ConfirmEmail consumes the token from an emailed verification link.
func (s *SignupService) ConfirmEmail(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, domain.ErrInvalidVerificationToken
	}
	session, err := s.identity.ConsumeVerificationLink(ctx, token)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("uid", session.AccountID).Msg("email verified")
	return session, nil
}
