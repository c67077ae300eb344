package handler

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mora-creators/onboarding/internal/core/domain"
	"github.com/mora-creators/onboarding/internal/core/ports"
)

var (
	discardLogger = zerolog.Nop()
	errBackend    = errors.New("backend unavailable")
)

type stubSignupService struct {
	signupFn  func(ctx context.Context, in ports.SignupInput) (*ports.SignupResult, error)
	signInFn  func(ctx context.Context, email, password string) (*domain.Session, error)
	signOutFn func(ctx context.Context, token string) error
	confirmFn func(ctx context.Context, token string) (*domain.Session, error)
}

func (s *stubSignupService) Signup(ctx context.Context, in ports.SignupInput) (*ports.SignupResult, error) {
	return s.signupFn(ctx, in)
}

func (s *stubSignupService) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	return s.signInFn(ctx, email, password)
}

func (s *stubSignupService) SignOut(ctx context.Context, token string) error {
	return s.signOutFn(ctx, token)
}

func (s *stubSignupService) ConfirmEmail(ctx context.Context, token string) (*domain.Session, error) {
	return s.confirmFn(ctx, token)
}

// stubOnboardingService records the inputs it receives.
type stubOnboardingService struct {
	view *ports.FlowView
	err  error

	session  *domain.Session
	advanced ports.AdvanceInput
	staged   ports.FileInput
	body     string
	submit   ports.SubmitInput
	avatar   string
}

func (s *stubOnboardingService) Mount(_ context.Context, session *domain.Session) (*ports.FlowView, error) {
	s.session = session
	return s.view, s.err
}

func (s *stubOnboardingService) Advance(_ context.Context, session *domain.Session, in ports.AdvanceInput) (*ports.FlowView, error) {
	s.session, s.advanced = session, in
	return s.view, s.err
}

func (s *stubOnboardingService) Stage(_ context.Context, session *domain.Session, in ports.FileInput) (*ports.FlowView, error) {
	s.session, s.staged = session, in
	data, _ := io.ReadAll(in.Reader)
	s.body = string(data)
	return s.view, s.err
}

func (s *stubOnboardingService) Submit(_ context.Context, session *domain.Session, in ports.SubmitInput) (*ports.FlowView, error) {
	s.session, s.submit = session, in
	if in.Avatar != nil {
		data, _ := io.ReadAll(in.Avatar.Reader)
		s.avatar = string(data)
	}
	return s.view, s.err
}

func (s *stubOnboardingService) Dashboard(_ context.Context, session *domain.Session) (*ports.DashboardView, error) {
	s.session = session
	if s.err != nil {
		return nil, s.err
	}
	return &ports.DashboardView{Profile: &domain.UserProfile{UID: session.AccountID, Status: domain.StatusActive}, Next: domain.RouteDashboard}, nil
}

type stubReviewService struct {
	profiles []*domain.UserProfile
	detail   *ports.ReviewDetail
	err      error
	approved string
}

func (s *stubReviewService) ListPending(context.Context) ([]*domain.UserProfile, error) {
	return s.profiles, s.err
}

func (s *stubReviewService) Detail(context.Context, string) (*ports.ReviewDetail, error) {
	return s.detail, s.err
}

func (s *stubReviewService) Approve(_ context.Context, uid string) (*domain.UserProfile, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.approved = uid
	return &domain.UserProfile{UID: uid, Status: domain.StatusActive}, nil
}

func (s *stubReviewService) Reject(context.Context, string) error {
	return domain.ErrRejectNotImplemented
}

// stubIdentity backs the verification watch. Sessions are keyed by token.
type stubIdentity struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	subs     map[string][]*stubSubscription
}

func newStubIdentity() *stubIdentity {
	return &stubIdentity{
		sessions: make(map[string]*domain.Session),
		subs:     make(map[string][]*stubSubscription),
	}
}

func (s *stubIdentity) CreateAccount(context.Context, string, string) (*domain.Account, error) {
	return nil, errors.New("not implemented")
}

func (s *stubIdentity) SignIn(context.Context, string, string) (*domain.Session, error) {
	return nil, errors.New("not implemented")
}

func (s *stubIdentity) CurrentSession(_ context.Context, token string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[token]; ok {
		return sess, nil
	}
	return nil, domain.ErrNoSession
}

func (s *stubIdentity) SignOut(context.Context, string) error { return nil }

func (s *stubIdentity) IssueVerificationLink(context.Context, *domain.Account) (string, error) {
	return "", errors.New("not implemented")
}

func (s *stubIdentity) ConsumeVerificationLink(context.Context, string) (*domain.Session, error) {
	return nil, domain.ErrInvalidVerificationToken
}

func (s *stubIdentity) SubscribeSessionChanges(_ context.Context, uid string) (ports.SessionSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub := &stubSubscription{ch: make(chan *domain.Session, 1)}
	s.subs[uid] = append(s.subs[uid], sub)
	return sub, nil
}

// notify publishes a verified session to every watcher of uid.
func (s *stubIdentity) notify(uid string) {
	s.mu.Lock()
	subs := append([]*stubSubscription(nil), s.subs[uid]...)
	s.mu.Unlock()
	for _, sub := range subs {
		sub.push(&domain.Session{AccountID: uid, EmailVerified: true})
	}
}

func (s *stubIdentity) subscriptions(uid string) []*stubSubscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*stubSubscription(nil), s.subs[uid]...)
}

type stubSubscription struct {
	mu     sync.Mutex
	ch     chan *domain.Session
	closed bool
}

func (s *stubSubscription) Changes() <-chan *domain.Session { return s.ch }

func (s *stubSubscription) push(sess *domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- sess:
	default:
	}
}

func (s *stubSubscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	return nil
}

func (s *stubSubscription) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
