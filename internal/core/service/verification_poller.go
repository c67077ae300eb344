package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mora-creators/onboarding/internal/core/domain"
	"github.com/mora-creators/onboarding/internal/core/ports"
)

// DefaultRedirectDelay is how long the verified state is shown before the
// client is sent on to onboarding.
const DefaultRedirectDelay = 5 * time.Second

// SessionClient is the explicit session handle shared by the HTTP layer and
// the verification poller. It is the only place that subscribes to session
// changes.
type SessionClient struct {
	identity ports.IdentityProvider
	log      zerolog.Logger
}

func NewSessionClient(identity ports.IdentityProvider, log zerolog.Logger) *SessionClient {
	return &SessionClient{identity: identity, log: log}
}

// CurrentSession resolves a bearer token to its session.
func (c *SessionClient) CurrentSession(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, domain.ErrNoSession
	}
	return c.identity.CurrentSession(ctx, token)
}

// Subscribe opens a session-change subscription for one account.
func (c *SessionClient) Subscribe(ctx context.Context, accountID string) (ports.SessionSubscription, error) {
	return c.identity.SubscribeSessionChanges(ctx, accountID)
}

// ProcessFragment exchanges the access token carried by a verification link
// for a session. Subscribers of the account are notified by the provider.
func (c *SessionClient) ProcessFragment(ctx context.Context, token string) (*domain.Session, error) {
	return c.identity.ConsumeVerificationLink(ctx, token)
}

// WatchRequest describes the verify page that mounted the poller.
type WatchRequest struct {
	AccountID string
	// SessionToken is the bearer the page already holds, if any.
	SessionToken string
	// FragmentToken is the access token found in the page URL fragment.
	FragmentToken string
}

// VerificationEvent is streamed to the verify page.
type VerificationEvent struct {
	State    domain.VerificationState `json:"state"`
	Navigate string                   `json:"navigate,omitempty"`
	// Session is only set for the page that exchanged its own fragment.
	Session *domain.Session `json:"session,omitempty"`
}

// afterFunc schedules f and returns a function that cancels it.
type afterFunc func(d time.Duration, f func()) (stop func() bool)

func timeAfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// VerificationPoller detects out-of-band email verification for one page
// and moves it through pending, verifying and verified. Navigation onward
// is scheduled exactly once. A poller is single use.
type VerificationPoller struct {
	client *SessionClient
	delay  time.Duration
	after  afterFunc
	log    zerolog.Logger

	events chan VerificationEvent

	mu        sync.Mutex
	state     domain.VerificationState
	scheduled bool
	cancelNav func() bool
	stopped   bool
	sub       ports.SessionSubscription
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewVerificationPoller(client *SessionClient, delay time.Duration, log zerolog.Logger) *VerificationPoller {
	if delay <= 0 {
		delay = DefaultRedirectDelay
	}
	return &VerificationPoller{
		client: client,
		delay:  delay,
		after:  timeAfterFunc,
		log:    log,
		events: make(chan VerificationEvent, 4),
		state:  domain.VerificationPending,
	}
}

// Events is closed by Stop.
func (p *VerificationPoller) Events() <-chan VerificationEvent {
	return p.events
}

func (p *VerificationPoller) State() domain.VerificationState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Start mounts the poller. It subscribes first so that a verification
// completing during the initial lookup is not missed. Only sessions of a
// confirmed email count as verified; any other session leaves the page
// pending.
func (p *VerificationPoller) Start(ctx context.Context, req WatchRequest) error {
	ctx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	p.cancel = cancel
	p.emitLocked(VerificationEvent{State: domain.VerificationPending})
	p.mu.Unlock()

	if req.AccountID != "" {
		if err := p.subscribe(ctx, req.AccountID); err != nil {
			cancel()
			return err
		}
	}

	if req.SessionToken != "" {
		session, err := p.client.CurrentSession(ctx, req.SessionToken)
		switch {
		case err == nil && req.AccountID != "" && session.AccountID != req.AccountID:
			// another account's session proves nothing here
		case err == nil && session.EmailVerified:
			p.onSession(session, false)
			return nil
		case err == nil && req.AccountID == "":
			// The bearer names the account to wait on. Look again once
			// subscribed in case the link was followed in between.
			if err := p.subscribe(ctx, session.AccountID); err != nil {
				cancel()
				return err
			}
			if again, err := p.client.CurrentSession(ctx, req.SessionToken); err == nil && again.EmailVerified {
				p.onSession(again, false)
				return nil
			}
		case err != nil && !errors.Is(err, domain.ErrNoSession):
			p.log.Error().Err(err).Str("uid", req.AccountID).Msg("session lookup failed")
		}
	}

	if req.FragmentToken != "" {
		p.mu.Lock()
		if p.state == domain.VerificationPending && !p.stopped {
			p.state = domain.VerificationVerifying
			p.emitLocked(VerificationEvent{State: domain.VerificationVerifying})
		}
		p.mu.Unlock()

		go func() {
			session, err := p.client.ProcessFragment(ctx, req.FragmentToken)
			if err != nil {
				p.log.Warn().Err(err).Str("uid", req.AccountID).Msg("verification link rejected")
				return
			}
			p.onSession(session, true)
		}()
	}
	return nil
}

func (p *VerificationPoller) subscribe(ctx context.Context, accountID string) error {
	sub, err := p.client.Subscribe(ctx, accountID)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.sub = sub
	p.done = make(chan struct{})
	p.mu.Unlock()
	go p.listen(ctx, sub)
	return nil
}

func (p *VerificationPoller) listen(ctx context.Context, sub ports.SessionSubscription) {
	defer close(p.done)
	for {
		select {
		case <-ctx.Done():
			return
		case session, ok := <-sub.Changes():
			if !ok {
				return
			}
			if session != nil && session.EmailVerified {
				p.onSession(session, false)
			}
		}
	}
}

// onSession is the single transition into verified.
func (p *VerificationPoller) onSession(session *domain.Session, own bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped || p.scheduled || !session.EmailVerified {
		return
	}
	p.state = domain.VerificationVerified
	p.scheduled = true

	ev := VerificationEvent{State: domain.VerificationVerified}
	if own {
		ev.Session = session
	}
	p.emitLocked(ev)
	p.cancelNav = p.after(p.delay, p.navigate)
}

func (p *VerificationPoller) navigate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.emitLocked(VerificationEvent{State: domain.VerificationVerified, Navigate: domain.RouteOnboarding})
}

func (p *VerificationPoller) emitLocked(ev VerificationEvent) {
	if p.stopped {
		return
	}
	select {
	case p.events <- ev:
	default:
		p.log.Warn().Str("state", string(ev.State)).Msg("verification event dropped")
	}
}

// Stop unsubscribes and cancels a pending navigation. It is safe to call
// more than once.
func (p *VerificationPoller) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	if p.cancelNav != nil {
		p.cancelNav()
	}
	if p.cancel != nil {
		p.cancel()
	}
	sub, done := p.sub, p.done
	close(p.events)
	p.mu.Unlock()

	if sub != nil {
		if err := sub.Close(); err != nil {
			p.log.Warn().Err(err).Msg("failed to close session subscription")
		}
	}
	if done != nil {
		<-done
	}
}
