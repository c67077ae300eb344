package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mora-creators/onboarding/internal/core/domain"
	"github.com/mora-creators/onboarding/internal/core/ports"
)

// SessionStore implements ports.SessionStore.
//
// Key formats:
//
//	session:<sid>                 account id, expires with the session
//	verify:<token>                account id, single use
//	session:changed:<uid>         pub/sub channel
type SessionStore struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewSessionStore(client *redis.Client, log zerolog.Logger) *SessionStore {
	return &SessionStore{client: client, log: log}
}

func (s *SessionStore) SaveSession(ctx context.Context, sessionID, accountID string, ttl time.Duration) error {
	return s.client.Set(ctx, "session:"+sessionID, accountID, ttl).Err()
}

func (s *SessionStore) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.client.Exists(ctx, "session:"+sessionID).Result()
	if err != nil {
		return false, fmt.Errorf("session check: %w", err)
	}
	return n > 0, nil
}

func (s *SessionStore) DeleteSession(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, "session:"+sessionID).Err()
}

func (s *SessionStore) SaveVerificationToken(ctx context.Context, token, accountID string, ttl time.Duration) error {
	return s.client.Set(ctx, "verify:"+token, accountID, ttl).Err()
}

// ConsumeVerificationToken reads and deletes the token in one command so a
// link cannot be used twice.
func (s *SessionStore) ConsumeVerificationToken(ctx context.Context, token string) (string, error) {
	uid, err := s.client.GetDel(ctx, "verify:"+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrInvalidVerificationToken
	}
	if err != nil {
		return "", fmt.Errorf("consume verification token: %w", err)
	}
	return uid, nil
}

// PublishSessionChange broadcasts the session without its bearer token.
func (s *SessionStore) PublishSessionChange(ctx context.Context, session *domain.Session) error {
	notified := *session
	notified.Token = ""
	raw, err := json.Marshal(notified)
	if err != nil {
		return fmt.Errorf("encode session change: %w", err)
	}
	return s.client.Publish(ctx, changeChannel(session.AccountID), raw).Err()
}

// SubscribeSessionChanges waits for the subscription to be confirmed before
// returning, so no change published afterwards is missed.
func (s *SessionStore) SubscribeSessionChanges(ctx context.Context, accountID string) (ports.SessionSubscription, error) {
	ps := s.client.Subscribe(ctx, changeChannel(accountID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe session changes: %w", err)
	}

	sub := &sessionSubscription{
		ps:   ps,
		out:  make(chan *domain.Session, 1),
		done: make(chan struct{}),
	}
	go sub.run(s.log.With().Str("uid", accountID).Logger())
	return sub, nil
}

type sessionSubscription struct {
	ps   *redis.PubSub
	out  chan *domain.Session
	done chan struct{}
	once sync.Once
}

func (s *sessionSubscription) run(log zerolog.Logger) {
	defer close(s.out)
	for msg := range s.ps.Channel() {
		var session domain.Session
		if err := json.Unmarshal([]byte(msg.Payload), &session); err != nil {
			log.Warn().Err(err).Msg("malformed session change")
			continue
		}
		select {
		case s.out <- &session:
		case <-s.done:
			return
		}
	}
}

func (s *sessionSubscription) Changes() <-chan *domain.Session {
	return s.out
}

func (s *sessionSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}

func changeChannel(uid string) string {
	return "session:changed:" + uid
}
