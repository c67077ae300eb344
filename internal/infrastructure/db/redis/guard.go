package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const submitGuardTTL = 2 * time.Minute

// releaseScript deletes the guard only while it still carries the caller's
// token, so an expired holder cannot free a guard taken over by a later
// submit.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SubmitGuard serialises submit transitions per user.
// Key format: onboarding:submit:<uid>
type SubmitGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSubmitGuard creates a SubmitGuard wrapping the given Redis client.
func NewSubmitGuard(client *redis.Client) *SubmitGuard {
	return &SubmitGuard{client: client, ttl: submitGuardTTL}
}

// Acquire reports whether the caller now holds the guard and returns the
// token to release it with. The key expires on its own if the holder dies
// before Release.
func (g *SubmitGuard) Acquire(ctx context.Context, uid string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, g.key(uid), token, g.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("submit guard: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (g *SubmitGuard) Release(ctx context.Context, uid, token string) error {
	if err := releaseScript.Run(ctx, g.client, []string{g.key(uid)}, token).Err(); err != nil {
		return fmt.Errorf("release submit guard: %w", err)
	}
	return nil
}

func (g *SubmitGuard) key(uid string) string {
	return "onboarding:submit:" + uid
}
