package mail

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mora-creators/onboarding/internal/core/ports"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []ports.VerificationEmail
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg ports.VerificationEmail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return s.err
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(4, &recordingSender{}, zerolog.Nop())
	a := d.shardIndex("alice@example.com")
	for i := 0; i < 10; i++ {
		if d.shardIndex("Alice@Example.com") != a {
			t.Fatalf("recipient must always map to the same worker")
		}
	}
	if a < 0 || a >= 4 {
		t.Fatalf("shard index out of range: %d", a)
	}
}

func TestDispatcher_DeliversInOrderPerRecipient(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(3, sender, zerolog.Nop())

	var mu sync.Mutex
	var results []error
	d.OnResult = func(err error) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	for _, link := range []string{"l1", "l2", "l3"} {
		d.Enqueue(ports.VerificationEmail{To: "bob@example.com", Link: link})
	}

	deadline := time.Now().Add(2 * time.Second)
	for sender.count() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 3 deliveries, got %d", sender.count())
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	d.Wait()

	for i, want := range []string{"l1", "l2", "l3"} {
		if sender.sent[i].Link != want {
			t.Fatalf("delivery %d: got %s, want %s", i, sender.sent[i].Link, want)
		}
	}
	mu.Lock()
	defer mu.Unlock()
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
}

func TestDispatcher_SendErrorDoesNotStopWorker(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	d := NewDispatcher(1, sender, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	d.Enqueue(ports.VerificationEmail{To: "a@example.com"})
	d.Enqueue(ports.VerificationEmail{To: "b@example.com"})

	deadline := time.Now().Add(2 * time.Second)
	for sender.count() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("worker stopped after a failed send")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	d.Wait()
}

func TestRenderVerification(t *testing.T) {
	raw, err := RenderVerification("noreply@mora.test", ports.VerificationEmail{
		To:       "carol@example.com",
		Username: "<carol>",
		Link:     "https://mora.test/verify#access_token=abc",
	})
	if err != nil {
		t.Fatalf("RenderVerification returned error: %v", err)
	}
	s := string(raw)
	for _, want := range []string{
		"To: carol@example.com\r\n",
		"Subject: Confirm your email\r\n",
		`href="https://mora.test/verify#access_token=abc"`,
		"&lt;carol&gt;",
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("message missing %q:\n%s", want, s)
		}
	}
}
