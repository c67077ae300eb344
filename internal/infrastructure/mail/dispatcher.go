package mail

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mora-creators/onboarding/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Sender delivers one verification email.
type Sender interface {
	Send(ctx context.Context, msg ports.VerificationEmail) error
}

// Dispatcher delivers queued emails on a fixed set of workers, sharded by
// recipient so messages to one address go out in order.
type Dispatcher struct {
	workers []chan ports.VerificationEmail
	sender  Sender
	log     zerolog.Logger
	wg      sync.WaitGroup

	// OnResult is called after every delivery attempt when set.
	OnResult func(err error)
}

var _ ports.MailQueue = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sender Sender, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.VerificationEmail, numWorkers),
		sender:  sender,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.VerificationEmail, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands msg to the worker owning its recipient. It never blocks the
// caller: when that worker's buffer is full the message is dropped and
// logged, and the user can request a new link by signing in again.
func (d *Dispatcher) Enqueue(msg ports.VerificationEmail) {
	select {
	case d.workers[d.shardIndex(msg.To)] <- msg:
	default:
		d.log.Error().Str("to", msg.To).Msg("mail queue full, verification email dropped")
	}
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *Dispatcher) shardIndex(to string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(to)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.VerificationEmail) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			err := d.sender.Send(ctx, msg)
			if err != nil {
				d.log.Error().Err(err).
					Str("to", msg.To).
					Int("worker_id", id).
					Msg("verification email failed")
			}
			if d.OnResult != nil {
				d.OnResult(err)
			}
		}
	}
}
