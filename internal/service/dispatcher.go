package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/DevRickLin/feishu-watchbot/internal/biz/domain"
	"github.com/DevRickLin/feishu-watchbot/internal/biz/repo"
)

// Dispatcher hands notifications to the notifier without blocking the caller.
// Delivery is at most once: failures are logged and never retried, and
// concurrent sends may complete in any order.
type Dispatcher struct {
	notifierRepo repo.NotifierRepo
	preamble     string
	log          zerolog.Logger

	group  errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc

	// mu makes the closed check and TryGo atomic with respect to Close
	mu     sync.RWMutex
	closed bool
}

// NewDispatcher creates a new dispatcher. At most maxInFlight sends run at
// once; notifications arriving beyond that are dropped.
func NewDispatcher(notifierRepo repo.NotifierRepo, ownerID string, maxInFlight int, log zerolog.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		notifierRepo: notifierRepo,
		preamble:     Preamble(ownerID),
		log:          log.With().Str("component", "dispatcher").Logger(),
		ctx:          ctx,
		cancel:       cancel,
	}
	if maxInFlight > 0 {
		d.group.SetLimit(maxInFlight)
	}
	return d
}

// Preamble is the text sent alongside every notification
func Preamble(ownerID string) string {
	return fmt.Sprintf("Stalkify away <@%s>", ownerID)
}

// Dispatch starts sending n in the background and returns immediately.
// It reports whether the send was started.
func (d *Dispatcher) Dispatch(n *domain.Notification) bool {
	id := uuid.NewString()

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn().Str("dispatch_id", id).Msg("Dispatcher closed, dropping notification")
		return false
	}

	started := d.group.TryGo(func() error {
		start := time.Now()
		if err := d.notifierRepo.Send(d.ctx, d.preamble, n); err != nil {
			d.log.Error().Err(err).Str("dispatch_id", id).Msg("Failed to send notification")
			return nil
		}
		d.log.Debug().Str("dispatch_id", id).Dur("took", time.Since(start)).Msg("Notification sent")
		return nil
	})
	if !started {
		d.log.Warn().Str("dispatch_id", id).Msg("Too many notifications in flight, dropping")
	}
	return started
}

// Close stops accepting notifications and waits for in-flight sends.
// Sends still running when ctx is done are cancelled.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = d.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}
