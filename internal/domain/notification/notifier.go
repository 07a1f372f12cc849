package notification

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Notifier delivers one event
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Dispatcher hands events off after a transition has committed.
// Dispatch never reports failure to the caller.
type Dispatcher interface {
	Dispatch(events ...Event)
}

// DefaultTimeout bounds a single delivery
const DefaultTimeout = 5 * time.Second

// Async delivers every event on its own goroutine with a background context,
// so request cancellation never drops a notification. Errors are logged.
// Events dispatched after Close are delivered inline.
type Async struct {
	next    Notifier
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewAsync wraps next; timeout <= 0 uses DefaultTimeout
func NewAsync(next Notifier, timeout time.Duration) *Async {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Async{next: next, timeout: timeout}
}

// Dispatch implements Dispatcher
func (a *Async) Dispatch(events ...Event) {
	for _, e := range events {
		a.mu.Lock()
		if a.closed {
			a.mu.Unlock()
			a.deliver(e)
			continue
		}
		a.wg.Add(1)
		a.mu.Unlock()

		go func(e Event) {
			defer a.wg.Done()
			a.deliver(e)
		}(e)
	}
}

func (a *Async) deliver(e Event) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	if err := a.next.Notify(ctx, e); err != nil {
		log.Error().Err(err).
			Str("user_id", e.UserID.String()).
			Str("type", string(e.Type)).
			Msg("Failed to deliver notification")
	}
}

// Close waits for in-flight deliveries. Handlers still running after a
// server timeout may dispatch later; those events are sent synchronously.
func (a *Async) Close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	a.wg.Wait()
}

// Sync delivers events inline before returning
type Sync struct {
	Next Notifier
}

// Dispatch implements Dispatcher
func (s Sync) Dispatch(events ...Event) {
	for _, e := range events {
		if err := s.Next.Notify(context.Background(), e); err != nil {
			log.Error().Err(err).Str("type", string(e.Type)).Msg("Failed to deliver notification")
		}
	}
}

// LogNotifier writes events to the log; used when Redis is not configured
type LogNotifier struct{}

// Notify implements Notifier
func (LogNotifier) Notify(ctx context.Context, e Event) error {
	log.Info().
		Str("user_id", e.UserID.String()).
		Str("type", string(e.Type)).
		Str("title", e.Title).
		Msg("Notification")
	return nil
}
