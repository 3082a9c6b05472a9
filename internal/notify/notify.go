// Package notify emits domain events to an external bus. Emission is
// fire-and-forget: callers never wait on delivery and never see its errors.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Event types published by the catalog.
const (
	WorkshopCreated   = "WORKSHOP_CREATED"
	StudentRegistered = "STUDENT_REGISTERED"
	WorkshopReminder  = "WORKSHOP_REMINDER"
)

// Event sources.
const (
	SourceWorkshops     = "skillsforge.workshops"
	SourceRegistrations = "skillsforge.registrations"
	SourceReminders     = "skillsforge.reminders"
)

// Event is one domain event. Detail is JSON-encoded by the publisher.
type Event struct {
	Source string
	Type   string
	Detail any
}

// Publisher delivers a single event to a bus.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// DefaultPublishTimeout bounds a single background publish.
const DefaultPublishTimeout = 5 * time.Second

// Notifier dispatches events to a Publisher on background goroutines.
type Notifier struct {
	pub     Publisher
	logger  *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// New constructs a Notifier. A nil logger falls back to slog.Default().
func New(pub Publisher, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{pub: pub, logger: logger, timeout: DefaultPublishTimeout}
}

// Emit hands evt to the publisher in the background and returns
// immediately. The caller's cancellation does not abort the publish; a
// failure is logged and dropped.
func (n *Notifier) Emit(ctx context.Context, evt Event) {
	pubCtx := context.WithoutCancel(ctx)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(pubCtx, n.timeout)
		defer cancel()
		if err := n.pub.Publish(ctx, evt); err != nil {
			n.logger.WarnContext(ctx, "event emission failed",
				"event_type", evt.Type, "source", evt.Source, "error", err)
			return
		}
		n.logger.DebugContext(ctx, "event emitted", "event_type", evt.Type, "source", evt.Source)
	}()
}

// Close waits for in-flight publishes or for ctx to end.
func (n *Notifier) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
