package notify

import (
	"context"
	"log/slog"
)

// LogPublisher writes events to the log instead of a bus. It is the
// default for local development.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher constructs a LogPublisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, evt Event) error {
	p.logger.InfoContext(ctx, "domain event", "source", evt.Source, "event_type", evt.Type, "detail", evt.Detail)
	return nil
}
