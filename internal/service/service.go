// Package service implements the catalog's business operations: workshop
// administration, the registration coordinator, student lifecycle and
// platform statistics. Every operation is a stateless unit of work; all
// cross-invocation safety is delegated to the store's conditional writes.
package service

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Shivanand-hulikatti/skillsforge/internal/notify"
)

var tracer = otel.Tracer("github.com/Shivanand-hulikatti/skillsforge/internal/service")

// EventSink accepts domain events. Implementations must not block the
// caller and report nothing back.
type EventSink interface {
	Emit(ctx context.Context, evt notify.Event)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) Emit(context.Context, notify.Event) {}

// endSpan records err on span, if any, and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
