// Package eventbus implements the core's event bus (§4.C13): a simple
// synchronous publish/subscribe mechanism with per-handler error isolation,
// used to decouple the dialogue engine, planner, and HITL gate from the
// audit log and metrics collector.
package eventbus

import (
	"context"

	"github.com/haasonsaas/agentcore/internal/observability"
)

// Handler receives every published event. A handler must not block the
// publisher for long and must not panic; Bus recovers and logs instead of
// propagating a handler panic to the caller.
type Handler interface {
	Name() string
	Handle(ctx context.Context, event *observability.Event)
}

// Bus publishes events to a fixed set of handlers registered at startup.
// Handlers are not added or removed dynamically at runtime (§4.C13): the
// set is wired once when the core boots.
type Bus struct {
	handlers []Handler
	logger   *observability.Logger
}

// New creates a bus with the given handlers, in registration order.
func New(logger *observability.Logger, handlers ...Handler) *Bus {
	return &Bus{handlers: handlers, logger: logger}
}

// Publish delivers event to every registered handler in order. A handler
// that panics or whose Handle call the caller wants to guard against is
// isolated: its failure is logged and does not stop delivery to the
// remaining handlers.
func (b *Bus) Publish(ctx context.Context, event *observability.Event) {
	for _, h := range b.handlers {
		b.deliver(ctx, h, event)
	}
}

func (b *Bus) deliver(ctx context.Context, h Handler, event *observability.Event) {
	defer func() {
		if r := recover(); r != nil {
			if b.logger != nil {
				b.logger.Error(ctx, "event handler panicked", "handler", h.Name(), "event_type", string(event.Type), "panic", r)
			}
		}
	}()
	h.Handle(ctx, event)
}
