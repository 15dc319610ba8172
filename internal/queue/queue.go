package queue

import "context"

const (
	// EffectsQueue carries workflow transition events to the side-effect worker.
	EffectsQueue = "workflow.effects"
	// EffectsDLQ receives transition events the worker rejected.
	EffectsDLQ = "dlq.workflow.effects"
)

// Publisher publishes transition events to a queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, event TransitionEvent) error
	Close() error
}

// EventHandler handles a consumed transition event.
type EventHandler func(ctx context.Context, event TransitionEvent) error

// Consumer consumes transition events from a queue.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler EventHandler) error
	Close() error
}
