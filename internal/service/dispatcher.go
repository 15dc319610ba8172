package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/muniworks/land-office/internal/observability"
	"github.com/muniworks/land-office/internal/queue"
)

// TransitionDispatcher hands committed transitions to the effects worker
// through the broker. When the broker is unavailable the side effects run
// inline instead, so a queue outage degrades latency, not behavior.
type TransitionDispatcher struct {
	publisher queue.Publisher
	effects   *EffectsProcessor
	metrics   *observability.Metrics
	logger    *zap.Logger
}

func NewTransitionDispatcher(
	publisher queue.Publisher,
	effects *EffectsProcessor,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *TransitionDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &TransitionDispatcher{
		publisher: publisher,
		effects:   effects,
		metrics:   metrics,
		logger:    logger,
	}
}

// Dispatch never returns an error: the transition is already committed
// and side effects are best-effort.
func (d *TransitionDispatcher) Dispatch(ctx context.Context, event queue.TransitionEvent) {
	if d.publisher != nil {
		err := d.publisher.Publish(ctx, queue.EffectsQueue, event)
		if err == nil {
			return
		}

		if d.metrics != nil {
			d.metrics.IncSideEffectFailure("publish")
		}
		d.logger.Error("failed to publish transition event, running effects inline",
			zap.String("eventId", event.EventID),
			zap.String("entityId", event.EntityID),
			zap.String("action", event.Action.String()),
			zap.Error(err),
		)
	}

	if d.effects != nil {
		_ = d.effects.Apply(ctx, event)
	}
}
