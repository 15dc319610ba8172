package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muniworks/land-office/internal/queue"
)

const minEffectsConcurrency = 1

// EffectsWorker consumes committed transition events and applies their
// side effects. Handling is best-effort per event; the processor never
// fails an event whose transition already committed.
type EffectsWorker struct {
	consumer    queue.Consumer
	effects     *EffectsProcessor
	logger      *zap.Logger
	concurrency int
}

func NewEffectsWorker(
	consumer queue.Consumer,
	effects *EffectsProcessor,
	concurrency int,
	logger *zap.Logger,
) (*EffectsWorker, error) {
	if consumer == nil {
		return nil, fmt.Errorf("consumer is required")
	}
	if effects == nil {
		return nil, fmt.Errorf("effects processor is required")
	}
	if concurrency < minEffectsConcurrency {
		concurrency = minEffectsConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &EffectsWorker{
		consumer:    consumer,
		effects:     effects,
		logger:      logger,
		concurrency: concurrency,
	}, nil
}

// Start consumes the effects queue until context cancellation.
func (w *EffectsWorker) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	g, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		workerID := i + 1

		g.Go(func() error {
			w.logger.Info("effects worker started", zap.Int("workerId", workerID))

			err := w.consumer.Consume(groupCtx, queue.EffectsQueue, w.effects.Apply)
			if err != nil {
				w.logger.Error("effects worker stopped with error",
					zap.Int("workerId", workerID),
					zap.Error(err),
				)
				return err
			}

			w.logger.Info("effects worker stopped", zap.Int("workerId", workerID))
			return nil
		})
	}

	return g.Wait()
}
