package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/muniworks/land-office/internal/domain"
	"github.com/muniworks/land-office/internal/repository"
)

const (
	defaultSweepInterval = time.Minute
	defaultSweepLimit    = 50
)

// Sweeper periodically re-runs due sync retries. Claiming a record is a
// conditional PENDING→RETRYING update, so overlapping sweeps (the ticker
// loop and the manual endpoint) never run the same retry twice.
type Sweeper struct {
	retries  repository.SyncRetryRepository
	sync     *SyncService
	logger   *zap.Logger
	interval time.Duration
	limit    int

	now func() time.Time
}

func NewSweeper(
	retries repository.SyncRetryRepository,
	sync *SyncService,
	interval time.Duration,
	limit int,
	logger *zap.Logger,
) (*Sweeper, error) {
	if sync == nil {
		return nil, fmt.Errorf("sync service is required")
	}
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if limit <= 0 {
		limit = defaultSweepLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Sweeper{
		retries:  retries,
		sync:     sync,
		logger:   logger,
		interval: interval,
		limit:    limit,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *Sweeper) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("initial sync sweep failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Error("sync sweep failed", zap.Error(err))
			}
		}
	}
}

// SweepOnce claims and re-attempts every due retry, returning how many
// attempts actually ran.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	due, err := s.retries.GetDue(ctx, s.now(), s.limit)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch due sync retries: %w", err)
	}

	attempted := 0
	for i := range due {
		record := due[i]

		claimed, err := s.retries.MarkRetrying(ctx, record.ID)
		if err != nil {
			s.logger.Error("failed to claim sync retry",
				zap.String("retryId", record.ID),
				zap.String("propertyId", record.PropertyID),
				zap.Error(err),
			)
			continue
		}
		if !claimed {
			continue
		}

		attempted++
		if err := s.sync.AttemptSync(ctx, record.PropertyID, ""); err != nil {
			if errors.Is(err, domain.ErrSyncFailure) {
				// Expected path; the failure is already persisted and rescheduled.
				continue
			}

			// The property is gone or no longer eligible; close the record
			// so it stops coming up due.
			s.logger.Error("sync retry attempt errored",
				zap.String("retryId", record.ID),
				zap.String("propertyId", record.PropertyID),
				zap.Error(err),
			)
			s.closeStaleRetry(ctx, record, err)
		}
	}

	return attempted, nil
}

func (s *Sweeper) closeStaleRetry(ctx context.Context, record domain.SyncRetryRecord, cause error) {
	now := s.now()
	message := cause.Error()

	record.Status = domain.RetryStatusFailed
	record.LastError = &message
	record.LastAttemptAt = now
	record.NextRetryAt = nil
	record.UpdatedAt = now

	if err := s.retries.Update(ctx, &record); err != nil {
		s.logger.Error("failed to close stale sync retry",
			zap.String("retryId", record.ID),
			zap.Error(err),
		)
	}
}
