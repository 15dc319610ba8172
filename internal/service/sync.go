package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muniworks/land-office/internal/ago"
	"github.com/muniworks/land-office/internal/domain"
	"github.com/muniworks/land-office/internal/observability"
	"github.com/muniworks/land-office/internal/repository"
)

// SyncService pushes approved properties to ArcGIS Online and schedules
// retries on failure. Retry state lives entirely in sync_retries rows:
// each failed attempt closes the record that drove it and, while the
// retry budget lasts, opens the next one with the fixed delay table.
// Budget exhaustion opens no successor and notifies administrators.
type SyncService struct {
	entities      repository.EntityRepository
	retries       repository.SyncRetryRepository
	activities    repository.ActivityRepository
	users         repository.UserRepository
	notifications repository.NotificationRepository
	client        ago.Client
	metrics       *observability.Metrics
	logger        *zap.Logger

	now   func() time.Time
	newID func() string
}

func NewSyncService(
	entities repository.EntityRepository,
	retries repository.SyncRetryRepository,
	activities repository.ActivityRepository,
	users repository.UserRepository,
	notifications repository.NotificationRepository,
	client ago.Client,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SyncService{
		entities:      entities,
		retries:       retries,
		activities:    activities,
		users:         users,
		notifications: notifications,
		client:        client,
		metrics:       metrics,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
		newID:         uuid.NewString,
	}
}

// AttemptSync runs one synchronization attempt for an approved property.
// The returned error reports the attempt outcome to the direct caller
// (sweeper, manual endpoint); scheduling already happened either way.
func (s *SyncService) AttemptSync(ctx context.Context, propertyID string, actorID string) error {
	entity, err := s.entities.GetByID(ctx, propertyID)
	if err != nil {
		return err
	}
	if entity.Kind != domain.KindProperty {
		return fmt.Errorf("%w: only properties are synchronized", domain.ErrValidation)
	}
	if entity.Status != domain.StatusApproved {
		return fmt.Errorf("%w: property is not approved", domain.ErrNotInState)
	}

	if actorID == "" {
		actorID = syncActor(entity)
	}

	started := s.now()
	result, syncErr := s.client.Sync(ctx, ago.SyncRequest{
		EntityID:      entity.ID,
		ReferenceCode: entity.ReferenceCode,
		Kind:          entity.Kind,
		Name:          entity.Name,
		Attributes:    entity.Attributes,
		ObjectID:      stringValue(entity.AgoObjectID),
	})
	if s.metrics != nil {
		s.metrics.ObserveSyncDuration(s.now().Sub(started))
	}

	if syncErr != nil {
		s.recordFailure(ctx, entity, actorID, syncErr)
		return fmt.Errorf("%w: %v", domain.ErrSyncFailure, syncErr)
	}

	s.recordSuccess(ctx, entity, actorID, result.ObjectID)
	return nil
}

// ListRetries returns a property's retry history, oldest attempt first.
func (s *SyncService) ListRetries(ctx context.Context, propertyID string) ([]domain.SyncRetryRecord, error) {
	if _, err := s.entities.GetByID(ctx, propertyID); err != nil {
		return nil, err
	}
	return s.retries.ListByProperty(ctx, propertyID)
}

func (s *SyncService) recordSuccess(ctx context.Context, entity *domain.Entity, actorID string, objectID string) {
	now := s.now()

	if s.metrics != nil {
		s.metrics.IncSyncAttempt("success")
	}

	err := s.entities.UpdateFields(ctx, entity.ID, repository.EntityUpdates{
		"ago_sync_status":  domain.SyncStatusSynced,
		"ago_object_id":    objectID,
		"ago_sync_error":   nil,
		"ago_last_sync_at": now,
	})
	if err != nil {
		s.logger.Error("failed to persist sync success",
			zap.String("propertyId", entity.ID),
			zap.Error(err),
		)
	}

	s.closeOpenRetry(ctx, entity.ID, domain.RetryStatusSuccess, nil, now)

	s.writeSyncActivity(ctx, entity, actorID, domain.ActivitySynced, map[string]string{
		"reference_code": entity.ReferenceCode,
		"ago_object_id":  objectID,
	})
}

func (s *SyncService) recordFailure(ctx context.Context, entity *domain.Entity, actorID string, syncErr error) {
	now := s.now()
	message := syncErr.Error()

	if s.metrics != nil {
		s.metrics.IncSyncAttempt("failure")
	}

	err := s.entities.UpdateFields(ctx, entity.ID, repository.EntityUpdates{
		"ago_sync_status":  domain.SyncStatusError,
		"ago_sync_error":   message,
		"ago_last_sync_at": now,
	})
	if err != nil {
		s.logger.Error("failed to persist sync failure",
			zap.String("propertyId", entity.ID),
			zap.Error(err),
		)
	}

	failedAttempt := 1 + s.closeOpenRetry(ctx, entity.ID, domain.RetryStatusFailed, &message, now)

	delay, ok := domain.SyncRetryDelay(failedAttempt)
	if !ok {
		s.logger.Warn("retry budget exhausted",
			zap.String("propertyId", entity.ID),
			zap.Int("attempt", failedAttempt),
		)
		s.notifyAdministrators(ctx, entity)
		s.writeSyncActivity(ctx, entity, actorID, domain.ActivitySyncFailed, map[string]string{
			"reference_code": entity.ReferenceCode,
			"sync_error":     message,
			"retry":          "exhausted",
		})
		return
	}

	nextRetryAt := now.Add(delay)
	record := &domain.SyncRetryRecord{
		ID:            s.newID(),
		PropertyID:    entity.ID,
		AttemptNumber: failedAttempt,
		LastAttemptAt: now,
		NextRetryAt:   &nextRetryAt,
		LastError:     &message,
		Status:        domain.RetryStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.retries.Create(ctx, record); err != nil {
		s.logger.Error("failed to schedule sync retry",
			zap.String("propertyId", entity.ID),
			zap.Int("attempt", failedAttempt),
			zap.Error(err),
		)
	} else if s.metrics != nil {
		s.metrics.IncSyncRetryScheduled()
	}

	s.writeSyncActivity(ctx, entity, actorID, domain.ActivitySyncFailed, map[string]string{
		"reference_code": entity.ReferenceCode,
		"sync_error":     message,
		"next_retry_at":  nextRetryAt.Format(time.RFC3339),
	})
}

// closeOpenRetry finalizes the PENDING/RETRYING record that drove this
// attempt and returns its attempt number, 0 when the attempt was the first.
func (s *SyncService) closeOpenRetry(
	ctx context.Context,
	propertyID string,
	status domain.RetryStatus,
	lastError *string,
	now time.Time,
) int {
	open, err := s.retries.GetOpenByProperty(ctx, propertyID)
	if err != nil {
		return 0
	}

	open.Status = status
	open.LastError = lastError
	open.LastAttemptAt = now
	open.NextRetryAt = nil
	open.UpdatedAt = now
	if err := s.retries.Update(ctx, open); err != nil {
		s.logger.Error("failed to close retry record",
			zap.String("propertyId", propertyID),
			zap.String("retryId", open.ID),
			zap.Error(err),
		)
	}
	return open.AttemptNumber
}

func (s *SyncService) notifyAdministrators(ctx context.Context, entity *domain.Entity) {
	admins, err := s.users.ListActiveByRoles(ctx, []domain.Role{domain.RoleAdministrator})
	if err != nil {
		s.logger.Error("failed to resolve administrators for sync alert",
			zap.String("propertyId", entity.ID),
			zap.Error(err),
		)
		return
	}
	if len(admins) == 0 {
		return
	}

	now := s.now()
	rows := make([]domain.Notification, 0, len(admins))
	for _, admin := range admins {
		rows = append(rows, domain.Notification{
			ID:          s.newID(),
			RecipientID: admin.ID,
			Title:       "Property sync failed",
			Message:     fmt.Sprintf("Property %s failed to synchronize after %d attempts and needs manual intervention.", entity.ReferenceCode, domain.MaxSyncAttempts+1),
			EntityKind:  entity.Kind,
			EntityID:    entity.ID,
			CreatedAt:   now,
		})
	}

	if err := s.notifications.CreateBatch(ctx, rows); err != nil {
		s.logger.Error("failed to notify administrators of exhausted sync",
			zap.String("propertyId", entity.ID),
			zap.Error(err),
		)
		return
	}
	if s.metrics != nil {
		s.metrics.AddNotificationsCreated("sync_exhausted", len(rows))
	}
}

func (s *SyncService) writeSyncActivity(
	ctx context.Context,
	entity *domain.Entity,
	actorID string,
	action domain.ActivityAction,
	metadata map[string]string,
) {
	entry := &domain.ActivityLogEntry{
		ID:         s.newID(),
		EntityKind: entity.Kind,
		EntityID:   entity.ID,
		Action:     action,
		ActorID:    actorID,
		Metadata:   metadata,
		CreatedAt:  s.now(),
	}
	if err := s.activities.Create(ctx, entry); err != nil {
		if s.metrics != nil {
			s.metrics.IncSideEffectFailure("activity")
		}
		s.logger.Error("failed to record sync activity",
			zap.String("propertyId", entity.ID),
			zap.String("action", action.String()),
			zap.Error(err),
		)
	}
}

// syncActor attributes sweeper-driven attempts to the approver when known,
// falling back to the creator.
func syncActor(entity *domain.Entity) string {
	if entity.ApprovedBy != nil && *entity.ApprovedBy != "" {
		return *entity.ApprovedBy
	}
	return entity.CreatedBy
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
