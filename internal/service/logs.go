package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/muniworks/land-office/internal/domain"
	"github.com/muniworks/land-office/internal/repository"
)

// LogService is the read side of the audit and activity trails.
type LogService struct {
	audits     repository.AuditRepository
	activities repository.ActivityRepository
	entities   repository.EntityRepository
	users      repository.UserRepository
	logger     *zap.Logger
}

func NewLogService(
	audits repository.AuditRepository,
	activities repository.ActivityRepository,
	entities repository.EntityRepository,
	users repository.UserRepository,
	logger *zap.Logger,
) *LogService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &LogService{
		audits:     audits,
		activities: activities,
		entities:   entities,
		users:      users,
		logger:     logger,
	}
}

// ListActivity returns an entity's lifecycle events, newest first, with
// actor display names resolved in one directory pass. Missing users render
// as "Unknown User".
func (s *LogService) ListActivity(ctx context.Context, entityID string) ([]domain.ActivityLogEntry, error) {
	entity, err := s.entities.GetByID(ctx, entityID)
	if err != nil {
		return nil, err
	}

	entries, err := s.activities.ListByEntity(ctx, entity.Kind, entityID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return entries, nil
	}

	actorIDs := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for i := range entries {
		if _, dup := seen[entries[i].ActorID]; dup {
			continue
		}
		seen[entries[i].ActorID] = struct{}{}
		actorIDs = append(actorIDs, entries[i].ActorID)
	}

	users, err := s.users.GetByIDs(ctx, actorIDs)
	if err != nil {
		// Name resolution is presentation only; the trail still renders.
		s.logger.Warn("failed to resolve activity actor names",
			zap.String("entityId", entityID),
			zap.Error(err),
		)
		users = map[string]domain.User{}
	}

	for i := range entries {
		if user, ok := users[entries[i].ActorID]; ok {
			entries[i].ActorName = user.DisplayName
		} else {
			entries[i].ActorName = domain.UnknownUserName
		}
	}

	return entries, nil
}

// ListAudit returns an entity's field-level change history, newest first.
func (s *LogService) ListAudit(ctx context.Context, entityID string) ([]domain.AuditLogEntry, error) {
	entity, err := s.entities.GetByID(ctx, entityID)
	if err != nil {
		return nil, err
	}
	return s.audits.ListByEntity(ctx, entity.Kind, entityID)
}
