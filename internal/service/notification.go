package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muniworks/land-office/internal/domain"
	"github.com/muniworks/land-office/internal/repository"
)

// NotificationService owns the recipient-facing read API and ad hoc
// notification inserts outside the transition pipeline.
type NotificationService struct {
	notifications repository.NotificationRepository
	logger        *zap.Logger

	now   func() time.Time
	newID func() string
}

func NewNotificationService(notifications repository.NotificationRepository, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &NotificationService{
		notifications: notifications,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
		newID:         uuid.NewString,
	}
}

// Notify inserts one notification row per recipient in a single batch.
func (s *NotificationService) Notify(
	ctx context.Context,
	recipientIDs []string,
	title string,
	message string,
	kind domain.EntityKind,
	entityID string,
) error {
	if len(recipientIDs) == 0 {
		return nil
	}

	now := s.now()
	rows := make([]domain.Notification, 0, len(recipientIDs))
	for _, recipientID := range recipientIDs {
		row := domain.Notification{
			ID:          s.newID(),
			RecipientID: recipientID,
			Title:       title,
			Message:     message,
			EntityKind:  kind,
			EntityID:    entityID,
			CreatedAt:   now,
		}
		if err := row.Validate(); err != nil {
			return err
		}
		rows = append(rows, row)
	}

	return s.notifications.CreateBatch(ctx, rows)
}

// MarkRead marks one notification as read. Only the recipient may do so.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID string, actor domain.Actor) error {
	return s.notifications.MarkRead(ctx, notificationID, actor.ID)
}

// MarkAllRead marks every unread notification of the actor as read and
// returns how many rows changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, actor domain.Actor) (int64, error) {
	return s.notifications.MarkAllRead(ctx, actor.ID)
}

func (s *NotificationService) UnreadCount(ctx context.Context, actor domain.Actor) (int64, error) {
	return s.notifications.UnreadCount(ctx, actor.ID)
}

// List returns the actor's notifications, newest first.
func (s *NotificationService) List(
	ctx context.Context,
	actor domain.Actor,
	filter domain.ReadFilter,
	page int,
	pageSize int,
) ([]domain.Notification, int64, error) {
	if !filter.IsValid() {
		return nil, 0, fmt.Errorf("%w: invalid read filter %q", domain.ErrValidation, filter)
	}

	return s.notifications.List(ctx, repository.NotificationListParams{
		RecipientID: actor.ID,
		Filter:      filter,
		Page:        page,
		PageSize:    pageSize,
	})
}
