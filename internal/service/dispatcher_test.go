package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/muniworks/land-office/internal/domain"
	"github.com/muniworks/land-office/internal/queue"
)

func TestTransitionDispatcherPublishes(t *testing.T) {
	t.Parallel()

	var published []queue.TransitionEvent
	publisher := &fakePublisher{
		publish: func(ctx context.Context, queueName string, event queue.TransitionEvent) error {
			if queueName != queue.EffectsQueue {
				t.Errorf("queue = %s, want %s", queueName, queue.EffectsQueue)
			}
			published = append(published, event)
			return nil
		},
	}

	inlineRan := false
	effects := NewEffectsProcessor(
		&fakeAuditRepo{createBatch: func(ctx context.Context, entries []domain.AuditLogEntry) error {
			inlineRan = true
			return nil
		}},
		&fakeActivityRepo{create: func(ctx context.Context, entry *domain.ActivityLogEntry) error {
			inlineRan = true
			return nil
		}},
		&fakeNotificationRepo{createBatch: func(ctx context.Context, rows []domain.Notification) error {
			inlineRan = true
			return nil
		}},
		&fakeUserRepo{listActiveByRoles: func(ctx context.Context, roles []domain.Role) ([]domain.User, error) {
			return nil, nil
		}},
		nil, nil,
	)

	dispatcher := NewTransitionDispatcher(publisher, effects, nil, nil)
	dispatcher.Dispatch(context.Background(), submittedEvent())

	if len(published) != 1 {
		t.Fatalf("published = %d, want 1", len(published))
	}
	if inlineRan {
		t.Fatal("effects ran inline despite successful publish")
	}
}

func TestTransitionDispatcherFallsBackInline(t *testing.T) {
	t.Parallel()

	publisher := &fakePublisher{
		publish: func(ctx context.Context, queueName string, event queue.TransitionEvent) error {
			return fmt.Errorf("broker unavailable")
		},
	}

	var activities []domain.ActivityLogEntry
	effects := NewEffectsProcessor(
		&fakeAuditRepo{createBatch: func(ctx context.Context, entries []domain.AuditLogEntry) error {
			return nil
		}},
		&fakeActivityRepo{create: func(ctx context.Context, entry *domain.ActivityLogEntry) error {
			activities = append(activities, *entry)
			return nil
		}},
		&fakeNotificationRepo{createBatch: func(ctx context.Context, rows []domain.Notification) error {
			return nil
		}},
		&fakeUserRepo{listActiveByRoles: func(ctx context.Context, roles []domain.Role) ([]domain.User, error) {
			return nil, nil
		}},
		nil, nil,
	)

	dispatcher := NewTransitionDispatcher(publisher, effects, nil, nil)
	dispatcher.Dispatch(context.Background(), submittedEvent())

	if len(activities) != 1 {
		t.Fatalf("inline activities = %d, want 1 after publish failure", len(activities))
	}
}
