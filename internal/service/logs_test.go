package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/muniworks/land-office/internal/domain"
)

func TestLogServiceListActivityResolvesNames(t *testing.T) {
	t.Parallel()

	stored := entityFixture(domain.KindCustomer, domain.StatusSubmitted)

	entities := &fakeEntityRepo{
		getByID: func(ctx context.Context, id string) (*domain.Entity, error) {
			if id != stored.ID {
				return nil, domain.ErrNotFound
			}
			return stored, nil
		},
	}

	activities := &fakeActivityRepo{
		listByEntity: func(ctx context.Context, kind domain.EntityKind, entityID string) ([]domain.ActivityLogEntry, error) {
			return []domain.ActivityLogEntry{
				{ID: "a-2", ActorID: "user-known", Action: domain.ActivitySubmitted},
				{ID: "a-1", ActorID: "user-deleted", Action: domain.ActivityCreated},
			}, nil
		},
	}

	users := &fakeUserRepo{
		getByIDs: func(ctx context.Context, ids []string) (map[string]domain.User, error) {
			return map[string]domain.User{
				"user-known": {ID: "user-known", DisplayName: "Dana Reyes"},
			}, nil
		},
	}

	svc := NewLogService(&fakeAuditRepo{}, activities, entities, users, nil)

	entries, err := svc.ListActivity(context.Background(), stored.ID)
	if err != nil {
		t.Fatalf("ListActivity() error = %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].ActorName != "Dana Reyes" {
		t.Fatalf("actor name = %q, want Dana Reyes", entries[0].ActorName)
	}
	if entries[1].ActorName != domain.UnknownUserName {
		t.Fatalf("actor name = %q, want %q", entries[1].ActorName, domain.UnknownUserName)
	}
}

func TestLogServiceListActivityDirectoryOutage(t *testing.T) {
	t.Parallel()

	stored := entityFixture(domain.KindCustomer, domain.StatusSubmitted)

	entities := &fakeEntityRepo{
		getByID: func(ctx context.Context, id string) (*domain.Entity, error) {
			return stored, nil
		},
	}
	activities := &fakeActivityRepo{
		listByEntity: func(ctx context.Context, kind domain.EntityKind, entityID string) ([]domain.ActivityLogEntry, error) {
			return []domain.ActivityLogEntry{{ID: "a-1", ActorID: "user-1"}}, nil
		},
	}
	users := &fakeUserRepo{
		getByIDs: func(ctx context.Context, ids []string) (map[string]domain.User, error) {
			return nil, fmt.Errorf("directory down")
		},
	}

	svc := NewLogService(&fakeAuditRepo{}, activities, entities, users, nil)

	entries, err := svc.ListActivity(context.Background(), stored.ID)
	if err != nil {
		t.Fatalf("ListActivity() error = %v, want trail despite directory outage", err)
	}
	if entries[0].ActorName != domain.UnknownUserName {
		t.Fatalf("actor name = %q, want %q", entries[0].ActorName, domain.UnknownUserName)
	}
}

func TestLogServiceMissingEntity(t *testing.T) {
	t.Parallel()

	entities := &fakeEntityRepo{
		getByID: func(ctx context.Context, id string) (*domain.Entity, error) {
			return nil, domain.ErrNotFound
		},
	}

	svc := NewLogService(&fakeAuditRepo{}, &fakeActivityRepo{}, entities, &fakeUserRepo{}, nil)

	_, err := svc.ListAudit(context.Background(), "missing-id")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("ListAudit() error = %v, want ErrNotFound", err)
	}
}
