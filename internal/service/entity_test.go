package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/muniworks/land-office/internal/domain"
	"github.com/muniworks/land-office/internal/queue"
	"github.com/muniworks/land-office/internal/repository"
)

type entityHarness struct {
	svc     *EntityService
	created []domain.Entity
	updates *transitionCapture
	events  []queue.TransitionEvent
	stored  *domain.Entity
}

func newEntityHarness(t *testing.T, stored *domain.Entity) *entityHarness {
	t.Helper()

	h := &entityHarness{stored: stored}

	entities := &fakeEntityRepo{
		create: func(ctx context.Context, e *domain.Entity) error {
			h.created = append(h.created, *e)
			return nil
		},
		getByID: func(ctx context.Context, id string) (*domain.Entity, error) {
			if h.stored == nil || id != h.stored.ID {
				return nil, domain.ErrNotFound
			}
			snapshot := *h.stored
			return &snapshot, nil
		},
		transitionStatus: func(ctx context.Context, id string, expected domain.Status, updates repository.EntityUpdates) (bool, error) {
			h.updates = &transitionCapture{id: id, expected: expected, updates: updates}
			return true, nil
		},
	}

	publisher := &fakePublisher{
		publish: func(ctx context.Context, queueName string, event queue.TransitionEvent) error {
			h.events = append(h.events, event)
			return nil
		},
	}

	h.svc = NewEntityService(entities, NewTransitionDispatcher(publisher, nil, nil, nil), nil)
	h.svc.now = func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) }
	return h
}

func TestEntityServiceCreate(t *testing.T) {
	t.Parallel()

	actor := domain.Actor{ID: "user-owner", Role: domain.RoleInputter}

	testCases := []struct {
		name       string
		kind       domain.EntityKind
		wantPrefix string
	}{
		{name: "customer", kind: domain.KindCustomer, wantPrefix: "CUST-2026-"},
		{name: "property", kind: domain.KindProperty, wantPrefix: "PROP-2026-"},
		{name: "tax assessment", kind: domain.KindTaxAssessment, wantPrefix: "TAX-2026-"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := newEntityHarness(t, nil)

			entity, err := h.svc.Create(context.Background(), actor, CreateEntityInput{
				Kind:       tc.kind,
				Name:       "  14 Main St  ",
				Attributes: map[string]string{"zoning": "R1"},
			})
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}

			if entity.Status != domain.StatusDraft {
				t.Fatalf("status = %s, want DRAFT", entity.Status)
			}
			if entity.Name != "14 Main St" {
				t.Fatalf("name = %q, want trimmed", entity.Name)
			}
			if !strings.HasPrefix(entity.ReferenceCode, tc.wantPrefix) {
				t.Fatalf("reference code = %q, want prefix %q", entity.ReferenceCode, tc.wantPrefix)
			}
			if entity.CreatedBy != actor.ID {
				t.Fatalf("created_by = %s, want %s", entity.CreatedBy, actor.ID)
			}

			if len(h.events) != 1 || h.events[0].Action != domain.ActivityCreated {
				t.Fatalf("events = %+v, want one CREATED event", h.events)
			}
		})
	}

	t.Run("blank name rejected", func(t *testing.T) {
		t.Parallel()

		h := newEntityHarness(t, nil)

		_, err := h.svc.Create(context.Background(), actor, CreateEntityInput{
			Kind: domain.KindCustomer,
			Name: "   ",
		})
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("Create() error = %v, want ErrValidation", err)
		}
		if len(h.created) != 0 {
			t.Fatal("entity persisted despite validation failure")
		}
	})
}

func TestEntityServiceUpdateDraft(t *testing.T) {
	t.Parallel()

	owner := domain.Actor{ID: "user-owner", Role: domain.RoleInputter}
	stranger := domain.Actor{ID: "user-other", Role: domain.RoleInputter}
	newName := "15 Main St"

	t.Run("owner edits draft", func(t *testing.T) {
		t.Parallel()

		stored := entityFixture(domain.KindProperty, domain.StatusDraft)
		stored.Attributes = map[string]string{"zoning": "R1"}
		h := newEntityHarness(t, stored)

		_, err := h.svc.UpdateDraft(context.Background(), owner, stored.ID, UpdateEntityInput{
			Name:       &newName,
			Attributes: map[string]string{"zoning": "R2"},
		})
		if err != nil {
			t.Fatalf("UpdateDraft() error = %v", err)
		}

		if h.updates.expected != domain.StatusDraft {
			t.Fatalf("expected status = %s, want DRAFT", h.updates.expected)
		}
		if h.updates.updates["name"] != newName {
			t.Fatalf("name update = %v, want %q", h.updates.updates["name"], newName)
		}

		if len(h.events) != 1 || h.events[0].Action != domain.ActivityUpdated {
			t.Fatalf("events = %+v, want one UPDATED event", h.events)
		}

		changed := map[string]queue.FieldChange{}
		for _, c := range h.events[0].Changes {
			changed[c.Field] = c
		}
		if c, ok := changed["name"]; !ok || c.OldValue != "14 Main St" || c.NewValue != newName {
			t.Fatalf("name change = %+v, want 14 Main St → %s", changed["name"], newName)
		}
		if c, ok := changed["attributes.zoning"]; !ok || c.OldValue != "R1" || c.NewValue != "R2" {
			t.Fatalf("zoning change = %+v, want R1 → R2", changed["attributes.zoning"])
		}
	})

	t.Run("editing rejected record returns it to draft", func(t *testing.T) {
		t.Parallel()

		feedback := "Missing required documents"
		stored := entityFixture(domain.KindCustomer, domain.StatusRejected)
		stored.RejectionFeedback = &feedback
		h := newEntityHarness(t, stored)

		_, err := h.svc.UpdateDraft(context.Background(), owner, stored.ID, UpdateEntityInput{Name: &newName})
		if err != nil {
			t.Fatalf("UpdateDraft() error = %v", err)
		}

		if h.updates.expected != domain.StatusRejected {
			t.Fatalf("expected status = %s, want REJECTED", h.updates.expected)
		}
		if h.updates.updates["status"] != domain.StatusDraft {
			t.Fatalf("status update = %v, want DRAFT", h.updates.updates["status"])
		}
		if fb, present := h.updates.updates["rejection_feedback"]; !present || fb != nil {
			t.Fatalf("rejection_feedback = %v, want cleared", fb)
		}
	})

	t.Run("submitted record cannot be edited", func(t *testing.T) {
		t.Parallel()

		stored := entityFixture(domain.KindCustomer, domain.StatusSubmitted)
		h := newEntityHarness(t, stored)

		_, err := h.svc.UpdateDraft(context.Background(), owner, stored.ID, UpdateEntityInput{Name: &newName})
		if !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("UpdateDraft() error = %v, want ErrInvalidTransition", err)
		}
	})

	t.Run("non-owner forbidden", func(t *testing.T) {
		t.Parallel()

		stored := entityFixture(domain.KindCustomer, domain.StatusDraft)
		h := newEntityHarness(t, stored)

		_, err := h.svc.UpdateDraft(context.Background(), stranger, stored.ID, UpdateEntityInput{Name: &newName})
		if !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("UpdateDraft() error = %v, want ErrForbidden", err)
		}
	})

	t.Run("unchanged edit produces no event", func(t *testing.T) {
		t.Parallel()

		stored := entityFixture(domain.KindCustomer, domain.StatusDraft)
		h := newEntityHarness(t, stored)

		name := stored.Name
		_, err := h.svc.UpdateDraft(context.Background(), owner, stored.ID, UpdateEntityInput{Name: &name})
		if err != nil {
			t.Fatalf("UpdateDraft() error = %v", err)
		}
		if len(h.events) != 0 {
			t.Fatalf("events = %+v, want none for a no-op edit", h.events)
		}
	})
}

func TestReferenceCode(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	code := referenceCode(domain.KindProperty, now, "9f3a21bb-1c2d-4e5f-8a9b-0c1d2e3f4a5b")

	if code != "PROP-2026-9F3A21BB" {
		t.Fatalf("referenceCode() = %q, want PROP-2026-9F3A21BB", code)
	}
}
