package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muniworks/land-office/internal/domain"
	"github.com/muniworks/land-office/internal/queue"
	"github.com/muniworks/land-office/internal/repository"
)

// CreateEntityInput is the intake payload for a new record.
type CreateEntityInput struct {
	Kind       domain.EntityKind
	Name       string
	Attributes map[string]string
}

// UpdateEntityInput carries editable fields; nil means unchanged.
type UpdateEntityInput struct {
	Name       *string
	Attributes map[string]string
}

// EntityService handles record intake and editing outside the approval
// transitions: create as DRAFT, edit while DRAFT or REJECTED, read, list.
type EntityService struct {
	entities   repository.EntityRepository
	dispatcher *TransitionDispatcher
	logger     *zap.Logger

	now   func() time.Time
	newID func() string
}

func NewEntityService(
	entities repository.EntityRepository,
	dispatcher *TransitionDispatcher,
	logger *zap.Logger,
) *EntityService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &EntityService{
		entities:   entities,
		dispatcher: dispatcher,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

// Create inserts a new DRAFT record with a generated reference code.
func (s *EntityService) Create(ctx context.Context, actor domain.Actor, input CreateEntityInput) (*domain.Entity, error) {
	id := s.newID()
	now := s.now()

	entity := &domain.Entity{
		ID:            id,
		ReferenceCode: referenceCode(input.Kind, now, id),
		Kind:          input.Kind,
		Name:          strings.TrimSpace(input.Name),
		Attributes:    input.Attributes,
		Status:        domain.StatusDraft,
		CreatedBy:     actor.ID,
		AgoSyncStatus: domain.SyncStatusNone,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := entity.Validate(); err != nil {
		return nil, err
	}

	if err := s.entities.Create(ctx, entity); err != nil {
		return nil, err
	}

	s.dispatch(ctx, entity, actor, domain.ActivityCreated, nil)
	return entity, nil
}

// UpdateDraft edits a DRAFT or REJECTED record. Editing a REJECTED record
// returns it to DRAFT and clears the reviewer feedback, so the next submit
// starts a clean review round. The field-level diff is audited.
func (s *EntityService) UpdateDraft(ctx context.Context, actor domain.Actor, entityID string, input UpdateEntityInput) (*domain.Entity, error) {
	entity, err := s.entities.GetByID(ctx, entityID)
	if err != nil {
		return nil, err
	}

	if actor.ID != entity.CreatedBy && !actor.IsAdministrator() {
		return nil, fmt.Errorf("%w: only the creator or an administrator can edit", domain.ErrForbidden)
	}
	if entity.Status != domain.StatusDraft && entity.Status != domain.StatusRejected {
		return nil, fmt.Errorf("%w: cannot edit from status %s", domain.ErrInvalidTransition, entity.Status)
	}

	newName := entity.Name
	if input.Name != nil {
		newName = strings.TrimSpace(*input.Name)
	}
	newAttributes := entity.Attributes
	if input.Attributes != nil {
		newAttributes = input.Attributes
	}
	if newName == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}

	changes := FieldChanges(
		entityAuditValues(entity.Name, entity.Attributes),
		entityAuditValues(newName, newAttributes),
	)

	updates := repository.EntityUpdates{
		"name":       newName,
		"attributes": repository.MarshalAttributes(newAttributes),
	}
	if entity.Status == domain.StatusRejected {
		updates["status"] = domain.StatusDraft
		updates["rejection_feedback"] = nil
		changes = append(changes, queue.FieldChange{
			Field:    "status",
			OldValue: domain.StatusRejected.String(),
			NewValue: domain.StatusDraft.String(),
		})
	}

	ok, err := s.entities.TransitionStatus(ctx, entity.ID, entity.Status, updates)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: status changed concurrently", domain.ErrInvalidTransition)
	}

	updated, err := s.entities.GetByID(ctx, entity.ID)
	if err != nil {
		return nil, err
	}

	if len(changes) > 0 {
		s.dispatch(ctx, updated, actor, domain.ActivityUpdated, changes)
	}
	return updated, nil
}

func (s *EntityService) Get(ctx context.Context, entityID string) (*domain.Entity, error) {
	return s.entities.GetByID(ctx, entityID)
}

func (s *EntityService) List(ctx context.Context, params repository.EntityListParams) ([]domain.Entity, int64, error) {
	return s.entities.List(ctx, params)
}

func (s *EntityService) dispatch(
	ctx context.Context,
	entity *domain.Entity,
	actor domain.Actor,
	action domain.ActivityAction,
	changes []queue.FieldChange,
) {
	if s.dispatcher == nil {
		return
	}

	s.dispatcher.Dispatch(ctx, queue.TransitionEvent{
		EventID:       s.newID(),
		EntityKind:    entity.Kind,
		EntityID:      entity.ID,
		ReferenceCode: entity.ReferenceCode,
		Action:        action,
		ActorID:       actor.ID,
		CreatedBy:     entity.CreatedBy,
		Metadata:      map[string]string{"reference_code": entity.ReferenceCode},
		Changes:       changes,
		OccurredAt:    s.now(),
	})
}

// referenceCode builds the externally visible code, e.g. PROP-2026-9F3A21BB.
// The suffix is derived from the record id, so codes are unique without a
// sequence table.
func referenceCode(kind domain.EntityKind, now time.Time, id string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return fmt.Sprintf("%s-%d-%s", kind.ReferenceCodePrefix(), now.Year(), suffix)
}

func entityAuditValues(name string, attributes map[string]string) map[string]any {
	values := map[string]any{"name": name}
	for k, v := range attributes {
		values["attributes."+k] = v
	}
	return values
}
