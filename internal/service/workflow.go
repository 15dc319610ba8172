package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muniworks/land-office/internal/domain"
	"github.com/muniworks/land-office/internal/observability"
	"github.com/muniworks/land-office/internal/queue"
	"github.com/muniworks/land-office/internal/repository"
)

const approvalSyncTimeout = 30 * time.Second

// PropertySyncer pushes an approved property to the external feature
// service. Approval triggers it asynchronously; failures land in the
// retry schedule, never in the approver's response.
type PropertySyncer interface {
	AttemptSync(ctx context.Context, propertyID string, actorID string) error
}

// WorkflowService drives the approval state machine. Every transition is
// a conditional update on the current status, so concurrent calls on the
// same entity resolve to exactly one winner.
type WorkflowService struct {
	entities   repository.EntityRepository
	dispatcher *TransitionDispatcher
	syncer     PropertySyncer
	metrics    *observability.Metrics
	logger     *zap.Logger

	now   func() time.Time
	newID func() string
}

func NewWorkflowService(
	entities repository.EntityRepository,
	dispatcher *TransitionDispatcher,
	syncer PropertySyncer,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *WorkflowService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WorkflowService{
		entities:   entities,
		dispatcher: dispatcher,
		syncer:     syncer,
		metrics:    metrics,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

// Submit moves a DRAFT entity to SUBMITTED, stamping submitted_at and
// clearing any rejection feedback from a previous review round. Only the
// creator or an administrator may submit.
func (s *WorkflowService) Submit(ctx context.Context, actor domain.Actor, entityID string) error {
	entity, err := s.entities.GetByID(ctx, entityID)
	if err != nil {
		return err
	}

	if actor.ID != entity.CreatedBy && !actor.IsAdministrator() {
		s.countTransition(domain.ActionSubmit, entity.Kind, "forbidden")
		return fmt.Errorf("%w: only the creator or an administrator can submit", domain.ErrForbidden)
	}
	if entity.Status != domain.StatusDraft {
		s.countTransition(domain.ActionSubmit, entity.Kind, "rejected")
		return fmt.Errorf("%w: cannot submit from status %s", domain.ErrInvalidTransition, entity.Status)
	}

	now := s.now()
	updates := repository.EntityUpdates{
		"status":             domain.StatusSubmitted,
		"submitted_at":       now,
		"rejection_feedback": nil,
	}

	if err := s.commit(ctx, domain.ActionSubmit, entity, domain.StatusDraft, updates); err != nil {
		return err
	}

	s.dispatch(ctx, entity, actor, domain.ActivitySubmitted,
		statusChange(entity.Status, domain.StatusSubmitted), nil)
	return nil
}

// Approve moves a SUBMITTED entity to APPROVED and records the approver.
// Approving a property also kicks off an external sync attempt, decoupled
// from this call.
func (s *WorkflowService) Approve(ctx context.Context, actor domain.Actor, entityID string) error {
	entity, err := s.entities.GetByID(ctx, entityID)
	if err != nil {
		return err
	}

	if err := s.checkRole(domain.ActionApprove, entity.Kind, actor); err != nil {
		return err
	}
	if entity.Status != domain.StatusSubmitted {
		s.countTransition(domain.ActionApprove, entity.Kind, "rejected")
		return fmt.Errorf("%w: cannot approve from status %s", domain.ErrInvalidTransition, entity.Status)
	}

	updates := repository.EntityUpdates{
		"status":      domain.StatusApproved,
		"approved_by": actor.ID,
	}
	if entity.Kind == domain.KindProperty {
		updates["ago_sync_status"] = domain.SyncStatusPending
	}

	if err := s.commit(ctx, domain.ActionApprove, entity, domain.StatusSubmitted, updates); err != nil {
		return err
	}

	changes := statusChange(entity.Status, domain.StatusApproved)
	changes = append(changes, queue.FieldChange{Field: "approved_by", NewValue: actor.ID})
	s.dispatch(ctx, entity, actor, domain.ActivityApproved, changes, nil)

	if entity.Kind == domain.KindProperty && s.syncer != nil {
		go s.syncAfterApproval(entityID, actor.ID)
	}
	return nil
}

// Reject moves a SUBMITTED entity back to REJECTED with reviewer feedback
// of at least the minimum trimmed length.
func (s *WorkflowService) Reject(ctx context.Context, actor domain.Actor, entityID string, feedback string) error {
	entity, err := s.entities.GetByID(ctx, entityID)
	if err != nil {
		return err
	}

	if err := s.checkRole(domain.ActionReject, entity.Kind, actor); err != nil {
		return err
	}

	trimmed, err := domain.ValidateRejectionFeedback(feedback)
	if err != nil {
		return err
	}

	if entity.Status != domain.StatusSubmitted {
		s.countTransition(domain.ActionReject, entity.Kind, "rejected")
		return fmt.Errorf("%w: cannot reject from status %s", domain.ErrInvalidTransition, entity.Status)
	}

	updates := repository.EntityUpdates{
		"status":             domain.StatusRejected,
		"rejection_feedback": trimmed,
	}

	if err := s.commit(ctx, domain.ActionReject, entity, domain.StatusSubmitted, updates); err != nil {
		return err
	}

	changes := statusChange(entity.Status, domain.StatusRejected)
	changes = append(changes, queue.FieldChange{Field: "rejection_feedback", NewValue: trimmed})
	s.dispatch(ctx, entity, actor, domain.ActivityRejected, changes, map[string]string{
		"rejection_feedback": trimmed,
	})
	return nil
}

// Archive moves any non-archived entity to ARCHIVED. Archiving an entity
// that has not been approved yet is administrator-only regardless of kind.
func (s *WorkflowService) Archive(ctx context.Context, actor domain.Actor, entityID string) error {
	entity, err := s.entities.GetByID(ctx, entityID)
	if err != nil {
		return err
	}

	if err := s.checkRole(domain.ActionArchive, entity.Kind, actor); err != nil {
		return err
	}
	if entity.Status != domain.StatusApproved && !actor.IsAdministrator() {
		s.countTransition(domain.ActionArchive, entity.Kind, "forbidden")
		return fmt.Errorf("%w: archiving an unapproved record requires an administrator", domain.ErrForbidden)
	}
	if entity.Status == domain.StatusArchived {
		s.countTransition(domain.ActionArchive, entity.Kind, "rejected")
		return fmt.Errorf("%w: already archived", domain.ErrAlreadyInState)
	}

	updates := repository.EntityUpdates{"status": domain.StatusArchived}

	if err := s.commit(ctx, domain.ActionArchive, entity, entity.Status, updates); err != nil {
		return err
	}

	s.dispatch(ctx, entity, actor, domain.ActivityArchived,
		statusChange(entity.Status, domain.StatusArchived), nil)
	return nil
}

// Unarchive returns an ARCHIVED entity to APPROVED when it was approved
// before archiving, DRAFT otherwise.
func (s *WorkflowService) Unarchive(ctx context.Context, actor domain.Actor, entityID string) error {
	entity, err := s.entities.GetByID(ctx, entityID)
	if err != nil {
		return err
	}

	if err := s.checkRole(domain.ActionUnarchive, entity.Kind, actor); err != nil {
		return err
	}
	if entity.Status != domain.StatusArchived {
		s.countTransition(domain.ActionUnarchive, entity.Kind, "rejected")
		return fmt.Errorf("%w: not archived", domain.ErrNotInState)
	}

	target := entity.UnarchiveTarget()
	updates := repository.EntityUpdates{"status": target}

	if err := s.commit(ctx, domain.ActionUnarchive, entity, domain.StatusArchived, updates); err != nil {
		return err
	}

	s.dispatch(ctx, entity, actor, domain.ActivityUnarchived,
		statusChange(domain.StatusArchived, target), map[string]string{
			"restored_status": target.String(),
		})
	return nil
}

func (s *WorkflowService) checkRole(action domain.WorkflowAction, kind domain.EntityKind, actor domain.Actor) error {
	if domain.AllowedRoles(action, kind).Contains(actor.Role) {
		return nil
	}
	s.countTransition(action, kind, "forbidden")
	return fmt.Errorf("%w: role %s cannot %s a %s", domain.ErrForbidden,
		actor.Role, action, kindLabel(kind))
}

// commit performs the conditional status update and maps a lost race to
// the stale-state error the loser should see.
func (s *WorkflowService) commit(
	ctx context.Context,
	action domain.WorkflowAction,
	entity *domain.Entity,
	expected domain.Status,
	updates repository.EntityUpdates,
) error {
	ok, err := s.entities.TransitionStatus(ctx, entity.ID, expected, updates)
	if err != nil {
		s.countTransition(action, entity.Kind, "error")
		return err
	}
	if ok {
		s.countTransition(action, entity.Kind, "success")
		return nil
	}

	s.countTransition(action, entity.Kind, "conflict")

	current, readErr := s.entities.GetByID(ctx, entity.ID)
	if readErr != nil {
		if errors.Is(readErr, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("%w: status changed concurrently", domain.ErrInvalidTransition)
	}
	return fmt.Errorf("%w: status is now %s", domain.ErrInvalidTransition, current.Status)
}

func (s *WorkflowService) dispatch(
	ctx context.Context,
	entity *domain.Entity,
	actor domain.Actor,
	action domain.ActivityAction,
	changes []queue.FieldChange,
	metadata map[string]string,
) {
	if s.dispatcher == nil {
		return
	}

	if metadata == nil {
		metadata = map[string]string{}
	}
	metadata["reference_code"] = entity.ReferenceCode

	s.dispatcher.Dispatch(ctx, queue.TransitionEvent{
		EventID:       s.newID(),
		EntityKind:    entity.Kind,
		EntityID:      entity.ID,
		ReferenceCode: entity.ReferenceCode,
		Action:        action,
		ActorID:       actor.ID,
		CreatedBy:     entity.CreatedBy,
		Metadata:      metadata,
		Changes:       changes,
		OccurredAt:    s.now(),
	})
}

func (s *WorkflowService) syncAfterApproval(propertyID string, actorID string) {
	ctx, cancel := context.WithTimeout(context.Background(), approvalSyncTimeout)
	defer cancel()

	if err := s.syncer.AttemptSync(ctx, propertyID, actorID); err != nil {
		s.logger.Warn("post-approval sync attempt failed, retry scheduled",
			zap.String("propertyId", propertyID),
			zap.Error(err),
		)
	}
}

func (s *WorkflowService) countTransition(action domain.WorkflowAction, kind domain.EntityKind, outcome string) {
	if s.metrics != nil {
		s.metrics.IncTransition(action.String(), kind.String(), outcome)
	}
}

func statusChange(from domain.Status, to domain.Status) []queue.FieldChange {
	return []queue.FieldChange{{
		Field:    "status",
		OldValue: from.String(),
		NewValue: to.String(),
	}}
}
