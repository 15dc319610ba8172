package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muniworks/land-office/internal/domain"
	"github.com/muniworks/land-office/internal/observability"
	"github.com/muniworks/land-office/internal/queue"
	"github.com/muniworks/land-office/internal/repository"
)

// EffectsProcessor applies the side effects of a committed workflow
// transition: audit rows, one activity row, and notification fan-out.
// Every effect is best-effort; failures are logged and counted but never
// returned, so a committed transition is never un-reported.
type EffectsProcessor struct {
	audits        repository.AuditRepository
	activities    repository.ActivityRepository
	notifications repository.NotificationRepository
	users         repository.UserRepository
	metrics       *observability.Metrics
	logger        *zap.Logger

	now   func() time.Time
	newID func() string
}

func NewEffectsProcessor(
	audits repository.AuditRepository,
	activities repository.ActivityRepository,
	notifications repository.NotificationRepository,
	users repository.UserRepository,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *EffectsProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &EffectsProcessor{
		audits:        audits,
		activities:    activities,
		notifications: notifications,
		users:         users,
		metrics:       metrics,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
		newID:         uuid.NewString,
	}
}

// Apply runs all side effects for one transition event. It always
// returns nil: the transition is already committed, so the only
// correct handling of an effect failure is to log it and move on.
func (p *EffectsProcessor) Apply(ctx context.Context, event queue.TransitionEvent) error {
	p.writeAuditTrail(ctx, event)
	p.writeActivity(ctx, event)
	p.dispatchNotifications(ctx, event)
	return nil
}

func (p *EffectsProcessor) writeAuditTrail(ctx context.Context, event queue.TransitionEvent) {
	if len(event.Changes) == 0 {
		return
	}

	now := p.now()
	entries := make([]domain.AuditLogEntry, 0, len(event.Changes))
	for _, change := range event.Changes {
		change := change
		entries = append(entries, domain.AuditLogEntry{
			ID:         p.newID(),
			EntityKind: event.EntityKind,
			EntityID:   event.EntityID,
			Action:     event.Action.String(),
			FieldName:  &change.Field,
			OldValue:   &change.OldValue,
			NewValue:   &change.NewValue,
			ActorID:    event.ActorID,
			CreatedAt:  now,
		})
	}

	if err := p.audits.CreateBatch(ctx, entries); err != nil {
		p.reportEffectFailure("audit", event, err)
	}
}

func (p *EffectsProcessor) writeActivity(ctx context.Context, event queue.TransitionEvent) {
	entry := &domain.ActivityLogEntry{
		ID:         p.newID(),
		EntityKind: event.EntityKind,
		EntityID:   event.EntityID,
		Action:     event.Action,
		ActorID:    event.ActorID,
		Metadata:   event.Metadata,
		CreatedAt:  p.now(),
	}

	if err := p.activities.Create(ctx, entry); err != nil {
		p.reportEffectFailure("activity", event, err)
	}
}

func (p *EffectsProcessor) dispatchNotifications(ctx context.Context, event queue.TransitionEvent) {
	recipients, title, message := p.notificationPlan(ctx, event)
	if len(recipients) == 0 {
		return
	}

	now := p.now()
	rows := make([]domain.Notification, 0, len(recipients))
	for _, recipientID := range recipients {
		rows = append(rows, domain.Notification{
			ID:          p.newID(),
			RecipientID: recipientID,
			Title:       title,
			Message:     message,
			EntityKind:  event.EntityKind,
			EntityID:    event.EntityID,
			CreatedAt:   now,
		})
	}

	if err := p.notifications.CreateBatch(ctx, rows); err != nil {
		p.reportEffectFailure("notification", event, err)
		return
	}
	if p.metrics != nil {
		p.metrics.AddNotificationsCreated(event.Action.String(), len(rows))
	}
}

// notificationPlan decides who hears about a transition and what they read.
// Submissions fan out to every active reviewer; approval and rejection go
// back to the creator; archiving notifies the creator for properties only.
func (p *EffectsProcessor) notificationPlan(ctx context.Context, event queue.TransitionEvent) ([]string, string, string) {
	label := kindLabel(event.EntityKind)
	ref := event.ReferenceCode
	if ref == "" {
		ref = event.EntityID
	}

	switch event.Action {
	case domain.ActivitySubmitted:
		reviewers, err := p.users.ListActiveByRoles(ctx, []domain.Role{domain.RoleApprover, domain.RoleAdministrator})
		if err != nil {
			p.reportEffectFailure("notification", event, err)
			return nil, "", ""
		}
		ids := make([]string, 0, len(reviewers))
		for _, u := range reviewers {
			ids = append(ids, u.ID)
		}
		return ids, "Approval requested", fmt.Sprintf("%s %s was submitted for approval.", label, ref)

	case domain.ActivityApproved:
		if event.CreatedBy == "" {
			return nil, "", ""
		}
		return []string{event.CreatedBy}, fmt.Sprintf("%s approved", label),
			fmt.Sprintf("%s %s was approved.", label, ref)

	case domain.ActivityRejected:
		if event.CreatedBy == "" {
			return nil, "", ""
		}
		message := fmt.Sprintf("%s %s was rejected.", label, ref)
		if feedback := event.Metadata["rejection_feedback"]; feedback != "" {
			message = fmt.Sprintf("%s %s was rejected: %s", label, ref, feedback)
		}
		return []string{event.CreatedBy}, fmt.Sprintf("%s rejected", label), message

	case domain.ActivityArchived:
		if event.EntityKind != domain.KindProperty || event.CreatedBy == "" {
			return nil, "", ""
		}
		return []string{event.CreatedBy}, "Property archived",
			fmt.Sprintf("%s %s was archived.", label, ref)
	}

	return nil, "", ""
}

func (p *EffectsProcessor) reportEffectFailure(effect string, event queue.TransitionEvent, err error) {
	if p.metrics != nil {
		p.metrics.IncSideEffectFailure(effect)
	}
	p.logger.Error("side effect failed",
		zap.String("effect", effect),
		zap.String("eventId", event.EventID),
		zap.String("entityKind", event.EntityKind.String()),
		zap.String("entityId", event.EntityID),
		zap.String("action", event.Action.String()),
		zap.Error(err),
	)
}

func kindLabel(kind domain.EntityKind) string {
	switch kind {
	case domain.KindCustomer:
		return "Customer"
	case domain.KindProperty:
		return "Property"
	case domain.KindTaxAssessment:
		return "Tax assessment"
	default:
		return "Record"
	}
}
