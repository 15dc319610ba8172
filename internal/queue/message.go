package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/muniworks/land-office/internal/domain"
)

// FieldChange is one audited field diff computed at transition time.
type FieldChange struct {
	Field    string `json:"field"`
	OldValue string `json:"oldValue"`
	NewValue string `json:"newValue"`
}

// TransitionEvent is the broker payload fanning a committed workflow
// transition out to audit, activity, and notification side effects.
type TransitionEvent struct {
	EventID       string                `json:"eventId"`
	EntityKind    domain.EntityKind     `json:"entityKind"`
	EntityID      string                `json:"entityId"`
	ReferenceCode string                `json:"referenceCode,omitempty"`
	Action        domain.ActivityAction `json:"action"`
	ActorID       string                `json:"actorId"`
	CreatedBy     string                `json:"createdBy,omitempty"`
	Metadata      map[string]string     `json:"metadata,omitempty"`
	Changes       []FieldChange         `json:"changes,omitempty"`
	OccurredAt    time.Time             `json:"occurredAt"`
}

func (e TransitionEvent) Validate() error {
	if strings.TrimSpace(e.EventID) == "" {
		return fmt.Errorf("eventId is required")
	}
	if strings.TrimSpace(e.EntityID) == "" {
		return fmt.Errorf("entityId is required")
	}
	if !e.EntityKind.IsValid() {
		return fmt.Errorf("invalid entity kind %q", e.EntityKind)
	}
	if !e.Action.IsValid() {
		return fmt.Errorf("invalid action %q", e.Action)
	}
	if strings.TrimSpace(e.ActorID) == "" {
		return fmt.Errorf("actorId is required")
	}
	return nil
}
