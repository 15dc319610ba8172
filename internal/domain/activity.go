package domain

import (
	"fmt"
	"strings"
	"time"
)

// ActivityAction is a coarse lifecycle event, one row per workflow transition.
type ActivityAction string

const (
	ActivityCreated    ActivityAction = "CREATED"
	ActivityUpdated    ActivityAction = "UPDATED"
	ActivitySubmitted  ActivityAction = "SUBMITTED"
	ActivityApproved   ActivityAction = "APPROVED"
	ActivityRejected   ActivityAction = "REJECTED"
	ActivityArchived   ActivityAction = "ARCHIVED"
	ActivityUnarchived ActivityAction = "UNARCHIVED"
	ActivitySynced     ActivityAction = "SYNCED"
	ActivitySyncFailed ActivityAction = "SYNC_FAILED"
)

func (a ActivityAction) String() string { return string(a) }

func (a ActivityAction) IsValid() bool {
	switch a {
	case ActivityCreated, ActivityUpdated, ActivitySubmitted, ActivityApproved,
		ActivityRejected, ActivityArchived, ActivityUnarchived, ActivitySynced, ActivitySyncFailed:
		return true
	}
	return false
}

func ParseActivityActionFromString(s string) (ActivityAction, error) {
	a := ActivityAction(strings.ToUpper(strings.TrimSpace(s)))
	if !a.IsValid() {
		return "", fmt.Errorf("%w: invalid activity action %q", ErrValidation, s)
	}
	return a, nil
}

// ActivityLogEntry records one lifecycle event with transition-specific
// metadata (reference code, rejection feedback, sync error). Append-only.
type ActivityLogEntry struct {
	ID         string            `gorm:"type:uuid;primaryKey"`
	EntityKind EntityKind        `gorm:"type:varchar(20);not null"`
	EntityID   string            `gorm:"type:uuid;not null"`
	Action     ActivityAction    `gorm:"type:varchar(20);not null"`
	ActorID    string            `gorm:"type:uuid;not null"`
	ActorName  string            `gorm:"-"`
	Metadata   map[string]string `gorm:"-"`
	CreatedAt  time.Time
}
