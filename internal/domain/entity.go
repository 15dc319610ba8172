package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the approval lifecycle state of an entity.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusArchived  Status = "ARCHIVED"
)

func (s Status) String() string { return string(s) }

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusRejected, StatusArchived:
		return true
	}
	return false
}

func ParseStatusFromString(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid status %q", ErrValidation, s)
	}
	return st, nil
}

// EntityKind discriminates the record types sharing the approval workflow.
type EntityKind string

const (
	KindCustomer      EntityKind = "CUSTOMER"
	KindProperty      EntityKind = "PROPERTY"
	KindTaxAssessment EntityKind = "TAX_ASSESSMENT"
)

func (k EntityKind) String() string { return string(k) }

func (k EntityKind) IsValid() bool {
	switch k {
	case KindCustomer, KindProperty, KindTaxAssessment:
		return true
	}
	return false
}

func ParseEntityKindFromString(s string) (EntityKind, error) {
	k := EntityKind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", fmt.Errorf("%w: invalid entity kind %q", ErrValidation, s)
	}
	return k, nil
}

// ReferenceCodePrefix returns the human-readable code prefix for a kind,
// e.g. PROP for properties.
func (k EntityKind) ReferenceCodePrefix() string {
	switch k {
	case KindCustomer:
		return "CUST"
	case KindProperty:
		return "PROP"
	case KindTaxAssessment:
		return "TAX"
	default:
		return "REC"
	}
}

// SyncStatus tracks propagation of an approved property to ArcGIS Online.
type SyncStatus string

const (
	SyncStatusNone    SyncStatus = "NONE"
	SyncStatusPending SyncStatus = "PENDING"
	SyncStatusSynced  SyncStatus = "SYNCED"
	SyncStatusError   SyncStatus = "ERROR"
)

func (s SyncStatus) String() string { return string(s) }

func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusNone, SyncStatusPending, SyncStatusSynced, SyncStatusError:
		return true
	}
	return false
}

// MinRejectionFeedbackLen is the minimum trimmed length of reviewer feedback.
const MinRejectionFeedbackLen = 10

// Entity is a customer, property, or tax assessment record subject to the
// approval workflow. Sync columns are meaningful for properties only.
type Entity struct {
	ID                string            `gorm:"type:uuid;primaryKey"`
	ReferenceCode     string            `gorm:"type:varchar(32);not null"`
	Kind              EntityKind        `gorm:"type:varchar(20);not null"`
	Name              string            `gorm:"type:varchar(255);not null"`
	Attributes        map[string]string `gorm:"-"`
	Status            Status            `gorm:"type:varchar(20);not null"`
	CreatedBy         string            `gorm:"type:uuid;not null"`
	ApprovedBy        *string           `gorm:"type:uuid"`
	SubmittedAt       *time.Time
	RejectionFeedback *string    `gorm:"type:text"`
	AgoSyncStatus     SyncStatus `gorm:"type:varchar(10);not null;default:'NONE'"`
	AgoObjectID       *string    `gorm:"type:varchar(64)"`
	AgoSyncError      *string    `gorm:"type:text"`
	AgoLastSyncAt     *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (e *Entity) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if !e.Kind.IsValid() {
		return fmt.Errorf("%w: invalid entity kind %q", ErrValidation, e.Kind)
	}
	if !e.Status.IsValid() {
		return fmt.Errorf("%w: invalid status %q", ErrValidation, e.Status)
	}
	if strings.TrimSpace(e.CreatedBy) == "" {
		return fmt.Errorf("%w: created_by is required", ErrValidation)
	}
	return nil
}

// UnarchiveTarget returns the status an archived entity returns to:
// APPROVED when it was approved before archiving, DRAFT otherwise.
func (e *Entity) UnarchiveTarget() Status {
	if e.ApprovedBy != nil && strings.TrimSpace(*e.ApprovedBy) != "" {
		return StatusApproved
	}
	return StatusDraft
}

// ValidateRejectionFeedback enforces the minimum reviewer feedback length.
func ValidateRejectionFeedback(feedback string) (string, error) {
	trimmed := strings.TrimSpace(feedback)
	if len([]rune(trimmed)) < MinRejectionFeedbackLen {
		return "", fmt.Errorf("%w: rejection feedback must be at least %d characters", ErrValidation, MinRejectionFeedbackLen)
	}
	return trimmed, nil
}
