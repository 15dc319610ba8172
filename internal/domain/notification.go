package domain

import (
	"fmt"
	"strings"
	"time"
)

// Notification is an in-app message addressed to a single recipient.
// Only the is_read/read_at pair mutates after insert, and only by the recipient.
type Notification struct {
	ID          string     `gorm:"type:uuid;primaryKey"`
	RecipientID string     `gorm:"type:uuid;not null"`
	Title       string     `gorm:"type:varchar(255);not null"`
	Message     string     `gorm:"type:text;not null"`
	EntityKind  EntityKind `gorm:"type:varchar(20);not null"`
	EntityID    string     `gorm:"type:uuid;not null"`
	IsRead      bool       `gorm:"not null;default:false"`
	ReadAt      *time.Time
	CreatedAt   time.Time
}

func (n *Notification) Validate() error {
	if strings.TrimSpace(n.RecipientID) == "" {
		return fmt.Errorf("%w: recipient is required", ErrValidation)
	}
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(n.Message) == "" {
		return fmt.Errorf("%w: message is required", ErrValidation)
	}
	if !n.EntityKind.IsValid() {
		return fmt.Errorf("%w: invalid entity kind %q", ErrValidation, n.EntityKind)
	}
	return nil
}

// ReadFilter selects notifications by read state.
type ReadFilter string

const (
	ReadFilterAll    ReadFilter = "ALL"
	ReadFilterUnread ReadFilter = "UNREAD"
	ReadFilterRead   ReadFilter = "READ"
)

func (f ReadFilter) String() string { return string(f) }

func (f ReadFilter) IsValid() bool {
	switch f {
	case ReadFilterAll, ReadFilterUnread, ReadFilterRead:
		return true
	}
	return false
}

func ParseReadFilterFromString(s string) (ReadFilter, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(s))
	if trimmed == "" {
		return ReadFilterAll, nil
	}
	f := ReadFilter(trimmed)
	if !f.IsValid() {
		return "", fmt.Errorf("%w: invalid read filter %q", ErrValidation, s)
	}
	return f, nil
}
