package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role represents a user's permission level in the approval workflow.
type Role string

const (
	RoleInputter      Role = "INPUTTER"
	RoleApprover      Role = "APPROVER"
	RoleAdministrator Role = "ADMINISTRATOR"
)

func (r Role) String() string { return string(r) }

func (r Role) IsValid() bool {
	switch r {
	case RoleInputter, RoleApprover, RoleAdministrator:
		return true
	}
	return false
}

func ParseRoleFromString(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("%w: invalid role %q", ErrValidation, s)
	}
	return r, nil
}

// UnknownUserName is rendered where an activity actor cannot be resolved.
const UnknownUserName = "Unknown User"

// User is a directory record used for role checks, display names,
// and notification fan-out.
type User struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	DisplayName string `gorm:"type:varchar(255);not null"`
	Email       string `gorm:"type:varchar(255);not null"`
	Role        Role   `gorm:"type:varchar(20);not null"`
	IsActive    bool   `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Actor is the authenticated identity performing an operation.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) IsAdministrator() bool { return a.Role == RoleAdministrator }
