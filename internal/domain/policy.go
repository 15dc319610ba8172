package domain

import (
	"fmt"
	"strings"
)

// WorkflowAction is an operation the workflow engine can perform.
type WorkflowAction string

const (
	ActionSubmit    WorkflowAction = "SUBMIT"
	ActionApprove   WorkflowAction = "APPROVE"
	ActionReject    WorkflowAction = "REJECT"
	ActionArchive   WorkflowAction = "ARCHIVE"
	ActionUnarchive WorkflowAction = "UNARCHIVE"
)

func (a WorkflowAction) String() string { return string(a) }

func (a WorkflowAction) IsValid() bool {
	switch a {
	case ActionSubmit, ActionApprove, ActionReject, ActionArchive, ActionUnarchive:
		return true
	}
	return false
}

func ParseWorkflowActionFromString(s string) (WorkflowAction, error) {
	a := WorkflowAction(strings.ToUpper(strings.TrimSpace(s)))
	if !a.IsValid() {
		return "", fmt.Errorf("%w: invalid workflow action %q", ErrValidation, s)
	}
	return a, nil
}

// RoleSet is the set of roles permitted to perform an action.
type RoleSet map[Role]struct{}

func (rs RoleSet) Contains(r Role) bool {
	_, ok := rs[r]
	return ok
}

func roles(list ...Role) RoleSet {
	rs := make(RoleSet, len(list))
	for _, r := range list {
		rs[r] = struct{}{}
	}
	return rs
}

var (
	reviewRoles = roles(RoleApprover, RoleAdministrator)
	adminOnly   = roles(RoleAdministrator)
)

// AllowedRoles is the confirmed transition-permission policy table.
// Archive permissions are deliberately asymmetric: customers and tax
// assessments are administrator-only, properties also allow approvers.
func AllowedRoles(action WorkflowAction, kind EntityKind) RoleSet {
	switch action {
	case ActionSubmit:
		// Ownership is checked separately; any role may submit its own drafts.
		return roles(RoleInputter, RoleApprover, RoleAdministrator)
	case ActionApprove, ActionReject:
		return reviewRoles
	case ActionArchive, ActionUnarchive:
		if kind == KindProperty {
			return reviewRoles
		}
		return adminOnly
	default:
		return RoleSet{}
	}
}

// RequiredStatus returns the status an entity must be in before the action.
// Archive accepts any non-archived status, so it is handled separately.
func RequiredStatus(action WorkflowAction) (Status, bool) {
	switch action {
	case ActionSubmit:
		return StatusDraft, true
	case ActionApprove, ActionReject:
		return StatusSubmitted, true
	case ActionUnarchive:
		return StatusArchived, true
	default:
		return "", false
	}
}
