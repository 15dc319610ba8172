package service

import (
	"fmt"
	"sort"

	"github.com/muniworks/land-office/internal/queue"
)

// Bookkeeping columns never appear in the audit trail.
var auditSkippedFields = map[string]struct{}{
	"id":         {},
	"created_at": {},
	"updated_at": {},
}

// FieldChanges computes the field-level diff between two record snapshots
// over the union of their keys. Values are stringified with fmt.Sprint,
// nil rendering as the empty string. One change per differing field,
// ordered by field name.
func FieldChanges(oldValues, newValues map[string]any) []queue.FieldChange {
	keys := make(map[string]struct{}, len(oldValues)+len(newValues))
	for k := range oldValues {
		keys[k] = struct{}{}
	}
	for k := range newValues {
		keys[k] = struct{}{}
	}

	fields := make([]string, 0, len(keys))
	for k := range keys {
		if _, skip := auditSkippedFields[k]; skip {
			continue
		}
		fields = append(fields, k)
	}
	sort.Strings(fields)

	changes := make([]queue.FieldChange, 0, len(fields))
	for _, field := range fields {
		oldValue := stringifyAuditValue(oldValues[field])
		newValue := stringifyAuditValue(newValues[field])
		if oldValue == newValue {
			continue
		}
		changes = append(changes, queue.FieldChange{
			Field:    field,
			OldValue: oldValue,
			NewValue: newValue,
		})
	}

	return changes
}

func stringifyAuditValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
