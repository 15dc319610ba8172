package domain

import "time"

// AuditLogEntry records one field-level change. Append-only.
type AuditLogEntry struct {
	ID         string     `gorm:"type:uuid;primaryKey"`
	EntityKind EntityKind `gorm:"type:varchar(20);not null"`
	EntityID   string     `gorm:"type:uuid;not null"`
	Action     string     `gorm:"type:varchar(32);not null"`
	FieldName  *string    `gorm:"type:varchar(128)"`
	OldValue   *string    `gorm:"type:text"`
	NewValue   *string    `gorm:"type:text"`
	ActorID    string     `gorm:"type:uuid;not null"`
	CreatedAt  time.Time
}
