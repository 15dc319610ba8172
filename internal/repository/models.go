package repository

import (
	"encoding/json"
	"time"

	"github.com/muniworks/land-office/internal/domain"
)

// EntityModel is the persistence model for the entities table.
type EntityModel struct {
	ID                string            `gorm:"type:uuid;primaryKey"`
	ReferenceCode     string            `gorm:"type:varchar(32);not null"`
	Kind              domain.EntityKind `gorm:"type:varchar(20);not null"`
	Name              string            `gorm:"type:varchar(255);not null"`
	Attributes        []byte            `gorm:"type:jsonb"`
	Status            domain.Status     `gorm:"type:varchar(20);not null"`
	CreatedBy         string            `gorm:"type:uuid;not null"`
	ApprovedBy        *string           `gorm:"type:uuid"`
	SubmittedAt       *time.Time
	RejectionFeedback *string           `gorm:"type:text"`
	AgoSyncStatus     domain.SyncStatus `gorm:"type:varchar(10);not null;default:'NONE'"`
	AgoObjectID       *string           `gorm:"type:varchar(64)"`
	AgoSyncError      *string           `gorm:"type:text"`
	AgoLastSyncAt     *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (EntityModel) TableName() string {
	return "entities"
}

// UserModel is the persistence model for the users directory table.
type UserModel struct {
	ID          string      `gorm:"type:uuid;primaryKey"`
	DisplayName string      `gorm:"type:varchar(255);not null"`
	Email       string      `gorm:"type:varchar(255);not null"`
	Role        domain.Role `gorm:"type:varchar(20);not null"`
	IsActive    bool        `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (UserModel) TableName() string {
	return "users"
}

// AuditLogModel is the persistence model for audit_logs.
type AuditLogModel struct {
	ID         string            `gorm:"type:uuid;primaryKey"`
	EntityKind domain.EntityKind `gorm:"type:varchar(20);not null"`
	EntityID   string            `gorm:"type:uuid;not null"`
	Action     string            `gorm:"type:varchar(32);not null"`
	FieldName  *string           `gorm:"type:varchar(128)"`
	OldValue   *string           `gorm:"type:text"`
	NewValue   *string           `gorm:"type:text"`
	ActorID    string            `gorm:"type:uuid;not null"`
	CreatedAt  time.Time
}

func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// ActivityLogModel is the persistence model for activity_logs.
type ActivityLogModel struct {
	ID         string                `gorm:"type:uuid;primaryKey"`
	EntityKind domain.EntityKind     `gorm:"type:varchar(20);not null"`
	EntityID   string                `gorm:"type:uuid;not null"`
	Action     domain.ActivityAction `gorm:"type:varchar(20);not null"`
	ActorID    string                `gorm:"type:uuid;not null"`
	Metadata   []byte                `gorm:"type:jsonb"`
	CreatedAt  time.Time
}

func (ActivityLogModel) TableName() string {
	return "activity_logs"
}

// NotificationModel is the persistence model for notifications.
type NotificationModel struct {
	ID          string            `gorm:"type:uuid;primaryKey"`
	RecipientID string            `gorm:"type:uuid;not null"`
	Title       string            `gorm:"type:varchar(255);not null"`
	Message     string            `gorm:"type:text;not null"`
	EntityKind  domain.EntityKind `gorm:"type:varchar(20);not null"`
	EntityID    string            `gorm:"type:uuid;not null"`
	IsRead      bool              `gorm:"not null;default:false"`
	ReadAt      *time.Time
	CreatedAt   time.Time
}

func (NotificationModel) TableName() string {
	return "notifications"
}

// SyncRetryModel is the persistence model for sync_retries.
type SyncRetryModel struct {
	ID            string `gorm:"type:uuid;primaryKey"`
	PropertyID    string `gorm:"type:uuid;not null"`
	AttemptNumber int    `gorm:"not null"`
	LastAttemptAt time.Time
	NextRetryAt   *time.Time
	LastError     *string            `gorm:"type:text"`
	Status        domain.RetryStatus `gorm:"type:varchar(10);not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (SyncRetryModel) TableName() string {
	return "sync_retries"
}

func entityModelFromDomain(e *domain.Entity) *EntityModel {
	if e == nil {
		return nil
	}

	return &EntityModel{
		ID:                e.ID,
		ReferenceCode:     e.ReferenceCode,
		Kind:              e.Kind,
		Name:              e.Name,
		Attributes:        marshalStringMap(e.Attributes),
		Status:            e.Status,
		CreatedBy:         e.CreatedBy,
		ApprovedBy:        e.ApprovedBy,
		SubmittedAt:       e.SubmittedAt,
		RejectionFeedback: e.RejectionFeedback,
		AgoSyncStatus:     e.AgoSyncStatus,
		AgoObjectID:       e.AgoObjectID,
		AgoSyncError:      e.AgoSyncError,
		AgoLastSyncAt:     e.AgoLastSyncAt,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}

func entityModelToDomain(m *EntityModel) *domain.Entity {
	if m == nil {
		return nil
	}

	return &domain.Entity{
		ID:                m.ID,
		ReferenceCode:     m.ReferenceCode,
		Kind:              m.Kind,
		Name:              m.Name,
		Attributes:        unmarshalStringMap(m.Attributes),
		Status:            m.Status,
		CreatedBy:         m.CreatedBy,
		ApprovedBy:        m.ApprovedBy,
		SubmittedAt:       m.SubmittedAt,
		RejectionFeedback: m.RejectionFeedback,
		AgoSyncStatus:     m.AgoSyncStatus,
		AgoObjectID:       m.AgoObjectID,
		AgoSyncError:      m.AgoSyncError,
		AgoLastSyncAt:     m.AgoLastSyncAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func userModelToDomain(m *UserModel) *domain.User {
	if m == nil {
		return nil
	}

	return &domain.User{
		ID:          m.ID,
		DisplayName: m.DisplayName,
		Email:       m.Email,
		Role:        m.Role,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func auditModelFromDomain(e *domain.AuditLogEntry) *AuditLogModel {
	if e == nil {
		return nil
	}

	return &AuditLogModel{
		ID:         e.ID,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		Action:     e.Action,
		FieldName:  e.FieldName,
		OldValue:   e.OldValue,
		NewValue:   e.NewValue,
		ActorID:    e.ActorID,
		CreatedAt:  e.CreatedAt,
	}
}

func auditModelToDomain(m *AuditLogModel) *domain.AuditLogEntry {
	if m == nil {
		return nil
	}

	return &domain.AuditLogEntry{
		ID:         m.ID,
		EntityKind: m.EntityKind,
		EntityID:   m.EntityID,
		Action:     m.Action,
		FieldName:  m.FieldName,
		OldValue:   m.OldValue,
		NewValue:   m.NewValue,
		ActorID:    m.ActorID,
		CreatedAt:  m.CreatedAt,
	}
}

func activityModelFromDomain(e *domain.ActivityLogEntry) *ActivityLogModel {
	if e == nil {
		return nil
	}

	return &ActivityLogModel{
		ID:         e.ID,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		Action:     e.Action,
		ActorID:    e.ActorID,
		Metadata:   marshalStringMap(e.Metadata),
		CreatedAt:  e.CreatedAt,
	}
}

func activityModelToDomain(m *ActivityLogModel) *domain.ActivityLogEntry {
	if m == nil {
		return nil
	}

	return &domain.ActivityLogEntry{
		ID:         m.ID,
		EntityKind: m.EntityKind,
		EntityID:   m.EntityID,
		Action:     m.Action,
		ActorID:    m.ActorID,
		Metadata:   unmarshalStringMap(m.Metadata),
		CreatedAt:  m.CreatedAt,
	}
}

func notificationModelFromDomain(n *domain.Notification) *NotificationModel {
	if n == nil {
		return nil
	}

	return &NotificationModel{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		Title:       n.Title,
		Message:     n.Message,
		EntityKind:  n.EntityKind,
		EntityID:    n.EntityID,
		IsRead:      n.IsRead,
		ReadAt:      n.ReadAt,
		CreatedAt:   n.CreatedAt,
	}
}

func notificationModelToDomain(m *NotificationModel) *domain.Notification {
	if m == nil {
		return nil
	}

	return &domain.Notification{
		ID:          m.ID,
		RecipientID: m.RecipientID,
		Title:       m.Title,
		Message:     m.Message,
		EntityKind:  m.EntityKind,
		EntityID:    m.EntityID,
		IsRead:      m.IsRead,
		ReadAt:      m.ReadAt,
		CreatedAt:   m.CreatedAt,
	}
}

func syncRetryModelFromDomain(r *domain.SyncRetryRecord) *SyncRetryModel {
	if r == nil {
		return nil
	}

	return &SyncRetryModel{
		ID:            r.ID,
		PropertyID:    r.PropertyID,
		AttemptNumber: r.AttemptNumber,
		LastAttemptAt: r.LastAttemptAt,
		NextRetryAt:   r.NextRetryAt,
		LastError:     r.LastError,
		Status:        r.Status,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func syncRetryModelToDomain(m *SyncRetryModel) *domain.SyncRetryRecord {
	if m == nil {
		return nil
	}

	return &domain.SyncRetryRecord{
		ID:            m.ID,
		PropertyID:    m.PropertyID,
		AttemptNumber: m.AttemptNumber,
		LastAttemptAt: m.LastAttemptAt,
		NextRetryAt:   m.NextRetryAt,
		LastError:     m.LastError,
		Status:        m.Status,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// MarshalAttributes renders an attribute bag as its jsonb column value,
// for callers building an EntityUpdates map.
func MarshalAttributes(m map[string]string) []byte {
	return marshalStringMap(m)
}

func marshalStringMap(m map[string]string) []byte {
	if len(m) == 0 {
		return nil
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return payload
}

func unmarshalStringMap(payload []byte) map[string]string {
	if len(payload) == 0 {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil
	}
	return m
}
