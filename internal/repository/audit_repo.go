package repository

import (
	"context"

	"github.com/muniworks/land-office/internal/domain"
	"gorm.io/gorm"
)

type AuditRepository interface {
	CreateBatch(ctx context.Context, entries []domain.AuditLogEntry) error
	ListByEntity(ctx context.Context, kind domain.EntityKind, entityID string) ([]domain.AuditLogEntry, error)
}

type GormAuditRepo struct {
	db *gorm.DB
}

func NewGormAuditRepo(db *gorm.DB) *GormAuditRepo {
	return &GormAuditRepo{db: db}
}

func (r *GormAuditRepo) CreateBatch(ctx context.Context, entries []domain.AuditLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	models := make([]AuditLogModel, 0, len(entries))
	for i := range entries {
		models = append(models, *auditModelFromDomain(&entries[i]))
	}

	return r.db.WithContext(ctx).CreateInBatches(&models, 100).Error
}

func (r *GormAuditRepo) ListByEntity(
	ctx context.Context,
	kind domain.EntityKind,
	entityID string,
) ([]domain.AuditLogEntry, error) {
	var models []AuditLogModel
	err := r.db.WithContext(ctx).
		Where("entity_kind = ? AND entity_id = ?", kind, entityID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	entries := make([]domain.AuditLogEntry, 0, len(models))
	for i := range models {
		entries = append(entries, *auditModelToDomain(&models[i]))
	}
	return entries, nil
}
