package repository

import (
	"context"

	"github.com/muniworks/land-office/internal/domain"
	"gorm.io/gorm"
)

type ActivityRepository interface {
	Create(ctx context.Context, entry *domain.ActivityLogEntry) error
	ListByEntity(ctx context.Context, kind domain.EntityKind, entityID string) ([]domain.ActivityLogEntry, error)
}

type GormActivityRepo struct {
	db *gorm.DB
}

func NewGormActivityRepo(db *gorm.DB) *GormActivityRepo {
	return &GormActivityRepo{db: db}
}

func (r *GormActivityRepo) Create(ctx context.Context, entry *domain.ActivityLogEntry) error {
	model := activityModelFromDomain(entry)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if entry != nil {
		*entry = *activityModelToDomain(model)
	}
	return nil
}

func (r *GormActivityRepo) ListByEntity(
	ctx context.Context,
	kind domain.EntityKind,
	entityID string,
) ([]domain.ActivityLogEntry, error) {
	var models []ActivityLogModel
	err := r.db.WithContext(ctx).
		Where("entity_kind = ? AND entity_id = ?", kind, entityID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	entries := make([]domain.ActivityLogEntry, 0, len(models))
	for i := range models {
		entries = append(entries, *activityModelToDomain(&models[i]))
	}
	return entries, nil
}
