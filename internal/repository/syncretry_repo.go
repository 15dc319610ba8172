package repository

import (
	"context"
	"errors"
	"time"

	"github.com/muniworks/land-office/internal/domain"
	"gorm.io/gorm"
)

type SyncRetryRepository interface {
	Create(ctx context.Context, record *domain.SyncRetryRecord) error
	GetByID(ctx context.Context, id string) (*domain.SyncRetryRecord, error)
	// GetOpenByProperty returns the property's active (PENDING or RETRYING)
	// retry record, or ErrNotFound when the property has none.
	GetOpenByProperty(ctx context.Context, propertyID string) (*domain.SyncRetryRecord, error)
	Update(ctx context.Context, record *domain.SyncRetryRecord) error
	// MarkRetrying claims a due PENDING record; false means another sweep won.
	MarkRetrying(ctx context.Context, id string) (bool, error)
	GetDue(ctx context.Context, now time.Time, limit int) ([]domain.SyncRetryRecord, error)
	ListByProperty(ctx context.Context, propertyID string) ([]domain.SyncRetryRecord, error)
}

type GormSyncRetryRepo struct {
	db *gorm.DB
}

func NewGormSyncRetryRepo(db *gorm.DB) *GormSyncRetryRepo {
	return &GormSyncRetryRepo{db: db}
}

func (r *GormSyncRetryRepo) Create(ctx context.Context, record *domain.SyncRetryRecord) error {
	model := syncRetryModelFromDomain(record)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if record != nil {
		*record = *syncRetryModelToDomain(model)
	}
	return nil
}

func (r *GormSyncRetryRepo) GetByID(ctx context.Context, id string) (*domain.SyncRetryRecord, error) {
	var model SyncRetryModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return syncRetryModelToDomain(&model), nil
}

func (r *GormSyncRetryRepo) GetOpenByProperty(ctx context.Context, propertyID string) (*domain.SyncRetryRecord, error) {
	var model SyncRetryModel
	err := r.db.WithContext(ctx).
		Where("property_id = ? AND status IN ?", propertyID,
			[]domain.RetryStatus{domain.RetryStatusPending, domain.RetryStatusRetrying}).
		Order("created_at DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return syncRetryModelToDomain(&model), nil
}

func (r *GormSyncRetryRepo) Update(ctx context.Context, record *domain.SyncRetryRecord) error {
	if record == nil {
		return errors.New("sync retry record is required")
	}

	model := syncRetryModelFromDomain(record)
	model.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).
		Model(&SyncRetryModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]any{
			"attempt_number":  model.AttemptNumber,
			"last_attempt_at": model.LastAttemptAt,
			"next_retry_at":   model.NextRetryAt,
			"last_error":      model.LastError,
			"status":          model.Status,
			"updated_at":      model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormSyncRetryRepo) MarkRetrying(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&SyncRetryModel{}).
		Where("id = ? AND status = ?", id, domain.RetryStatusPending).
		Updates(map[string]any{
			"status":     domain.RetryStatusRetrying,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *GormSyncRetryRepo) GetDue(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]domain.SyncRetryRecord, error) {
	var models []SyncRetryModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_retry_at <= ?", domain.RetryStatusPending, now).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	records := make([]domain.SyncRetryRecord, 0, len(models))
	for i := range models {
		records = append(records, *syncRetryModelToDomain(&models[i]))
	}
	return records, nil
}

func (r *GormSyncRetryRepo) ListByProperty(ctx context.Context, propertyID string) ([]domain.SyncRetryRecord, error) {
	var models []SyncRetryModel
	err := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("attempt_number ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	records := make([]domain.SyncRetryRecord, 0, len(models))
	for i := range models {
		records = append(records, *syncRetryModelToDomain(&models[i]))
	}
	return records, nil
}
