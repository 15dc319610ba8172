package repository

import (
	"context"
	"errors"
	"time"

	"github.com/muniworks/land-office/internal/domain"
	"gorm.io/gorm"
)

type EntityListParams struct {
	Kind      *domain.EntityKind
	Status    *domain.Status
	CreatedBy *string
	Page      int
	PageSize  int
}

// EntityUpdates is the column set applied together with a status transition.
type EntityUpdates map[string]any

type EntityRepository interface {
	Create(ctx context.Context, e *domain.Entity) error
	GetByID(ctx context.Context, id string) (*domain.Entity, error)
	List(ctx context.Context, params EntityListParams) ([]domain.Entity, int64, error)
	// TransitionStatus applies updates only when the entity is still in the
	// expected status. It reports false when the conditional update matched
	// no row, so concurrent transitions resolve to a single winner.
	TransitionStatus(ctx context.Context, id string, expected domain.Status, updates EntityUpdates) (bool, error)
	UpdateFields(ctx context.Context, id string, updates EntityUpdates) error
}

type GormEntityRepo struct {
	db *gorm.DB
}

func NewGormEntityRepo(db *gorm.DB) *GormEntityRepo {
	return &GormEntityRepo{db: db}
}

func (r *GormEntityRepo) Create(ctx context.Context, e *domain.Entity) error {
	model := entityModelFromDomain(e)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if e != nil {
		*e = *entityModelToDomain(model)
	}
	return nil
}

func (r *GormEntityRepo) GetByID(ctx context.Context, id string) (*domain.Entity, error) {
	var model EntityModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return entityModelToDomain(&model), nil
}

func (r *GormEntityRepo) List(ctx context.Context, params EntityListParams) ([]domain.Entity, int64, error) {
	query := r.db.WithContext(ctx).Model(&EntityModel{})

	if params.Kind != nil {
		query = query.Where("kind = ?", *params.Kind)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.CreatedBy != nil {
		query = query.Where("created_by = ?", *params.CreatedBy)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := max(params.Page, 1)
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	pageSize = min(pageSize, 100)

	var models []EntityModel
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	entities := make([]domain.Entity, 0, len(models))
	for i := range models {
		entities = append(entities, *entityModelToDomain(&models[i]))
	}

	return entities, total, nil
}

func (r *GormEntityRepo) TransitionStatus(
	ctx context.Context,
	id string,
	expected domain.Status,
	updates EntityUpdates,
) (bool, error) {
	if len(updates) == 0 {
		return false, errors.New("transition updates are required")
	}

	merged := make(map[string]any, len(updates)+1)
	for k, v := range updates {
		merged[k] = v
	}
	merged["updated_at"] = time.Now().UTC()

	result := r.db.WithContext(ctx).
		Model(&EntityModel{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(merged)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *GormEntityRepo) UpdateFields(ctx context.Context, id string, updates EntityUpdates) error {
	result := r.db.WithContext(ctx).
		Model(&EntityModel{}).
		Where("id = ?", id).
		Updates(map[string]any(updates))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
