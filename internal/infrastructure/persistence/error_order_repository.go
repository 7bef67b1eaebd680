package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/supplyhub/backend/internal/domain/ingest"
	"github.com/supplyhub/backend/internal/domain/shared"
	"github.com/supplyhub/backend/internal/infrastructure/persistence/models"
)

// GormErrorOrderRepository implements ingest.ErrorOrderRepository using GORM
type GormErrorOrderRepository struct {
	db *gorm.DB
}

// NewGormErrorOrderRepository creates a new GormErrorOrderRepository
func NewGormErrorOrderRepository(db *gorm.DB) *GormErrorOrderRepository {
	return &GormErrorOrderRepository{db: db}
}

// Upsert records an error idempotently per (task_id, row_number). Reprocessing
// the same row overwrites the previous record instead of duplicating it.
func (r *GormErrorOrderRepository) Upsert(ctx context.Context, errorOrder *ingest.ErrorOrder) error {
	model := models.ErrorOrderModelFromDomain(errorOrder)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "task_id"}, {Name: "row_number"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"raw_payload", "category", "message", "suggestion", "updated_at",
			}),
		}).
		Create(model).Error
}

// Save creates or updates an error record
func (r *GormErrorOrderRepository) Save(ctx context.Context, errorOrder *ingest.ErrorOrder) error {
	model := models.ErrorOrderModelFromDomain(errorOrder)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds an error record by ID within a company
func (r *GormErrorOrderRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*ingest.ErrorOrder, error) {
	var model models.ErrorOrderModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByTaskAndRow finds the error record for one row of a task
func (r *GormErrorOrderRepository) FindByTaskAndRow(ctx context.Context, taskID uuid.UUID, rowNumber int) (*ingest.ErrorOrder, error) {
	var model models.ErrorOrderModel
	if err := r.db.WithContext(ctx).
		Where("task_id = ? AND row_number = ?", taskID, rowNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds error records for a company matching the filter. Sorting
// defaults to created_at DESC; the sort field is checked against
// ErrorOrderSortFields.
func (r *GormErrorOrderRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter ingest.ErrorFilter, page, pageSize int) (*ingest.ErrorListResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := r.db.WithContext(ctx).Model(&models.ErrorOrderModel{}).
		Where("company_id = ?", companyID)
	if filter.TaskID != nil {
		query = query.Where("task_id = ?", *filter.TaskID)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	orderBy := ValidateSortField(filter.SortBy, ErrorOrderSortFields, "created_at") + " " + ValidateSortOrder(filter.SortOrder)

	var errorModels []models.ErrorOrderModel
	if err := query.
		Order(orderBy).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&errorModels).Error; err != nil {
		return nil, err
	}

	items := make([]*ingest.ErrorOrder, len(errorModels))
	for i := range errorModels {
		items[i] = errorModels[i].ToDomain()
	}
	return &ingest.ErrorListResult{
		Items:      items,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

var _ ingest.ErrorOrderRepository = (*GormErrorOrderRepository)(nil)
