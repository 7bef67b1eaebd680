package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/supplyhub/backend/internal/domain/ingest"
	"github.com/supplyhub/backend/internal/domain/shared"
	"github.com/supplyhub/backend/internal/infrastructure/persistence/models"
)

// GormRowDetailRepository implements ingest.RowDetailRepository using GORM
type GormRowDetailRepository struct {
	db *gorm.DB
}

// NewGormRowDetailRepository creates a new GormRowDetailRepository
func NewGormRowDetailRepository(db *gorm.DB) *GormRowDetailRepository {
	return &GormRowDetailRepository{db: db}
}

// Save creates or updates a row detail
func (r *GormRowDetailRepository) Save(ctx context.Context, detail *ingest.RowDetail) error {
	model := models.RowDetailModelFromDomain(detail)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByTaskAndRow finds the detail for one row of a task
func (r *GormRowDetailRepository) FindByTaskAndRow(ctx context.Context, taskID uuid.UUID, rowNumber int) (*ingest.RowDetail, error) {
	var model models.RowDetailModel
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

// FindByTask finds row details for a task ordered by row number
func (r *GormRowDetailRepository) FindByTask(ctx context.Context, taskID uuid.UUID, filter ingest.RowFilter, page, pageSize int) (*ingest.RowListResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 500 {
		pageSize = 50
	}

	query := r.db.WithContext(ctx).Model(&models.RowDetailModel{}).
		Where("task_id = ?", taskID)
	if filter.Outcome != nil {
		query = query.Where("outcome = ?", *filter.Outcome)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var rowModels []models.RowDetailModel
	if err := query.
		Order("row_number ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rowModels).Error; err != nil {
		return nil, err
	}

	items := make([]*ingest.RowDetail, len(rowModels))
	for i := range rowModels {
		items[i] = rowModels[i].ToDomain()
	}
	return &ingest.RowListResult{
		Items:      items,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

var _ ingest.RowDetailRepository = (*GormRowDetailRepository)(nil)
