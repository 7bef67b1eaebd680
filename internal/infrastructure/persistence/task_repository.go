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

// GormTaskRepository implements ingest.TaskRepository using GORM
type GormTaskRepository struct {
	db *gorm.DB
}

// NewGormTaskRepository creates a new GormTaskRepository
func NewGormTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db}
}

// Save creates or updates a task
func (r *GormTaskRepository) Save(ctx context.Context, task *ingest.ProcessTask) error {
	model := models.ProcessTaskModelFromDomain(task)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds a task by ID within a company
func (r *GormTaskRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*ingest.ProcessTask, error) {
	var model models.ProcessTaskModel
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

// FindActiveByHash finds a PENDING or PROCESSING task with the given content
// hash for a company. Used as the resubmission guard.
func (r *GormTaskRepository) FindActiveByHash(ctx context.Context, companyID uuid.UUID, contentHash string) (*ingest.ProcessTask, error) {
	var model models.ProcessTaskModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND content_hash = ? AND status IN ?",
			companyID, contentHash, []ingest.TaskStatus{ingest.TaskStatusPending, ingest.TaskStatusProcessing}).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds tasks for a company matching the filter. Sorting defaults to
// created_at DESC; the sort field is checked against TaskSortFields.
func (r *GormTaskRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter ingest.TaskFilter, page, pageSize int) (*ingest.TaskListResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := r.db.WithContext(ctx).Model(&models.ProcessTaskModel{}).
		Where("company_id = ?", companyID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	orderBy := ValidateSortField(filter.SortBy, TaskSortFields, "created_at") + " " + ValidateSortOrder(filter.SortOrder)

	var taskModels []models.ProcessTaskModel
	if err := query.
		Order(orderBy).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&taskModels).Error; err != nil {
		return nil, err
	}

	items := make([]*ingest.ProcessTask, len(taskModels))
	for i := range taskModels {
		items[i] = taskModels[i].ToDomain()
	}
	return &ingest.TaskListResult{
		Items:      items,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// IncrementCounters applies one row's outcome as a single atomic UPDATE and
// returns the post-increment counters. Parallel workers each land their own
// delta; the worker whose returned snapshot shows all rows processed is the
// one that completes the task.
func (r *GormTaskRepository) IncrementCounters(ctx context.Context, taskID uuid.UUID, delta ingest.CounterDelta) (*ingest.Progress, error) {
	var model models.ProcessTaskModel
	result := r.db.WithContext(ctx).
		Model(&model).
		Clauses(clause.Returning{}).
		Where("id = ?", taskID).
		Updates(map[string]interface{}{
			"processed_rows": gorm.Expr("processed_rows + ?", delta.Succeeded+delta.Failed+delta.Manual),
			"succeeded_rows": gorm.Expr("succeeded_rows + ?", delta.Succeeded),
			"failed_rows":    gorm.Expr("failed_rows + ?", delta.Failed),
			"manual_rows":    gorm.Expr("manual_rows + ?", delta.Manual),
			"confidence_sum": gorm.Expr("confidence_sum + ?", delta.Confidence),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, shared.ErrNotFound
	}

	task := model.ToDomain()
	progress := task.Snapshot()
	return &progress, nil
}

var _ ingest.TaskRepository = (*GormTaskRepository)(nil)
