package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/supplyhub/backend/internal/domain/catalog"
	"github.com/supplyhub/backend/internal/domain/ingest"
	"github.com/supplyhub/backend/internal/domain/match"
	"github.com/supplyhub/backend/internal/domain/partner"
	"github.com/supplyhub/backend/internal/domain/recognize"
	"github.com/supplyhub/backend/internal/domain/shared"
	"github.com/supplyhub/backend/internal/domain/trade"
	"github.com/supplyhub/backend/internal/infrastructure/spreadsheet"
)

// Options tunes the ingestion pipeline
type Options struct {
	// Workers is the number of rows processed in parallel per task
	Workers int
	// MaxRows is the largest accepted data row count per file
	MaxRows int
	// MaxFileSize is the largest accepted upload in bytes
	MaxFileSize int64
	// MinMappingConfidence is the column recognition confidence below which
	// every row of a task is routed to manual review
	MinMappingConfidence float64
	// MatchPolicy governs the fuzzy matchers
	MatchPolicy match.Policy
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.MaxRows <= 0 {
		o.MaxRows = 5000
	}
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = 10 << 20
	}
	if o.MinMappingConfidence <= 0 {
		o.MinMappingConfidence = 0.4
	}
	if o.MatchPolicy == (match.Policy{}) {
		o.MatchPolicy = match.DefaultPolicy()
	}
	return o
}

// TaskService orchestrates spreadsheet ingestion: upload intake, asynchronous
// row processing, progress reporting and cancellation
type TaskService struct {
	tasks      ingest.TaskRepository
	rows       ingest.RowDetailRepository
	errorRepo  ingest.ErrorOrderRepository
	orders     trade.OrderRepository
	products   catalog.ProductRepository
	customers  partner.CustomerRepository
	numbers    trade.NumberGenerator
	recognizer *recognize.Recognizer
	publisher  shared.EventPublisher
	opts       Options
	logger     *zap.Logger

	mu      sync.Mutex
	running map[uuid.UUID]context.CancelFunc
	// wg tracks in-flight task goroutines for graceful shutdown
	wg sync.WaitGroup
}

// NewTaskService creates the ingestion service
func NewTaskService(
	tasks ingest.TaskRepository,
	rows ingest.RowDetailRepository,
	errorRepo ingest.ErrorOrderRepository,
	orders trade.OrderRepository,
	products catalog.ProductRepository,
	customers partner.CustomerRepository,
	numbers trade.NumberGenerator,
	recognizer *recognize.Recognizer,
	opts Options,
	logger *zap.Logger,
) *TaskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{
		tasks:      tasks,
		rows:       rows,
		errorRepo:  errorRepo,
		orders:     orders,
		products:   products,
		customers:  customers,
		numbers:    numbers,
		recognizer: recognizer,
		publisher:  notifyNop{},
		opts:       opts.withDefaults(),
		logger:     logger.Named("ingest"),
		running:    make(map[uuid.UUID]context.CancelFunc),
	}
}

// SetEventPublisher sets the event publisher for order events
func (s *TaskService) SetEventPublisher(publisher shared.EventPublisher) {
	if publisher != nil {
		s.publisher = publisher
	}
}

// notifyNop is the default publisher until one is wired
type notifyNop struct{}

func (notifyNop) Publish(context.Context, ...shared.DomainEvent) error { return nil }

// Submit accepts an upload, guards against duplicate in-flight files and
// starts asynchronous processing. The response carries the task in PENDING
// state; clients poll progress with the returned id.
func (s *TaskService) Submit(ctx context.Context, req SubmitTaskRequest) (*TaskResponse, error) {
	if req.CompanyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID is required")
	}
	if len(req.Data) == 0 {
		return nil, spreadsheet.ErrEmptyFile
	}
	if int64(len(req.Data)) > s.opts.MaxFileSize {
		return nil, shared.NewDomainError("FILE_TOO_LARGE",
			fmt.Sprintf("File exceeds the %d byte limit", s.opts.MaxFileSize))
	}
	switch strings.ToLower(filepath.Ext(req.FileName)) {
	case ".csv", ".xlsx":
	default:
		return nil, spreadsheet.ErrUnsupportedFormat
	}

	channel := trade.ChannelSpreadsheet
	if req.Channel != "" {
		channel = trade.Channel(strings.ToUpper(req.Channel))
		if !channel.IsValid() {
			return nil, shared.NewDomainError("INVALID_CHANNEL", fmt.Sprintf("Unknown sales channel %q", req.Channel))
		}
	}

	sum := sha256.Sum256(req.Data)
	contentHash := hex.EncodeToString(sum[:])

	existing, err := s.tasks.FindActiveByHash(ctx, req.CompanyID, contentHash)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		s.logger.Info("duplicate upload rejected",
			zap.String("company_id", req.CompanyID.String()),
			zap.String("content_hash", contentHash),
			zap.String("existing_task_id", existing.ID.String()))
		return nil, shared.ErrDuplicateFile
	}

	task, err := ingest.NewProcessTask(req.CompanyID, req.UserID, req.FileName, int64(len(req.Data)), contentHash, channel.String())
	if err != nil {
		return nil, err
	}
	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, err
	}

	s.logger.Info("task submitted",
		zap.String("task_id", task.ID.String()),
		zap.String("company_id", req.CompanyID.String()),
		zap.String("file_name", req.FileName),
		zap.Int64("file_size", task.FileSize))

	s.launch(task, req.Data)
	return ToTaskResponse(task), nil
}

// launch starts the processing goroutine with its own cancellable context,
// detached from the request that submitted the file
func (s *TaskService) launch(task *ingest.ProcessTask, data []byte) {
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.running[task.ID] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.running, task.ID)
			s.mu.Unlock()
			cancel()
		}()
		s.process(ctx, task, data)
	}()
}

// Wait blocks until all in-flight tasks have drained. Used during shutdown.
func (s *TaskService) Wait() {
	s.wg.Wait()
}

// process runs one task end to end: parse, recognize, match, create orders
func (s *TaskService) process(ctx context.Context, task *ingest.ProcessTask, data []byte) {
	sheet, err := spreadsheet.Open(task.FileName, data)
	if err != nil {
		s.failTask(ctx, task, "file parsing failed: "+err.Error())
		return
	}
	if len(sheet.Rows) > s.opts.MaxRows {
		s.failTask(ctx, task, fmt.Sprintf("file has %d data rows, limit is %d", len(sheet.Rows), s.opts.MaxRows))
		return
	}

	mapping := s.recognizer.RecognizeColumns(ctx, sheet.Headers)
	s.logger.Info("columns recognized",
		zap.String("task_id", task.ID.String()),
		zap.Float64("confidence", mapping.Confidence),
		zap.Int("columns", len(mapping.Columns)))

	if err := task.StartProcessing(len(sheet.Rows)); err != nil {
		s.logger.Error("task start failed", zap.String("task_id", task.ID.String()), zap.Error(err))
		return
	}
	if err := s.tasks.Save(ctx, task); err != nil {
		s.failTask(ctx, task, "task persistence failed: "+err.Error())
		return
	}

	if len(sheet.Rows) == 0 {
		s.completeTask(ctx, task.CompanyID, task.ID)
		return
	}

	productMatcher := match.NewProductMatcher(s.products, task.CompanyID, s.opts.MatchPolicy)
	customerMatcher := match.NewCustomerMatcher(s.customers, task.CompanyID, s.opts.MatchPolicy)
	if err := productMatcher.Preload(ctx); err != nil {
		s.failTask(ctx, task, "product pool preload failed: "+err.Error())
		return
	}
	if err := customerMatcher.Preload(ctx); err != nil {
		s.failTask(ctx, task, "customer pool preload failed: "+err.Error())
		return
	}

	processor := &rowProcessor{
		task:          task,
		mapping:       mapping,
		recognizer:    s.recognizer,
		products:      productMatcher,
		customers:     customerMatcher,
		productRepo:   s.products,
		orderRepo:     s.orders,
		rowRepo:       s.rows,
		errorRepo:     s.errorRepo,
		numbers:       s.numbers,
		publisher:     s.publisher,
		ownerKey:      OwnerKeyFor(task.CompanyID),
		channel:       trade.Channel(task.Channel),
		minConfidence: s.opts.MinMappingConfidence,
		logger:        s.logger,
	}

	s.runWorkers(ctx, task, sheet, processor)

	if ctx.Err() != nil {
		s.logger.Info("task cancelled", zap.String("task_id", task.ID.String()))
		return
	}
	s.completeTask(ctx, task.CompanyID, task.ID)
}

// runWorkers fans the rows out to a bounded worker pool. Counter increments
// run on a cancellation-proof context so committed outcomes are never lost.
func (s *TaskService) runWorkers(ctx context.Context, task *ingest.ProcessTask, sheet *spreadsheet.Sheet, processor *rowProcessor) {
	rowCh := make(chan spreadsheet.Row)
	var wg sync.WaitGroup

	for i := 0; i < s.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for row := range rowCh {
				delta := processor.ProcessRow(ctx, sheet.Headers, row)
				if delta == (ingest.CounterDelta{}) {
					continue
				}
				progress, err := s.tasks.IncrementCounters(context.WithoutCancel(ctx), task.ID, delta)
				if err != nil {
					s.logger.Error("counter increment failed",
						zap.String("task_id", task.ID.String()),
						zap.Int("row_number", row.Number),
						zap.Error(err))
					continue
				}
				s.logger.Debug("row committed",
					zap.String("task_id", task.ID.String()),
					zap.Int("row_number", row.Number),
					zap.Int("processed", progress.ProcessedRows),
					zap.Int("total", progress.TotalRows))
			}
		}()
	}

	for _, row := range sheet.Rows {
		rowCh <- row
	}
	close(rowCh)
	wg.Wait()
}

// completeTask reloads the committed counters and moves the task to its
// terminal state
func (s *TaskService) completeTask(ctx context.Context, companyID, taskID uuid.UUID) {
	ctx = context.WithoutCancel(ctx)
	task, err := s.tasks.FindByID(ctx, companyID, taskID)
	if err != nil {
		s.logger.Error("task reload failed", zap.String("task_id", taskID.String()), zap.Error(err))
		return
	}
	if task.Status != ingest.TaskStatusProcessing {
		return
	}
	if err := task.Complete(); err != nil {
		s.logger.Error("task completion rejected",
			zap.String("task_id", taskID.String()),
			zap.Int("processed", task.ProcessedRows),
			zap.Int("total", task.TotalRows),
			zap.Error(err))
		return
	}
	if err := s.tasks.Save(ctx, task); err != nil {
		s.logger.Error("task completion save failed", zap.String("task_id", taskID.String()), zap.Error(err))
		return
	}
	s.logger.Info("task completed",
		zap.String("task_id", taskID.String()),
		zap.Int("total", task.TotalRows),
		zap.Int("succeeded", task.SucceededRows),
		zap.Int("failed", task.FailedRows),
		zap.Int("manual", task.ManualRows),
		zap.Float64("avg_confidence", task.AverageConfidence()))
}

// failTask records a non-recoverable failure, keeping the counters reached
// so far
func (s *TaskService) failTask(ctx context.Context, task *ingest.ProcessTask, reason string) {
	ctx = context.WithoutCancel(ctx)
	if err := task.Fail(reason); err != nil {
		s.logger.Error("task fail transition rejected", zap.String("task_id", task.ID.String()), zap.Error(err))
		return
	}
	if err := s.tasks.Save(ctx, task); err != nil {
		s.logger.Error("task failure save failed", zap.String("task_id", task.ID.String()), zap.Error(err))
		return
	}
	s.logger.Warn("task failed",
		zap.String("task_id", task.ID.String()),
		zap.String("reason", reason))
}

// GetTask returns one task by id
func (s *TaskService) GetTask(ctx context.Context, companyID, taskID uuid.UUID) (*TaskResponse, error) {
	task, err := s.tasks.FindByID(ctx, companyID, taskID)
	if err != nil {
		return nil, err
	}
	return ToTaskResponse(task), nil
}

// GetProgress returns the committed counter snapshot for polling clients
func (s *TaskService) GetProgress(ctx context.Context, companyID, taskID uuid.UUID) (*ingest.Progress, error) {
	task, err := s.tasks.FindByID(ctx, companyID, taskID)
	if err != nil {
		return nil, err
	}
	progress := task.Snapshot()
	return &progress, nil
}

// Cancel stops a running task. The terminal status is committed first so a
// crash between the two steps still leaves the task cancelled; in-flight rows
// finish, unstarted rows are skipped.
func (s *TaskService) Cancel(ctx context.Context, companyID, taskID uuid.UUID) (*TaskResponse, error) {
	task, err := s.tasks.FindByID(ctx, companyID, taskID)
	if err != nil {
		return nil, err
	}
	if err := task.Cancel(); err != nil {
		return nil, err
	}
	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, err
	}

	s.mu.Lock()
	cancel, ok := s.running[taskID]
	s.mu.Unlock()
	if ok {
		cancel()
	}

	s.logger.Info("task cancel requested",
		zap.String("task_id", taskID.String()),
		zap.Bool("was_running", ok))
	return ToTaskResponse(task), nil
}

// ListTasks returns a page of tasks for a company, newest first
func (s *TaskService) ListTasks(ctx context.Context, companyID uuid.UUID, query ListTasksQuery) (*TaskListResponse, error) {
	var filter ingest.TaskFilter
	if query.Status != "" {
		status := ingest.TaskStatus(query.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown task status %q", query.Status))
		}
		filter.Status = &status
	}
	filter.SortBy = query.SortBy
	filter.SortOrder = query.SortOrder

	result, err := s.tasks.FindAll(ctx, companyID, filter, query.Page, query.PageSize)
	if err != nil {
		return nil, err
	}

	items := make([]*TaskResponse, len(result.Items))
	for i, task := range result.Items {
		items[i] = ToTaskResponse(task)
	}
	return &TaskListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Page:       result.Page,
		PageSize:   result.PageSize,
	}, nil
}

// ListRows returns a page of per-row audit records for one task
func (s *TaskService) ListRows(ctx context.Context, companyID, taskID uuid.UUID, query ListRowsQuery) (*RowListResponse, error) {
	// ownership check before exposing row data
	if _, err := s.tasks.FindByID(ctx, companyID, taskID); err != nil {
		return nil, err
	}

	var filter ingest.RowFilter
	if query.Outcome != "" {
		outcome := ingest.RowOutcome(query.Outcome)
		filter.Outcome = &outcome
	}

	result, err := s.rows.FindByTask(ctx, taskID, filter, query.Page, query.PageSize)
	if err != nil {
		return nil, err
	}

	items := make([]*RowDetailResponse, len(result.Items))
	for i, detail := range result.Items {
		items[i] = ToRowDetailResponse(detail)
	}
	return &RowListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Page:       result.Page,
		PageSize:   result.PageSize,
	}, nil
}

// OwnerKeyFor derives the four character order number owner segment from a
// company id. The derivation is stable so a company always numbers into the
// same daily sequence.
func OwnerKeyFor(companyID uuid.UUID) string {
	return strings.ToUpper(hex.EncodeToString(companyID[:2]))
}
