package ingest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supplyhub/backend/internal/domain/ingest"
	"github.com/supplyhub/backend/internal/domain/match"
	"github.com/supplyhub/backend/internal/domain/recognize"
	"github.com/supplyhub/backend/internal/domain/shared"
	"github.com/supplyhub/backend/internal/domain/trade"
	"github.com/supplyhub/backend/internal/infrastructure/spreadsheet"
	"github.com/supplyhub/backend/internal/testutil"
)

type testEnv struct {
	service   *TaskService
	tasks     *testutil.MemTaskRepo
	rows      *testutil.MemRowRepo
	errors    *testutil.MemErrorRepo
	orders    *testutil.MemOrderRepo
	products  *testutil.MemProductRepo
	customers *testutil.MemCustomerRepo
	companyID uuid.UUID
	userID    uuid.UUID
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	env := &testEnv{
		tasks:     testutil.NewMemTaskRepo(),
		rows:      testutil.NewMemRowRepo(),
		errors:    testutil.NewMemErrorRepo(),
		orders:    testutil.NewMemOrderRepo(),
		products:  testutil.NewMemProductRepo(),
		customers: testutil.NewMemCustomerRepo(),
		companyID: uuid.New(),
		userID:    uuid.New(),
	}
	env.service = NewTaskService(
		env.tasks, env.rows, env.errors, env.orders,
		env.products, env.customers,
		&testutil.SeqNumberGenerator{},
		recognize.NewRecognizer(nil),
		opts,
		nil,
	)
	return env
}

// waitForTerminal polls until the task leaves its active states
func (env *testEnv) waitForTerminal(t *testing.T, taskID uuid.UUID) *ingest.ProcessTask {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		task, err := env.tasks.FindByID(context.Background(), env.companyID, taskID)
		require.NoError(t, err)
		if task.Status.IsTerminal() {
			return task
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("task did not reach a terminal state in time")
	return nil
}

func (env *testEnv) submit(t *testing.T, fileName, content string) *TaskResponse {
	t.Helper()
	resp, err := env.service.Submit(context.Background(), SubmitTaskRequest{
		CompanyID: env.companyID,
		UserID:    env.userID,
		FileName:  fileName,
		Data:      []byte(content),
	})
	require.NoError(t, err)
	return resp
}

func TestSubmitAndProcessSuccessfulRow(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.products.Add(testutil.NewTestProduct(env.companyID, "ABC-100", "Widget", "12.50"))
	env.customers.Add(testutil.NewTestCustomer(env.companyID, "C001", "Acme Trading", "13800138000"))

	csv := "SKU,Qty.,联系电话\nABC-100,2,138 0013 8000\n"
	resp := env.submit(t, "orders.csv", csv)
	assert.Equal(t, string(ingest.TaskStatusPending), resp.Status)

	task := env.waitForTerminal(t, resp.ID)
	assert.Equal(t, ingest.TaskStatusCompleted, task.Status)
	assert.Equal(t, 1, task.TotalRows)
	assert.Equal(t, 1, task.SucceededRows)
	assert.Equal(t, 0, task.FailedRows)
	assert.Equal(t, 0, task.ManualRows)
	assert.InDelta(t, 1.0, task.AverageConfidence(), 0.001)

	orders, err := env.orders.FindByTask(context.Background(), task.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	order := orders[0]
	assert.Equal(t, trade.OrderStatusConfirmed, order.Status)
	assert.Equal(t, "Acme Trading", order.CustomerName)
	assert.Equal(t, 2, order.SourceRowNumber)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "ABC-100", order.Items[0].SKU)
	assert.True(t, order.Items[0].Quantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("25")))

	prefix := OwnerKeyFor(env.companyID) + trade.ChannelSpreadsheet.String()
	assert.True(t, strings.HasPrefix(order.OrderNumber, prefix))
	assert.NoError(t, trade.ValidateNumberFormat(order.OrderNumber))

	detail, err := env.rows.FindByTaskAndRow(context.Background(), task.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, ingest.RowOutcomeSuccess, detail.Outcome)
	require.NotNil(t, detail.OrderID)
	assert.Equal(t, order.ID, *detail.OrderID)
}

func TestResubmissionAfterCompletionAllowed(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.products.Add(testutil.NewTestProduct(env.companyID, "ABC-100", "Widget", "12.50"))
	env.customers.Add(testutil.NewTestCustomer(env.companyID, "C001", "Acme", "13800138000"))

	csv := "SKU,Qty,Phone\nABC-100,1,13800138000\n"
	resp := env.submit(t, "orders.csv", csv)
	env.waitForTerminal(t, resp.ID)

	// the hash guard only covers active tasks
	resp2, err := env.service.Submit(context.Background(), SubmitTaskRequest{
		CompanyID: env.companyID,
		UserID:    env.userID,
		FileName:  "orders.csv",
		Data:      []byte(csv),
	})
	require.NoError(t, err)
	env.waitForTerminal(t, resp2.ID)
}

func TestSubmitDuplicateWhileActive(t *testing.T) {
	env := newTestEnv(t, Options{})
	csv := "SKU,Qty,Phone\nABC-100,1,13800138000\n"

	// first submission parks in PENDING because we seed it directly instead
	// of going through Submit
	task, err := ingest.NewProcessTask(env.companyID, env.userID, "orders.csv", int64(len(csv)), testutil.ContentHashOf(csv), "SS")
	require.NoError(t, err)
	require.NoError(t, env.tasks.Save(context.Background(), task))

	_, err = env.service.Submit(context.Background(), SubmitTaskRequest{
		CompanyID: env.companyID,
		UserID:    env.userID,
		FileName:  "orders.csv",
		Data:      []byte(csv),
	})
	assert.ErrorIs(t, err, shared.ErrDuplicateFile)
}

func TestSubmitInputValidation(t *testing.T) {
	env := newTestEnv(t, Options{MaxFileSize: 64})

	_, err := env.service.Submit(context.Background(), SubmitTaskRequest{
		CompanyID: env.companyID, FileName: "orders.csv",
	})
	assert.ErrorIs(t, err, spreadsheet.ErrEmptyFile)

	_, err = env.service.Submit(context.Background(), SubmitTaskRequest{
		CompanyID: env.companyID, FileName: "orders.pdf", Data: []byte("x"),
	})
	assert.ErrorIs(t, err, spreadsheet.ErrUnsupportedFormat)

	_, err = env.service.Submit(context.Background(), SubmitTaskRequest{
		CompanyID: env.companyID, FileName: "orders.csv", Data: []byte(strings.Repeat("a", 65)),
	})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "FILE_TOO_LARGE", de.Code)

	_, err = env.service.Submit(context.Background(), SubmitTaskRequest{
		FileName: "orders.csv", Data: []byte("x"),
	})
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_COMPANY", de.Code)

	_, err = env.service.Submit(context.Background(), SubmitTaskRequest{
		CompanyID: env.companyID, FileName: "orders.csv", Data: []byte("x"), Channel: "XX",
	})
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_CHANNEL", de.Code)
}

func TestProcessNegativeQuantityFailsValidation(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.products.Add(testutil.NewTestProduct(env.companyID, "ABC-100", "Widget", "12.50"))
	env.customers.Add(testutil.NewTestCustomer(env.companyID, "C001", "Acme", "13800138000"))

	csv := "SKU,Qty,Phone\nABC-100,-1,13800138000\n"
	resp := env.submit(t, "orders.csv", csv)

	task := env.waitForTerminal(t, resp.ID)
	assert.Equal(t, ingest.TaskStatusCompleted, task.Status)
	assert.Equal(t, 1, task.FailedRows)
	assert.Equal(t, 0, task.SucceededRows)

	detail, err := env.rows.FindByTaskAndRow(context.Background(), task.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, ingest.RowOutcomeFailed, detail.Outcome)
	assert.Equal(t, ingest.ErrorCategoryValidation, detail.ErrorCategory)
	assert.Contains(t, detail.ErrorMessage, "not positive")

	record, err := env.errors.FindByTaskAndRow(context.Background(), task.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, ingest.ErrorCategoryValidation, record.Category)
	assert.Equal(t, ingest.ErrorStatusPending, record.Status)
	assert.NotEmpty(t, record.Suggestion)

	orders, err := env.orders.FindByTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestLowConfidenceMappingGoesManualBeforeValidation(t *testing.T) {
	env := newTestEnv(t, Options{MinMappingConfidence: 0.95})
	env.products.Add(testutil.NewTestProduct(env.companyID, "ABC-100", "Widget", "12.50"))
	env.customers.Add(testutil.NewTestCustomer(env.companyID, "C001", "Acme", "13800138000"))

	// every header only resolves at the normalized stage, so the mapping
	// confidence lands at 0.9, below the configured threshold; the negative
	// quantity must not demote the row to a validation failure
	csv := "S K U,Qty!,Phone#\nABC-100,-1,13800138000\n"
	resp := env.submit(t, "orders.csv", csv)

	task := env.waitForTerminal(t, resp.ID)
	assert.Equal(t, ingest.TaskStatusCompleted, task.Status)
	assert.Equal(t, 1, task.ManualRows)
	assert.Equal(t, 0, task.FailedRows)
	assert.Equal(t, 0, task.SucceededRows)

	detail, err := env.rows.FindByTaskAndRow(context.Background(), task.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, ingest.RowOutcomeManual, detail.Outcome)
	assert.Equal(t, ingest.ErrorCategoryLowConfidence, detail.ErrorCategory)
	assert.InDelta(t, 0.9, detail.Confidence, 0.001)

	record, err := env.errors.FindByTaskAndRow(context.Background(), task.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, ingest.ErrorCategoryLowConfidence, record.Category)
	assert.Equal(t, ingest.ErrorStatusPending, record.Status)

	orders, err := env.orders.FindByTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestProcessAmbiguousProductGoesManual(t *testing.T) {
	env := newTestEnv(t, Options{
		MatchPolicy: match.Policy{SimilarityFloor: 0.1, AutoAcceptThreshold: 0.99, MaxCandidates: 10},
	})
	env.products.Add(testutil.NewTestProduct(env.companyID, "W-BLUE", "Widget Blue", "10.00"))
	env.customers.Add(testutil.NewTestCustomer(env.companyID, "C001", "Acme", "13800138000"))

	// no SKU column, so the product resolves by fuzzy name below auto-accept
	csv := "Product,Qty,Phone\nWidget Blu,3,13800138000\n"
	resp := env.submit(t, "orders.csv", csv)

	task := env.waitForTerminal(t, resp.ID)
	assert.Equal(t, ingest.TaskStatusCompleted, task.Status)
	assert.Equal(t, 1, task.ManualRows)
	assert.Equal(t, 0, task.SucceededRows)
	assert.Equal(t, 0, task.FailedRows)

	detail, err := env.rows.FindByTaskAndRow(context.Background(), task.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, ingest.RowOutcomeManual, detail.Outcome)
	assert.Equal(t, ingest.ErrorCategoryProductMatch, detail.ErrorCategory)
	assert.NotEmpty(t, detail.TopCandidate, "best candidate must be retained for review")
	assert.Contains(t, detail.TopCandidate, "W-BLUE")
	assert.Greater(t, detail.Confidence, 0.1)
	assert.Less(t, detail.Confidence, 0.99)

	record, err := env.errors.FindByTaskAndRow(context.Background(), task.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, ingest.ErrorCategoryProductMatch, record.Category)

	orders, err := env.orders.FindByTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestProcessUnknownCustomerFails(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.products.Add(testutil.NewTestProduct(env.companyID, "ABC-100", "Widget", "12.50"))

	csv := "SKU,Qty,Phone\nABC-100,1,19999999999\n"
	resp := env.submit(t, "orders.csv", csv)

	task := env.waitForTerminal(t, resp.ID)
	assert.Equal(t, ingest.TaskStatusCompleted, task.Status)
	assert.Equal(t, 1, task.FailedRows)

	detail, err := env.rows.FindByTaskAndRow(context.Background(), task.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, ingest.ErrorCategoryCustomerMatch, detail.ErrorCategory)
}

func TestProcessMixedRows(t *testing.T) {
	env := newTestEnv(t, Options{Workers: 2})
	env.products.Add(testutil.NewTestProduct(env.companyID, "ABC-100", "Widget", "12.50"))
	env.products.Add(testutil.NewTestProduct(env.companyID, "ABC-200", "Gadget", "7.00"))
	env.customers.Add(testutil.NewTestCustomer(env.companyID, "C001", "Acme", "13800138000"))

	csv := "SKU,Qty,Phone\n" +
		"ABC-100,2,13800138000\n" +
		"ABC-200,1,13800138000\n" +
		"ABC-999,1,13800138000\n" +
		"ABC-100,0,13800138000\n"
	resp := env.submit(t, "orders.csv", csv)

	task := env.waitForTerminal(t, resp.ID)
	assert.Equal(t, ingest.TaskStatusCompleted, task.Status)
	assert.Equal(t, 4, task.TotalRows)
	assert.Equal(t, 4, task.ProcessedRows)
	assert.Equal(t, 2, task.SucceededRows)
	assert.Equal(t, 2, task.FailedRows)
	assert.True(t, task.CountersConsistent())

	orders, err := env.orders.FindByTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	// every order carries a distinct number
	numbers := make(map[string]bool)
	for _, order := range orders {
		numbers[order.OrderNumber] = true
	}
	assert.Len(t, numbers, 2)
}

func TestProcessHeaderOnlyFileCompletesEmpty(t *testing.T) {
	env := newTestEnv(t, Options{})
	resp := env.submit(t, "orders.csv", "SKU,Qty,Phone\n")

	task := env.waitForTerminal(t, resp.ID)
	assert.Equal(t, ingest.TaskStatusCompleted, task.Status)
	assert.Equal(t, 0, task.TotalRows)
	assert.Equal(t, 0, task.ProcessedRows)
}

func TestProcessRowLimitFailsTask(t *testing.T) {
	env := newTestEnv(t, Options{MaxRows: 2})
	csv := "SKU,Qty,Phone\nA,1,1\nB,1,1\nC,1,1\n"
	resp := env.submit(t, "orders.csv", csv)

	task := env.waitForTerminal(t, resp.ID)
	assert.Equal(t, ingest.TaskStatusFailed, task.Status)
	assert.Contains(t, task.FailureReason, "limit")
}

func TestProcessUnparsableFileFailsTask(t *testing.T) {
	env := newTestEnv(t, Options{})
	resp := env.submit(t, "orders.xlsx", "this is not a zip archive")

	task := env.waitForTerminal(t, resp.ID)
	assert.Equal(t, ingest.TaskStatusFailed, task.Status)
	assert.Contains(t, task.FailureReason, "parsing failed")
}

func TestCancelPendingTask(t *testing.T) {
	env := newTestEnv(t, Options{})
	task, err := ingest.NewProcessTask(env.companyID, env.userID, "orders.csv", 10, "feedface", "SS")
	require.NoError(t, err)
	require.NoError(t, env.tasks.Save(context.Background(), task))

	resp, err := env.service.Cancel(context.Background(), env.companyID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, string(ingest.TaskStatusCancelled), resp.Status)

	// cancelling twice is rejected
	_, err = env.service.Cancel(context.Background(), env.companyID, task.ID)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_STATE", de.Code)
}

func TestCancelUnknownTask(t *testing.T) {
	env := newTestEnv(t, Options{})
	_, err := env.service.Cancel(context.Background(), env.companyID, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetProgress(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.products.Add(testutil.NewTestProduct(env.companyID, "ABC-100", "Widget", "12.50"))
	env.customers.Add(testutil.NewTestCustomer(env.companyID, "C001", "Acme", "13800138000"))

	resp := env.submit(t, "orders.csv", "SKU,Qty,Phone\nABC-100,1,13800138000\n")
	env.waitForTerminal(t, resp.ID)

	progress, err := env.service.GetProgress(context.Background(), env.companyID, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, ingest.TaskStatusCompleted, progress.Status)
	assert.Equal(t, 1, progress.TotalRows)
	assert.Equal(t, 1, progress.ProcessedRows)
	assert.Equal(t, 1, progress.SucceededRows)

	// company scoping
	_, err = env.service.GetProgress(context.Background(), uuid.New(), resp.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListTasksFiltersByStatus(t *testing.T) {
	env := newTestEnv(t, Options{})
	resp := env.submit(t, "orders.csv", "SKU,Qty,Phone\n")
	env.waitForTerminal(t, resp.ID)

	completed, err := env.service.ListTasks(context.Background(), env.companyID, ListTasksQuery{
		Status: string(ingest.TaskStatusCompleted),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), completed.TotalCount)

	pending, err := env.service.ListTasks(context.Background(), env.companyID, ListTasksQuery{
		Status: string(ingest.TaskStatusPending),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending.TotalCount)

	_, err = env.service.ListTasks(context.Background(), env.companyID, ListTasksQuery{Status: "bogus"})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "INVALID_STATUS", de.Code)
}

func TestListRowsScopedToCompany(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.products.Add(testutil.NewTestProduct(env.companyID, "ABC-100", "Widget", "12.50"))
	env.customers.Add(testutil.NewTestCustomer(env.companyID, "C001", "Acme", "13800138000"))

	resp := env.submit(t, "orders.csv", "SKU,Qty,Phone\nABC-100,1,13800138000\nABC-999,1,13800138000\n")
	env.waitForTerminal(t, resp.ID)

	rows, err := env.service.ListRows(context.Background(), env.companyID, resp.ID, ListRowsQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), rows.TotalCount)

	failed, err := env.service.ListRows(context.Background(), env.companyID, resp.ID, ListRowsQuery{
		Outcome: string(ingest.RowOutcomeFailed),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), failed.TotalCount)

	_, err = env.service.ListRows(context.Background(), uuid.New(), resp.ID, ListRowsQuery{})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestOwnerKeyForIsStable(t *testing.T) {
	companyID := uuid.New()
	key := OwnerKeyFor(companyID)
	assert.Len(t, key, trade.OwnerKeyLength)
	assert.Equal(t, key, OwnerKeyFor(companyID))
	assert.Equal(t, strings.ToUpper(key), key)

	normalized, err := trade.NormalizeOwnerKey(key)
	require.NoError(t, err)
	assert.Equal(t, key, normalized)
}

func TestNumberGeneratorFailureIsSystemError(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.products.Add(testutil.NewTestProduct(env.companyID, "ABC-100", "Widget", "12.50"))
	env.customers.Add(testutil.NewTestCustomer(env.companyID, "C001", "Acme", "13800138000"))
	env.service.numbers = &testutil.SeqNumberGenerator{Fail: shared.ErrNumberGeneration}

	resp := env.submit(t, "orders.csv", "SKU,Qty,Phone\nABC-100,1,13800138000\n")
	task := env.waitForTerminal(t, resp.ID)
	assert.Equal(t, ingest.TaskStatusCompleted, task.Status)
	assert.Equal(t, 1, task.FailedRows)

	detail, err := env.rows.FindByTaskAndRow(context.Background(), task.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, ingest.ErrorCategorySystem, detail.ErrorCategory)
}
