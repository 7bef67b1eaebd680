package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appingest "github.com/supplyhub/backend/internal/application/ingest"
	"github.com/supplyhub/backend/internal/domain/ingest"
	"github.com/supplyhub/backend/internal/domain/recognize"
	"github.com/supplyhub/backend/internal/interfaces/http/dto"
	"github.com/supplyhub/backend/internal/interfaces/http/handler"
	"github.com/supplyhub/backend/internal/interfaces/http/middleware"
	"github.com/supplyhub/backend/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// envelope mirrors the response wrapper with the payload left raw so each
// test can decode it into the type it expects
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

type serverEnv struct {
	engine    *gin.Engine
	tasks     *testutil.MemTaskRepo
	rows      *testutil.MemRowRepo
	errors    *testutil.MemErrorRepo
	orders    *testutil.MemOrderRepo
	products  *testutil.MemProductRepo
	customers *testutil.MemCustomerRepo
	companyID uuid.UUID
	userID    uuid.UUID
}

func newServerEnv(t *testing.T, cfg Config) *serverEnv {
	t.Helper()
	env := &serverEnv{
		tasks:     testutil.NewMemTaskRepo(),
		rows:      testutil.NewMemRowRepo(),
		errors:    testutil.NewMemErrorRepo(),
		orders:    testutil.NewMemOrderRepo(),
		products:  testutil.NewMemProductRepo(),
		customers: testutil.NewMemCustomerRepo(),
		companyID: uuid.New(),
		userID:    uuid.New(),
	}

	taskService := appingest.NewTaskService(
		env.tasks, env.rows, env.errors, env.orders,
		env.products, env.customers,
		&testutil.SeqNumberGenerator{},
		recognize.NewRecognizer(nil),
		appingest.Options{},
		nil,
	)
	ledger := appingest.NewErrorLedgerService(env.errors, nil)

	cfg.TaskHandler = handler.NewIngestTaskHandler(taskService)
	cfg.ErrorHandler = handler.NewErrorOrderHandler(ledger)
	cfg.SystemHandler = handler.NewSystemHandler(nil, nil)
	env.engine = New(cfg)
	return env
}

func (env *serverEnv) do(t *testing.T, method, path string, body *bytes.Buffer, header http.Header) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Buffer
	if body == nil {
		reader = &bytes.Buffer{}
	} else {
		reader = body
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(middleware.CompanyHeaderKey, env.companyID.String())
	req.Header.Set(middleware.UserHeaderKey, env.userID.String())
	for key, values := range header {
		req.Header.Del(key)
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)

	var resp envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	}
	return w, resp
}

// upload builds a multipart body with the spreadsheet under the "file" field
func upload(t *testing.T, fileName, content, channel string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	if channel != "" {
		require.NoError(t, writer.WriteField("channel", channel))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func (env *serverEnv) submitFile(t *testing.T, fileName, content, channel string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	body, contentType := upload(t, fileName, content, channel)
	header := http.Header{}
	header.Set("Content-Type", contentType)
	return env.do(t, http.MethodPost, "/api/v1/ingest/tasks", body, header)
}

func (env *serverEnv) pollCompleted(t *testing.T, taskID uuid.UUID) ingest.Progress {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		w, resp := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/ingest/tasks/%s/progress", taskID), nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var progress ingest.Progress
		require.NoError(t, json.Unmarshal(resp.Data, &progress))
		if progress.Status.IsTerminal() {
			return progress
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("task did not reach a terminal state in time")
	return ingest.Progress{}
}

func TestHealthEndpointSkipsCompanyScope(t *testing.T) {
	env := newServerEnv(t, Config{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestAPIRequiresCompanyHeader(t *testing.T) {
	env := newServerEnv(t, Config{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ingest/tasks", nil)
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrCodeUnauthorized, resp.Error.Code)
}

func TestSubmitProcessAndInspectRows(t *testing.T) {
	env := newServerEnv(t, Config{})
	env.products.Add(testutil.NewTestProduct(env.companyID, "ABC-100", "Widget", "12.50"))
	env.customers.Add(testutil.NewTestCustomer(env.companyID, "C001", "Acme Trading", "13800138000"))

	w, resp := env.submitFile(t, "orders.csv", "SKU,Qty.,联系电话\nABC-100,2,13800138000\n", "SS")
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	require.True(t, resp.Success)

	var task appingest.TaskResponse
	require.NoError(t, json.Unmarshal(resp.Data, &task))
	assert.Equal(t, "orders.csv", task.FileName)
	assert.Equal(t, string(ingest.TaskStatusPending), task.Status)

	progress := env.pollCompleted(t, task.ID)
	assert.Equal(t, ingest.TaskStatusCompleted, progress.Status)
	assert.Equal(t, 1, progress.SucceededRows)

	w, resp = env.do(t, http.MethodGet, "/api/v1/ingest/tasks/"+task.ID.String(), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched appingest.TaskResponse
	require.NoError(t, json.Unmarshal(resp.Data, &fetched))
	assert.Equal(t, string(ingest.TaskStatusCompleted), fetched.Status)

	w, resp = env.do(t, http.MethodGet, "/api/v1/ingest/tasks/"+task.ID.String()+"/rows", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(1), resp.Meta.Total)
	var rows []*appingest.RowDetailResponse
	require.NoError(t, json.Unmarshal(resp.Data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, string(ingest.RowOutcomeSuccess), rows[0].Outcome)
	assert.NotNil(t, rows[0].OrderID)

	w, resp = env.do(t, http.MethodGet, "/api/v1/ingest/tasks?status=completed", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []*appingest.TaskResponse
	require.NoError(t, json.Unmarshal(resp.Data, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, task.ID, listed[0].ID)
}

func TestSubmitRejectsUnsupportedFormat(t *testing.T) {
	env := newServerEnv(t, Config{})

	w, resp := env.submitFile(t, "orders.pdf", "%PDF-1.4", "")
	require.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	assert.Equal(t, dto.ErrCodeUnsupportedFormat, resp.Error.Code)
}

func TestSubmitRejectsDuplicateActiveFile(t *testing.T) {
	env := newServerEnv(t, Config{})
	csv := "SKU,Qty.\nABC-100,2\n"

	task, err := ingest.NewProcessTask(env.companyID, env.userID, "orders.csv", int64(len(csv)), testutil.ContentHashOf(csv), "SS")
	require.NoError(t, err)
	require.NoError(t, env.tasks.Save(context.Background(), task))

	w, resp := env.submitFile(t, "orders.csv", csv, "SS")
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeDuplicateFile, resp.Error.Code)
}

func TestSubmitRequiresFileField(t *testing.T) {
	env := newServerEnv(t, Config{})

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("channel", "SS"))
	require.NoError(t, writer.Close())
	header := http.Header{}
	header.Set("Content-Type", writer.FormDataContentType())

	w, resp := env.do(t, http.MethodPost, "/api/v1/ingest/tasks", body, header)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)
}

func TestUploadBodyLimit(t *testing.T) {
	env := newServerEnv(t, Config{MaxUploadSize: 256})

	large := bytes.Repeat([]byte("a"), 1024)
	w, resp := env.submitFile(t, "orders.csv", string(large), "")
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, dto.ErrCodeFileTooLarge, resp.Error.Code)
}

func TestGetUnknownTaskReturnsNotFound(t *testing.T) {
	env := newServerEnv(t, Config{})

	w, resp := env.do(t, http.MethodGet, "/api/v1/ingest/tasks/"+uuid.NewString(), nil, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
}

func TestMalformedTaskIDReturnsBadRequest(t *testing.T) {
	env := newServerEnv(t, Config{})

	w, resp := env.do(t, http.MethodGet, "/api/v1/ingest/tasks/not-a-uuid", nil, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)
}

func TestCancelUnknownTaskReturnsNotFound(t *testing.T) {
	env := newServerEnv(t, Config{})

	w, resp := env.do(t, http.MethodPost, "/api/v1/ingest/tasks/"+uuid.NewString()+"/cancel", nil, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
}

func TestErrorLedgerResolutionFlow(t *testing.T) {
	env := newServerEnv(t, Config{})

	record, err := ingest.NewErrorOrder(env.companyID, uuid.New(), 2, `{"sku":"X"}`, ingest.ErrorCategoryValidation, "quantity is not positive", "correct the quantity")
	require.NoError(t, err)
	require.NoError(t, env.errors.Upsert(context.Background(), record))

	w, resp := env.do(t, http.MethodGet, "/api/v1/ingest/errors", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []*appingest.ErrorOrderResponse
	require.NoError(t, json.Unmarshal(resp.Data, &listed))
	require.Len(t, listed, 1)
	errorID := listed[0].ID

	// resolving requires an operator identity
	header := http.Header{}
	header.Set(middleware.UserHeaderKey, "")
	w, resp = env.do(t, http.MethodPost, "/api/v1/ingest/errors/"+errorID.String()+"/process", nil, header)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeUnauthorized, resp.Error.Code)

	w, resp = env.do(t, http.MethodPost, "/api/v1/ingest/errors/"+errorID.String()+"/process", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resolved appingest.ErrorOrderResponse
	require.NoError(t, json.Unmarshal(resp.Data, &resolved))
	assert.Equal(t, string(ingest.ErrorStatusProcessed), resolved.Status)

	// a second resolution is rejected
	w, resp = env.do(t, http.MethodPost, "/api/v1/ingest/errors/"+errorID.String()+"/process", nil, nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidState, resp.Error.Code)
}

func TestErrorLedgerIgnore(t *testing.T) {
	env := newServerEnv(t, Config{})

	record, err := ingest.NewErrorOrder(env.companyID, uuid.New(), 3, `{}`, ingest.ErrorCategorySystem, "order save failed", "")
	require.NoError(t, err)
	require.NoError(t, env.errors.Upsert(context.Background(), record))

	w, resp := env.do(t, http.MethodPost, "/api/v1/ingest/errors/"+record.ID.String()+"/ignore", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resolved appingest.ErrorOrderResponse
	require.NoError(t, json.Unmarshal(resp.Data, &resolved))
	assert.Equal(t, string(ingest.ErrorStatusIgnored), resolved.Status)
}

func TestSubmitRateLimit(t *testing.T) {
	env := newServerEnv(t, Config{SubmitPerMinute: 2})
	env.products.Add(testutil.NewTestProduct(env.companyID, "ABC-100", "Widget", "12.50"))
	env.customers.Add(testutil.NewTestCustomer(env.companyID, "C001", "Acme", "13800138000"))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		content := fmt.Sprintf("SKU,Qty.\nABC-100,%d\n", i+1)
		w, _ := env.submitFile(t, fmt.Sprintf("orders-%d.csv", i), content, "")
		codes = append(codes, w.Code)
	}
	assert.Equal(t, http.StatusAccepted, codes[0])
	assert.Equal(t, http.StatusAccepted, codes[1])
	assert.Equal(t, http.StatusTooManyRequests, codes[2])
}
