package handler

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appingest "github.com/supplyhub/backend/internal/application/ingest"
	"github.com/supplyhub/backend/internal/interfaces/http/dto"
)

// IngestTaskHandler handles spreadsheet ingestion task endpoints
type IngestTaskHandler struct {
	BaseHandler
	service *appingest.TaskService
}

// NewIngestTaskHandler creates a new IngestTaskHandler
func NewIngestTaskHandler(service *appingest.TaskService) *IngestTaskHandler {
	return &IngestTaskHandler{service: service}
}

// Submit accepts a multipart spreadsheet upload and starts processing.
// The task is returned immediately in PENDING state; clients poll progress.
func (h *IngestTaskHandler) Submit(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.Unauthorized(c, "Company scope is required")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.BadRequest(c, "failed to read uploaded file")
		return
	}

	resp, err := h.service.Submit(c.Request.Context(), appingest.SubmitTaskRequest{
		CompanyID: companyID,
		UserID:    getUserID(c),
		FileName:  header.Filename,
		Data:      data,
		Channel:   c.PostForm("channel"),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Accepted(c, resp)
}

// Get returns one task by id
func (h *IngestTaskHandler) Get(c *gin.Context) {
	companyID, taskID, ok := h.scopedID(c)
	if !ok {
		return
	}

	resp, err := h.service.GetTask(c.Request.Context(), companyID, taskID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Progress returns the committed counter snapshot for polling
func (h *IngestTaskHandler) Progress(c *gin.Context) {
	companyID, taskID, ok := h.scopedID(c)
	if !ok {
		return
	}

	progress, err := h.service.GetProgress(c.Request.Context(), companyID, taskID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, progress)
}

// Cancel stops a pending or running task
func (h *IngestTaskHandler) Cancel(c *gin.Context) {
	companyID, taskID, ok := h.scopedID(c)
	if !ok {
		return
	}

	resp, err := h.service.Cancel(c.Request.Context(), companyID, taskID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List returns a page of tasks, newest first
func (h *IngestTaskHandler) List(c *gin.Context) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.Unauthorized(c, "Company scope is required")
		return
	}

	var listReq dto.ListRequest
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, "invalid pagination parameters")
		return
	}
	listReq = listReq.WithDefaults()

	resp, err := h.service.ListTasks(c.Request.Context(), companyID, appingest.ListTasksQuery{
		Status:    c.Query("status"),
		SortBy:    listReq.SortBy,
		SortOrder: listReq.SortOrder,
		Page:      listReq.Page,
		PageSize:  listReq.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, resp.Items, resp.TotalCount, resp.Page, resp.PageSize)
}

// Rows returns a page of per-row audit records for one task
func (h *IngestTaskHandler) Rows(c *gin.Context) {
	companyID, taskID, ok := h.scopedID(c)
	if !ok {
		return
	}

	var listReq dto.ListRequest
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, "invalid pagination parameters")
		return
	}
	listReq = listReq.WithDefaults()

	resp, err := h.service.ListRows(c.Request.Context(), companyID, taskID, appingest.ListRowsQuery{
		Outcome:  c.Query("outcome"),
		Page:     listReq.Page,
		PageSize: listReq.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, resp.Items, resp.TotalCount, resp.Page, resp.PageSize)
}

// scopedID extracts the company scope and the task id path parameter
func (h *IngestTaskHandler) scopedID(c *gin.Context) (companyID, taskID uuid.UUID, ok bool) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.Unauthorized(c, "Company scope is required")
		return uuid.Nil, uuid.Nil, false
	}

	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		h.BadRequest(c, "invalid task id")
		return uuid.Nil, uuid.Nil, false
	}
	taskID, err = uuid.Parse(idReq.ID)
	if err != nil {
		h.BadRequest(c, "invalid task id")
		return uuid.Nil, uuid.Nil, false
	}
	return companyID, taskID, true
}
