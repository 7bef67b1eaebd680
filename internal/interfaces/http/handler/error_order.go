package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appingest "github.com/supplyhub/backend/internal/application/ingest"
	"github.com/supplyhub/backend/internal/interfaces/http/dto"
)

// ErrorOrderHandler handles the error ledger endpoints
type ErrorOrderHandler struct {
	BaseHandler
	service *appingest.ErrorLedgerService
}

// NewErrorOrderHandler creates a new ErrorOrderHandler
func NewErrorOrderHandler(service *appingest.ErrorLedgerService) *ErrorOrderHandler {
	return &ErrorOrderHandler{service: service}
}

// List returns a page of error records filtered by task, category or status
func (h *ErrorOrderHandler) List(c *gin.Context) {
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

	query := appingest.ListErrorsQuery{
		Category:  c.Query("category"),
		Status:    c.Query("status"),
		SortBy:    listReq.SortBy,
		SortOrder: listReq.SortOrder,
		Page:      listReq.Page,
		PageSize:  listReq.PageSize,
	}
	if taskParam := c.Query("task_id"); taskParam != "" {
		taskID, err := uuid.Parse(taskParam)
		if err != nil {
			h.BadRequest(c, "invalid task_id")
			return
		}
		query.TaskID = &taskID
	}

	resp, err := h.service.List(c.Request.Context(), companyID, query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, resp.Items, resp.TotalCount, resp.Page, resp.PageSize)
}

// Get returns one error record by id
func (h *ErrorOrderHandler) Get(c *gin.Context) {
	companyID, errorID, ok := h.scopedID(c)
	if !ok {
		return
	}

	resp, err := h.service.Get(c.Request.Context(), companyID, errorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// MarkProcessed resolves a pending record as handled
func (h *ErrorOrderHandler) MarkProcessed(c *gin.Context) {
	h.resolve(c, h.service.MarkProcessed)
}

// MarkIgnored resolves a pending record as deliberately ignored
func (h *ErrorOrderHandler) MarkIgnored(c *gin.Context) {
	h.resolve(c, h.service.MarkIgnored)
}

func (h *ErrorOrderHandler) resolve(c *gin.Context, transition func(ctx context.Context, companyID, errorID, operatorID uuid.UUID) (*appingest.ErrorOrderResponse, error)) {
	companyID, errorID, ok := h.scopedID(c)
	if !ok {
		return
	}

	operatorID := getUserID(c)
	if operatorID == uuid.Nil {
		h.Unauthorized(c, "X-User-ID header is required to resolve errors")
		return
	}

	resp, err := transition(c.Request.Context(), companyID, errorID, operatorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// scopedID extracts the company scope and the error id path parameter
func (h *ErrorOrderHandler) scopedID(c *gin.Context) (companyID, errorID uuid.UUID, ok bool) {
	companyID, err := getCompanyID(c)
	if err != nil {
		h.Unauthorized(c, "Company scope is required")
		return uuid.Nil, uuid.Nil, false
	}

	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		h.BadRequest(c, "invalid error id")
		return uuid.Nil, uuid.Nil, false
	}
	errorID, err = uuid.Parse(idReq.ID)
	if err != nil {
		h.BadRequest(c, "invalid error id")
		return uuid.Nil, uuid.Nil, false
	}
	return companyID, errorID, true
}
