// Package handler exposes case management over HTTP, keyed by request id.
package handler

import (
	"net/http"

	"caseflow_backend/internal/casework/service"
	"caseflow_backend/internal/casework/transport"
	"caseflow_backend/platform/httpkit"
	"caseflow_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/:requestId/notes", h.AddNote)
	rg.GET("/:requestId/notes", h.Notes)
	rg.POST("/:requestId/assignments", h.Assign)
	rg.GET("/:requestId/assignments", h.AssignmentHistory)
	rg.POST("/:requestId/status-changes", h.ChangeStatus)
	rg.GET("/:requestId/status-changes", h.StatusHistory)
	rg.POST("/:requestId/information-items", h.AddInformationItem)
	rg.PUT("/:requestId/information-items/:itemId", h.UpdateInformationItem)
	rg.GET("/:requestId/information-checklist", h.InformationChecklist)
	rg.POST("/:requestId/scope-items", h.AddScopeItem)
	rg.PUT("/:requestId/scope-items/:itemId", h.UpdateScopeItem)
	rg.GET("/:requestId/scope-definition", h.ScopeDefinition)
	rg.GET("/:requestId/overview", h.Overview)
	rg.GET("/:requestId/readiness", h.Readiness)
}

func (h *Handler) AddNote(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("requestId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result := h.svc.AddNote(c.Request.Context(), requestID, req)
	if httpkit.HandleError(c, result.Err()) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) Notes(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("requestId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	filters := transport.NoteFilters{
		NoteType:       c.Query("type"),
		AuthorRole:     c.Query("authorRole"),
		IncludePrivate: c.Query("includePrivate") == "true",
	}

	result := h.svc.Notes(c.Request.Context(), requestID, filters)
	if httpkit.HandleError(c, result.Err()) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) Assign(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("requestId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result := h.svc.Assign(c.Request.Context(), requestID, req)
	if httpkit.HandleError(c, result.Err()) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) AssignmentHistory(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("requestId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result := h.svc.AssignmentHistory(c.Request.Context(), requestID)
	if httpkit.HandleError(c, result.Err()) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) ChangeStatus(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("requestId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result := h.svc.ChangeStatus(c.Request.Context(), requestID, req)
	if httpkit.HandleError(c, result.Err()) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) StatusHistory(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("requestId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result := h.svc.StatusHistory(c.Request.Context(), requestID)
	if httpkit.HandleError(c, result.Err()) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) AddInformationItem(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("requestId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.CreateInformationItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result := h.svc.AddInformationItem(c.Request.Context(), requestID, req)
	if httpkit.HandleError(c, result.Err()) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) UpdateInformationItem(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpdateInformationItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result := h.svc.UpdateInformationItem(c.Request.Context(), itemID, req)
	if httpkit.HandleError(c, result.Err()) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) InformationChecklist(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("requestId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result := h.svc.InformationChecklist(c.Request.Context(), requestID)
	if httpkit.HandleError(c, result.Err()) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) AddScopeItem(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("requestId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.CreateScopeItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result := h.svc.AddScopeItem(c.Request.Context(), requestID, req)
	if httpkit.HandleError(c, result.Err()) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) UpdateScopeItem(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpdateScopeItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result := h.svc.UpdateScopeItem(c.Request.Context(), itemID, req)
	if httpkit.HandleError(c, result.Err()) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) ScopeDefinition(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("requestId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result := h.svc.ScopeDefinition(c.Request.Context(), requestID)
	if httpkit.HandleError(c, result.Err()) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) Overview(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("requestId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result := h.svc.Overview(c.Request.Context(), requestID)
	if httpkit.HandleError(c, result.Err()) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) Readiness(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("requestId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result := h.svc.Readiness(c.Request.Context(), requestID)
	if httpkit.HandleError(c, result.Err()) {
		return
	}

	httpkit.OK(c, result)
}
