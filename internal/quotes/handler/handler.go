// Package handler exposes the quote workflow and the creation orchestrator
// over HTTP.
package handler

import (
	"net/http"
	"strconv"

	"caseflow_backend/internal/quotes/service"
	"caseflow_backend/internal/quotes/transport"
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
	svc  *service.Service
	orch *service.Orchestrator
	val  *validator.Validator
}

func New(svc *service.Service, orch *service.Orchestrator, val *validator.Validator) *Handler {
	return &Handler{svc: svc, orch: orch, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.POST("/from-request", h.CreateFromRequest)
	rg.GET("/readiness/:requestId", h.Readiness)
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/actions", h.ApplyAction)
	rg.POST("/:id/duplicate", h.Duplicate)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result := h.svc.Create(c.Request.Context(), req)
	if httpkit.HandleError(c, result.Err()) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) CreateFromRequest(c *gin.Context) {
	var req transport.CreateFromRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result := h.orch.CreateFromRequest(c.Request.Context(), req)
	if httpkit.HandleError(c, result.Err()) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) Readiness(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("requestId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result := h.orch.Readiness(c.Request.Context(), requestID)
	if httpkit.HandleError(c, result.Err()) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, result.Err()) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) List(c *gin.Context) {
	query := service.Query{Status: c.Query("status")}
	if raw := c.Query("requestId"); raw != "" {
		requestID, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		query.RequestID = &requestID
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		query.Limit = limit
	}

	result := h.svc.List(c.Request.Context(), query)
	if httpkit.HandleError(c, result.Err()) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpdateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result := h.svc.Update(c.Request.Context(), id, req)
	if httpkit.HandleError(c, result.Err()) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result := h.svc.Delete(c.Request.Context(), id)
	if httpkit.HandleError(c, result.Err()) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) ApplyAction(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.WorkflowActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	actor := req.Actor
	if actor == "" {
		actor = "system"
	}

	result := h.svc.Apply(c.Request.Context(), id, req.Action, service.ApplyParams{
		Reason:  req.Reason,
		Version: req.Version,
		Actor:   actor,
	})
	if httpkit.HandleError(c, result.Err()) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) Duplicate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.DuplicateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result := h.svc.Duplicate(c.Request.Context(), id, req)
	if httpkit.HandleError(c, result.Err()) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, result)
}
