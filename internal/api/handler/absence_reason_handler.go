package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mrbenboyy/gestion-pointage-backend/internal/dto"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/service"
	"github.com/mrbenboyy/gestion-pointage-backend/pkg/response"
)

// AbsenceReasonHandler 缺勤原因模块 HTTP 处理器
type AbsenceReasonHandler struct {
	reasonSvc service.AbsenceReasonService
}

// NewAbsenceReasonHandler 创建 AbsenceReasonHandler
func NewAbsenceReasonHandler(reasonSvc service.AbsenceReasonService) *AbsenceReasonHandler {
	return &AbsenceReasonHandler{reasonSvc: reasonSvc}
}

// ListReasons GET /api/v1/absence-reasons
func (h *AbsenceReasonHandler) ListReasons(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, err := h.reasonSvc.List(c.Request.Context(), caller)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetReason GET /api/v1/absence-reasons/:id
func (h *AbsenceReasonHandler) GetReason(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	reason, err := h.reasonSvc.GetByID(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, reason)
}

// CreateReason POST /api/v1/absence-reasons
func (h *AbsenceReasonHandler) CreateReason(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.CreateAbsenceReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	reason, err := h.reasonSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Created(c, reason)
}

// UpdateReason PUT /api/v1/absence-reasons/:id
func (h *AbsenceReasonHandler) UpdateReason(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.UpdateAbsenceReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	reason, err := h.reasonSvc.Update(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, reason)
}

// DeleteReason DELETE /api/v1/absence-reasons/:id
func (h *AbsenceReasonHandler) DeleteReason(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.reasonSvc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, nil)
}
