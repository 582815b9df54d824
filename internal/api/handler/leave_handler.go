package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mrbenboyy/gestion-pointage-backend/internal/dto"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/service"
	"github.com/mrbenboyy/gestion-pointage-backend/pkg/response"
)

// LeaveHandler 请假模块 HTTP 处理器
type LeaveHandler struct {
	leaveSvc service.LeaveService
}

// NewLeaveHandler 创建 LeaveHandler
func NewLeaveHandler(leaveSvc service.LeaveService) *LeaveHandler {
	return &LeaveHandler{leaveSvc: leaveSvc}
}

// ListLeaves GET /api/v1/leaves
func (h *LeaveHandler) ListLeaves(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.LeaveListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c)
		return
	}

	list, err := h.leaveSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetLeave GET /api/v1/leaves/:id
func (h *LeaveHandler) GetLeave(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	leave, err := h.leaveSvc.GetByID(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, leave)
}

// CreateLeave 提交请假申请
// POST /api/v1/leaves
func (h *LeaveHandler) CreateLeave(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.CreateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	leave, err := h.leaveSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Created(c, leave)
}

// UpdateLeave 修改待审批的请假
// PUT /api/v1/leaves/:id
func (h *LeaveHandler) UpdateLeave(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.UpdateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	leave, err := h.leaveSvc.Update(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, leave)
}

// DeleteLeave 撤销待审批的请假
// DELETE /api/v1/leaves/:id
func (h *LeaveHandler) DeleteLeave(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.leaveSvc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, nil)
}

// ApproveLeave 审批请假（approved / rejected）
// PUT /api/v1/leaves/:id/approval
func (h *LeaveHandler) ApproveLeave(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.ApproveLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	leave, err := h.leaveSvc.Approve(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, leave)
}
