package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mrbenboyy/gestion-pointage-backend/internal/dto"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/service"
	"github.com/mrbenboyy/gestion-pointage-backend/pkg/response"
)

// AttendanceHandler 考勤模块 HTTP 处理器
type AttendanceHandler struct {
	attSvc service.AttendanceService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attSvc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attSvc: attSvc}
}

// RecordAttendance 记录考勤，同一员工同一天重复提交覆盖原记录
// POST /api/v1/attendances
func (h *AttendanceHandler) RecordAttendance(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.RecordAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	att, err := h.attSvc.Record(c.Request.Context(), caller, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, att)
}

// ListAttendances 查询考勤
// GET /api/v1/attendances?employee_id=&from=&to=
func (h *AttendanceHandler) ListAttendances(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.AttendanceListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c)
		return
	}

	list, err := h.attSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}
