package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mrbenboyy/gestion-pointage-backend/internal/dto"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/service"
	"github.com/mrbenboyy/gestion-pointage-backend/pkg/response"
)

// EmployeeHandler 员工模块 HTTP 处理器
type EmployeeHandler struct {
	empSvc service.EmployeeService
}

// NewEmployeeHandler 创建 EmployeeHandler
func NewEmployeeHandler(empSvc service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{empSvc: empSvc}
}

// ListEmployees 查询员工（经理仅本部门）
// GET /api/v1/employees
func (h *EmployeeHandler) ListEmployees(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.EmployeeListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c)
		return
	}

	list, err := h.empSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetEmployee 获取员工详情
// GET /api/v1/employees/:id
func (h *EmployeeHandler) GetEmployee(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	emp, err := h.empSvc.GetByID(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, emp)
}

// CreateEmployee 创建员工
// POST /api/v1/employees
func (h *EmployeeHandler) CreateEmployee(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	emp, err := h.empSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Created(c, emp)
}

// UpdateEmployee 更新员工（携带 version 时做乐观锁校验）
// PUT /api/v1/employees/:id
func (h *EmployeeHandler) UpdateEmployee(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.UpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	emp, err := h.empSvc.Update(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, emp)
}

// DeleteEmployee 删除员工
// DELETE /api/v1/employees/:id
func (h *EmployeeHandler) DeleteEmployee(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.empSvc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, nil)
}
