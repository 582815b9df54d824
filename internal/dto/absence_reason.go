package dto

// ── 缺勤原因模块 DTO ──

// CreateAbsenceReasonRequest 创建缺勤原因请求
type CreateAbsenceReasonRequest struct {
	Name        string `json:"name"        binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"omitempty,max=500"`
}

// UpdateAbsenceReasonRequest 更新缺勤原因请求（nil 字段表示不修改）
type UpdateAbsenceReasonRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	IsActive    *bool   `json:"is_active"`
}

// AbsenceReasonResponse 缺勤原因响应
type AbsenceReasonResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	DepartmentID string `json:"department_id,omitempty"`
	IsActive     bool   `json:"is_active"`
}

// ReasonBrief 缺勤原因简要信息
type ReasonBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
