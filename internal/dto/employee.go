package dto

// ── 员工模块 DTO ──

// CreateEmployeeRequest 创建员工请求
type CreateEmployeeRequest struct {
	Name         string  `json:"name"          binding:"required,min=1,max=100"`
	DepartmentID string  `json:"department_id" binding:"required,uuid"`
	Position     string  `json:"position"      binding:"omitempty,max=100"`
	HireDate     *string `json:"hire_date"     binding:"omitempty,datetime=2006-01-02"` // 缺省为当天
}

// UpdateEmployeeRequest 更新员工请求（nil 字段表示不修改）
// Version 可选：携带时与当前版本不一致即视为并发冲突
type UpdateEmployeeRequest struct {
	Name         *string `json:"name"          binding:"omitempty,min=1,max=100"`
	DepartmentID *string `json:"department_id" binding:"omitempty,uuid"`
	Position     *string `json:"position"      binding:"omitempty,max=100"`
	Status       *string `json:"status"        binding:"omitempty,oneof=active inactive"`
	Version      *int    `json:"version"       binding:"omitempty,min=1"`
}

// EmployeeListRequest 员工列表查询参数
type EmployeeListRequest struct {
	DepartmentID string `form:"department_id" binding:"omitempty,uuid"`
	Status       string `form:"status"        binding:"omitempty,oneof=active inactive"`
}

// EmployeeResponse 员工信息响应
type EmployeeResponse struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Department *DepartmentBrief `json:"department,omitempty"`
	Position   string           `json:"position"`
	HireDate   string           `json:"hire_date"`
	Status     string           `json:"status"`
	Version    int              `json:"version"`
}
