package dto

// ── 部门模块 DTO ──

// CreateDepartmentRequest 创建部门请求
type CreateDepartmentRequest struct {
	Name      string  `json:"name"       binding:"required,min=1,max=100"`
	ManagerID *string `json:"manager_id" binding:"omitempty,uuid"`
}

// UpdateDepartmentRequest 更新部门请求
type UpdateDepartmentRequest struct {
	Name *string `json:"name" binding:"omitempty,min=1,max=100"`
}

// AssignManagerRequest 指定部门经理
type AssignManagerRequest struct {
	ManagerID string `json:"manager_id" binding:"required,uuid"`
}

// DepartmentResponse 部门信息响应
type DepartmentResponse struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Manager       *UserBrief `json:"manager,omitempty"`
	EmployeeCount int64      `json:"employee_count"`
	CreatedAt     string     `json:"created_at"`
	UpdatedAt     string     `json:"updated_at"`
}
