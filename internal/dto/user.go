package dto

// ── 用户模块 DTO ──

// CreateUserRequest 创建用户请求（仅 admin）
type CreateUserRequest struct {
	Name         string  `json:"name"          binding:"required,min=1,max=100"`
	Email        string  `json:"email"         binding:"required,email,max=255"`
	Password     string  `json:"password"      binding:"required,min=8,max=72"`
	Role         string  `json:"role"          binding:"required,oneof=admin manager supervisor"`
	DepartmentID *string `json:"department_id" binding:"omitempty,uuid"`
}

// UpdateUserRequest 更新用户请求（nil 字段表示不修改）
type UpdateUserRequest struct {
	Name         *string `json:"name"          binding:"omitempty,min=1,max=100"`
	Email        *string `json:"email"         binding:"omitempty,email,max=255"`
	Role         *string `json:"role"          binding:"omitempty,oneof=admin manager supervisor"`
	DepartmentID *string `json:"department_id" binding:"omitempty,uuid"`
}

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
	Role         string `form:"role"          binding:"omitempty,oneof=admin manager supervisor"`
	DepartmentID string `form:"department_id" binding:"omitempty,uuid"`
}

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Email      string           `json:"email"`
	Role       string           `json:"role"`
	Department *DepartmentBrief `json:"department,omitempty"`
	CreatedAt  string           `json:"created_at,omitempty"`
}

// UserListResponse 用户分页列表
type UserListResponse struct {
	List     []UserResponse `json:"list"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}
