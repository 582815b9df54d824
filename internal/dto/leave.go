package dto

// ── 请假模块 DTO ──

// CreateLeaveRequest 创建请假申请
type CreateLeaveRequest struct {
	EmployeeID string `json:"employee_id" binding:"required,uuid"`
	ReasonID   string `json:"reason_id"   binding:"required,uuid"`
	StartDate  string `json:"start_date"  binding:"required,datetime=2006-01-02"`
	EndDate    string `json:"end_date"    binding:"required,datetime=2006-01-02"`
	Comments   string `json:"comments"    binding:"omitempty,max=1000"`
}

// UpdateLeaveRequest 修改待审批的请假申请（nil 字段表示不修改）
type UpdateLeaveRequest struct {
	ReasonID  *string `json:"reason_id"  binding:"omitempty,uuid"`
	StartDate *string `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   *string `json:"end_date"   binding:"omitempty,datetime=2006-01-02"`
	Comments  *string `json:"comments"   binding:"omitempty,max=1000"`
}

// ApproveLeaveRequest 审批请假
type ApproveLeaveRequest struct {
	Status   string  `json:"status"   binding:"required,oneof=approved rejected"`
	Comments *string `json:"comments" binding:"omitempty,max=1000"`
}

// LeaveListRequest 请假列表查询参数
type LeaveListRequest struct {
	Status     string `form:"status"      binding:"omitempty,oneof=pending approved rejected"`
	EmployeeID string `form:"employee_id" binding:"omitempty,uuid"`
}

// LeaveResponse 请假申请响应
type LeaveResponse struct {
	ID          string         `json:"id"`
	Employee    *EmployeeBrief `json:"employee,omitempty"`
	Reason      *ReasonBrief   `json:"reason,omitempty"`
	StartDate   string         `json:"start_date"`
	EndDate     string         `json:"end_date"`
	Comments    string         `json:"comments"`
	Status      string         `json:"status"`
	RequestedBy *UserBrief     `json:"requested_by,omitempty"`
	ApprovedBy  *UserBrief     `json:"approved_by,omitempty"`
	DecidedAt   string         `json:"decided_at,omitempty"`
}
