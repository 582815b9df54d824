package dto

import "time"

// ── 考勤模块 DTO ──

// HalfDayInput 半天考勤输入
// Start 缺省表示该半天未到岗；Status 仅在未提供 Start 时生效，缺省为 absent
type HalfDayInput struct {
	Start  *time.Time `json:"start"`
	End    *time.Time `json:"end"`
	Status *string    `json:"status" binding:"omitempty,oneof=present absent late on_leave"`
}

// RecordAttendanceRequest 记录考勤请求
type RecordAttendanceRequest struct {
	EmployeeID string       `json:"employee_id" binding:"required,uuid"`
	Date       string       `json:"date"        binding:"required,datetime=2006-01-02"`
	Morning    HalfDayInput `json:"morning"`
	Afternoon  HalfDayInput `json:"afternoon"`
	Comments   string       `json:"comments"    binding:"omitempty,max=1000"`
}

// AttendanceListRequest 考勤查询参数
type AttendanceListRequest struct {
	EmployeeID string `form:"employee_id" binding:"omitempty,uuid"`
	From       string `form:"from"        binding:"omitempty,datetime=2006-01-02"`
	To         string `form:"to"          binding:"omitempty,datetime=2006-01-02"`
}

// HalfDayResponse 半天考勤
type HalfDayResponse struct {
	Start       string `json:"start,omitempty"`
	End         string `json:"end,omitempty"`
	Status      string `json:"status"`
	LateMinutes int    `json:"late_minutes"`
}

// AttendanceResponse 考勤记录响应
type AttendanceResponse struct {
	ID         string          `json:"id"`
	Employee   *EmployeeBrief  `json:"employee,omitempty"`
	Date       string          `json:"date"`
	Morning    HalfDayResponse `json:"morning"`
	Afternoon  HalfDayResponse `json:"afternoon"`
	RecordedBy *UserBrief      `json:"recorded_by,omitempty"`
	Comments   string          `json:"comments"`
}
