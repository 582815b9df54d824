package dto

// ExportAttendanceRequest 考勤导出参数
type ExportAttendanceRequest struct {
	From       string `form:"from"        binding:"required,datetime=2006-01-02"`
	To         string `form:"to"          binding:"required,datetime=2006-01-02"`
	EmployeeID string `form:"employee_id" binding:"omitempty,uuid"`
}

// ExportLeavesRequest 已批准请假日历导出参数（区间可省略）
type ExportLeavesRequest struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to"   binding:"omitempty,datetime=2006-01-02"`
}
