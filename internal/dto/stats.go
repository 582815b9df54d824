package dto

// ── 统计模块 DTO ──
// 缺勤率以两位小数字符串表示，例如 "12.50"

// AdminStatsResponse 管理员仪表盘
type AdminStatsResponse struct {
	ActiveEmployees int64  `json:"active_employees"`
	DepartmentCount int64  `json:"department_count"`
	AbsenceRate     string `json:"absence_rate"`
	PendingLeaves   int64  `json:"pending_leaves"`
}

// ManagerStatsResponse 经理仪表盘（本部门）
type ManagerStatsResponse struct {
	TotalEmployees  int64  `json:"total_employees"`
	AbsenceRate     string `json:"absence_rate"`
	LateAttendances int64  `json:"late_attendances"`
	PendingLeaves   int64  `json:"pending_leaves"`
}

// DepartmentStats 单个部门统计
type DepartmentStats struct {
	DepartmentID   string `json:"department_id"`
	DepartmentName string `json:"department_name"`
	TotalEmployees int64  `json:"total_employees"`
	AbsenceRate    string `json:"absence_rate"`
	PendingLeaves  int64  `json:"pending_leaves"`
}

// SupervisorStatsResponse 主管仪表盘
type SupervisorStatsResponse struct {
	DepartmentStats []DepartmentStats `json:"department_stats"`
	LeavesToApprove int64             `json:"leaves_to_approve"`
}
