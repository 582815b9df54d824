package handler

import "github.com/mrbenboyy/gestion-pointage-backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth          *AuthHandler
	User          *UserHandler
	Department    *DepartmentHandler
	Employee      *EmployeeHandler
	AbsenceReason *AbsenceReasonHandler
	Attendance    *AttendanceHandler
	Leave         *LeaveHandler
	Stats         *StatsHandler
	Export        *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:          NewAuthHandler(svc.Auth),
		User:          NewUserHandler(svc.User),
		Department:    NewDepartmentHandler(svc.Department),
		Employee:      NewEmployeeHandler(svc.Employee),
		AbsenceReason: NewAbsenceReasonHandler(svc.AbsenceReason),
		Attendance:    NewAttendanceHandler(svc.Attendance),
		Leave:         NewLeaveHandler(svc.Leave),
		Stats:         NewStatsHandler(svc.Stats),
		Export:        NewExportHandler(svc.Export),
	}
}
