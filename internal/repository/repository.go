package repository

import (
	"errors"

	"gorm.io/gorm"
)

// ErrConditionNotMet 条件更新 / 删除未命中任何行（记录已不满足前置条件）
var ErrConditionNotMet = errors.New("repository: conditional write matched no rows")

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User          UserRepository
	Department    DepartmentRepository
	Employee      EmployeeRepository
	AbsenceReason AbsenceReasonRepository
	Attendance    AttendanceRepository
	Leave         LeaveRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:          NewUserRepo(db),
		Department:    NewDepartmentRepo(db),
		Employee:      NewEmployeeRepo(db),
		AbsenceReason: NewAbsenceReasonRepo(db),
		Attendance:    NewAttendanceRepo(db),
		Leave:         NewLeaveRepo(db),
	}
}

// restrictIDs 按 ID 列表收窄查询；restrict 为 true 且列表为空时不返回任何行
func restrictIDs(db *gorm.DB, column string, restrict bool, ids []string) *gorm.DB {
	if !restrict {
		return db
	}
	if len(ids) == 0 {
		return db.Where("1 = 0")
	}
	return db.Where(column+" IN ?", ids)
}
