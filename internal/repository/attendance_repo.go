package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrbenboyy/gestion-pointage-backend/internal/model"
)

// AttendanceFilters 考勤查询条件
// RestrictEmployees 为 true 时只在 EmployeeIDs 范围内查询（空列表即无结果）
type AttendanceFilters struct {
	EmployeeID        string
	EmployeeIDs       []string
	RestrictEmployees bool
	From              *time.Time
	To                *time.Time
	AbsentOnly        bool // 任一半天缺勤
	LateOnly          bool // 任一半天迟到
}

// AttendanceRepository 考勤数据访问接口
type AttendanceRepository interface {
	// Upsert 按 (employee_id, date) 插入或整体覆盖
	Upsert(ctx context.Context, att *model.Attendance) (*model.Attendance, error)
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*model.Attendance, error)
	List(ctx context.Context, filters AttendanceFilters) ([]model.Attendance, error)
	Count(ctx context.Context, filters AttendanceFilters) (int64, error)
}

type attendanceRepo struct {
	db *gorm.DB
}

func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

// upsertColumns 冲突时覆盖的列，created_at / created_by 保留首次写入的值
var upsertColumns = []string{
	"morning_start", "morning_end", "morning_status", "morning_late_minutes",
	"afternoon_start", "afternoon_end", "afternoon_status", "afternoon_late_minutes",
	"recorded_by", "comments", "updated_at", "updated_by",
}

func (r *attendanceRepo) Upsert(ctx context.Context, att *model.Attendance) (*model.Attendance, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "employee_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns(upsertColumns),
		}).
		Create(att).Error
	if err != nil {
		return nil, err
	}
	return r.GetByEmployeeAndDate(ctx, att.EmployeeID, att.Date)
}

func (r *attendanceRepo) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*model.Attendance, error) {
	var att model.Attendance
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Preload("Recorder").
		Where(`employee_id = ? AND "date" = ?`, employeeID, date.Format(model.DateLayout)).
		First(&att).Error
	if err != nil {
		return nil, err
	}
	return &att, nil
}

func (r *attendanceRepo) applyFilters(db *gorm.DB, f AttendanceFilters) *gorm.DB {
	db = restrictIDs(db, "employee_id", f.RestrictEmployees, f.EmployeeIDs)
	if f.EmployeeID != "" {
		db = db.Where("employee_id = ?", f.EmployeeID)
	}
	if f.From != nil {
		db = db.Where(`"date" >= ?`, f.From.Format(model.DateLayout))
	}
	if f.To != nil {
		db = db.Where(`"date" <= ?`, f.To.Format(model.DateLayout))
	}
	if f.AbsentOnly {
		db = db.Where("(morning_status = ? OR afternoon_status = ?)",
			model.AttendanceStatusAbsent, model.AttendanceStatusAbsent)
	}
	if f.LateOnly {
		db = db.Where("(morning_late_minutes > 0 OR afternoon_late_minutes > 0)")
	}
	return db
}

func (r *attendanceRepo) List(ctx context.Context, filters AttendanceFilters) ([]model.Attendance, error) {
	var list []model.Attendance
	err := r.applyFilters(r.db.WithContext(ctx), filters).
		Preload("Employee").
		Preload("Recorder").
		Order(`"date" DESC, employee_id ASC`).
		Find(&list).Error
	return list, err
}

func (r *attendanceRepo) Count(ctx context.Context, filters AttendanceFilters) (int64, error) {
	var count int64
	err := r.applyFilters(r.db.WithContext(ctx).Model(&model.Attendance{}), filters).
		Count(&count).Error
	return count, err
}
