package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mrbenboyy/gestion-pointage-backend/internal/model"
)

// LeaveFilters 请假查询条件
type LeaveFilters struct {
	Status            string
	EmployeeID        string
	EmployeeIDs       []string
	RestrictEmployees bool
	From              *time.Time // 与区间有交集
	To                *time.Time
}

// LeaveChanges 待审批请假可修改的字段
type LeaveChanges struct {
	ReasonID  string
	StartDate time.Time
	EndDate   time.Time
	Comments  string
	UpdatedBy string
}

// LeaveDecision 审批结果
type LeaveDecision struct {
	Status     string
	Comments   *string // nil 保留原备注
	ApprovedBy string
	DecidedAt  time.Time
}

// LeaveRepository 请假数据访问接口
// 状态相关的写操作均以 status = 'pending' 为条件原子执行，未命中返回 ErrConditionNotMet
type LeaveRepository interface {
	Create(ctx context.Context, leave *model.Leave) error
	GetByID(ctx context.Context, id string) (*model.Leave, error)
	List(ctx context.Context, filters LeaveFilters) ([]model.Leave, error)
	Count(ctx context.Context, filters LeaveFilters) (int64, error)
	CountByReason(ctx context.Context, reasonID string) (int64, error)
	UpdatePending(ctx context.Context, leaveID, requestedBy string, changes LeaveChanges) error
	DeletePending(ctx context.Context, leaveID, requestedBy string) error
	Decide(ctx context.Context, leaveID string, decision LeaveDecision) error
}

type leaveRepo struct {
	db *gorm.DB
}

func NewLeaveRepo(db *gorm.DB) LeaveRepository {
	return &leaveRepo{db: db}
}

func (r *leaveRepo) Create(ctx context.Context, leave *model.Leave) error {
	return r.db.WithContext(ctx).Create(leave).Error
}

func (r *leaveRepo) GetByID(ctx context.Context, id string) (*model.Leave, error) {
	var leave model.Leave
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Preload("Reason").
		Preload("Requester").
		Preload("Approver").
		Where("leave_id = ?", id).
		First(&leave).Error
	if err != nil {
		return nil, err
	}
	return &leave, nil
}

func (r *leaveRepo) applyFilters(db *gorm.DB, f LeaveFilters) *gorm.DB {
	db = restrictIDs(db, "employee_id", f.RestrictEmployees, f.EmployeeIDs)
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.EmployeeID != "" {
		db = db.Where("employee_id = ?", f.EmployeeID)
	}
	if f.From != nil {
		db = db.Where("end_date >= ?", f.From.Format(model.DateLayout))
	}
	if f.To != nil {
		db = db.Where("start_date <= ?", f.To.Format(model.DateLayout))
	}
	return db
}

func (r *leaveRepo) List(ctx context.Context, filters LeaveFilters) ([]model.Leave, error) {
	var leaves []model.Leave
	err := r.applyFilters(r.db.WithContext(ctx), filters).
		Preload("Employee").
		Preload("Reason").
		Preload("Requester").
		Preload("Approver").
		Order("created_at DESC").
		Find(&leaves).Error
	return leaves, err
}

func (r *leaveRepo) Count(ctx context.Context, filters LeaveFilters) (int64, error) {
	var count int64
	err := r.applyFilters(r.db.WithContext(ctx).Model(&model.Leave{}), filters).
		Count(&count).Error
	return count, err
}

func (r *leaveRepo) CountByReason(ctx context.Context, reasonID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Leave{}).
		Where("reason_id = ?", reasonID).
		Count(&count).Error
	return count, err
}

func (r *leaveRepo) UpdatePending(ctx context.Context, leaveID, requestedBy string, changes LeaveChanges) error {
	result := r.db.WithContext(ctx).
		Model(&model.Leave{}).
		Where("leave_id = ? AND requested_by = ? AND status = ?", leaveID, requestedBy, model.LeaveStatusPending).
		Updates(map[string]interface{}{
			"reason_id":  changes.ReasonID,
			"start_date": changes.StartDate.Format(model.DateLayout),
			"end_date":   changes.EndDate.Format(model.DateLayout),
			"comments":   changes.Comments,
			"updated_by": changes.UpdatedBy,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConditionNotMet
	}
	return nil
}

func (r *leaveRepo) DeletePending(ctx context.Context, leaveID, requestedBy string) error {
	result := r.db.WithContext(ctx).
		Where("leave_id = ? AND requested_by = ? AND status = ?", leaveID, requestedBy, model.LeaveStatusPending).
		Delete(&model.Leave{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConditionNotMet
	}
	return nil
}

// Decide 审批：仅 pending 状态可被决定，决定后不可再改
func (r *leaveRepo) Decide(ctx context.Context, leaveID string, decision LeaveDecision) error {
	updates := map[string]interface{}{
		"status":      decision.Status,
		"approved_by": decision.ApprovedBy,
		"decided_at":  decision.DecidedAt,
		"updated_by":  decision.ApprovedBy,
		"updated_at":  time.Now(),
	}
	if decision.Comments != nil {
		updates["comments"] = *decision.Comments
	}

	result := r.db.WithContext(ctx).
		Model(&model.Leave{}).
		Where("leave_id = ? AND status = ?", leaveID, model.LeaveStatusPending).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConditionNotMet
	}
	return nil
}
