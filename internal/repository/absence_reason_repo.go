package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mrbenboyy/gestion-pointage-backend/internal/model"
)

// AbsenceReasonRepository 缺勤原因数据访问接口
type AbsenceReasonRepository interface {
	Create(ctx context.Context, reason *model.AbsenceReason) error
	GetByID(ctx context.Context, id string) (*model.AbsenceReason, error)
	GetByName(ctx context.Context, name string) (*model.AbsenceReason, error)
	// List departmentID 为空时返回全部
	List(ctx context.Context, departmentID string) ([]model.AbsenceReason, error)
	Update(ctx context.Context, reason *model.AbsenceReason) error
	Delete(ctx context.Context, id string) error
}

type absenceReasonRepo struct {
	db *gorm.DB
}

func NewAbsenceReasonRepo(db *gorm.DB) AbsenceReasonRepository {
	return &absenceReasonRepo{db: db}
}

func (r *absenceReasonRepo) Create(ctx context.Context, reason *model.AbsenceReason) error {
	return r.db.WithContext(ctx).Create(reason).Error
}

func (r *absenceReasonRepo) GetByID(ctx context.Context, id string) (*model.AbsenceReason, error) {
	var reason model.AbsenceReason
	err := r.db.WithContext(ctx).
		Where("reason_id = ?", id).
		First(&reason).Error
	if err != nil {
		return nil, err
	}
	return &reason, nil
}

func (r *absenceReasonRepo) GetByName(ctx context.Context, name string) (*model.AbsenceReason, error) {
	var reason model.AbsenceReason
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&reason).Error
	if err != nil {
		return nil, err
	}
	return &reason, nil
}

func (r *absenceReasonRepo) List(ctx context.Context, departmentID string) ([]model.AbsenceReason, error) {
	var reasons []model.AbsenceReason
	db := r.db.WithContext(ctx)
	if departmentID != "" {
		db = db.Where("department_id = ?", departmentID)
	}
	err := db.Order("name ASC").Find(&reasons).Error
	return reasons, err
}

func (r *absenceReasonRepo) Update(ctx context.Context, reason *model.AbsenceReason) error {
	return r.db.WithContext(ctx).
		Model(&model.AbsenceReason{}).
		Where("reason_id = ?", reason.ReasonID).
		Updates(map[string]interface{}{
			"name":        reason.Name,
			"description": reason.Description,
			"is_active":   reason.IsActive,
			"updated_by":  reason.UpdatedBy,
			"updated_at":  time.Now(),
		}).Error
}

// Delete 被请假记录引用时由外键 RESTRICT 拒绝（ErrForeignKeyViolated）
func (r *absenceReasonRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("reason_id = ?", id).
		Delete(&model.AbsenceReason{}).Error
}
