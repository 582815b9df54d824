package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrbenboyy/gestion-pointage-backend/internal/model"
)

// DepartmentRepository 部门数据访问接口
type DepartmentRepository interface {
	Create(ctx context.Context, dept *model.Department) error
	GetByID(ctx context.Context, id string) (*model.Department, error)
	GetByName(ctx context.Context, name string) (*model.Department, error)
	GetByManager(ctx context.Context, managerID string) (*model.Department, error)
	List(ctx context.Context) ([]model.Department, error)
	Update(ctx context.Context, dept *model.Department) error
	AssignManager(ctx context.Context, departmentID, managerID, updatedBy string) error
	ClearManager(ctx context.Context, managerID, updatedBy string) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// departmentRepo DepartmentRepository 的 GORM 实现
type departmentRepo struct {
	db *gorm.DB
}

// NewDepartmentRepo 创建 DepartmentRepository 实例
func NewDepartmentRepo(db *gorm.DB) DepartmentRepository {
	return &departmentRepo{db: db}
}

func (r *departmentRepo) Create(ctx context.Context, dept *model.Department) error {
	return r.db.WithContext(ctx).Create(dept).Error
}

func (r *departmentRepo) GetByID(ctx context.Context, id string) (*model.Department, error) {
	var dept model.Department
	err := r.db.WithContext(ctx).
		Preload("Manager").
		Where("department_id = ?", id).
		First(&dept).Error
	if err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepo) GetByName(ctx context.Context, name string) (*model.Department, error) {
	var dept model.Department
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&dept).Error
	if err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepo) GetByManager(ctx context.Context, managerID string) (*model.Department, error) {
	var dept model.Department
	err := r.db.WithContext(ctx).
		Where("manager_id = ?", managerID).
		First(&dept).Error
	if err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepo) List(ctx context.Context) ([]model.Department, error) {
	var depts []model.Department
	err := r.db.WithContext(ctx).
		Preload("Manager").
		Order("name ASC").
		Find(&depts).Error
	return depts, err
}

func (r *departmentRepo) Update(ctx context.Context, dept *model.Department) error {
	return r.db.WithContext(ctx).
		Model(&model.Department{}).
		Where("department_id = ?", dept.DepartmentID).
		Updates(map[string]interface{}{
			"name":       dept.Name,
			"updated_by": dept.UpdatedBy,
			"updated_at": time.Now(),
		}).Error
}

// AssignManager 在同一事务中设置部门经理并把经理归入该部门。
// 被替换的原经理同时移出该部门，否则其仍可凭 department_id 写本部门数据。
// 一个经理只能管理一个部门由 uk_departments_manager 兜底
func (r *departmentRepo) AssignManager(ctx context.Context, departmentID, managerID, updatedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		var dept model.Department
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("department_id = ?", departmentID).
			First(&dept).Error; err != nil {
			return err
		}
		if dept.ManagerID != nil && *dept.ManagerID != managerID {
			if err := tx.Model(&model.User{}).
				Where("user_id = ? AND department_id = ?", *dept.ManagerID, departmentID).
				Updates(map[string]interface{}{
					"department_id": nil,
					"updated_by":    updatedBy,
					"updated_at":    now,
				}).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&model.Department{}).
			Where("department_id = ?", departmentID).
			Updates(map[string]interface{}{
				"manager_id": managerID,
				"updated_by": updatedBy,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}
		return tx.Model(&model.User{}).
			Where("user_id = ?", managerID).
			Updates(map[string]interface{}{
				"department_id": departmentID,
				"updated_by":    updatedBy,
				"updated_at":    now,
			}).Error
	})
}

// ClearManager 解除用户的部门经理身份（不修改用户自身的 department_id）
func (r *departmentRepo) ClearManager(ctx context.Context, managerID, updatedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Department{}).
		Where("manager_id = ?", managerID).
		Updates(map[string]interface{}{
			"manager_id": nil,
			"updated_by": updatedBy,
			"updated_at": time.Now(),
		}).Error
}

func (r *departmentRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("department_id = ?", id).
		Delete(&model.Department{}).Error
}

func (r *departmentRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Department{}).
		Count(&count).Error
	return count, err
}
