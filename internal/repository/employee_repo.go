package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/mrbenboyy/gestion-pointage-backend/internal/model"
	pkgerrors "github.com/mrbenboyy/gestion-pointage-backend/pkg/errors"
)

// EmployeeListFilters 员工列表过滤条件
type EmployeeListFilters struct {
	DepartmentID string
	Status       string
}

// EmployeeRepository 员工数据访问接口
type EmployeeRepository interface {
	Create(ctx context.Context, emp *model.Employee) error
	GetByID(ctx context.Context, id string) (*model.Employee, error)
	List(ctx context.Context, filters EmployeeListFilters) ([]model.Employee, error)
	Update(ctx context.Context, emp *model.Employee) error
	Delete(ctx context.Context, id string) error
	ListIDsByDepartment(ctx context.Context, departmentID string) ([]string, error)
	CountActive(ctx context.Context) (int64, error)
	CountByDepartment(ctx context.Context, departmentID string) (int64, error)
	BatchCountByDepartment(ctx context.Context, departmentIDs []string) (map[string]int64, error)
}

type employeeRepo struct {
	db *gorm.DB
}

func NewEmployeeRepo(db *gorm.DB) EmployeeRepository {
	return &employeeRepo{db: db}
}

func (r *employeeRepo) Create(ctx context.Context, emp *model.Employee) error {
	return r.db.WithContext(ctx).Create(emp).Error
}

func (r *employeeRepo) GetByID(ctx context.Context, id string) (*model.Employee, error) {
	var emp model.Employee
	err := r.db.WithContext(ctx).
		Preload("Department").
		Where("employee_id = ?", id).
		First(&emp).Error
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (r *employeeRepo) List(ctx context.Context, filters EmployeeListFilters) ([]model.Employee, error) {
	var emps []model.Employee
	db := r.db.WithContext(ctx).Preload("Department")
	if filters.DepartmentID != "" {
		db = db.Where("department_id = ?", filters.DepartmentID)
	}
	if filters.Status != "" {
		db = db.Where("status = ?", filters.Status)
	}
	err := db.Order("name ASC").Find(&emps).Error
	return emps, err
}

// Update 乐观锁更新：version 不匹配时返回 ErrOptimisticLock
func (r *employeeRepo) Update(ctx context.Context, emp *model.Employee) error {
	oldVersion := emp.Version
	result := r.db.WithContext(ctx).
		Model(&model.Employee{}).
		Where("employee_id = ? AND version = ?", emp.EmployeeID, oldVersion).
		Updates(map[string]interface{}{
			"name":          emp.Name,
			"department_id": emp.DepartmentID,
			"position":      emp.Position,
			"status":        emp.Status,
			"updated_by":    emp.UpdatedBy,
			"updated_at":    gorm.Expr("NOW()"),
			"version":       oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	emp.Version = oldVersion + 1
	return nil
}

func (r *employeeRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("employee_id = ?", id).
		Delete(&model.Employee{}).Error
}

func (r *employeeRepo) ListIDsByDepartment(ctx context.Context, departmentID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Employee{}).
		Where("department_id = ?", departmentID).
		Pluck("employee_id", &ids).Error
	return ids, err
}

func (r *employeeRepo) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Employee{}).
		Where("status = ?", model.EmployeeStatusActive).
		Count(&count).Error
	return count, err
}

func (r *employeeRepo) CountByDepartment(ctx context.Context, departmentID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Employee{}).
		Where("department_id = ?", departmentID).
		Count(&count).Error
	return count, err
}

// BatchCountByDepartment 一次查询统计多个部门的员工数
func (r *employeeRepo) BatchCountByDepartment(ctx context.Context, departmentIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(departmentIDs))
	if len(departmentIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		DepartmentID string
		Count        int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Employee{}).
		Select("department_id, COUNT(*) AS count").
		Where("department_id IN ?", departmentIDs).
		Group("department_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.DepartmentID] = row.Count
	}
	return counts, nil
}
