package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mrbenboyy/gestion-pointage-backend/internal/model"
)

// UserListFilters 用户列表过滤条件
type UserListFilters struct {
	Role         string
	DepartmentID string
}

// UserRepository 用户数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	List(ctx context.Context, filters UserListFilters, offset, limit int) ([]model.User, int64, error)
	Delete(ctx context.Context, id, deletedBy string) error
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Department").
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Department").
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", user.UserID).
		Updates(map[string]interface{}{
			"name":          user.Name,
			"email":         user.Email,
			"role":          user.Role,
			"department_id": user.DepartmentID,
			"updated_by":    user.UpdatedBy,
			"updated_at":    time.Now(),
		}).Error
}

func (r *userRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", id).
		Updates(map[string]interface{}{
			"password_hash": passwordHash,
			"updated_at":    time.Now(),
		}).Error
}

func (r *userRepo) List(ctx context.Context, filters UserListFilters, offset, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := r.db.WithContext(ctx).Model(&model.User{})
	if filters.Role != "" {
		db = db.Where("role = ?", filters.Role)
	}
	if filters.DepartmentID != "" {
		db = db.Where("department_id = ?", filters.DepartmentID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Department").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// Delete 软删除用户，同时解除其部门经理身份
func (r *userRepo) Delete(ctx context.Context, id, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Department{}).
			Where("manager_id = ?", id).
			Updates(map[string]interface{}{
				"manager_id": nil,
				"updated_by": deletedBy,
				"updated_at": time.Now(),
			}).Error; err != nil {
			return err
		}
		return tx.Model(&model.User{}).
			Where("user_id = ?", id).
			Updates(map[string]interface{}{
				"deleted_by": deletedBy,
				"deleted_at": gorm.Expr("NOW()"),
			}).Error
	})
}
