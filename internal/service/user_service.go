package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mrbenboyy/gestion-pointage-backend/internal/access"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/dto"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/model"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/repository"
	apperrors "github.com/mrbenboyy/gestion-pointage-backend/pkg/errors"
)

// ── 用户模块业务错误 ──

var (
	ErrEmailExists      = apperrors.New(apperrors.KindConflict, 21001, "邮箱已被使用")
	ErrCannotDeleteSelf = apperrors.New(apperrors.KindInvalidState, 21002, "不能删除当前登录用户")
	// ErrManagerNeedsDepartment 经理角色必须归属部门，否则其所有写操作都会被拒绝
	ErrManagerNeedsDepartment = apperrors.New(apperrors.KindValidation, 21003, "经理必须指定所属部门")
)

// UserService 用户业务接口（仅 admin）
type UserService interface {
	Create(ctx context.Context, caller access.Caller, req *dto.CreateUserRequest) (*dto.UserResponse, error)
	GetByID(ctx context.Context, caller access.Caller, id string) (*dto.UserResponse, error)
	List(ctx context.Context, caller access.Caller, req *dto.UserListRequest) (*dto.UserListResponse, error)
	Update(ctx context.Context, caller access.Caller, id string, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
	// Delete 软删除用户，并清除其负责部门的经理引用
	Delete(ctx context.Context, caller access.Caller, id string) error
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *userService) Create(ctx context.Context, caller access.Caller, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	if err := access.Require(caller, access.ActionUserManage); err != nil {
		return nil, err
	}

	if err := s.ensureEmailFree(ctx, req.Email, ""); err != nil {
		return nil, err
	}

	if req.Role == model.RoleManager && req.DepartmentID == nil {
		return nil, ErrManagerNeedsDepartment
	}
	if req.DepartmentID != nil {
		dept, err := s.loadDepartment(ctx, *req.DepartmentID)
		if err != nil {
			return nil, err
		}
		if req.Role == model.RoleManager && dept.ManagerID != nil {
			return nil, ErrDepartmentHasManager
		}
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		DepartmentID: req.DepartmentID,
	}
	user.BaseModel = model.Audit(caller.UserID)

	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		s.logger.Error("创建用户失败", zap.Error(err))
		return nil, err
	}

	// 经理创建时即成为所属部门的经理
	if user.Role == model.RoleManager {
		if err := assignManager(ctx, s.repo, *user.DepartmentID, user, caller.UserID); err != nil {
			s.logger.Warn("指定部门经理失败",
				zap.String("user_id", user.UserID),
				zap.String("department_id", *user.DepartmentID),
				zap.Error(err))
			return nil, err
		}
	}

	return s.reload(ctx, user.UserID)
}

// ────────────────────── GetByID ──────────────────────

func (s *userService) GetByID(ctx context.Context, caller access.Caller, id string) (*dto.UserResponse, error) {
	if err := access.Require(caller, access.ActionUserManage); err != nil {
		return nil, err
	}
	return s.reload(ctx, id)
}

// ────────────────────── List ──────────────────────

func (s *userService) List(ctx context.Context, caller access.Caller, req *dto.UserListRequest) (*dto.UserListResponse, error) {
	if err := access.Require(caller, access.ActionUserManage); err != nil {
		return nil, err
	}

	filters := repository.UserListFilters{Role: req.Role, DepartmentID: req.DepartmentID}
	users, total, err := s.repo.User.List(ctx, filters, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询用户列表失败", zap.Error(err))
		return nil, err
	}

	list := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		list = append(list, toUserResponse(&users[i]))
	}

	return &dto.UserListResponse{
		List:     list,
		Total:    total,
		Page:     req.GetPage(),
		PageSize: req.GetPageSize(),
	}, nil
}

// ────────────────────── Update ──────────────────────

func (s *userService) Update(ctx context.Context, caller access.Caller, id string, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if err := access.Require(caller, access.ActionUserManage); err != nil {
		return nil, err
	}

	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if req.Email != nil && *req.Email != user.Email {
		if err := s.ensureEmailFree(ctx, *req.Email, user.UserID); err != nil {
			return nil, err
		}
		user.Email = *req.Email
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.DepartmentID != nil {
		// 空字符串表示移出部门
		user.DepartmentID = nil
		if *req.DepartmentID != "" {
			user.DepartmentID = req.DepartmentID
		}
	}

	// 先校验全部前置条件，再写入
	plan, err := s.planManagerChange(ctx, user, req)
	if err != nil {
		return nil, err
	}
	user.UpdatedBy = &caller.UserID

	if plan.release != nil {
		if err := s.repo.Department.ClearManager(ctx, user.UserID, caller.UserID); err != nil {
			s.logger.Error("解除部门经理失败", zap.String("user_id", user.UserID), zap.Error(err))
			return nil, err
		}
	}

	if err := s.repo.User.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		s.logger.Error("更新用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if plan.assign != "" {
		if err := assignManager(ctx, s.repo, plan.assign, user, caller.UserID); err != nil {
			s.logger.Warn("指定部门经理失败",
				zap.String("user_id", user.UserID),
				zap.String("department_id", plan.assign),
				zap.Error(err))
			return nil, err
		}
	}

	return s.reload(ctx, id)
}

// ────────────────────── Delete ──────────────────────

func (s *userService) Delete(ctx context.Context, caller access.Caller, id string) error {
	if err := access.Require(caller, access.ActionUserManage); err != nil {
		return err
	}
	if id == caller.UserID {
		return ErrCannotDeleteSelf
	}

	if _, err := s.repo.User.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if err := s.repo.User.Delete(ctx, id, caller.UserID); err != nil {
		s.logger.Error("删除用户失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

// ensureEmailFree 邮箱未被其他用户占用（exceptID 为当前用户自身）
func (s *userService) ensureEmailFree(ctx context.Context, email, exceptID string) error {
	existing, err := s.repo.User.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户失败", zap.Error(err))
		return err
	}
	if existing != nil && existing.UserID != exceptID {
		return ErrEmailExists
	}
	return nil
}

func (s *userService) reload(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func toUserResponse(u *model.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:         u.UserID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Department: toDepartmentBrief(u.Department),
	}
	if !u.CreatedAt.IsZero() {
		resp.CreatedAt = formatTime(u.CreatedAt)
	}
	return resp
}

// managerChange 用户更新引起的部门经理变更
type managerChange struct {
	release *model.Department // 需解除经理身份的原部门
	assign  string            // 需成为经理的新部门
}

// planManagerChange 维护部门与经理一对一：
// 经理换部门或改角色时解除原部门的经理身份；成为某部门经理时该部门不能已有其他经理
func (s *userService) planManagerChange(ctx context.Context, user *model.User, req *dto.UpdateUserRequest) (managerChange, error) {
	var plan managerChange
	if req.Role == nil && req.DepartmentID == nil {
		return plan, nil
	}

	isManager := user.Role == model.RoleManager
	newDept := user.DepartmentIDValue()
	if isManager && newDept == "" {
		return plan, ErrManagerNeedsDepartment
	}
	if newDept != "" && req.DepartmentID != nil {
		if _, err := s.loadDepartment(ctx, newDept); err != nil {
			return plan, err
		}
	}

	managed, err := s.repo.Department.GetByManager(ctx, user.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		managed = nil
	} else if err != nil {
		s.logger.Error("查询经理所在部门失败", zap.String("user_id", user.UserID), zap.Error(err))
		return plan, err
	}

	if managed != nil && isManager && managed.DepartmentID == newDept {
		return plan, nil
	}
	plan.release = managed

	if isManager {
		target, err := s.loadDepartment(ctx, newDept)
		if err != nil {
			return plan, err
		}
		if target.ManagerID != nil && *target.ManagerID != user.UserID {
			return plan, ErrDepartmentHasManager
		}
		plan.assign = newDept
	}
	return plan, nil
}

func (s *userService) loadDepartment(ctx context.Context, id string) (*model.Department, error) {
	dept, err := s.repo.Department.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		s.logger.Error("查询部门失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return dept, nil
}
