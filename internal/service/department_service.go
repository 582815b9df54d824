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

// ── 部门模块业务错误 ──

var (
	ErrDepartmentNotFound     = apperrors.New(apperrors.KindNotFound, 22001, "部门不存在")
	ErrDepartmentNameExists   = apperrors.New(apperrors.KindConflict, 22002, "部门名称已存在")
	ErrDepartmentHasEmployees = apperrors.New(apperrors.KindInvalidState, 22003, "部门下存在员工，无法删除")
	ErrManagerNotFound        = apperrors.New(apperrors.KindNotFound, 22004, "经理用户不存在")
	ErrUserNotManager         = apperrors.New(apperrors.KindValidation, 22005, "指定用户不是经理角色")
	ErrManagerAlreadyAssigned = apperrors.New(apperrors.KindConflict, 22006, "该经理已负责其他部门")
	ErrDepartmentHasManager   = apperrors.New(apperrors.KindConflict, 22007, "该部门已有经理")
)

// DepartmentService 部门业务接口
type DepartmentService interface {
	Create(ctx context.Context, caller access.Caller, req *dto.CreateDepartmentRequest) (*dto.DepartmentResponse, error)
	GetByID(ctx context.Context, caller access.Caller, id string) (*dto.DepartmentResponse, error)
	List(ctx context.Context, caller access.Caller) ([]dto.DepartmentResponse, error)
	Update(ctx context.Context, caller access.Caller, id string, req *dto.UpdateDepartmentRequest) (*dto.DepartmentResponse, error)
	// AssignManager 指定部门经理：一个部门一个经理，一个经理只负责一个部门
	AssignManager(ctx context.Context, caller access.Caller, id string, req *dto.AssignManagerRequest) (*dto.DepartmentResponse, error)
	Delete(ctx context.Context, caller access.Caller, id string) error
}

type departmentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDepartmentService 创建 DepartmentService 实例
func NewDepartmentService(repo *repository.Repository, logger *zap.Logger) DepartmentService {
	return &departmentService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *departmentService) Create(ctx context.Context, caller access.Caller, req *dto.CreateDepartmentRequest) (*dto.DepartmentResponse, error) {
	if err := access.Require(caller, access.ActionDepartmentManage); err != nil {
		return nil, err
	}

	if err := s.ensureNameFree(ctx, req.Name); err != nil {
		return nil, err
	}

	// 先校验经理，避免部门已创建而经理指定失败
	var manager *model.User
	if req.ManagerID != nil {
		m, err := s.loadManager(ctx, *req.ManagerID)
		if err != nil {
			return nil, err
		}
		if err := ensureManagerFree(ctx, s.repo, m.UserID, ""); err != nil {
			return nil, err
		}
		manager = m
	}

	dept := &model.Department{Name: req.Name}
	dept.BaseModel = model.Audit(caller.UserID)

	if err := s.repo.Department.Create(ctx, dept); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDepartmentNameExists
		}
		s.logger.Error("创建部门失败", zap.Error(err))
		return nil, err
	}

	if manager != nil {
		if err := assignManager(ctx, s.repo, dept.DepartmentID, manager, caller.UserID); err != nil {
			return nil, err
		}
	}

	return s.reload(ctx, dept.DepartmentID)
}

// ────────────────────── GetByID ──────────────────────

func (s *departmentService) GetByID(ctx context.Context, caller access.Caller, id string) (*dto.DepartmentResponse, error) {
	if err := access.Require(caller, access.ActionDepartmentRead); err != nil {
		return nil, err
	}
	return s.reload(ctx, id)
}

// ────────────────────── List ──────────────────────

func (s *departmentService) List(ctx context.Context, caller access.Caller) ([]dto.DepartmentResponse, error) {
	if err := access.Require(caller, access.ActionDepartmentRead); err != nil {
		return nil, err
	}

	depts, err := s.repo.Department.List(ctx)
	if err != nil {
		s.logger.Error("列出部门失败", zap.Error(err))
		return nil, err
	}

	// 批量查询员工数，避免 N+1 查询
	deptIDs := make([]string, 0, len(depts))
	for _, d := range depts {
		deptIDs = append(deptIDs, d.DepartmentID)
	}
	countMap, err := s.repo.Employee.BatchCountByDepartment(ctx, deptIDs)
	if err != nil {
		s.logger.Warn("批量查询员工数失败，回退为0", zap.Error(err))
		countMap = make(map[string]int64)
	}

	result := make([]dto.DepartmentResponse, 0, len(depts))
	for i := range depts {
		result = append(result, toDepartmentResponse(&depts[i], countMap[depts[i].DepartmentID]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *departmentService) Update(ctx context.Context, caller access.Caller, id string, req *dto.UpdateDepartmentRequest) (*dto.DepartmentResponse, error) {
	if err := access.Require(caller, access.ActionDepartmentManage); err != nil {
		return nil, err
	}

	dept, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != dept.Name {
		if err := s.ensureNameFree(ctx, *req.Name); err != nil {
			return nil, err
		}
		dept.Name = *req.Name
	}
	dept.UpdatedBy = &caller.UserID

	if err := s.repo.Department.Update(ctx, dept); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDepartmentNameExists
		}
		s.logger.Error("更新部门失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.reload(ctx, id)
}

// ────────────────────── AssignManager ──────────────────────

func (s *departmentService) AssignManager(ctx context.Context, caller access.Caller, id string, req *dto.AssignManagerRequest) (*dto.DepartmentResponse, error) {
	if err := access.Require(caller, access.ActionDepartmentManage); err != nil {
		return nil, err
	}

	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}

	manager, err := s.loadManager(ctx, req.ManagerID)
	if err != nil {
		return nil, err
	}

	if err := assignManager(ctx, s.repo, id, manager, caller.UserID); err != nil {
		return nil, err
	}

	s.logger.Info("部门经理已变更",
		zap.String("department_id", id),
		zap.String("manager_id", manager.UserID),
		zap.String("operator", caller.UserID))

	return s.reload(ctx, id)
}

// ────────────────────── Delete ──────────────────────

func (s *departmentService) Delete(ctx context.Context, caller access.Caller, id string) error {
	if err := access.Require(caller, access.ActionDepartmentManage); err != nil {
		return err
	}

	if _, err := s.get(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.Employee.CountByDepartment(ctx, id)
	if err != nil {
		s.logger.Error("查询部门员工数失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if count > 0 {
		return ErrDepartmentHasEmployees
	}

	if err := s.repo.Department.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return ErrDepartmentHasEmployees
		}
		s.logger.Error("删除部门失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

// assignManager 一对一不变式的唯一入口：
// 经理必须是 manager 角色，且不能已负责其他部门（数据库唯一索引兜底并发情况）
func assignManager(ctx context.Context, repo *repository.Repository, departmentID string, manager *model.User, callerID string) error {
	if manager.Role != model.RoleManager {
		return ErrUserNotManager
	}
	if err := ensureManagerFree(ctx, repo, manager.UserID, departmentID); err != nil {
		return err
	}

	if err := repo.Department.AssignManager(ctx, departmentID, manager.UserID, callerID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrManagerAlreadyAssigned
		}
		return err
	}
	return nil
}

// ensureManagerFree 经理未负责 exceptDeptID 以外的部门
func ensureManagerFree(ctx context.Context, repo *repository.Repository, managerID, exceptDeptID string) error {
	current, err := repo.Department.GetByManager(ctx, managerID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if current != nil && current.DepartmentID != exceptDeptID {
		return ErrManagerAlreadyAssigned
	}
	return nil
}

func (s *departmentService) loadManager(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrManagerNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if user.Role != model.RoleManager {
		return nil, ErrUserNotManager
	}
	return user, nil
}

func (s *departmentService) ensureNameFree(ctx context.Context, name string) error {
	existing, err := s.repo.Department.GetByName(ctx, name)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询部门失败", zap.Error(err))
		return err
	}
	if existing != nil {
		return ErrDepartmentNameExists
	}
	return nil
}

func (s *departmentService) get(ctx context.Context, id string) (*model.Department, error) {
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

func (s *departmentService) reload(ctx context.Context, id string) (*dto.DepartmentResponse, error) {
	dept, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.Employee.CountByDepartment(ctx, id)
	if err != nil {
		s.logger.Warn("查询部门员工数失败", zap.String("id", id), zap.Error(err))
	}
	resp := toDepartmentResponse(dept, count)
	return &resp, nil
}

func toDepartmentResponse(d *model.Department, employeeCount int64) dto.DepartmentResponse {
	return dto.DepartmentResponse{
		ID:            d.DepartmentID,
		Name:          d.Name,
		Manager:       toUserBrief(d.Manager),
		EmployeeCount: employeeCount,
		CreatedAt:     formatTime(d.CreatedAt),
		UpdatedAt:     formatTime(d.UpdatedAt),
	}
}
