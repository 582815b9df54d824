package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mrbenboyy/gestion-pointage-backend/internal/access"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/dto"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/model"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/repository"
	apperrors "github.com/mrbenboyy/gestion-pointage-backend/pkg/errors"
)

// ── 员工模块业务错误 ──

var ErrEmployeeNotFound = apperrors.New(apperrors.KindNotFound, 23001, "员工不存在")

// EmployeeService 员工业务接口
// 经理只能读写本部门员工；读取其他部门员工按不存在处理
type EmployeeService interface {
	Create(ctx context.Context, caller access.Caller, req *dto.CreateEmployeeRequest) (*dto.EmployeeResponse, error)
	GetByID(ctx context.Context, caller access.Caller, id string) (*dto.EmployeeResponse, error)
	List(ctx context.Context, caller access.Caller, req *dto.EmployeeListRequest) ([]dto.EmployeeResponse, error)
	Update(ctx context.Context, caller access.Caller, id string, req *dto.UpdateEmployeeRequest) (*dto.EmployeeResponse, error)
	Delete(ctx context.Context, caller access.Caller, id string) error
}

type employeeService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewEmployeeService 创建 EmployeeService 实例
func NewEmployeeService(repo *repository.Repository, logger *zap.Logger) EmployeeService {
	return &employeeService{repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── Create ──────────────────────

func (s *employeeService) Create(ctx context.Context, caller access.Caller, req *dto.CreateEmployeeRequest) (*dto.EmployeeResponse, error) {
	if err := access.Authorize(caller, access.ActionEmployeeWrite, req.DepartmentID); err != nil {
		return nil, err
	}

	if err := s.ensureDepartment(ctx, req.DepartmentID); err != nil {
		return nil, err
	}

	hireDate := truncateToDate(s.now())
	if req.HireDate != nil {
		d, err := parseDate(*req.HireDate)
		if err != nil {
			return nil, err
		}
		hireDate = d
	}

	emp := &model.Employee{
		Name:         req.Name,
		DepartmentID: req.DepartmentID,
		Position:     req.Position,
		HireDate:     hireDate,
		Status:       model.EmployeeStatusActive,
	}
	emp.BaseModel = model.Audit(caller.UserID)
	emp.Version = 1

	if err := s.repo.Employee.Create(ctx, emp); err != nil {
		s.logger.Error("创建员工失败", zap.Error(err))
		return nil, err
	}

	return s.reload(ctx, emp.EmployeeID)
}

// ────────────────────── GetByID ──────────────────────

func (s *employeeService) GetByID(ctx context.Context, caller access.Caller, id string) (*dto.EmployeeResponse, error) {
	if err := access.Require(caller, access.ActionEmployeeRead); err != nil {
		return nil, err
	}

	emp, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.For(caller).Contains(emp.DepartmentID) {
		return nil, ErrEmployeeNotFound
	}

	resp := toEmployeeResponse(emp)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *employeeService) List(ctx context.Context, caller access.Caller, req *dto.EmployeeListRequest) ([]dto.EmployeeResponse, error) {
	if err := access.Require(caller, access.ActionEmployeeRead); err != nil {
		return nil, err
	}

	deptID, ok := access.For(caller).Narrow(req.DepartmentID)
	if !ok {
		return []dto.EmployeeResponse{}, nil
	}

	emps, err := s.repo.Employee.List(ctx, repository.EmployeeListFilters{
		DepartmentID: deptID,
		Status:       req.Status,
	})
	if err != nil {
		s.logger.Error("查询员工列表失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.EmployeeResponse, 0, len(emps))
	for i := range emps {
		result = append(result, toEmployeeResponse(&emps[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *employeeService) Update(ctx context.Context, caller access.Caller, id string, req *dto.UpdateEmployeeRequest) (*dto.EmployeeResponse, error) {
	emp, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(caller, access.ActionEmployeeWrite, emp.DepartmentID); err != nil {
		return nil, err
	}

	// 客户端携带的版本号已过期
	if req.Version != nil && *req.Version != emp.Version {
		return nil, apperrors.ErrOptimisticLock
	}

	if req.DepartmentID != nil && *req.DepartmentID != emp.DepartmentID {
		// 调入的部门同样需要在权限范围内
		if err := access.Authorize(caller, access.ActionEmployeeWrite, *req.DepartmentID); err != nil {
			return nil, err
		}
		if err := s.ensureDepartment(ctx, *req.DepartmentID); err != nil {
			return nil, err
		}
		emp.DepartmentID = *req.DepartmentID
	}
	if req.Name != nil {
		emp.Name = *req.Name
	}
	if req.Position != nil {
		emp.Position = *req.Position
	}
	if req.Status != nil {
		emp.Status = *req.Status
	}
	emp.UpdatedBy = &caller.UserID

	if err := s.repo.Employee.Update(ctx, emp); err != nil {
		if !errors.Is(err, apperrors.ErrOptimisticLock) {
			s.logger.Error("更新员工失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	return s.reload(ctx, id)
}

// ────────────────────── Delete ──────────────────────

func (s *employeeService) Delete(ctx context.Context, caller access.Caller, id string) error {
	emp, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := access.Authorize(caller, access.ActionEmployeeWrite, emp.DepartmentID); err != nil {
		return err
	}

	if err := s.repo.Employee.Delete(ctx, id); err != nil {
		s.logger.Error("删除员工失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *employeeService) ensureDepartment(ctx context.Context, id string) error {
	if _, err := s.repo.Department.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDepartmentNotFound
		}
		s.logger.Error("查询部门失败", zap.String("department_id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *employeeService) get(ctx context.Context, id string) (*model.Employee, error) {
	emp, err := s.repo.Employee.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		s.logger.Error("查询员工失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return emp, nil
}

func (s *employeeService) reload(ctx context.Context, id string) (*dto.EmployeeResponse, error) {
	emp, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toEmployeeResponse(emp)
	return &resp, nil
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func toEmployeeResponse(e *model.Employee) dto.EmployeeResponse {
	return dto.EmployeeResponse{
		ID:         e.EmployeeID,
		Name:       e.Name,
		Department: toDepartmentBrief(e.Department),
		Position:   e.Position,
		HireDate:   e.HireDate.Format(model.DateLayout),
		Status:     e.Status,
		Version:    e.Version,
	}
}
