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

// ── 缺勤原因模块业务错误 ──

var (
	ErrReasonNotFound   = apperrors.New(apperrors.KindNotFound, 24001, "缺勤原因不存在")
	ErrReasonNameExists = apperrors.New(apperrors.KindConflict, 24002, "缺勤原因名称已存在")
	ErrReasonInUse      = apperrors.New(apperrors.KindConflict, 24003, "缺勤原因已被请假记录引用，无法删除")
	ErrNoDepartment     = apperrors.New(apperrors.KindForbidden, 24004, "经理尚未归属任何部门")
)

// AbsenceReasonService 缺勤原因业务接口
// 缺勤原因归属创建它的经理所在部门，仅该部门经理可修改
type AbsenceReasonService interface {
	Create(ctx context.Context, caller access.Caller, req *dto.CreateAbsenceReasonRequest) (*dto.AbsenceReasonResponse, error)
	GetByID(ctx context.Context, caller access.Caller, id string) (*dto.AbsenceReasonResponse, error)
	List(ctx context.Context, caller access.Caller) ([]dto.AbsenceReasonResponse, error)
	Update(ctx context.Context, caller access.Caller, id string, req *dto.UpdateAbsenceReasonRequest) (*dto.AbsenceReasonResponse, error)
	Delete(ctx context.Context, caller access.Caller, id string) error
}

type absenceReasonService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAbsenceReasonService 创建 AbsenceReasonService 实例
func NewAbsenceReasonService(repo *repository.Repository, logger *zap.Logger) AbsenceReasonService {
	return &absenceReasonService{repo: repo, logger: logger}
}

func (s *absenceReasonService) Create(ctx context.Context, caller access.Caller, req *dto.CreateAbsenceReasonRequest) (*dto.AbsenceReasonResponse, error) {
	if err := access.Require(caller, access.ActionReasonWrite); err != nil {
		return nil, err
	}
	if caller.DepartmentID == "" {
		return nil, ErrNoDepartment
	}

	if err := s.ensureNameFree(ctx, req.Name); err != nil {
		return nil, err
	}

	deptID := caller.DepartmentID
	reason := &model.AbsenceReason{
		Name:         req.Name,
		Description:  req.Description,
		DepartmentID: &deptID,
		IsActive:     true,
	}
	reason.BaseModel = model.Audit(caller.UserID)

	if err := s.repo.AbsenceReason.Create(ctx, reason); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrReasonNameExists
		}
		s.logger.Error("创建缺勤原因失败", zap.Error(err))
		return nil, err
	}

	resp := toAbsenceReasonResponse(reason)
	return &resp, nil
}

func (s *absenceReasonService) GetByID(ctx context.Context, caller access.Caller, id string) (*dto.AbsenceReasonResponse, error) {
	if err := access.Require(caller, access.ActionReasonRead); err != nil {
		return nil, err
	}

	reason, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.For(caller).Contains(reasonDepartment(reason)) {
		return nil, ErrReasonNotFound
	}

	resp := toAbsenceReasonResponse(reason)
	return &resp, nil
}

func (s *absenceReasonService) List(ctx context.Context, caller access.Caller) ([]dto.AbsenceReasonResponse, error) {
	if err := access.Require(caller, access.ActionReasonRead); err != nil {
		return nil, err
	}

	deptID, ok := access.For(caller).Narrow("")
	if !ok {
		return []dto.AbsenceReasonResponse{}, nil
	}

	reasons, err := s.repo.AbsenceReason.List(ctx, deptID)
	if err != nil {
		s.logger.Error("查询缺勤原因失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.AbsenceReasonResponse, 0, len(reasons))
	for i := range reasons {
		result = append(result, toAbsenceReasonResponse(&reasons[i]))
	}
	return result, nil
}

func (s *absenceReasonService) Update(ctx context.Context, caller access.Caller, id string, req *dto.UpdateAbsenceReasonRequest) (*dto.AbsenceReasonResponse, error) {
	reason, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(caller, access.ActionReasonWrite, reasonDepartment(reason)); err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != reason.Name {
		if err := s.ensureNameFree(ctx, *req.Name); err != nil {
			return nil, err
		}
		reason.Name = *req.Name
	}
	if req.Description != nil {
		reason.Description = *req.Description
	}
	if req.IsActive != nil {
		reason.IsActive = *req.IsActive
	}
	reason.UpdatedBy = &caller.UserID

	if err := s.repo.AbsenceReason.Update(ctx, reason); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrReasonNameExists
		}
		s.logger.Error("更新缺勤原因失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	resp := toAbsenceReasonResponse(reason)
	return &resp, nil
}

func (s *absenceReasonService) Delete(ctx context.Context, caller access.Caller, id string) error {
	reason, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := access.Authorize(caller, access.ActionReasonWrite, reasonDepartment(reason)); err != nil {
		return err
	}

	used, err := s.repo.Leave.CountByReason(ctx, id)
	if err != nil {
		s.logger.Error("查询缺勤原因引用失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if used > 0 {
		return ErrReasonInUse
	}

	if err := s.repo.AbsenceReason.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return ErrReasonInUse
		}
		s.logger.Error("删除缺勤原因失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *absenceReasonService) get(ctx context.Context, id string) (*model.AbsenceReason, error) {
	reason, err := s.repo.AbsenceReason.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReasonNotFound
		}
		s.logger.Error("查询缺勤原因失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return reason, nil
}

func (s *absenceReasonService) ensureNameFree(ctx context.Context, name string) error {
	existing, err := s.repo.AbsenceReason.GetByName(ctx, name)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询缺勤原因失败", zap.Error(err))
		return err
	}
	if existing != nil {
		return ErrReasonNameExists
	}
	return nil
}

func reasonDepartment(r *model.AbsenceReason) string {
	if r.DepartmentID == nil {
		return ""
	}
	return *r.DepartmentID
}

func toAbsenceReasonResponse(r *model.AbsenceReason) dto.AbsenceReasonResponse {
	return dto.AbsenceReasonResponse{
		ID:           r.ReasonID,
		Name:         r.Name,
		Description:  r.Description,
		DepartmentID: reasonDepartment(r),
		IsActive:     r.IsActive,
	}
}
