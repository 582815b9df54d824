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

// ── 请假模块业务错误 ──

var (
	ErrLeaveNotFound     = apperrors.New(apperrors.KindNotFound, 26001, "请假申请不存在")
	ErrLeaveNotPending   = apperrors.New(apperrors.KindInvalidState, 26002, "请假申请已审批，不能再修改")
	ErrLeaveNotRequester = apperrors.New(apperrors.KindForbidden, 26003, "仅申请人可修改或撤销请假申请")
	ErrReasonInactive    = apperrors.New(apperrors.KindValidation, 26004, "缺勤原因已停用")
)

// LeaveService 请假业务接口
//
// 状态机：pending → approved | rejected，决定后锁定。
// 修改 / 撤销仅限申请人且仅在 pending 时；审批仅限 supervisor。
type LeaveService interface {
	Create(ctx context.Context, caller access.Caller, req *dto.CreateLeaveRequest) (*dto.LeaveResponse, error)
	GetByID(ctx context.Context, caller access.Caller, id string) (*dto.LeaveResponse, error)
	List(ctx context.Context, caller access.Caller, req *dto.LeaveListRequest) ([]dto.LeaveResponse, error)
	Update(ctx context.Context, caller access.Caller, id string, req *dto.UpdateLeaveRequest) (*dto.LeaveResponse, error)
	Delete(ctx context.Context, caller access.Caller, id string) error
	Approve(ctx context.Context, caller access.Caller, id string, req *dto.ApproveLeaveRequest) (*dto.LeaveResponse, error)
}

type leaveService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewLeaveService 创建 LeaveService 实例
func NewLeaveService(repo *repository.Repository, logger *zap.Logger) LeaveService {
	return &leaveService{repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── Create ──────────────────────

func (s *leaveService) Create(ctx context.Context, caller access.Caller, req *dto.CreateLeaveRequest) (*dto.LeaveResponse, error) {
	if err := access.Require(caller, access.ActionLeaveRequest); err != nil {
		return nil, err
	}

	start, end, err := parseLeaveDates(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	emp, err := s.repo.Employee.GetByID(ctx, req.EmployeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		s.logger.Error("查询员工失败", zap.String("employee_id", req.EmployeeID), zap.Error(err))
		return nil, err
	}
	if err := access.Authorize(caller, access.ActionLeaveRequest, emp.DepartmentID); err != nil {
		return nil, err
	}

	if err := s.ensureReasonUsable(ctx, caller, req.ReasonID); err != nil {
		return nil, err
	}

	leave := &model.Leave{
		EmployeeID:  emp.EmployeeID,
		ReasonID:    req.ReasonID,
		StartDate:   start,
		EndDate:     end,
		Comments:    req.Comments,
		Status:      model.LeaveStatusPending,
		RequestedBy: caller.UserID,
	}
	leave.BaseModel = model.Audit(caller.UserID)

	if err := s.repo.Leave.Create(ctx, leave); err != nil {
		s.logger.Error("创建请假申请失败", zap.Error(err))
		return nil, err
	}

	return s.reload(ctx, leave.LeaveID)
}

// ────────────────────── GetByID ──────────────────────

func (s *leaveService) GetByID(ctx context.Context, caller access.Caller, id string) (*dto.LeaveResponse, error) {
	if err := access.Require(caller, access.ActionLeaveRead); err != nil {
		return nil, err
	}

	leave, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	deptID, err := s.leaveDepartment(ctx, leave)
	if err != nil {
		return nil, err
	}
	if !access.For(caller).Contains(deptID) {
		return nil, ErrLeaveNotFound
	}

	resp := toLeaveResponse(leave)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *leaveService) List(ctx context.Context, caller access.Caller, req *dto.LeaveListRequest) ([]dto.LeaveResponse, error) {
	if err := access.Require(caller, access.ActionLeaveRead); err != nil {
		return nil, err
	}

	ids, restrict, err := scopedEmployeeIDs(ctx, s.repo, access.For(caller))
	if err != nil {
		s.logger.Error("查询部门员工失败", zap.Error(err))
		return nil, err
	}
	if restrict && len(ids) == 0 {
		return []dto.LeaveResponse{}, nil
	}

	leaves, err := s.repo.Leave.List(ctx, repository.LeaveFilters{
		Status:            req.Status,
		EmployeeID:        req.EmployeeID,
		EmployeeIDs:       ids,
		RestrictEmployees: restrict,
	})
	if err != nil {
		s.logger.Error("查询请假列表失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.LeaveResponse, 0, len(leaves))
	for i := range leaves {
		result = append(result, toLeaveResponse(&leaves[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *leaveService) Update(ctx context.Context, caller access.Caller, id string, req *dto.UpdateLeaveRequest) (*dto.LeaveResponse, error) {
	leave, err := s.editable(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	changes := repository.LeaveChanges{
		ReasonID:  leave.ReasonID,
		StartDate: leave.StartDate,
		EndDate:   leave.EndDate,
		Comments:  leave.Comments,
		UpdatedBy: caller.UserID,
	}

	if req.ReasonID != nil && *req.ReasonID != leave.ReasonID {
		if err := s.ensureReasonUsable(ctx, caller, *req.ReasonID); err != nil {
			return nil, err
		}
		changes.ReasonID = *req.ReasonID
	}
	if req.StartDate != nil {
		d, err := parseDate(*req.StartDate)
		if err != nil {
			return nil, err
		}
		changes.StartDate = d
	}
	if req.EndDate != nil {
		d, err := parseDate(*req.EndDate)
		if err != nil {
			return nil, err
		}
		changes.EndDate = d
	}
	if changes.EndDate.Before(changes.StartDate) {
		return nil, ErrInvalidDateRange
	}
	if req.Comments != nil {
		changes.Comments = *req.Comments
	}

	// 以 status = pending 为条件原子更新，期间被审批则未命中
	if err := s.repo.Leave.UpdatePending(ctx, id, caller.UserID, changes); err != nil {
		if errors.Is(err, repository.ErrConditionNotMet) {
			return nil, ErrLeaveNotPending
		}
		s.logger.Error("更新请假申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.reload(ctx, id)
}

// ────────────────────── Delete ──────────────────────

func (s *leaveService) Delete(ctx context.Context, caller access.Caller, id string) error {
	if _, err := s.editable(ctx, caller, id); err != nil {
		return err
	}

	if err := s.repo.Leave.DeletePending(ctx, id, caller.UserID); err != nil {
		if errors.Is(err, repository.ErrConditionNotMet) {
			return ErrLeaveNotPending
		}
		s.logger.Error("删除请假申请失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Approve ──────────────────────

func (s *leaveService) Approve(ctx context.Context, caller access.Caller, id string, req *dto.ApproveLeaveRequest) (*dto.LeaveResponse, error) {
	if err := access.Require(caller, access.ActionLeaveApprove); err != nil {
		return nil, err
	}

	leave, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !leave.IsPending() {
		return nil, ErrLeaveNotPending
	}

	decision := repository.LeaveDecision{
		Status:     req.Status,
		Comments:   req.Comments,
		ApprovedBy: caller.UserID,
		DecidedAt:  s.now(),
	}
	if err := s.repo.Leave.Decide(ctx, id, decision); err != nil {
		if errors.Is(err, repository.ErrConditionNotMet) {
			return nil, ErrLeaveNotPending
		}
		s.logger.Error("审批请假申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("请假申请已审批",
		zap.String("leave_id", id),
		zap.String("status", req.Status),
		zap.String("approver", caller.UserID))

	return s.reload(ctx, id)
}

// ── 内部辅助方法 ──

// editable 修改 / 撤销的前置条件：角色 → 申请人 → 部门 → pending
func (s *leaveService) editable(ctx context.Context, caller access.Caller, id string) (*model.Leave, error) {
	if err := access.Require(caller, access.ActionLeaveRequest); err != nil {
		return nil, err
	}

	leave, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if leave.RequestedBy != caller.UserID {
		return nil, ErrLeaveNotRequester
	}
	deptID, err := s.leaveDepartment(ctx, leave)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(caller, access.ActionLeaveRequest, deptID); err != nil {
		return nil, err
	}
	if !leave.IsPending() {
		return nil, ErrLeaveNotPending
	}
	return leave, nil
}

// ensureReasonUsable 缺勤原因存在、启用且在调用方可见范围内
func (s *leaveService) ensureReasonUsable(ctx context.Context, caller access.Caller, reasonID string) error {
	reason, err := s.repo.AbsenceReason.GetByID(ctx, reasonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReasonNotFound
		}
		s.logger.Error("查询缺勤原因失败", zap.String("reason_id", reasonID), zap.Error(err))
		return err
	}
	if !access.For(caller).Contains(reasonDepartment(reason)) {
		return ErrReasonNotFound
	}
	if !reason.IsActive {
		return ErrReasonInactive
	}
	return nil
}

// leaveDepartment 请假所属员工的部门
func (s *leaveService) leaveDepartment(ctx context.Context, leave *model.Leave) (string, error) {
	if leave.Employee != nil {
		return leave.Employee.DepartmentID, nil
	}
	emp, err := s.repo.Employee.GetByID(ctx, leave.EmployeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrEmployeeNotFound
		}
		return "", err
	}
	return emp.DepartmentID, nil
}

func (s *leaveService) get(ctx context.Context, id string) (*model.Leave, error) {
	leave, err := s.repo.Leave.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeaveNotFound
		}
		s.logger.Error("查询请假申请失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return leave, nil
}

func (s *leaveService) reload(ctx context.Context, id string) (*dto.LeaveResponse, error) {
	leave, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toLeaveResponse(leave)
	return &resp, nil
}

func parseLeaveDates(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := parseDate(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	return start, end, nil
}

func toLeaveResponse(l *model.Leave) dto.LeaveResponse {
	resp := dto.LeaveResponse{
		ID:          l.LeaveID,
		Employee:    toEmployeeBrief(l.Employee),
		StartDate:   l.StartDate.Format(model.DateLayout),
		EndDate:     l.EndDate.Format(model.DateLayout),
		Comments:    l.Comments,
		Status:      l.Status,
		RequestedBy: toUserBrief(l.Requester),
		ApprovedBy:  toUserBrief(l.Approver),
	}
	if l.Reason != nil {
		resp.Reason = &dto.ReasonBrief{ID: l.Reason.ReasonID, Name: l.Reason.Name}
	}
	if l.DecidedAt != nil {
		resp.DecidedAt = formatTime(*l.DecidedAt)
	}
	return resp
}
