package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mrbenboyy/gestion-pointage-backend/config"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/access"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/dto"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/model"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/repository"
	apperrors "github.com/mrbenboyy/gestion-pointage-backend/pkg/errors"
	"github.com/mrbenboyy/gestion-pointage-backend/pkg/jwt"
)

// ── 通用业务错误 ──

var (
	ErrInvalidDate      = apperrors.New(apperrors.KindValidation, 10001, "日期格式错误，应为 YYYY-MM-DD")
	ErrInvalidDateRange = apperrors.New(apperrors.KindValidation, 10002, "结束日期不能早于开始日期")
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth          AuthService
	User          UserService
	Department    DepartmentService
	Employee      EmployeeService
	AbsenceReason AbsenceReasonService
	Attendance    AttendanceService
	Leave         LeaveService
	Stats         StatsService
	Export        ExportService
}

// NewService 创建 Service 聚合
// tokens 为 nil 时（Redis 不可用）注销不入黑名单，密码重置不可用；
// 重置令牌投递方式由 auth.reset_delivery 决定
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	tokens TokenStore,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:          NewAuthService(cfg, repo, jwtMgr, tokens, NewResetTokenSender(cfg.Auth.ResetDelivery, logger), logger),
		User:          NewUserService(repo, logger),
		Department:    NewDepartmentService(repo, logger),
		Employee:      NewEmployeeService(repo, logger),
		AbsenceReason: NewAbsenceReasonService(repo, logger),
		Attendance:    NewAttendanceService(repo, logger),
		Leave:         NewLeaveService(repo, logger),
		Stats:         NewStatsService(repo, logger),
		Export:        NewExportService(repo, logger),
	}
}

// ── 内部辅助方法 ──

// parseDate 解析 YYYY-MM-DD，统一按 UTC 零点处理
func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(model.DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// parseOptionalDate 空串表示未提供
func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// scopedEmployeeIDs 把访问范围转换成员工 ID 集合。
// restrict=false 表示不受限；restrict=true 时仅 ids 内的员工可见（可能为空）。
func scopedEmployeeIDs(ctx context.Context, repo *repository.Repository, scope access.Scope) (ids []string, restrict bool, err error) {
	deptID, restricted := scope.DepartmentID()
	if !restricted {
		return nil, false, nil
	}
	if scope.Empty() {
		return []string{}, true, nil
	}
	ids, err = repo.Employee.ListIDsByDepartment(ctx, deptID)
	if err != nil {
		return nil, true, err
	}
	return ids, true, nil
}

func formatTime(t time.Time) string {
	return t.Format(dto.DateTimeLayout)
}

func toUserBrief(u *model.User) *dto.UserBrief {
	if u == nil {
		return nil
	}
	return &dto.UserBrief{ID: u.UserID, Name: u.Name}
}

func toDepartmentBrief(d *model.Department) *dto.DepartmentBrief {
	if d == nil {
		return nil
	}
	return &dto.DepartmentBrief{ID: d.DepartmentID, Name: d.Name}
}

func toEmployeeBrief(e *model.Employee) *dto.EmployeeBrief {
	if e == nil {
		return nil
	}
	return &dto.EmployeeBrief{ID: e.EmployeeID, Name: e.Name, DepartmentID: e.DepartmentID}
}
