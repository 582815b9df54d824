package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mrbenboyy/gestion-pointage-backend/internal/access"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/dto"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/model"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/repository"
)

// StatsService 仪表盘统计接口
//
// 缺勤率 = 100 × 任一半天缺勤的考勤记录数 / 考勤记录总数，保留两位小数；
// 分母为 0 时为 "0.00"。
type StatsService interface {
	Admin(ctx context.Context, caller access.Caller) (*dto.AdminStatsResponse, error)
	Manager(ctx context.Context, caller access.Caller) (*dto.ManagerStatsResponse, error)
	Supervisor(ctx context.Context, caller access.Caller) (*dto.SupervisorStatsResponse, error)
}

type statsService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewStatsService 创建 StatsService 实例
func NewStatsService(repo *repository.Repository, logger *zap.Logger) StatsService {
	return &statsService{repo: repo, logger: logger}
}

// ────────────────────── Admin ──────────────────────

func (s *statsService) Admin(ctx context.Context, caller access.Caller) (*dto.AdminStatsResponse, error) {
	if err := access.Require(caller, access.ActionStatsAdmin); err != nil {
		return nil, err
	}

	active, err := s.repo.Employee.CountActive(ctx)
	if err != nil {
		return nil, s.fail("统计在职员工失败", err)
	}
	departments, err := s.repo.Department.Count(ctx)
	if err != nil {
		return nil, s.fail("统计部门数失败", err)
	}
	rate, err := s.absenceRate(ctx, repository.AttendanceFilters{})
	if err != nil {
		return nil, err
	}
	pending, err := s.repo.Leave.Count(ctx, repository.LeaveFilters{Status: model.LeaveStatusPending})
	if err != nil {
		return nil, s.fail("统计待审批请假失败", err)
	}

	return &dto.AdminStatsResponse{
		ActiveEmployees: active,
		DepartmentCount: departments,
		AbsenceRate:     rate,
		PendingLeaves:   pending,
	}, nil
}

// ────────────────────── Manager ──────────────────────

func (s *statsService) Manager(ctx context.Context, caller access.Caller) (*dto.ManagerStatsResponse, error) {
	if err := access.Require(caller, access.ActionStatsManager); err != nil {
		return nil, err
	}

	// 经理必须归属一个存在的部门
	if caller.DepartmentID == "" {
		return nil, ErrNoDepartment
	}
	if _, err := s.repo.Department.GetByID(ctx, caller.DepartmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		return nil, s.fail("查询部门失败", err)
	}

	ids, _, err := scopedEmployeeIDs(ctx, s.repo, access.For(caller))
	if err != nil {
		return nil, s.fail("查询部门员工失败", err)
	}
	if len(ids) == 0 {
		return &dto.ManagerStatsResponse{AbsenceRate: formatRate(0, 0)}, nil
	}

	scoped := repository.AttendanceFilters{EmployeeIDs: ids, RestrictEmployees: true}
	rate, err := s.absenceRate(ctx, scoped)
	if err != nil {
		return nil, err
	}

	lateFilters := scoped
	lateFilters.LateOnly = true
	late, err := s.repo.Attendance.Count(ctx, lateFilters)
	if err != nil {
		return nil, s.fail("统计迟到记录失败", err)
	}

	pending, err := s.repo.Leave.Count(ctx, repository.LeaveFilters{
		Status:            model.LeaveStatusPending,
		EmployeeIDs:       ids,
		RestrictEmployees: true,
	})
	if err != nil {
		return nil, s.fail("统计待审批请假失败", err)
	}

	return &dto.ManagerStatsResponse{
		TotalEmployees:  int64(len(ids)),
		AbsenceRate:     rate,
		LateAttendances: late,
		PendingLeaves:   pending,
	}, nil
}

// ────────────────────── Supervisor ──────────────────────

func (s *statsService) Supervisor(ctx context.Context, caller access.Caller) (*dto.SupervisorStatsResponse, error) {
	if err := access.Require(caller, access.ActionStatsSupervisor); err != nil {
		return nil, err
	}

	depts, err := s.repo.Department.List(ctx)
	if err != nil {
		return nil, s.fail("列出部门失败", err)
	}

	stats := make([]dto.DepartmentStats, 0, len(depts))
	for _, d := range depts {
		item, err := s.departmentStats(ctx, &d)
		if err != nil {
			return nil, err
		}
		stats = append(stats, item)
	}

	toApprove, err := s.repo.Leave.Count(ctx, repository.LeaveFilters{Status: model.LeaveStatusPending})
	if err != nil {
		return nil, s.fail("统计待审批请假失败", err)
	}

	return &dto.SupervisorStatsResponse{
		DepartmentStats: stats,
		LeavesToApprove: toApprove,
	}, nil
}

// ── 内部辅助方法 ──

func (s *statsService) departmentStats(ctx context.Context, d *model.Department) (dto.DepartmentStats, error) {
	item := dto.DepartmentStats{
		DepartmentID:   d.DepartmentID,
		DepartmentName: d.Name,
		AbsenceRate:    formatRate(0, 0),
	}

	ids, err := s.repo.Employee.ListIDsByDepartment(ctx, d.DepartmentID)
	if err != nil {
		return item, s.fail("查询部门员工失败", err)
	}
	item.TotalEmployees = int64(len(ids))
	if len(ids) == 0 {
		return item, nil
	}

	rate, err := s.absenceRate(ctx, repository.AttendanceFilters{EmployeeIDs: ids, RestrictEmployees: true})
	if err != nil {
		return item, err
	}
	item.AbsenceRate = rate

	pending, err := s.repo.Leave.Count(ctx, repository.LeaveFilters{
		Status:            model.LeaveStatusPending,
		EmployeeIDs:       ids,
		RestrictEmployees: true,
	})
	if err != nil {
		return item, s.fail("统计待审批请假失败", err)
	}
	item.PendingLeaves = pending
	return item, nil
}

// absenceRate 在给定范围内统计缺勤率
func (s *statsService) absenceRate(ctx context.Context, scope repository.AttendanceFilters) (string, error) {
	total, err := s.repo.Attendance.Count(ctx, scope)
	if err != nil {
		return "", s.fail("统计考勤记录失败", err)
	}
	if total == 0 {
		return formatRate(0, 0), nil
	}

	absentFilters := scope
	absentFilters.AbsentOnly = true
	absent, err := s.repo.Attendance.Count(ctx, absentFilters)
	if err != nil {
		return "", s.fail("统计缺勤记录失败", err)
	}
	return formatRate(absent, total), nil
}

func (s *statsService) fail(msg string, err error) error {
	s.logger.Error(msg, zap.Error(err))
	return err
}

// formatRate 百分比保留两位小数，分母为 0 时返回 "0.00"
func formatRate(part, total int64) string {
	if total == 0 {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", float64(part)*100/float64(total))
}
