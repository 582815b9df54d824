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
)

// 半天的标准上班时间（不可配置）
const (
	morningStartHour   = 8
	afternoonStartHour = 14
)

// AttendanceService 考勤业务接口
type AttendanceService interface {
	// Record 记录某员工某天的考勤；同一天再次提交整体覆盖原记录
	Record(ctx context.Context, caller access.Caller, req *dto.RecordAttendanceRequest) (*dto.AttendanceResponse, error)
	List(ctx context.Context, caller access.Caller, req *dto.AttendanceListRequest) ([]dto.AttendanceResponse, error)
}

type attendanceService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(repo *repository.Repository, logger *zap.Logger) AttendanceService {
	return &attendanceService{repo: repo, logger: logger}
}

// ────────────────────── Record ──────────────────────

func (s *attendanceService) Record(ctx context.Context, caller access.Caller, req *dto.RecordAttendanceRequest) (*dto.AttendanceResponse, error) {
	if err := access.Require(caller, access.ActionAttendanceRecord); err != nil {
		return nil, err
	}

	day, err := parseDate(req.Date)
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
	if err := access.Authorize(caller, access.ActionAttendanceRecord, emp.DepartmentID); err != nil {
		return nil, err
	}

	att := &model.Attendance{
		EmployeeID: emp.EmployeeID,
		Date:       day,
		Morning:    computeHalfDay(day, morningStartHour, req.Morning),
		Afternoon:  computeHalfDay(day, afternoonStartHour, req.Afternoon),
		RecordedBy: caller.UserID,
		Comments:   req.Comments,
	}
	att.BaseModel = model.Audit(caller.UserID)

	saved, err := s.repo.Attendance.Upsert(ctx, att)
	if err != nil {
		s.logger.Error("保存考勤失败",
			zap.String("employee_id", emp.EmployeeID),
			zap.String("date", req.Date),
			zap.Error(err))
		return nil, err
	}

	resp := toAttendanceResponse(saved)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *attendanceService) List(ctx context.Context, caller access.Caller, req *dto.AttendanceListRequest) ([]dto.AttendanceResponse, error) {
	if err := access.Require(caller, access.ActionAttendanceRead); err != nil {
		return nil, err
	}

	filters, err := attendanceFilters(req.EmployeeID, req.From, req.To)
	if err != nil {
		return nil, err
	}

	ids, restrict, err := scopedEmployeeIDs(ctx, s.repo, access.For(caller))
	if err != nil {
		s.logger.Error("查询部门员工失败", zap.Error(err))
		return nil, err
	}
	if restrict && len(ids) == 0 {
		return []dto.AttendanceResponse{}, nil
	}
	filters.EmployeeIDs, filters.RestrictEmployees = ids, restrict

	list, err := s.repo.Attendance.List(ctx, filters)
	if err != nil {
		s.logger.Error("查询考勤失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.AttendanceResponse, 0, len(list))
	for i := range list {
		result = append(result, toAttendanceResponse(&list[i]))
	}
	return result, nil
}

// ── 考勤计算 ──

// LateMinutes 迟到分钟数：向下取整，早到记 0
func LateMinutes(actual, expected time.Time) int {
	diff := actual.Sub(expected)
	if diff <= 0 {
		return 0
	}
	return int(diff / time.Minute)
}

// expectedStart 标准上班时间，取打卡时间所在时区的墙上时间
func expectedStart(day time.Time, hour int, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, loc)
}

// computeHalfDay 有到岗时间即为 present 并计算迟到；否则取显式状态，缺省 absent
func computeHalfDay(day time.Time, hour int, in dto.HalfDayInput) model.HalfDay {
	if in.Start != nil {
		start := *in.Start
		return model.HalfDay{
			Start:       &start,
			End:         in.End,
			Status:      model.AttendanceStatusPresent,
			LateMinutes: LateMinutes(start, expectedStart(day, hour, start.Location())),
		}
	}

	status := model.AttendanceStatusAbsent
	if in.Status != nil {
		status = *in.Status
	}
	return model.HalfDay{End: in.End, Status: status}
}

// attendanceFilters 组装查询条件，日期区间两端均可省略
func attendanceFilters(employeeID, from, to string) (repository.AttendanceFilters, error) {
	filters := repository.AttendanceFilters{EmployeeID: employeeID}

	fromDate, err := parseOptionalDate(from)
	if err != nil {
		return filters, err
	}
	toDate, err := parseOptionalDate(to)
	if err != nil {
		return filters, err
	}
	if fromDate != nil && toDate != nil && toDate.Before(*fromDate) {
		return filters, ErrInvalidDateRange
	}

	filters.From, filters.To = fromDate, toDate
	return filters, nil
}

func toHalfDayResponse(h model.HalfDay) dto.HalfDayResponse {
	resp := dto.HalfDayResponse{Status: h.Status, LateMinutes: h.LateMinutes}
	if h.Start != nil {
		resp.Start = formatTime(*h.Start)
	}
	if h.End != nil {
		resp.End = formatTime(*h.End)
	}
	return resp
}

func toAttendanceResponse(a *model.Attendance) dto.AttendanceResponse {
	return dto.AttendanceResponse{
		ID:         a.AttendanceID,
		Employee:   toEmployeeBrief(a.Employee),
		Date:       a.Date.Format(model.DateLayout),
		Morning:    toHalfDayResponse(a.Morning),
		Afternoon:  toHalfDayResponse(a.Afternoon),
		RecordedBy: toUserBrief(a.Recorder),
		Comments:   a.Comments,
	}
}
