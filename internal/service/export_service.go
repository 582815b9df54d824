package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/mrbenboyy/gestion-pointage-backend/internal/access"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/dto"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/model"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/repository"
	apperrors "github.com/mrbenboyy/gestion-pointage-backend/pkg/errors"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoRecords    = apperrors.New(apperrors.KindNotFound, 27001, "所选范围内没有可导出的记录")
	ErrExportGenerateFail = apperrors.New(apperrors.KindUnexpected, 27002, "生成导出文件失败")
)

const icsProductID = "-//gestion-pointage//leaves//FR"

// ExportService 导出业务接口
// 导出以 bytes.Buffer 返回，由 Handler 层设置响应头后写出；导出范围同样受部门范围限制
type ExportService interface {
	// ExportAttendance 导出日期区间内的考勤为 Excel
	ExportAttendance(ctx context.Context, caller access.Caller, req *dto.ExportAttendanceRequest) (*bytes.Buffer, string, error)
	// ExportApprovedLeaves 导出已批准请假为 iCalendar 日历
	ExportApprovedLeaves(ctx context.Context, caller access.Caller, req *dto.ExportLeavesRequest) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger, now: time.Now}
}

// ═══════════════════════════════════════════════════════════
// ExportAttendance 考勤导出为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：单个 Sheet "考勤记录"
//   - 第 1 行：标题（日期区间）
//   - 第 2 行：表头
//   - 其后每条考勤一行，按日期倒序

var attendanceHeaders = []string{
	"日期", "员工", "上午到岗", "上午状态", "上午迟到(分钟)",
	"下午到岗", "下午状态", "下午迟到(分钟)", "记录人", "备注",
}

func (s *exportService) ExportAttendance(ctx context.Context, caller access.Caller, req *dto.ExportAttendanceRequest) (*bytes.Buffer, string, error) {
	if err := access.Require(caller, access.ActionExport); err != nil {
		return nil, "", err
	}

	filters, err := attendanceFilters(req.EmployeeID, req.From, req.To)
	if err != nil {
		return nil, "", err
	}

	ids, restrict, err := scopedEmployeeIDs(ctx, s.repo, access.For(caller))
	if err != nil {
		s.logger.Error("查询部门员工失败", zap.Error(err))
		return nil, "", err
	}
	if restrict && len(ids) == 0 {
		return nil, "", ErrExportNoRecords
	}
	filters.EmployeeIDs, filters.RestrictEmployees = ids, restrict

	records, err := s.repo.Attendance.List(ctx, filters)
	if err != nil {
		s.logger.Error("查询考勤失败", zap.Error(err))
		return nil, "", err
	}
	if len(records) == 0 {
		return nil, "", ErrExportNoRecords
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "考勤记录"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "B", 18)
	f.SetColWidth(sheetName, "C", "I", 16)
	f.SetColWidth(sheetName, "J", "J", 30)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	lastCol := colName(len(attendanceHeaders) - 1)
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("考勤记录 %s ~ %s", req.From, req.To))
	f.MergeCell(sheetName, "A1", cell(lastCol, 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	for i, h := range attendanceHeaders {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheetName, "A2", cell(lastCol, 2), headerStyle)

	// 数据行
	row := 3
	for i := range records {
		for col, v := range attendanceRow(&records[i]) {
			f.SetCellValue(sheetName, cell(colName(col), row), v)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("考勤_%s_%s.xlsx", req.From, req.To)
	return buf, filename, nil
}

func attendanceRow(a *model.Attendance) []interface{} {
	employee, recorder := a.EmployeeID, a.RecordedBy
	if a.Employee != nil {
		employee = a.Employee.Name
	}
	if a.Recorder != nil {
		recorder = a.Recorder.Name
	}
	return []interface{}{
		a.Date.Format(model.DateLayout),
		employee,
		clockTime(a.Morning.Start),
		a.Morning.Status,
		a.Morning.LateMinutes,
		clockTime(a.Afternoon.Start),
		a.Afternoon.Status,
		a.Afternoon.LateMinutes,
		recorder,
		a.Comments,
	}
}

func clockTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("15:04")
}

// ═══════════════════════════════════════════════════════════
// ExportApprovedLeaves 已批准请假导出为 .ics
// ═══════════════════════════════════════════════════════════
//
// 每条请假对应一个全天事件：DTSTART = 开始日期，DTEND = 结束日期次日（RFC 5545 不含终点）

func (s *exportService) ExportApprovedLeaves(ctx context.Context, caller access.Caller, req *dto.ExportLeavesRequest) (*bytes.Buffer, string, error) {
	if err := access.Require(caller, access.ActionExport); err != nil {
		return nil, "", err
	}

	from, err := parseOptionalDate(req.From)
	if err != nil {
		return nil, "", err
	}
	to, err := parseOptionalDate(req.To)
	if err != nil {
		return nil, "", err
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, "", ErrInvalidDateRange
	}

	ids, restrict, err := scopedEmployeeIDs(ctx, s.repo, access.For(caller))
	if err != nil {
		s.logger.Error("查询部门员工失败", zap.Error(err))
		return nil, "", err
	}
	if restrict && len(ids) == 0 {
		return nil, "", ErrExportNoRecords
	}

	leaves, err := s.repo.Leave.List(ctx, repository.LeaveFilters{
		Status:            model.LeaveStatusApproved,
		EmployeeIDs:       ids,
		RestrictEmployees: restrict,
		From:              from,
		To:                to,
	})
	if err != nil {
		s.logger.Error("查询已批准请假失败", zap.Error(err))
		return nil, "", err
	}
	if len(leaves) == 0 {
		return nil, "", ErrExportNoRecords
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)
	cal.SetName("请假日历")

	stamp := s.now().UTC()
	for i := range leaves {
		addLeaveEvent(cal, &leaves[i], stamp)
	}

	buf := bytes.NewBufferString(cal.Serialize())
	return buf, "leaves.ics", nil
}

func addLeaveEvent(cal *ics.Calendar, l *model.Leave, stamp time.Time) {
	employee, reason := l.EmployeeID, ""
	if l.Employee != nil {
		employee = l.Employee.Name
	}
	if l.Reason != nil {
		reason = l.Reason.Name
	}

	event := cal.AddEvent(l.LeaveID + "@gestion-pointage")
	event.SetDtStampTime(stamp)
	event.SetAllDayStartAt(l.StartDate)
	event.SetAllDayEndAt(l.EndDate.AddDate(0, 0, 1))
	if reason != "" {
		event.SetSummary(fmt.Sprintf("请假：%s（%s）", employee, reason))
	} else {
		event.SetSummary(fmt.Sprintf("请假：%s", employee))
	}
	if l.Comments != "" {
		event.SetDescription(l.Comments)
	}
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
