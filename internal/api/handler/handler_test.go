package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrbenboyy/gestion-pointage-backend/internal/access"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/dto"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/service"
	apperrors "github.com/mrbenboyy/gestion-pointage-backend/pkg/errors"
	"github.com/mrbenboyy/gestion-pointage-backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testEmployeeID = "6f1c0e1a-3b7d-4f5e-9a2b-1c2d3e4f5a6b"

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult *dto.TokenResponse
	loginErr    error
	logoutJTI   string
	logoutErr   error
	meResult    *dto.UserResponse
	meErr       error
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Refresh(_ context.Context, _ *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Logout(_ context.Context, jti string, _ time.Time) error {
	m.logoutJTI = jti
	return m.logoutErr
}
func (m *mockAuthService) Me(_ context.Context, _ string) (*dto.UserResponse, error) {
	return m.meResult, m.meErr
}
func (m *mockAuthService) ChangePassword(_ context.Context, _ string, _ *dto.ChangePasswordRequest) error {
	return nil
}
func (m *mockAuthService) Identify(_ context.Context, userID string) (access.Caller, error) {
	return access.Caller{UserID: userID}, nil
}
func (m *mockAuthService) RequestPasswordReset(_ context.Context, _ *dto.RequestPasswordResetRequest) (*dto.PasswordResetResponse, error) {
	return &dto.PasswordResetResponse{}, nil
}
func (m *mockAuthService) ResetPassword(_ context.Context, _ string, _ *dto.ResetPasswordRequest) error {
	return nil
}

// ── Mock AttendanceService ──

type mockAttendanceService struct {
	recordResult *dto.AttendanceResponse
	recordErr    error
	gotCaller    access.Caller
	gotReq       *dto.RecordAttendanceRequest
}

func (m *mockAttendanceService) Record(_ context.Context, caller access.Caller, req *dto.RecordAttendanceRequest) (*dto.AttendanceResponse, error) {
	m.gotCaller = caller
	m.gotReq = req
	return m.recordResult, m.recordErr
}
func (m *mockAttendanceService) List(_ context.Context, _ access.Caller, _ *dto.AttendanceListRequest) ([]dto.AttendanceResponse, error) {
	return []dto.AttendanceResponse{}, nil
}

// ── Mock LeaveService ──

type mockLeaveService struct {
	approveResult *dto.LeaveResponse
	approveErr    error
	gotID         string
}

func (m *mockLeaveService) Create(_ context.Context, _ access.Caller, _ *dto.CreateLeaveRequest) (*dto.LeaveResponse, error) {
	return &dto.LeaveResponse{}, nil
}
func (m *mockLeaveService) GetByID(_ context.Context, _ access.Caller, _ string) (*dto.LeaveResponse, error) {
	return nil, service.ErrLeaveNotFound
}
func (m *mockLeaveService) List(_ context.Context, _ access.Caller, _ *dto.LeaveListRequest) ([]dto.LeaveResponse, error) {
	return nil, nil
}
func (m *mockLeaveService) Update(_ context.Context, _ access.Caller, _ string, _ *dto.UpdateLeaveRequest) (*dto.LeaveResponse, error) {
	return nil, service.ErrLeaveNotPending
}
func (m *mockLeaveService) Delete(_ context.Context, _ access.Caller, _ string) error {
	return nil
}
func (m *mockLeaveService) Approve(_ context.Context, _ access.Caller, id string, _ *dto.ApproveLeaveRequest) (*dto.LeaveResponse, error) {
	m.gotID = id
	return m.approveResult, m.approveErr
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportAttendance(_ context.Context, _ access.Caller, _ *dto.ExportAttendanceRequest) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}
func (m *mockExportService) ExportApprovedLeaves(_ context.Context, _ access.Caller, _ *dto.ExportLeavesRequest) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

// setupRouter 返回带模拟认证上下文的路由
func setupRouter(role, deptID string) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if role != "" {
			c.Set("user_id", "test-user-id")
			c.Set("role", role)
			c.Set("department_id", deptID)
			c.Set("token_jti", "test-jti")
			c.Set("token_exp", time.Now().Add(15*time.Minute))
		}
		c.Next()
	})
	return r
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func doJSON(r *gin.Engine, method, path string, body io.Reader) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{
		loginResult: &dto.TokenResponse{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 900},
	}
	h := NewAuthHandler(mock)
	r := setupRouter("", "")
	r.POST("/auth/login", h.Login)

	w := doJSON(r, http.MethodPost, "/auth/login", jsonBody(dto.LoginRequest{
		Email: "admin@example.com", Password: "password123",
	}))

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d: %s", w.Code, w.Body.String())
	}
	if resp := parseResponse(w); resp.Code != 0 {
		t.Errorf("期望 code=0，实际 %d", resp.Code)
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})
	r := setupRouter("", "")
	r.POST("/auth/login", h.Login)

	w := doJSON(r, http.MethodPost, "/auth/login", strings.NewReader("invalid json"))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("期望 400，实际 %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != codeInvalidParams {
		t.Errorf("期望 code=%d，实际 %d", codeInvalidParams, resp.Code)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	mock := &mockAuthService{loginErr: service.ErrInvalidCredentials}
	h := NewAuthHandler(mock)
	r := setupRouter("", "")
	r.POST("/auth/login", h.Login)

	w := doJSON(r, http.MethodPost, "/auth/login", jsonBody(dto.LoginRequest{
		Email: "admin@example.com", Password: "wrong-password",
	}))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("期望 401，实际 %d", w.Code)
	}
}

func TestAuthHandler_Logout_PassesJTI(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock)
	r := setupRouter("admin", "")
	r.POST("/auth/logout", h.Logout)

	w := doJSON(r, http.MethodPost, "/auth/logout", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if mock.logoutJTI != "test-jti" {
		t.Errorf("期望 jti=test-jti，实际 %q", mock.logoutJTI)
	}
}

func TestAuthHandler_Me_Unauthenticated(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})
	r := setupRouter("", "")
	r.GET("/auth/me", h.Me)

	w := doJSON(r, http.MethodGet, "/auth/me", nil)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("期望 401，实际 %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// AttendanceHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAttendanceHandler_Record_Success(t *testing.T) {
	mock := &mockAttendanceService{recordResult: &dto.AttendanceResponse{ID: "a1", Date: "2026-10-12"}}
	h := NewAttendanceHandler(mock)
	r := setupRouter("manager", "d1")
	r.POST("/attendances", h.RecordAttendance)

	start := time.Date(2026, 10, 12, 8, 20, 0, 0, time.UTC)
	w := doJSON(r, http.MethodPost, "/attendances", jsonBody(dto.RecordAttendanceRequest{
		EmployeeID: testEmployeeID,
		Date:       "2026-10-12",
		Morning:    dto.HalfDayInput{Start: &start},
	}))

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d: %s", w.Code, w.Body.String())
	}
	if mock.gotCaller.DepartmentID != "d1" || mock.gotCaller.Role != "manager" {
		t.Errorf("调用方身份未正确传递: %+v", mock.gotCaller)
	}
	if mock.gotReq.Morning.Start == nil || !mock.gotReq.Morning.Start.Equal(start) {
		t.Error("上午到岗时间未正确绑定")
	}
}

func TestAttendanceHandler_Record_InvalidDate(t *testing.T) {
	h := NewAttendanceHandler(&mockAttendanceService{})
	r := setupRouter("manager", "d1")
	r.POST("/attendances", h.RecordAttendance)

	w := doJSON(r, http.MethodPost, "/attendances", jsonBody(map[string]string{
		"employee_id": testEmployeeID,
		"date":        "12/10/2026",
	}))

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际 %d", w.Code)
	}
}

func TestAttendanceHandler_Record_InvalidStatus(t *testing.T) {
	h := NewAttendanceHandler(&mockAttendanceService{})
	r := setupRouter("manager", "d1")
	r.POST("/attendances", h.RecordAttendance)

	w := doJSON(r, http.MethodPost, "/attendances", jsonBody(map[string]interface{}{
		"employee_id": testEmployeeID,
		"date":        "2026-10-12",
		"morning":     map[string]string{"status": "holiday"},
	}))

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际 %d", w.Code)
	}
}

func TestAttendanceHandler_Record_Forbidden(t *testing.T) {
	mock := &mockAttendanceService{recordErr: access.ErrForbidden}
	h := NewAttendanceHandler(mock)
	r := setupRouter("manager", "d1")
	r.POST("/attendances", h.RecordAttendance)

	w := doJSON(r, http.MethodPost, "/attendances", jsonBody(dto.RecordAttendanceRequest{
		EmployeeID: testEmployeeID,
		Date:       "2026-10-12",
	}))

	if w.Code != http.StatusForbidden {
		t.Errorf("期望 403，实际 %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// LeaveHandler Tests
// ═══════════════════════════════════════════════════════════

func TestLeaveHandler_Approve_Success(t *testing.T) {
	mock := &mockLeaveService{approveResult: &dto.LeaveResponse{ID: "l1", Status: "approved"}}
	h := NewLeaveHandler(mock)
	r := setupRouter("supervisor", "")
	r.PUT("/leaves/:id/approval", h.ApproveLeave)

	w := doJSON(r, http.MethodPut, "/leaves/l1/approval", jsonBody(dto.ApproveLeaveRequest{Status: "approved"}))

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d: %s", w.Code, w.Body.String())
	}
	if mock.gotID != "l1" {
		t.Errorf("期望 id=l1，实际 %q", mock.gotID)
	}
}

func TestLeaveHandler_Approve_InvalidStatus(t *testing.T) {
	h := NewLeaveHandler(&mockLeaveService{})
	r := setupRouter("supervisor", "")
	r.PUT("/leaves/:id/approval", h.ApproveLeave)

	w := doJSON(r, http.MethodPut, "/leaves/l1/approval", jsonBody(dto.ApproveLeaveRequest{Status: "pending"}))

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际 %d", w.Code)
	}
}

func TestLeaveHandler_ErrorMapping(t *testing.T) {
	h := NewLeaveHandler(&mockLeaveService{})
	r := setupRouter("manager", "d1")
	r.GET("/leaves/:id", h.GetLeave)
	r.PUT("/leaves/:id", h.UpdateLeave)

	w := doJSON(r, http.MethodGet, "/leaves/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("不存在的请假期望 404，实际 %d", w.Code)
	}

	w = doJSON(r, http.MethodPut, "/leaves/l1", jsonBody(dto.UpdateLeaveRequest{}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("已审批请假修改期望 400，实际 %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != service.ErrLeaveNotPending.Code {
		t.Errorf("期望 code=%d，实际 %d", service.ErrLeaveNotPending.Code, resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_ExportAttendance_Success(t *testing.T) {
	mock := &mockExportService{buf: bytes.NewBufferString("xlsx-bytes"), filename: "考勤_2026-10-01_2026-10-31.xlsx"}
	h := NewExportHandler(mock)
	r := setupRouter("admin", "")
	r.GET("/export/attendances", h.ExportAttendance)

	w := doJSON(r, http.MethodGet, "/export/attendances?from=2026-10-01&to=2026-10-31", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != contentTypeXLSX {
		t.Errorf("Content-Type 错误: %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment; filename*=UTF-8''") {
		t.Errorf("Content-Disposition 错误: %s", cd)
	}
	if w.Body.String() != "xlsx-bytes" {
		t.Error("响应体应为导出内容")
	}
}

func TestExportHandler_ExportAttendance_MissingRange(t *testing.T) {
	h := NewExportHandler(&mockExportService{})
	r := setupRouter("admin", "")
	r.GET("/export/attendances", h.ExportAttendance)

	w := doJSON(r, http.MethodGet, "/export/attendances?from=2026-10-01", nil)

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际 %d", w.Code)
	}
}

func TestExportHandler_ExportLeaves_ServiceError(t *testing.T) {
	mock := &mockExportService{err: apperrors.New(apperrors.KindValidation, 10002, "日期区间无效")}
	h := NewExportHandler(mock)
	r := setupRouter("supervisor", "")
	r.GET("/export/leaves", h.ExportLeaves)

	w := doJSON(r, http.MethodGet, "/export/leaves?from=2026-10-31&to=2026-10-01", nil)

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际 %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 10002 {
		t.Errorf("期望 code=10002，实际 %d", resp.Code)
	}
}

func TestExportHandler_ExportLeaves_ContentType(t *testing.T) {
	mock := &mockExportService{buf: bytes.NewBufferString("BEGIN:VCALENDAR"), filename: "leaves.ics"}
	h := NewExportHandler(mock)
	r := setupRouter("supervisor", "")
	r.GET("/export/leaves", h.ExportLeaves)

	w := doJSON(r, http.MethodGet, "/export/leaves", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != contentTypeICS {
		t.Errorf("Content-Type 错误: %s", ct)
	}
}

func TestMustGetCaller_Missing(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	if _, ok := MustGetCaller(c); ok {
		t.Fatal("未注入身份时应返回 false")
	}
	if w.Code != http.StatusUnauthorized {
		t.Errorf("期望 401，实际 %d", w.Code)
	}
}
