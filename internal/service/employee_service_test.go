package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mrbenboyy/gestion-pointage-backend/internal/access"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/dto"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/model"
	apperrors "github.com/mrbenboyy/gestion-pointage-backend/pkg/errors"
)

func setupTestEmployeeService() (*employeeService, *testFixture) {
	fx := newTestFixture()
	svc := NewEmployeeService(fx.repo, zap.NewNop()).(*employeeService)
	svc.now = fixedClock(time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC))
	return svc, fx
}

// ── Create 测试 ──

func TestEmployeeService_Create_DefaultHireDate(t *testing.T) {
	svc, fx := setupTestEmployeeService()

	resp, err := svc.Create(context.Background(), fx.m1, &dto.CreateEmployeeRequest{
		Name:         "王五",
		DepartmentID: "d1",
		Position:     "工程师",
	})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.HireDate != "2026-10-14" {
		t.Errorf("期望入职日期默认为当天，实际 %s", resp.HireDate)
	}
	if resp.Status != model.EmployeeStatusActive || resp.Version != 1 {
		t.Errorf("期望 active/version=1，实际 %s/%d", resp.Status, resp.Version)
	}
	if resp.Department == nil || resp.Department.Name != "研发部" {
		t.Errorf("期望所属部门研发部，实际 %+v", resp.Department)
	}
}

func TestEmployeeService_Create_OtherDepartmentForbidden(t *testing.T) {
	svc, fx := setupTestEmployeeService()

	_, err := svc.Create(context.Background(), fx.m1, &dto.CreateEmployeeRequest{Name: "越权", DepartmentID: "d2"})
	if !errors.Is(err, access.ErrForbidden) {
		t.Errorf("经理不能在其他部门创建员工，实际: %v", err)
	}
	if len(fx.store.employees) != 2 {
		t.Error("越权创建不应写入数据")
	}
}

func TestEmployeeService_Create_Errors(t *testing.T) {
	svc, fx := setupTestEmployeeService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, fx.supervisor, &dto.CreateEmployeeRequest{Name: "x", DepartmentID: "d1"}); !errors.Is(err, access.ErrForbidden) {
		t.Errorf("主管不能创建员工，实际: %v", err)
	}
	if _, err := svc.Create(ctx, fx.admin, &dto.CreateEmployeeRequest{Name: "x", DepartmentID: "d404"}); !errors.Is(err, ErrDepartmentNotFound) {
		t.Errorf("期望 ErrDepartmentNotFound，实际: %v", err)
	}
	if _, err := svc.Create(ctx, fx.admin, &dto.CreateEmployeeRequest{Name: "x", DepartmentID: "d1", HireDate: strPtr("2026/01/01")}); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("期望 ErrInvalidDate，实际: %v", err)
	}
}

// ── 读取范围测试 ──

func TestEmployeeService_GetByID_OutOfScopeIsNotFound(t *testing.T) {
	svc, fx := setupTestEmployeeService()
	ctx := context.Background()

	if _, err := svc.GetByID(ctx, fx.m1, "e2"); !errors.Is(err, ErrEmployeeNotFound) {
		t.Errorf("其他部门员工应按不存在处理，实际: %v", err)
	}
	if _, err := svc.GetByID(ctx, fx.supervisor, "e2"); err != nil {
		t.Errorf("主管可查看任意部门员工: %v", err)
	}
}

func TestEmployeeService_List_Scoped(t *testing.T) {
	svc, fx := setupTestEmployeeService()
	ctx := context.Background()

	tests := []struct {
		name   string
		caller access.Caller
		req    dto.EmployeeListRequest
		want   int
	}{
		{"admin 全部", fx.admin, dto.EmployeeListRequest{}, 2},
		{"admin 按部门", fx.admin, dto.EmployeeListRequest{DepartmentID: "d2"}, 1},
		{"经理本部门", fx.m1, dto.EmployeeListRequest{}, 1},
		{"经理请求其他部门", fx.m1, dto.EmployeeListRequest{DepartmentID: "d2"}, 0},
		{"未归属部门经理", fx.orphan, dto.EmployeeListRequest{}, 0},
		{"按状态过滤", fx.admin, dto.EmployeeListRequest{Status: model.EmployeeStatusInactive}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := svc.List(ctx, tt.caller, &tt.req)
			if err != nil {
				t.Fatalf("List 应成功: %v", err)
			}
			if len(list) != tt.want {
				t.Errorf("期望 %d 条，实际 %d", tt.want, len(list))
			}
		})
	}
}

// ── Update 测试 ──

func TestEmployeeService_Update(t *testing.T) {
	svc, fx := setupTestEmployeeService()

	resp, err := svc.Update(context.Background(), fx.m1, "e1", &dto.UpdateEmployeeRequest{
		Position: strPtr("高级工程师"),
		Status:   strPtr(model.EmployeeStatusInactive),
		Version:  intPtr(1),
	})
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if resp.Position != "高级工程师" || resp.Status != model.EmployeeStatusInactive {
		t.Errorf("字段未更新: %+v", resp)
	}
	if resp.Version != 2 {
		t.Errorf("期望版本号递增为 2，实际 %d", resp.Version)
	}
}

func TestEmployeeService_Update_StaleVersion(t *testing.T) {
	svc, fx := setupTestEmployeeService()
	fx.store.employees["e1"].Version = 3

	_, err := svc.Update(context.Background(), fx.admin, "e1", &dto.UpdateEmployeeRequest{Name: strPtr("张三丰"), Version: intPtr(2)})
	if !errors.Is(err, apperrors.ErrOptimisticLock) {
		t.Errorf("期望乐观锁冲突，实际: %v", err)
	}
}

func TestEmployeeService_Update_Scope(t *testing.T) {
	svc, fx := setupTestEmployeeService()
	ctx := context.Background()

	if _, err := svc.Update(ctx, fx.m1, "e2", &dto.UpdateEmployeeRequest{Name: strPtr("x")}); !errors.Is(err, access.ErrForbidden) {
		t.Errorf("经理不能修改其他部门员工，实际: %v", err)
	}
	if _, err := svc.Update(ctx, fx.m1, "e1", &dto.UpdateEmployeeRequest{DepartmentID: strPtr("d2")}); !errors.Is(err, access.ErrForbidden) {
		t.Errorf("经理不能把员工调入其他部门，实际: %v", err)
	}

	resp, err := svc.Update(ctx, fx.admin, "e1", &dto.UpdateEmployeeRequest{DepartmentID: strPtr("d2")})
	if err != nil {
		t.Fatalf("admin 调动员工应成功: %v", err)
	}
	if resp.Department == nil || resp.Department.ID != "d2" {
		t.Errorf("期望调入 d2，实际 %+v", resp.Department)
	}
}

// ── Delete 测试 ──

func TestEmployeeService_Delete(t *testing.T) {
	svc, fx := setupTestEmployeeService()
	ctx := context.Background()

	if err := svc.Delete(ctx, fx.m2, "e1"); !errors.Is(err, access.ErrForbidden) {
		t.Errorf("期望 ErrForbidden，实际: %v", err)
	}
	if err := svc.Delete(ctx, fx.m1, "e1"); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if err := svc.Delete(ctx, fx.m1, "e1"); !errors.Is(err, ErrEmployeeNotFound) {
		t.Errorf("期望 ErrEmployeeNotFound，实际: %v", err)
	}
}
