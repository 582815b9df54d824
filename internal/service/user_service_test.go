package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/mrbenboyy/gestion-pointage-backend/internal/access"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/dto"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/model"
)

func setupTestUserService() (UserService, *testFixture) {
	fx := newTestFixture()
	return NewUserService(fx.repo, zap.NewNop()), fx
}

// ── Create 测试 ──

func TestUserService_Create_ManagerBecomesDepartmentManager(t *testing.T) {
	svc, fx := setupTestUserService()
	fx.store.departments["d3"] = &model.Department{DepartmentID: "d3", Name: "财务部"}

	resp, err := svc.Create(context.Background(), fx.admin, &dto.CreateUserRequest{
		Name:         "经理三",
		Email:        "m3@example.com",
		Password:     testPassword,
		Role:         model.RoleManager,
		DepartmentID: strPtr("d3"),
	})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.Department == nil || resp.Department.ID != "d3" {
		t.Errorf("期望用户归属 d3，实际 %+v", resp.Department)
	}

	dept := fx.store.departments["d3"]
	if dept.ManagerID == nil || *dept.ManagerID != resp.ID {
		t.Error("新建经理应成为所属部门的经理")
	}
	if fx.store.users[resp.ID].PasswordHash == testPassword {
		t.Error("密码不应明文存储")
	}
}

func TestUserService_Create_EmailExists(t *testing.T) {
	svc, fx := setupTestUserService()

	_, err := svc.Create(context.Background(), fx.admin, &dto.CreateUserRequest{
		Name:     "重复",
		Email:    "u-m1@example.com",
		Password: testPassword,
		Role:     model.RoleSupervisor,
	})
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("期望 ErrEmailExists，实际: %v", err)
	}
}

func TestUserService_Create_UnknownDepartment(t *testing.T) {
	svc, fx := setupTestUserService()

	_, err := svc.Create(context.Background(), fx.admin, &dto.CreateUserRequest{
		Name:         "经理四",
		Email:        "m4@example.com",
		Password:     testPassword,
		Role:         model.RoleManager,
		DepartmentID: strPtr("d404"),
	})
	if !errors.Is(err, ErrDepartmentNotFound) {
		t.Errorf("期望 ErrDepartmentNotFound，实际: %v", err)
	}
}

func TestUserService_OnlyAdmin(t *testing.T) {
	svc, fx := setupTestUserService()
	ctx := context.Background()

	for _, c := range []access.Caller{fx.m1, fx.supervisor} {
		if _, err := svc.List(ctx, c, &dto.UserListRequest{}); !errors.Is(err, access.ErrForbidden) {
			t.Errorf("%s 不应能管理用户，实际: %v", c.Role, err)
		}
	}
}

// ── List 测试 ──

func TestUserService_List_FilterAndPaginate(t *testing.T) {
	svc, fx := setupTestUserService()
	ctx := context.Background()

	managers, err := svc.List(ctx, fx.admin, &dto.UserListRequest{Role: model.RoleManager})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if managers.Total != 3 {
		t.Errorf("期望 3 名经理，实际 %d", managers.Total)
	}

	page := &dto.UserListRequest{PaginationRequest: dto.PaginationRequest{Page: 2, PageSize: 2}}
	paged, err := svc.List(ctx, fx.admin, page)
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if paged.Total != 5 || len(paged.List) != 2 || paged.Page != 2 {
		t.Errorf("分页结果不符: total=%d len=%d page=%d", paged.Total, len(paged.List), paged.Page)
	}
}

// ── Update 测试 ──

func TestUserService_Update_EmailTaken(t *testing.T) {
	svc, fx := setupTestUserService()

	_, err := svc.Update(context.Background(), fx.admin, "u-m1", &dto.UpdateUserRequest{Email: strPtr("u-m2@example.com")})
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("期望 ErrEmailExists，实际: %v", err)
	}
}

func TestUserService_Update_Name(t *testing.T) {
	svc, fx := setupTestUserService()

	resp, err := svc.Update(context.Background(), fx.admin, "u-sup", &dto.UpdateUserRequest{Name: strPtr("总主管")})
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if resp.Name != "总主管" || resp.Email != "u-sup@example.com" {
		t.Errorf("仅名称应被修改，实际 %+v", resp)
	}
}

// ── Delete 测试 ──

func TestUserService_Delete_Self(t *testing.T) {
	svc, fx := setupTestUserService()

	if err := svc.Delete(context.Background(), fx.admin, "u-admin"); !errors.Is(err, ErrCannotDeleteSelf) {
		t.Errorf("期望 ErrCannotDeleteSelf，实际: %v", err)
	}
}

func TestUserService_Delete_ClearsDepartmentManager(t *testing.T) {
	svc, fx := setupTestUserService()

	if err := svc.Delete(context.Background(), fx.admin, "u-m1"); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if fx.store.departments["d1"].ManagerID != nil {
		t.Error("删除经理后部门经理应被清空")
	}
	if err := svc.Delete(context.Background(), fx.admin, "u-m1"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("重复删除期望 ErrUserNotFound，实际: %v", err)
	}
}

// ── 部门经理一对一 ──

func TestUserService_Create_ManagerRequiresDepartment(t *testing.T) {
	svc, fx := setupTestUserService()
	ctx := context.Background()

	_, err := svc.Create(ctx, fx.admin, &dto.CreateUserRequest{
		Name: "无部门经理", Email: "nodept@example.com", Password: testPassword, Role: model.RoleManager,
	})
	if !errors.Is(err, ErrManagerNeedsDepartment) {
		t.Errorf("期望 ErrManagerNeedsDepartment，实际: %v", err)
	}

	_, err = svc.Create(ctx, fx.admin, &dto.CreateUserRequest{
		Name: "第二经理", Email: "second@example.com", Password: testPassword,
		Role: model.RoleManager, DepartmentID: strPtr("d1"),
	})
	if !errors.Is(err, ErrDepartmentHasManager) {
		t.Errorf("部门已有经理时期望 ErrDepartmentHasManager，实际: %v", err)
	}
	if len(fx.store.users) != 5 {
		t.Errorf("校验失败不应创建用户，实际用户数 %d", len(fx.store.users))
	}
}

func TestUserService_Update_PromoteWithoutDepartment(t *testing.T) {
	svc, fx := setupTestUserService()

	_, err := svc.Update(context.Background(), fx.admin, "u-sup", &dto.UpdateUserRequest{Role: strPtr(model.RoleManager)})
	if !errors.Is(err, ErrManagerNeedsDepartment) {
		t.Errorf("期望 ErrManagerNeedsDepartment，实际: %v", err)
	}
	if fx.store.users["u-sup"].Role != model.RoleSupervisor {
		t.Error("校验失败不应修改角色")
	}
}

func TestUserService_Update_MoveManagerToManagedDepartment(t *testing.T) {
	svc, fx := setupTestUserService()

	_, err := svc.Update(context.Background(), fx.admin, "u-m1", &dto.UpdateUserRequest{DepartmentID: strPtr("d2")})
	if !errors.Is(err, ErrDepartmentHasManager) {
		t.Fatalf("期望 ErrDepartmentHasManager，实际: %v", err)
	}
	if fx.store.users["u-m1"].DepartmentIDValue() != "d1" {
		t.Error("校验失败不应移动经理")
	}
	if m := fx.store.departments["d1"].ManagerID; m == nil || *m != "u-m1" {
		t.Error("校验失败不应解除原部门经理")
	}
}

func TestUserService_Update_MoveManagerToFreeDepartment(t *testing.T) {
	svc, fx := setupTestUserService()
	fx.store.departments["d3"] = &model.Department{DepartmentID: "d3", Name: "财务部"}

	resp, err := svc.Update(context.Background(), fx.admin, "u-m1", &dto.UpdateUserRequest{DepartmentID: strPtr("d3")})
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if resp.Department == nil || resp.Department.ID != "d3" {
		t.Errorf("期望归属 d3，实际 %+v", resp.Department)
	}
	if fx.store.departments["d1"].ManagerID != nil {
		t.Error("原部门 d1 的经理应被解除")
	}
	if m := fx.store.departments["d3"].ManagerID; m == nil || *m != "u-m1" {
		t.Error("u-m1 应成为 d3 的经理")
	}
}

func TestUserService_Update_DemoteManager(t *testing.T) {
	svc, fx := setupTestUserService()

	if _, err := svc.Update(context.Background(), fx.admin, "u-m1", &dto.UpdateUserRequest{Role: strPtr(model.RoleSupervisor)}); err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if fx.store.departments["d1"].ManagerID != nil {
		t.Error("降级为主管后 d1 不应再指向该用户")
	}
	if fx.store.users["u-m1"].Role != model.RoleSupervisor {
		t.Error("角色应已更新")
	}
}

func TestUserService_Update_NameKeepsManagement(t *testing.T) {
	svc, fx := setupTestUserService()

	if _, err := svc.Update(context.Background(), fx.admin, "u-m1", &dto.UpdateUserRequest{
		Role: strPtr(model.RoleManager), DepartmentID: strPtr("d1"),
	}); err != nil {
		t.Fatalf("保持原部门与角色的更新应成功: %v", err)
	}
	if m := fx.store.departments["d1"].ManagerID; m == nil || *m != "u-m1" {
		t.Error("d1 经理不应变化")
	}
}

func TestUserService_Update_ClearDepartment(t *testing.T) {
	svc, fx := setupTestUserService()
	ctx := context.Background()

	// 主管可移出部门
	fx.store.users["u-sup"].DepartmentID = strPtr("d1")
	if _, err := svc.Update(ctx, fx.admin, "u-sup", &dto.UpdateUserRequest{DepartmentID: strPtr("")}); err != nil {
		t.Fatalf("主管移出部门应成功: %v", err)
	}
	if fx.store.users["u-sup"].DepartmentID != nil {
		t.Error("department_id 应被清空")
	}

	// 经理不可移出部门
	_, err := svc.Update(ctx, fx.admin, "u-m1", &dto.UpdateUserRequest{DepartmentID: strPtr("")})
	if !errors.Is(err, ErrManagerNeedsDepartment) {
		t.Errorf("期望 ErrManagerNeedsDepartment，实际: %v", err)
	}
}
