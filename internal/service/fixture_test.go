package service

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mrbenboyy/gestion-pointage-backend/internal/access"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/model"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/repository"
)

const testPassword = "password123"

// testFixture 两个部门、各一名经理、一名 admin、一名 supervisor、一名未归属部门的经理
//
//	研发部 d1：经理 m1，员工 e1，缺勤原因 r1（启用）/ r2（停用）
//	市场部 d2：经理 m2，员工 e2，缺勤原因 r3
type testFixture struct {
	store *mockStore
	repo  *repository.Repository

	admin      access.Caller
	supervisor access.Caller
	m1         access.Caller
	m2         access.Caller
	orphan     access.Caller
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int { return &i }
func boolPtr(b bool) *bool { return &b }

func newTestFixture() *testFixture {
	store := newMockStore()
	hash, _ := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)

	addUser := func(id, name, role, deptID string) {
		u := &model.User{UserID: id, Name: name, Email: id + "@example.com", PasswordHash: string(hash), Role: role}
		if deptID != "" {
			u.DepartmentID = strPtr(deptID)
		}
		store.users[id] = u
	}
	addUser("u-admin", "管理员", model.RoleAdmin, "")
	addUser("u-sup", "主管", model.RoleSupervisor, "")
	addUser("u-m1", "经理一", model.RoleManager, "d1")
	addUser("u-m2", "经理二", model.RoleManager, "d2")
	addUser("u-m0", "待分配经理", model.RoleManager, "")

	store.departments["d1"] = &model.Department{DepartmentID: "d1", Name: "研发部", ManagerID: strPtr("u-m1")}
	store.departments["d2"] = &model.Department{DepartmentID: "d2", Name: "市场部", ManagerID: strPtr("u-m2")}

	hired := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	store.employees["e1"] = &model.Employee{EmployeeID: "e1", Name: "张三", DepartmentID: "d1", HireDate: hired, Status: model.EmployeeStatusActive}
	store.employees["e2"] = &model.Employee{EmployeeID: "e2", Name: "李四", DepartmentID: "d2", HireDate: hired, Status: model.EmployeeStatusActive}
	store.employees["e1"].Version = 1
	store.employees["e2"].Version = 1

	store.reasons["r1"] = &model.AbsenceReason{ReasonID: "r1", Name: "病假", DepartmentID: strPtr("d1"), IsActive: true}
	store.reasons["r2"] = &model.AbsenceReason{ReasonID: "r2", Name: "旧事假", DepartmentID: strPtr("d1"), IsActive: false}
	store.reasons["r3"] = &model.AbsenceReason{ReasonID: "r3", Name: "年假", DepartmentID: strPtr("d2"), IsActive: true}

	return &testFixture{
		store:      store,
		repo:       newMockRepository(store),
		admin:      access.Caller{UserID: "u-admin", Role: model.RoleAdmin},
		supervisor: access.Caller{UserID: "u-sup", Role: model.RoleSupervisor},
		m1:         access.Caller{UserID: "u-m1", Role: model.RoleManager, DepartmentID: "d1"},
		m2:         access.Caller{UserID: "u-m2", Role: model.RoleManager, DepartmentID: "d2"},
		orphan:     access.Caller{UserID: "u-m0", Role: model.RoleManager},
	}
}

// fixedClock 固定当前时间
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
