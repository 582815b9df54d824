// Package access 集中实现基于角色与部门的访问范围策略。
//
// 读路径通过 For 得到 Scope，把经理限制在本部门；
// 写路径在提交前调用 Authorize 显式校验角色与归属部门。
package access

import (
	apperrors "github.com/mrbenboyy/gestion-pointage-backend/pkg/errors"

	"github.com/mrbenboyy/gestion-pointage-backend/internal/model"
)

// ErrForbidden 角色或归属部门不满足操作要求
var ErrForbidden = apperrors.New(apperrors.KindForbidden, 10003, "无权操作")

// Caller 调用方身份（来自认证中间件）
type Caller struct {
	UserID       string
	Role         string
	DepartmentID string // 为空表示未归属部门
}

// IsManager 是否经理
func (c Caller) IsManager() bool { return c.Role == model.RoleManager }

// Action 受控操作
type Action string

const (
	ActionDepartmentRead   Action = "department.read"
	ActionDepartmentManage Action = "department.manage"
	ActionUserManage       Action = "user.manage"
	ActionEmployeeRead     Action = "employee.read"
	ActionEmployeeWrite    Action = "employee.write"
	ActionReasonRead       Action = "absence_reason.read"
	ActionReasonWrite      Action = "absence_reason.write"
	ActionAttendanceRead   Action = "attendance.read"
	ActionAttendanceRecord Action = "attendance.record"
	ActionLeaveRead        Action = "leave.read"
	ActionLeaveRequest     Action = "leave.request"
	ActionLeaveApprove     Action = "leave.approve"
	ActionStatsAdmin       Action = "stats.admin"
	ActionStatsManager     Action = "stats.manager"
	ActionStatsSupervisor  Action = "stats.supervisor"
	ActionExport           Action = "export"
)

var allRoles = []string{model.RoleAdmin, model.RoleManager, model.RoleSupervisor}

// rolePermissions 各操作允许的角色
var rolePermissions = map[Action][]string{
	ActionDepartmentRead:   allRoles,
	ActionDepartmentManage: {model.RoleAdmin},
	ActionUserManage:       {model.RoleAdmin},
	ActionEmployeeRead:     allRoles,
	ActionEmployeeWrite:    {model.RoleAdmin, model.RoleManager},
	ActionReasonRead:       allRoles,
	ActionReasonWrite:      {model.RoleManager},
	ActionAttendanceRead:   allRoles,
	ActionAttendanceRecord: allRoles,
	ActionLeaveRead:        allRoles,
	ActionLeaveRequest:     {model.RoleManager},
	ActionLeaveApprove:     {model.RoleSupervisor},
	ActionStatsAdmin:       {model.RoleAdmin},
	ActionStatsManager:     {model.RoleManager},
	ActionStatsSupervisor:  {model.RoleSupervisor},
	ActionExport:           allRoles,
}

// Allowed 角色是否允许执行操作
func Allowed(role string, action Action) bool {
	for _, r := range rolePermissions[action] {
		if r == role {
			return true
		}
	}
	return false
}

// RolesFor 返回允许执行操作的角色（供路由层 RoleAuth 使用）
func RolesFor(action Action) []string {
	roles := rolePermissions[action]
	out := make([]string, len(roles))
	copy(out, roles)
	return out
}

// Require 仅校验角色
func Require(c Caller, action Action) error {
	if !Allowed(c.Role, action) {
		return ErrForbidden
	}
	return nil
}

// Authorize 写路径的显式校验：先校验角色，再校验目标所属部门。
// 经理只能操作本部门的数据；未归属部门的经理不能写任何部门数据。
func Authorize(c Caller, action Action, departmentID string) error {
	if err := Require(c, action); err != nil {
		return err
	}
	return For(c).Check(departmentID)
}
