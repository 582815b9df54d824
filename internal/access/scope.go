package access

import "github.com/mrbenboyy/gestion-pointage-backend/internal/model"

// Scope 调用方可见 / 可写的数据范围
type Scope struct {
	restricted   bool
	departmentID string
}

// For 按角色派生数据范围
func For(c Caller) Scope {
	switch c.Role {
	case model.RoleAdmin, model.RoleSupervisor:
		return Scope{}
	case model.RoleManager:
		return Scope{restricted: true, departmentID: c.DepartmentID}
	default:
		// 未知角色：不可见任何部门数据
		return Scope{restricted: true}
	}
}

// Unrestricted 不受部门限制
func (s Scope) Unrestricted() bool { return !s.restricted }

// DepartmentID 受限时返回限定的部门 ID
func (s Scope) DepartmentID() (string, bool) {
	return s.departmentID, s.restricted
}

// Empty 受限且无部门：结果集必然为空，调用方可直接短路
func (s Scope) Empty() bool {
	return s.restricted && s.departmentID == ""
}

// Contains 目标部门是否在范围内
func (s Scope) Contains(departmentID string) bool {
	if !s.restricted {
		return true
	}
	return s.departmentID != "" && s.departmentID == departmentID
}

// Check 目标部门不在范围内时返回 ErrForbidden
func (s Scope) Check(departmentID string) error {
	if !s.Contains(departmentID) {
		return ErrForbidden
	}
	return nil
}

// Narrow 将请求中的部门过滤条件与范围合并。
// 返回 ok=false 表示请求的部门超出范围，读路径应返回空结果。
func (s Scope) Narrow(requested string) (departmentID string, ok bool) {
	if !s.restricted {
		return requested, true
	}
	if s.departmentID == "" {
		return "", false
	}
	if requested != "" && requested != s.departmentID {
		return "", false
	}
	return s.departmentID, true
}
