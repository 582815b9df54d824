package model

// 用户角色
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleSupervisor = "supervisor"
)

// User 用户表，对应 users
type User struct {
	UserID       string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name         string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string  `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash string  `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string  `gorm:"type:varchar(20);not null;default:'manager'"    json:"role"`
	DepartmentID *string `gorm:"type:uuid"                                      json:"department_id,omitempty"`
	SoftDeleteModel

	// 关联
	Department *Department `gorm:"foreignKey:DepartmentID;references:DepartmentID" json:"department,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// DepartmentIDValue 部门 ID，未归属部门时返回空串
func (u *User) DepartmentIDValue() string {
	if u.DepartmentID == nil {
		return ""
	}
	return *u.DepartmentID
}
