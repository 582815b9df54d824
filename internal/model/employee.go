package model

import "time"

// 员工状态
const (
	EmployeeStatusActive   = "active"
	EmployeeStatusInactive = "inactive"
)

// Employee 员工表，对应 employees
type Employee struct {
	EmployeeID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"employee_id"`
	Name         string    `gorm:"type:varchar(100);not null"                     json:"name"`
	DepartmentID string    `gorm:"type:uuid;not null;index"                       json:"department_id"`
	Position     string    `gorm:"type:varchar(100);not null;default:''"          json:"position"`
	HireDate     time.Time `gorm:"type:date;not null"                             json:"hire_date"`
	Status       string    `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	VersionedModel

	// 关联
	Department *Department `gorm:"foreignKey:DepartmentID;references:DepartmentID" json:"department,omitempty"`
}

// TableName 指定表名
func (Employee) TableName() string { return "employees" }
