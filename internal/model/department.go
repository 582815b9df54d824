package model

// Department 部门表，对应 departments
// ManagerID 为空表示部门暂无经理
type Department struct {
	DepartmentID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"department_id"`
	Name         string  `gorm:"type:varchar(100);not null;uniqueIndex"         json:"name"`
	ManagerID    *string `gorm:"type:uuid"                                      json:"manager_id,omitempty"`
	BaseModel

	// 关联
	Manager *User `gorm:"foreignKey:ManagerID;references:UserID" json:"manager,omitempty"`
}

// TableName 指定表名
func (Department) TableName() string { return "departments" }
