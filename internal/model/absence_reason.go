package model

// AbsenceReason 缺勤原因表，对应 absence_reasons
// 归属于创建它的经理所在部门
type AbsenceReason struct {
	ReasonID     string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"reason_id"`
	Name         string  `gorm:"type:varchar(100);not null;uniqueIndex"         json:"name"`
	Description  string  `gorm:"type:text;not null;default:''"                  json:"description"`
	DepartmentID *string `gorm:"type:uuid;index"                                json:"department_id,omitempty"`
	IsActive     bool    `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (AbsenceReason) TableName() string { return "absence_reasons" }
