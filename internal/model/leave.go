package model

import "time"

// 请假状态：pending → approved | rejected（终态）
const (
	LeaveStatusPending  = "pending"
	LeaveStatusApproved = "approved"
	LeaveStatusRejected = "rejected"
)

// Leave 请假表，对应 leaves
type Leave struct {
	LeaveID     string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"leave_id"`
	EmployeeID  string     `gorm:"type:uuid;not null;index"                       json:"employee_id"`
	ReasonID    string     `gorm:"type:uuid;not null"                             json:"reason_id"`
	StartDate   time.Time  `gorm:"type:date;not null"                             json:"start_date"`
	EndDate     time.Time  `gorm:"type:date;not null"                             json:"end_date"`
	Comments    string     `gorm:"type:text;not null;default:''"                  json:"comments"`
	Status      string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	RequestedBy string     `gorm:"type:uuid;not null"                             json:"requested_by"`
	ApprovedBy  *string    `gorm:"type:uuid"                                      json:"approved_by,omitempty"`
	DecidedAt   *time.Time `                                                      json:"decided_at,omitempty"`
	BaseModel

	// 关联
	Employee  *Employee      `gorm:"foreignKey:EmployeeID;references:EmployeeID" json:"employee,omitempty"`
	Reason    *AbsenceReason `gorm:"foreignKey:ReasonID;references:ReasonID"     json:"reason,omitempty"`
	Requester *User          `gorm:"foreignKey:RequestedBy;references:UserID"    json:"requester,omitempty"`
	Approver  *User          `gorm:"foreignKey:ApprovedBy;references:UserID"     json:"approver,omitempty"`
}

// TableName 指定表名
func (Leave) TableName() string { return "leaves" }

// IsPending 是否仍待审批
func (l *Leave) IsPending() bool { return l.Status == LeaveStatusPending }
