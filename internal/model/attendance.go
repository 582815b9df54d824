package model

import "time"

// 半天考勤状态
const (
	AttendanceStatusPresent = "present"
	AttendanceStatusAbsent  = "absent"
	AttendanceStatusLate    = "late"
	AttendanceStatusOnLeave = "on_leave"
)

// HalfDay 上午 / 下午考勤段
type HalfDay struct {
	Start       *time.Time `gorm:"column:start"                                  json:"start,omitempty"`
	End         *time.Time `gorm:"column:end"                                    json:"end,omitempty"`
	Status      string     `gorm:"column:status;type:varchar(20);not null"       json:"status"`
	LateMinutes int        `gorm:"column:late_minutes;not null;default:0"        json:"late_minutes"`
}

// Attendance 考勤表，对应 attendances
// (employee_id, date) 唯一：同一天重复提交覆盖原记录
type Attendance struct {
	AttendanceID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"attendance_id"`
	EmployeeID   string    `gorm:"type:uuid;not null;uniqueIndex:uk_attendances_employee_date" json:"employee_id"`
	Date         time.Time `gorm:"type:date;not null;uniqueIndex:uk_attendances_employee_date" json:"date"`
	Morning      HalfDay   `gorm:"embedded;embeddedPrefix:morning_"               json:"morning"`
	Afternoon    HalfDay   `gorm:"embedded;embeddedPrefix:afternoon_"             json:"afternoon"`
	RecordedBy   string    `gorm:"type:uuid;not null"                             json:"recorded_by"`
	Comments     string    `gorm:"type:text;not null;default:''"                  json:"comments"`
	BaseModel

	// 关联
	Employee *Employee `gorm:"foreignKey:EmployeeID;references:EmployeeID" json:"employee,omitempty"`
	Recorder *User     `gorm:"foreignKey:RecordedBy;references:UserID"     json:"recorder,omitempty"`
}

// TableName 指定表名
func (Attendance) TableName() string { return "attendances" }

// HasAbsence 任一半天缺勤
func (a *Attendance) HasAbsence() bool {
	return a.Morning.Status == AttendanceStatusAbsent || a.Afternoon.Status == AttendanceStatusAbsent
}

// IsLate 任一半天迟到
func (a *Attendance) IsLate() bool {
	return a.Morning.LateMinutes > 0 || a.Afternoon.LateMinutes > 0
}
