package models

import "time"

type Attendance struct {
	ID       uint       `gorm:"primaryKey" json:"id"`
	UserID   uint       `gorm:"not null;uniqueIndex:idx_attendance_user_day" json:"user_id"`
	User     *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	WorkDate time.Time  `gorm:"type:date;not null;uniqueIndex:idx_attendance_user_day" json:"work_date"`
	CheckIn  *time.Time `json:"check_in"`
	CheckOut *time.Time `json:"check_out"`
}

// TableName keeps the singular table name used by the reports.
func (Attendance) TableName() string {
	return "attendance"
}

// WorkHours returns the hours between check-in and check-out, or 0 while the
// record is still open.
func (a Attendance) WorkHours() float64 {
	if a.CheckIn == nil || a.CheckOut == nil {
		return 0
	}
	return a.CheckOut.Sub(*a.CheckIn).Hours()
}
