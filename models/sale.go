package models

import "time"

// Sale is the reporting row written once by checkout for each completed session.
type Sale struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SessionID   uint      `gorm:"not null;uniqueIndex" json:"session_id"`
	Session     *Session  `gorm:"foreignKey:SessionID" json:"session,omitempty"`
	CastID      *uint     `gorm:"index" json:"cast_id"`
	StaffID     uint      `gorm:"not null;index" json:"staff_id"`
	TotalAmount float64   `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	SaleDate    time.Time `gorm:"type:date;not null;index" json:"sale_date"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}
