package models

import "time"

const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
)

// Session is one party's occupancy of a table, from open to checkout.
// EndTime and TotalAmount stay nil until the session is completed.
type Session struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	CustomerID  uint       `gorm:"not null;index" json:"customer_id"`
	Customer    *Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	TableID     uint       `gorm:"not null;index:idx_sessions_table_status" json:"table_id"`
	Table       *Table     `gorm:"foreignKey:TableID" json:"table,omitempty"`
	CastID      *uint      `gorm:"index:idx_sessions_cast_status" json:"cast_id"`
	Cast        *User      `gorm:"foreignKey:CastID" json:"cast,omitempty"`
	StaffID     uint       `gorm:"not null;index" json:"staff_id"`
	Staff       *User      `gorm:"foreignKey:StaffID" json:"staff,omitempty"`
	PartySize   int        `gorm:"not null" json:"party_size"`
	StartTime   time.Time  `gorm:"not null" json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	TotalAmount *float64   `gorm:"type:decimal(12,2)" json:"total_amount"`
	Status      string     `gorm:"type:varchar(20);not null;default:'active';index:idx_sessions_table_status;index:idx_sessions_cast_status" json:"status"`
	Orders      []Order    `gorm:"foreignKey:SessionID" json:"orders,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}

func (s *Session) IsActive() bool {
	return s.Status == SessionStatusActive
}
