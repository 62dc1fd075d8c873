package models

import "time"

// Debt is a customer's tab. RemainingAmount always equals Amount minus the
// sum of its payments.
type Debt struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	CustomerID      uint          `gorm:"not null;index" json:"customer_id"`
	Customer        *Customer     `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Amount          float64       `gorm:"type:decimal(12,2);not null" json:"amount"`
	RemainingAmount float64       `gorm:"type:decimal(12,2);not null" json:"remaining_amount"`
	Description     string        `gorm:"type:text" json:"description"`
	Payments        []DebtPayment `gorm:"foreignKey:DebtID" json:"payments,omitempty"`
	CreatedAt       time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time     `gorm:"not null" json:"updated_at"`
}

type DebtPayment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DebtID     uint      `gorm:"not null;index" json:"debt_id"`
	Amount     float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	RecordedBy uint      `json:"recorded_by"`
	PaidAt     time.Time `gorm:"not null" json:"paid_at"`
}
