package models

import "time"

type SystemLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      *uint     `gorm:"index" json:"user_id"`
	User        *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action      string    `gorm:"type:varchar(64);not null;index" json:"action"`
	Description string    `gorm:"type:text" json:"description"`
	IPAddress   string    `gorm:"type:varchar(64)" json:"ip_address"`
	UserAgent   string    `gorm:"type:varchar(255)" json:"user_agent"`
	CreatedAt   time.Time `gorm:"not null;index" json:"created_at"`
}
