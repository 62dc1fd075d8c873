package models

import "time"

const (
	RoleAdmin   = "admin"
	RoleStaff   = "staff"
	RoleCast    = "cast"
	RoleKitchen = "kitchen"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Role         string    `gorm:"type:varchar(20);not null;index" json:"role"`
	Active       bool      `gorm:"not null" json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func ValidRole(r string) bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleCast, RoleKitchen:
		return true
	}
	return false
}
