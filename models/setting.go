package models

import "time"

type Setting struct {
	Key       string    `gorm:"column:setting_key;type:varchar(64);primaryKey" json:"key"`
	Value     string    `gorm:"column:setting_value;type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
