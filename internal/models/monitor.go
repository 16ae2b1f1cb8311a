package models

import (
	"time"
)

// Monitor is a monitor definition row. Definition holds the full JSON
// document; Name, Enabled and Type are copied out of it for querying.
type Monitor struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	Version    int64     `gorm:"not null" json:"version"`
	Type       string    `gorm:"size:50;not null;index" json:"type"`
	Name       string    `gorm:"size:255;not null;index" json:"name"`
	Enabled    bool      `gorm:"not null;index" json:"enabled"`
	Definition string    `gorm:"type:text;not null" json:"definition"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Monitor) TableName() string {
	return "monitors"
}
