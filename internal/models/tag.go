package models

import "time"

type Tag struct {
	ID    int    `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"unique;not null" json:"name"`
	Color string `json:"color"`

	CreatedAt time.Time `json:"created_at"`
}
