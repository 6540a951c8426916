package models

import "time"

type Question struct {
	ID          int    `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"not null" json:"description"`
	AuthorID    int    `json:"author_id"`
	Author      User   `gorm:"foreignKey:AuthorID" json:"author"`
	Views       int    `gorm:"default:0" json:"views"`
	Tags        []Tag  `gorm:"many2many:question_tags" json:"tags"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateQuestionRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}
