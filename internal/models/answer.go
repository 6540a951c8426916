package models

import "time"

type Answer struct {
	ID         int    `gorm:"primaryKey" json:"id"`
	Content    string `gorm:"not null" json:"content"`
	QuestionID int    `gorm:"index" json:"question_id"`
	AuthorID   int    `json:"author_id"`
	Author     User   `gorm:"foreignKey:AuthorID" json:"author"`
	IsAccepted bool   `gorm:"default:false" json:"is_accepted"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateAnswerRequest struct {
	Content    string `json:"content"`
	QuestionID int    `json:"question_id"`
}
