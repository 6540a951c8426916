package models

import "time"

const (
	NotificationQuestionAnswered = "QUESTION_ANSWERED"
	NotificationAnswerAccepted   = "ANSWER_ACCEPTED"
)

type Notification struct {
	ID      int    `gorm:"primaryKey" json:"id"`
	UserID  int    `gorm:"index" json:"user_id"`
	Type    string `gorm:"not null" json:"type"`
	Message string `gorm:"not null" json:"message"`
	Read    bool   `gorm:"default:false" json:"read"`

	CreatedAt time.Time `json:"created_at"`
}
