package models

import "time"

// Vote tracks one user's polarity on exactly one target: a question or an
// answer, never both. The composite unique indexes are the storage-level
// backstop for the one-vote-per-user-per-target rule; NULL target ids do not
// collide under either Postgres or sqlite semantics.
type Vote struct {
	ID         int    `gorm:"primaryKey" json:"id"`
	UserID     int    `gorm:"uniqueIndex:idx_votes_user_question;uniqueIndex:idx_votes_user_answer" json:"user_id"`
	QuestionID *int   `gorm:"uniqueIndex:idx_votes_user_question" json:"question_id,omitempty"`
	AnswerID   *int   `gorm:"uniqueIndex:idx_votes_user_answer" json:"answer_id,omitempty"`
	Type       string `gorm:"not null" json:"type"` // UP or DOWN

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
