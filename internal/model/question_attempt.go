package model

import (
	"encoding/json"
	"time"
)

// QuestionAttempt records a single answer or skip within a quiz attempt.
// At most one live row exists per (quiz_attempt_id, question_id); a later
// write for the same pair overwrites the earlier one.
// swagger:model QuestionAttempt
type QuestionAttempt struct {
	BaseModel
	QuizAttemptID uint            `gorm:"not null;uniqueIndex:idx_attempt_question" json:"quizAttemptId"`
	QuestionID    uint            `gorm:"not null;uniqueIndex:idx_attempt_question" json:"questionId"`
	UserAnswer    *string         `gorm:"size:20" json:"userAnswer"`
	IsCorrect     bool            `gorm:"default:false" json:"isCorrect"`
	Explanation   string          `gorm:"type:text" json:"explanation,omitempty"`
	References    json.RawMessage `gorm:"type:json" json:"references,omitempty"`
	Skipped       bool            `gorm:"default:false" json:"skipped"`
	AnsweredAt    time.Time       `json:"answeredAt"`
}

func (QuestionAttempt) TableName() string {
	return "question_attempts"
}
