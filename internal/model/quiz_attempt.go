package model

import (
	"encoding/json"
	"time"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptAbandoned  AttemptStatus = "abandoned"
)

// QuizAttempt is one user's run through a quiz. QuestionIDs is the ordered
// set drawn by the sampler at creation time; CorrectCount is only
// authoritative once Status is completed.
// swagger:model QuizAttempt
type QuizAttempt struct {
	BaseModel
	UserID             uint            `gorm:"index;not null" json:"userId"`
	QuizID             uint            `gorm:"index;not null" json:"quizId"`
	SessionID          string          `gorm:"size:36;uniqueIndex;not null" json:"sessionId"`
	QuestionIDs        json.RawMessage `gorm:"type:json" json:"questionIds"`
	DifficultySelected Difficulty      `gorm:"type:enum('Easy','Medium','Hard')" json:"difficultySelected"`
	Status             AttemptStatus   `gorm:"type:enum('in_progress','completed','abandoned');default:'in_progress';index" json:"status"`
	TotalQuestions     int             `gorm:"not null" json:"totalQuestions"`
	CorrectCount       int             `gorm:"default:0" json:"correctCount"`
	StartedAt          time.Time       `gorm:"autoCreateTime" json:"startedAt"`
	CompletedAt        *time.Time      `json:"completedAt,omitempty"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

func (a *QuizAttempt) Questions() ([]uint, error) {
	var ids []uint
	if len(a.QuestionIDs) == 0 {
		return ids, nil
	}
	err := json.Unmarshal(a.QuestionIDs, &ids)
	return ids, err
}

func (a *QuizAttempt) SetQuestions(ids []uint) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	a.QuestionIDs = raw
	return nil
}
