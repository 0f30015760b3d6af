package model

import "time"

// swagger:model Quiz
type Quiz struct {
	BaseModel
	QuizName      string `gorm:"size:200;unique;not null" json:"quizName"`
	TopicDomain   string `gorm:"size:200" json:"topicDomain"`
	TargetLevel   string `gorm:"size:50" json:"targetLevel"` // Beginner, Intermediate, Advanced
	CertReference string `gorm:"size:200" json:"certReference,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// QuizQuestion tags a question into a quiz (many-to-many).
type QuizQuestion struct {
	QuizID     uint      `gorm:"primaryKey;autoIncrement:false" json:"quizId"`
	QuestionID uint      `gorm:"primaryKey;autoIncrement:false" json:"questionId"`
	AddedAt    time.Time `gorm:"autoCreateTime" json:"addedAt"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}
