package model

import "encoding/json"

type ResponseType string

const (
	ResponseSingle   ResponseType = "single"
	ResponseMultiple ResponseType = "multiple"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Question is a multiple-choice question authored by an admin.
// OptionsText keeps the stored "A. ...\nB. ..." block; ValidationData is the
// raw dual-model consensus payload recorded at authoring time.
// swagger:model Question
type Question struct {
	BaseModel
	QuestionText   string          `gorm:"type:text;not null" json:"questionText"`
	OptionsText    string          `gorm:"type:text;not null" json:"optionsText"`
	ResponseType   ResponseType    `gorm:"type:enum('single','multiple');default:'single'" json:"responseType"`
	CorrectAnswer  string          `gorm:"size:20;not null" json:"correctAnswer"`
	ExpectedCount  *int            `json:"expectedCount,omitempty"`
	Difficulty     Difficulty      `gorm:"type:enum('Easy','Medium','Hard');default:'Medium';index" json:"difficulty"`
	LLMValidated   bool            `gorm:"default:false" json:"llmValidated"`
	LLMConflict    bool            `gorm:"default:false;index" json:"llmConflict"`
	ValidationData json.RawMessage `gorm:"type:json" json:"validationData,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}
