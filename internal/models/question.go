package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ChoiceCount = 4
	MinChoice   = 1
	MaxChoice   = 4
)

// Question is a four-choice item belonging to a single exam set
type Question struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	ExamSetID uint   `json:"exam_set_id" gorm:"not null;index"`
	Text      string `json:"text" gorm:"type:text;not null" validate:"required"`

	// Exactly four choice texts, index 0 is choice 1
	Choices       datatypes.JSONSlice[string] `json:"choices" gorm:"type:jsonb;not null"`
	CorrectAnswer int                         `json:"correct_answer" gorm:"not null" validate:"min=1,max=4"`

	// Feedback
	Explanation        string                      `json:"explanation" gorm:"type:text"`
	ChoiceExplanations datatypes.JSONSlice[string] `json:"choice_explanations" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ExamSet *ExamSet `json:"-" gorm:"foreignKey:ExamSetID"`
}

func (Question) TableName() string {
	return "questions"
}

// IsCorrect reports whether choice matches the correct answer
func (q *Question) IsCorrect(choice int) bool {
	return choice == q.CorrectAnswer
}

// ChoiceExplanation returns the explanation for a 1-based choice, or empty
func (q *Question) ChoiceExplanation(choice int) string {
	if choice < MinChoice || choice > len(q.ChoiceExplanations) {
		return ""
	}
	return q.ChoiceExplanations[choice-1]
}

// ValidChoice reports whether choice is one of the four options
func ValidChoice(choice int) bool {
	return choice >= MinChoice && choice <= MaxChoice
}
