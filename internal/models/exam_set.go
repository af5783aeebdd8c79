package models

import "time"

// ExamSet is a named pool of questions with a target session length
type ExamSet struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"not null;uniqueIndex;size:200" validate:"required,max=200"`
	Description string `json:"description" gorm:"type:text"`

	// Number of questions drawn for every session started on this set
	TotalQuestions int `json:"total_questions" gorm:"not null;default:40" validate:"min=1,max=500"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:ExamSetID;constraint:OnDelete:CASCADE"`

	// Computed
	AvailableQuestions int64 `json:"available_questions" gorm:"-"`
}

func (ExamSet) TableName() string {
	return "exam_sets"
}

// Startable reports whether the set holds enough questions for a full session
func (e *ExamSet) Startable() bool {
	return e.AvailableQuestions >= int64(e.TotalQuestions)
}
