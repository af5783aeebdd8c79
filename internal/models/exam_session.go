package models

import "time"

// ExamSession is one user's attempt at an exam set
type ExamSession struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	UserID    string `json:"user_id" gorm:"not null;index:idx_session_user_set;size:255"`
	ExamSetID uint   `json:"exam_set_id" gorm:"not null;index:idx_session_user_set"`

	StartedAt   time.Time  `json:"started_at" gorm:"not null"`
	CompletedAt *time.Time `json:"completed_at"`
	Score       *int       `json:"score"`

	// Snapshot of the set's length when the session started
	TotalQuestions int  `json:"total_questions" gorm:"not null"`
	IsCompleted    bool `json:"is_completed" gorm:"not null;default:false;index"`

	// Relations
	ExamSet *ExamSet `json:"exam_set,omitempty" gorm:"foreignKey:ExamSetID"`
	Answers []Answer `json:"answers,omitempty" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

func (ExamSession) TableName() string {
	return "exam_sessions"
}

// Percentage returns score over total rounded to one decimal place
func (s *ExamSession) Percentage() float64 {
	if s.Score == nil {
		return 0
	}
	return Percentage(*s.Score, s.TotalQuestions)
}

// Answer records a single response; at most one per (session, question)
type Answer struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	SessionID  uint `json:"session_id" gorm:"not null;uniqueIndex:idx_answer_session_question"`
	QuestionID uint `json:"question_id" gorm:"not null;uniqueIndex:idx_answer_session_question"`

	// 1-based position of the question within the session
	QuestionOrder int       `json:"question_order" gorm:"not null"`
	UserAnswer    int       `json:"user_answer" gorm:"not null"`
	IsCorrect     bool      `json:"is_correct" gorm:"not null"`
	AnsweredAt    time.Time `json:"answered_at" gorm:"not null"`

	Question *Question `json:"question,omitempty" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

func (Answer) TableName() string {
	return "answers"
}
