package services

import (
	"time"

	"github.com/SAP-F-2025/exam-session-service/internal/models"
)

// ===== REQUESTS =====

type StartSessionRequest struct {
	ExamSetID uint `json:"exam_set_id" validate:"required"`

	// Restart discards an existing incomplete session for the same set
	Restart bool `json:"restart"`
}

type SubmitAnswerRequest struct {
	Choice int `json:"choice" validate:"choice"`
}

type CancelAction string

const (
	CancelFinish CancelAction = "finish"
	CancelPause  CancelAction = "pause"
	CancelAbort  CancelAction = "abort"
)

type CancelRequest struct {
	Action CancelAction `json:"action" validate:"required,cancel_action"`
}

// ===== RESPONSES =====

type QuestionState string

const (
	StateAwaitingAnswer QuestionState = "awaiting_answer"
	StateCompleted      QuestionState = "completed"
	StatePaused         QuestionState = "paused"
)

type SessionResponse struct {
	ID             uint       `json:"id"`
	ExamSetID      uint       `json:"exam_set_id"`
	ExamSetName    string     `json:"exam_set_name,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Score          *int       `json:"score,omitempty"`
	TotalQuestions int        `json:"total_questions"`
	Percentage     *float64   `json:"percentage,omitempty"`
	IsCompleted    bool       `json:"is_completed"`
}

type SessionListResponse struct {
	Sessions []*SessionResponse `json:"sessions"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	Size     int                `json:"size"`
}

type StartSessionResponse struct {
	Session      *SessionResponse `json:"session"`
	CurrentIndex int              `json:"current_index"`
	Total        int              `json:"total"`
}

type ResumeSessionResponse struct {
	Session      *SessionResponse `json:"session"`
	CurrentIndex int              `json:"current_index"`
	Total        int              `json:"total"`
	Answered     int              `json:"answered"`

	// Degraded is set when the set no longer has enough unanswered questions
	Degraded bool `json:"degraded"`
	ShortBy  int  `json:"short_by,omitempty"`
}

// SessionSummary is returned whenever a session reaches Completed
type SessionSummary struct {
	SessionID      uint    `json:"session_id"`
	Score          int     `json:"score"`
	TotalQuestions int     `json:"total_questions"`
	Percentage     float64 `json:"percentage"`
}

type QuestionView struct {
	ID      uint     `json:"id"`
	Text    string   `json:"text"`
	Choices []string `json:"choices"`
}

type CurrentQuestionResponse struct {
	State     QuestionState `json:"state"`
	SessionID uint          `json:"session_id"`

	// Position is 1-based; Index is the 0-based navigation index
	Position int `json:"position,omitempty"`
	Index    int `json:"index"`
	Total    int `json:"total"`

	Question       *QuestionView   `json:"question,omitempty"`
	PreviousAnswer *int            `json:"previous_answer,omitempty"`
	Result         *SessionSummary `json:"result,omitempty"`
}

type AnswerFeedback struct {
	QuestionID        uint   `json:"question_id"`
	UserAnswer        int    `json:"user_answer"`
	CorrectAnswer     int    `json:"correct_answer"`
	IsCorrect         bool   `json:"is_correct"`
	Explanation       string `json:"explanation,omitempty"`
	ChoiceExplanation string `json:"choice_explanation,omitempty"`
}

type SubmitAnswerResponse struct {
	State     QuestionState   `json:"state"`
	SessionID uint            `json:"session_id"`
	Feedback  *AnswerFeedback `json:"feedback"`
	NextIndex int             `json:"next_index"`
	Total     int             `json:"total"`
	Result    *SessionSummary `json:"result,omitempty"`
}

type NavigationResponse struct {
	SessionID    uint `json:"session_id"`
	CurrentIndex int  `json:"current_index"`
	Total        int  `json:"total"`
}

type CancelResponse struct {
	Action       CancelAction    `json:"action"`
	State        QuestionState   `json:"state"`
	SessionID    uint            `json:"session_id"`
	CurrentIndex int             `json:"current_index"`
	Result       *SessionSummary `json:"result,omitempty"`
}

type AnswerResult struct {
	QuestionOrder     int      `json:"question_order"`
	QuestionID        uint     `json:"question_id"`
	Text              string   `json:"text"`
	Choices           []string `json:"choices"`
	UserAnswer        int      `json:"user_answer"`
	CorrectAnswer     int      `json:"correct_answer"`
	IsCorrect         bool     `json:"is_correct"`
	Explanation       string   `json:"explanation,omitempty"`
	ChoiceExplanation string   `json:"choice_explanation,omitempty"`
}

type ResultResponse struct {
	SessionID      uint           `json:"session_id"`
	ExamSetID      uint           `json:"exam_set_id"`
	ExamSetName    string         `json:"exam_set_name"`
	StartedAt      time.Time      `json:"started_at"`
	CompletedAt    *time.Time     `json:"completed_at"`
	Score          int            `json:"score"`
	TotalQuestions int            `json:"total_questions"`
	Answered       int            `json:"answered"`
	Percentage     float64        `json:"percentage"`
	Answers        []AnswerResult `json:"answers"`
}

type ExamSetResponse struct {
	ID                 uint   `json:"id"`
	Name               string `json:"name"`
	Description        string `json:"description"`
	TotalQuestions     int    `json:"total_questions"`
	AvailableQuestions int64  `json:"available_questions"`
	Startable          bool   `json:"startable"`
}

type ExamSetListResponse struct {
	ExamSets []*ExamSetResponse `json:"exam_sets"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	Size     int                `json:"size"`
}

func toSessionResponse(session *models.ExamSession) *SessionResponse {
	resp := &SessionResponse{
		ID:             session.ID,
		ExamSetID:      session.ExamSetID,
		StartedAt:      session.StartedAt,
		CompletedAt:    session.CompletedAt,
		Score:          session.Score,
		TotalQuestions: session.TotalQuestions,
		IsCompleted:    session.IsCompleted,
	}
	if session.ExamSet != nil {
		resp.ExamSetName = session.ExamSet.Name
	}
	if session.IsCompleted {
		percentage := session.Percentage()
		resp.Percentage = &percentage
	}
	return resp
}

func toExamSetResponse(examSet *models.ExamSet) *ExamSetResponse {
	return &ExamSetResponse{
		ID:                 examSet.ID,
		Name:               examSet.Name,
		Description:        examSet.Description,
		TotalQuestions:     examSet.TotalQuestions,
		AvailableQuestions: examSet.AvailableQuestions,
		Startable:          examSet.Startable(),
	}
}
