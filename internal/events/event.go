package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventSource  = "exam-session-service"
	EventVersion = "1.0"
)

type EventType string

const (
	ExamSessionStarted   EventType = "exam_session.started"
	ExamSessionResumed   EventType = "exam_session.resumed"
	ExamSessionPaused    EventType = "exam_session.paused"
	ExamSessionCompleted EventType = "exam_session.completed"
	ExamSessionDeleted   EventType = "exam_session.deleted"
)

// Event is the envelope published for every session lifecycle change
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent builds an event envelope with a fresh id
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// ExamSessionEvent is the payload of all exam_session.* events
type ExamSessionEvent struct {
	SessionID      uint    `json:"session_id"`
	UserID         string  `json:"user_id"`
	ExamSetID      uint    `json:"exam_set_id"`
	TotalQuestions int     `json:"total_questions"`
	Answered       int     `json:"answered,omitempty"`
	Score          *int    `json:"score,omitempty"`
	Percentage     float64 `json:"percentage,omitempty"`
	Reason         string  `json:"reason,omitempty"`
}
