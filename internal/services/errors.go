package services

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/exam-session-service/internal/validator"
)

var (
	ErrExamSetNotFound         = errors.New("exam set not found")
	ErrSessionNotFound         = errors.New("exam session not found")
	ErrNoActiveSession         = errors.New("no active exam session")
	ErrInvalidChoice           = errors.New("choice must be between 1 and 4")
	ErrInvalidCancelAction     = errors.New("cancel action must be one of finish, pause, abort")
	ErrSessionAlreadyCompleted = errors.New("exam session already completed")
	ErrSessionNotCompleted     = errors.New("exam session not completed yet")
	ErrSessionNotDeletable     = errors.New("completed exam sessions cannot be deleted")
	ErrInvalidImportFile       = errors.New("invalid import workbook")
)

// ValidationErrors is re-exported so handlers only depend on services
type ValidationErrors = validator.ValidationErrors

// InsufficientQuestionsError is returned when a set has fewer questions than a session needs
type InsufficientQuestionsError struct {
	ExamSetID uint
	Available int64
	Required  int
}

func (e *InsufficientQuestionsError) Error() string {
	return fmt.Sprintf("exam set %d has %d questions, %d required", e.ExamSetID, e.Available, e.Required)
}

// IncompleteSessionExistsError asks the caller to resume or confirm a restart
type IncompleteSessionExistsError struct {
	SessionID uint
	ExamSetID uint
	Answered  int64
}

func (e *IncompleteSessionExistsError) Error() string {
	return fmt.Sprintf("incomplete exam session %d exists for exam set %d", e.SessionID, e.ExamSetID)
}
