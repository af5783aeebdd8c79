package services

import (
	"context"
	"io"

	"github.com/SAP-F-2025/exam-session-service/internal/models"
	"github.com/SAP-F-2025/exam-session-service/internal/repositories"
)

// ExamSessionService drives a user's progression through an exam session
type ExamSessionService interface {
	// Lifecycle
	StartSession(ctx context.Context, userID string, req *StartSessionRequest) (*StartSessionResponse, error)
	ResumeSession(ctx context.Context, userID string, sessionID uint) (*ResumeSessionResponse, error)
	DeleteSession(ctx context.Context, userID string, sessionID uint) error
	Cancel(ctx context.Context, userID string, req *CancelRequest) (*CancelResponse, error)

	// Progression
	CurrentQuestion(ctx context.Context, userID string) (*CurrentQuestionResponse, error)
	SubmitAnswer(ctx context.Context, userID string, req *SubmitAnswerRequest) (*SubmitAnswerResponse, error)
	PreviousQuestion(ctx context.Context, userID string) (*NavigationResponse, error)

	// Queries
	FindIncompleteSession(ctx context.Context, userID string, examSetID uint) (*SessionResponse, error)
	ListSessions(ctx context.Context, userID string, filters repositories.ExamSessionFilters) (*SessionListResponse, error)
	GetResult(ctx context.Context, userID string, sessionID uint) (*ResultResponse, error)
}

// ExamSetService exposes the exam set catalogue
type ExamSetService interface {
	List(ctx context.Context, filters repositories.ExamSetFilters) (*ExamSetListResponse, error)
	GetByID(ctx context.Context, id uint) (*ExamSetResponse, error)
}

// ImportExportService moves exam content and results in and out as xlsx
type ImportExportService interface {
	ImportExamSets(ctx context.Context, r io.Reader) (*models.ImportSummary, error)
	ExportExamSet(ctx context.Context, examSetID uint) ([]byte, error)
	ExportSessionResult(ctx context.Context, userID string, sessionID uint) ([]byte, error)
}

// ServiceManager owns service construction and lifecycle
type ServiceManager interface {
	ExamSession() ExamSessionService
	ExamSet() ExamSetService
	ImportExport() ImportExportService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
