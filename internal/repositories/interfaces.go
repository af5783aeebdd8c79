package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/exam-session-service/internal/models"
)

// ===== FILTERS =====

type ExamSetFilters struct {
	Query  string
	Limit  int
	Offset int
}

type ExamSessionFilters struct {
	ExamSetID   *uint
	IsCompleted *bool
	Limit       int
	Offset      int
}

// ===== REPOSITORIES =====

// ExamSetRepository manages exam sets
type ExamSetRepository interface {
	Create(ctx context.Context, tx *gorm.DB, examSet *models.ExamSet) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamSet, error)
	GetByName(ctx context.Context, tx *gorm.DB, name string) (*models.ExamSet, error)
	List(ctx context.Context, tx *gorm.DB, filters ExamSetFilters) ([]*models.ExamSet, int64, error)
	Update(ctx context.Context, tx *gorm.DB, examSet *models.ExamSet) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	ExistsByName(ctx context.Context, tx *gorm.DB, name string) (bool, error)
}

// ExamSessionRepository manages exam sessions
type ExamSessionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, session *models.ExamSession) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamSession, error)

	// Delete removes the session together with its answers
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// GetIncomplete returns the newest incomplete session of a user for a set
	GetIncomplete(ctx context.Context, tx *gorm.DB, userID string, examSetID uint) (*models.ExamSession, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters ExamSessionFilters) ([]*models.ExamSession, int64, error)

	// Complete finalizes an incomplete session; returns false if it was already completed
	Complete(ctx context.Context, tx *gorm.DB, id uint, score int, completedAt time.Time) (bool, error)
}

// AnswerRepository is the durable answer ledger
type AnswerRepository interface {
	// Upsert inserts or replaces the answer keyed by (session, question)
	Upsert(ctx context.Context, tx *gorm.DB, answer *models.Answer) error
	GetBySession(ctx context.Context, tx *gorm.DB, sessionID uint) ([]*models.Answer, error)
	GetBySessionAndQuestion(ctx context.Context, tx *gorm.DB, sessionID, questionID uint) (*models.Answer, error)

	// GetAnsweredQuestionIDs returns question ids ordered by question_order
	GetAnsweredQuestionIDs(ctx context.Context, tx *gorm.DB, sessionID uint) ([]uint, error)
	CountCorrect(ctx context.Context, tx *gorm.DB, sessionID uint) (int64, error)
	CountBySession(ctx context.Context, tx *gorm.DB, sessionID uint) (int64, error)
	DeleteBySession(ctx context.Context, tx *gorm.DB, sessionID uint) error
}
