package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/exam-session-service/internal/models"
)

// QuestionRepository is the question store consumed by the session engine
type QuestionRepository interface {
	// Basic operations
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)

	// Exam set queries
	ListByExamSet(ctx context.Context, tx *gorm.DB, examSetID uint) ([]*models.Question, error)
	GetIDsByExamSet(ctx context.Context, tx *gorm.DB, examSetID uint) ([]uint, error)
	CountByExamSet(ctx context.Context, tx *gorm.DB, examSetID uint) (int64, error)
}
