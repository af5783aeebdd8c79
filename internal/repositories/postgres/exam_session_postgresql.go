package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/exam-session-service/internal/models"
	"github.com/SAP-F-2025/exam-session-service/internal/repositories"
)

// Sessions are mutated on every completion and are not cached
type ExamSessionPostgreSQL struct {
	helpers *SharedHelpers
}

func NewExamSessionPostgreSQL(db *gorm.DB) repositories.ExamSessionRepository {
	return &ExamSessionPostgreSQL{helpers: NewSharedHelpers(db)}
}

func (s *ExamSessionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, session *models.ExamSession) error {
	return s.helpers.DB(tx).WithContext(ctx).Omit("ExamSet", "Answers").Create(session).Error
}

func (s *ExamSessionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamSession, error) {
	var session models.ExamSession
	if err := s.helpers.DB(tx).WithContext(ctx).First(&session, id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *ExamSessionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := s.helpers.DB(tx).WithContext(ctx).Delete(&models.ExamSession{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *ExamSessionPostgreSQL) GetIncomplete(ctx context.Context, tx *gorm.DB, userID string, examSetID uint) (*models.ExamSession, error) {
	var session models.ExamSession
	if err := s.helpers.DB(tx).WithContext(ctx).
		Where("user_id = ? AND exam_set_id = ? AND is_completed = ?", userID, examSetID, false).
		Order("started_at DESC").
		First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *ExamSessionPostgreSQL) ListByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.ExamSessionFilters) ([]*models.ExamSession, int64, error) {
	var sessions []*models.ExamSession
	var total int64

	query := s.helpers.DB(tx).WithContext(ctx).Model(&models.ExamSession{}).Where("user_id = ?", userID)
	query = s.helpers.ApplySessionFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = s.helpers.ApplyPagination(query.Order("started_at DESC"), filters.Limit, filters.Offset)
	if err := query.Preload("ExamSet").Find(&sessions).Error; err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}

func (s *ExamSessionPostgreSQL) Complete(ctx context.Context, tx *gorm.DB, id uint, score int, completedAt time.Time) (bool, error) {
	result := s.helpers.DB(tx).WithContext(ctx).
		Model(&models.ExamSession{}).
		Where("id = ? AND is_completed = ?", id, false).
		Updates(map[string]interface{}{
			"score":        score,
			"completed_at": completedAt,
			"is_completed": true,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
