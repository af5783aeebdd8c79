package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/exam-session-service/internal/models"
	"github.com/SAP-F-2025/exam-session-service/internal/repositories"
)

type AnswerPostgreSQL struct {
	helpers *SharedHelpers
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{helpers: NewSharedHelpers(db)}
}

// Upsert relies on the unique index over (session_id, question_id)
func (a *AnswerPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, answer *models.Answer) error {
	return a.helpers.DB(tx).WithContext(ctx).
		Omit("Question").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"question_order", "user_answer", "is_correct", "answered_at"}),
		}).
		Create(answer).Error
}

func (a *AnswerPostgreSQL) GetBySession(ctx context.Context, tx *gorm.DB, sessionID uint) ([]*models.Answer, error) {
	var answers []*models.Answer
	err := a.helpers.DB(tx).WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("question_order ASC").
		Preload("Question").
		Find(&answers).Error
	return answers, err
}

func (a *AnswerPostgreSQL) GetBySessionAndQuestion(ctx context.Context, tx *gorm.DB, sessionID, questionID uint) (*models.Answer, error) {
	var answer models.Answer
	if err := a.helpers.DB(tx).WithContext(ctx).
		Where("session_id = ? AND question_id = ?", sessionID, questionID).
		First(&answer).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

func (a *AnswerPostgreSQL) GetAnsweredQuestionIDs(ctx context.Context, tx *gorm.DB, sessionID uint) ([]uint, error) {
	var ids []uint
	err := a.helpers.DB(tx).WithContext(ctx).
		Model(&models.Answer{}).
		Where("session_id = ?", sessionID).
		Order("question_order ASC").
		Pluck("question_id", &ids).Error
	return ids, err
}

func (a *AnswerPostgreSQL) CountCorrect(ctx context.Context, tx *gorm.DB, sessionID uint) (int64, error) {
	var count int64
	err := a.helpers.DB(tx).WithContext(ctx).
		Model(&models.Answer{}).
		Where("session_id = ? AND is_correct = ?", sessionID, true).
		Count(&count).Error
	return count, err
}

func (a *AnswerPostgreSQL) CountBySession(ctx context.Context, tx *gorm.DB, sessionID uint) (int64, error) {
	var count int64
	err := a.helpers.DB(tx).WithContext(ctx).
		Model(&models.Answer{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	return count, err
}

func (a *AnswerPostgreSQL) DeleteBySession(ctx context.Context, tx *gorm.DB, sessionID uint) error {
	return a.helpers.DB(tx).WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&models.Answer{}).Error
}
