package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/exam-session-service/internal/cache"
	"github.com/SAP-F-2025/exam-session-service/internal/models"
	"github.com/SAP-F-2025/exam-session-service/internal/repositories"
)

type QuestionPostgreSQL struct {
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	if err := q.helpers.DB(tx).WithContext(ctx).Create(question).Error; err != nil {
		return err
	}
	cache.InvalidateExamSetCache(ctx, q.cacheManager, question.ExamSetID)
	return nil
}

func (q *QuestionPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	if err := q.helpers.DB(tx).WithContext(ctx).CreateInBatches(questions, 200).Error; err != nil {
		return err
	}

	touched := make(map[uint]bool)
	for _, question := range questions {
		if !touched[question.ExamSetID] {
			touched[question.ExamSetID] = true
			cache.InvalidateExamSetCache(ctx, q.cacheManager, question.ExamSetID)
		}
	}
	return nil
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := q.helpers.DB(tx)
	var question models.Question

	err := q.cacheManager.Question.CacheOrExecute(ctx, fmt.Sprintf("id:%d", id), &question, cache.QuestionCacheConfig.TTL, func() (interface{}, error) {
		var dbQuestion models.Question
		if err := db.WithContext(ctx).First(&dbQuestion, id).Error; err != nil {
			return nil, err
		}
		return &dbQuestion, nil
	})
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) ListByExamSet(ctx context.Context, tx *gorm.DB, examSetID uint) ([]*models.Question, error) {
	var questions []*models.Question
	err := q.helpers.DB(tx).WithContext(ctx).
		Where("exam_set_id = ?", examSetID).
		Order("id ASC").
		Find(&questions).Error
	return questions, err
}

func (q *QuestionPostgreSQL) GetIDsByExamSet(ctx context.Context, tx *gorm.DB, examSetID uint) ([]uint, error) {
	var ids []uint
	err := q.helpers.DB(tx).WithContext(ctx).
		Model(&models.Question{}).
		Where("exam_set_id = ?", examSetID).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (q *QuestionPostgreSQL) CountByExamSet(ctx context.Context, tx *gorm.DB, examSetID uint) (int64, error) {
	var count int64
	err := q.helpers.DB(tx).WithContext(ctx).
		Model(&models.Question{}).
		Where("exam_set_id = ?", examSetID).
		Count(&count).Error
	return count, err
}
