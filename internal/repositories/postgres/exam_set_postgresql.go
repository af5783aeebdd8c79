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

type ExamSetPostgreSQL struct {
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewExamSetPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ExamSetRepository {
	return &ExamSetPostgreSQL{
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (e *ExamSetPostgreSQL) Create(ctx context.Context, tx *gorm.DB, examSet *models.ExamSet) error {
	if err := e.helpers.DB(tx).WithContext(ctx).Omit("Questions").Create(examSet).Error; err != nil {
		return err
	}
	cache.SafeInvalidatePattern(ctx, e.cacheManager.ExamSet, "list:*")
	return nil
}

func (e *ExamSetPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamSet, error) {
	db := e.helpers.DB(tx)
	var examSet models.ExamSet

	// Reads inside a transaction bypass the cache
	if tx != nil {
		if err := db.WithContext(ctx).First(&examSet, id).Error; err != nil {
			return nil, err
		}
		return &examSet, nil
	}

	err := e.cacheManager.ExamSet.CacheOrExecute(ctx, fmt.Sprintf("id:%d", id), &examSet, cache.ExamSetCacheConfig.TTL, func() (interface{}, error) {
		var dbExamSet models.ExamSet
		if err := db.WithContext(ctx).First(&dbExamSet, id).Error; err != nil {
			return nil, err
		}
		return &dbExamSet, nil
	})
	if err != nil {
		return nil, err
	}
	return &examSet, nil
}

func (e *ExamSetPostgreSQL) GetByName(ctx context.Context, tx *gorm.DB, name string) (*models.ExamSet, error) {
	var examSet models.ExamSet
	if err := e.helpers.DB(tx).WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", name).
		First(&examSet).Error; err != nil {
		return nil, err
	}
	return &examSet, nil
}

// examSetPage is the cached form of one List result
type examSetPage struct {
	Items []*models.ExamSet `json:"items"`
	Total int64             `json:"total"`
}

func (e *ExamSetPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ExamSetFilters) ([]*models.ExamSet, int64, error) {
	if tx != nil {
		return e.list(ctx, tx, filters)
	}

	var page examSetPage
	key := fmt.Sprintf("list:%q:%d:%d", filters.Query, filters.Limit, filters.Offset)
	err := e.cacheManager.ExamSet.CacheOrExecute(ctx, key, &page, cache.ExamSetCacheConfig.TTL, func() (interface{}, error) {
		items, total, err := e.list(ctx, nil, filters)
		if err != nil {
			return nil, err
		}
		return &examSetPage{Items: items, Total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return page.Items, page.Total, nil
}

func (e *ExamSetPostgreSQL) list(ctx context.Context, tx *gorm.DB, filters repositories.ExamSetFilters) ([]*models.ExamSet, int64, error) {
	db := e.helpers.DB(tx)
	var examSets []*models.ExamSet
	var total int64

	query := db.WithContext(ctx).Model(&models.ExamSet{})
	if filters.Query != "" {
		like := "%" + filters.Query + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = e.helpers.ApplyPagination(query.Order("name ASC"), filters.Limit, filters.Offset)
	if err := query.Find(&examSets).Error; err != nil {
		return nil, 0, err
	}

	if err := e.attachQuestionCounts(ctx, db, examSets); err != nil {
		return nil, 0, err
	}

	return examSets, total, nil
}

// attachQuestionCounts fills AvailableQuestions with one grouped query
func (e *ExamSetPostgreSQL) attachQuestionCounts(ctx context.Context, db *gorm.DB, examSets []*models.ExamSet) error {
	if len(examSets) == 0 {
		return nil
	}

	ids := make([]uint, len(examSets))
	for i, s := range examSets {
		ids[i] = s.ID
	}

	var rows []struct {
		ExamSetID uint
		Count     int64
	}
	if err := db.WithContext(ctx).
		Model(&models.Question{}).
		Select("exam_set_id, COUNT(*) AS count").
		Where("exam_set_id IN ?", ids).
		Group("exam_set_id").
		Scan(&rows).Error; err != nil {
		return fmt.Errorf("failed to count questions: %w", err)
	}

	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.ExamSetID] = r.Count
	}
	for _, s := range examSets {
		s.AvailableQuestions = counts[s.ID]
	}
	return nil
}

func (e *ExamSetPostgreSQL) Update(ctx context.Context, tx *gorm.DB, examSet *models.ExamSet) error {
	if err := e.helpers.DB(tx).WithContext(ctx).Omit("Questions").Save(examSet).Error; err != nil {
		return err
	}
	cache.InvalidateExamSetCache(ctx, e.cacheManager, examSet.ID)
	return nil
}

func (e *ExamSetPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	if err := e.helpers.DB(tx).WithContext(ctx).Delete(&models.ExamSet{}, id).Error; err != nil {
		return err
	}
	cache.InvalidateExamSetCache(ctx, e.cacheManager, id)
	return nil
}

func (e *ExamSetPostgreSQL) ExistsByName(ctx context.Context, tx *gorm.DB, name string) (bool, error) {
	var count int64
	err := e.helpers.DB(tx).WithContext(ctx).
		Model(&models.ExamSet{}).
		Where("LOWER(name) = LOWER(?)", name).
		Count(&count).Error
	return count > 0, err
}
