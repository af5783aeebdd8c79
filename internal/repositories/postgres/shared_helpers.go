package postgres

import (
	"gorm.io/gorm"

	"github.com/SAP-F-2025/exam-session-service/internal/repositories"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// SharedHelpers contains query building shared by the sub-repositories
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// DB returns tx when set, else the base connection
func (h *SharedHelpers) DB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return h.db
}

// ApplyPagination clamps limit/offset and applies them to query
func (h *SharedHelpers) ApplyPagination(query *gorm.DB, limit, offset int) *gorm.DB {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return query.Limit(limit).Offset(offset)
}

// ApplySessionFilters applies exam session filters
func (h *SharedHelpers) ApplySessionFilters(query *gorm.DB, filters repositories.ExamSessionFilters) *gorm.DB {
	if filters.ExamSetID != nil {
		query = query.Where("exam_set_id = ?", *filters.ExamSetID)
	}
	if filters.IsCompleted != nil {
		query = query.Where("is_completed = ?", *filters.IsCompleted)
	}
	return query
}
