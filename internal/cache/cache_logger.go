package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern invalidates a cache pattern, logging failures
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete deletes cache keys, logging failures
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateExamSetCache drops the cached set and cached set listings
func InvalidateExamSetCache(ctx context.Context, cm *CacheManager, examSetID uint) {
	SafeDelete(ctx, cm.ExamSet, fmt.Sprintf("id:%d", examSetID))
	SafeInvalidatePattern(ctx, cm.ExamSet, "list:*")
}
