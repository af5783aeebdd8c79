package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/exam-session-service/internal/models"
)

// ErrNavigationNotFound is returned when a user has no active navigation pointer
var ErrNavigationNotFound = errors.New("navigation pointer not found")

// NavigationStore holds the per-user cursor over the active exam session.
// Losing an entry is recoverable: the pointer can be rebuilt from the answer ledger.
type NavigationStore interface {
	Get(ctx context.Context, userID string) (*models.NavigationPointer, error)
	Save(ctx context.Context, userID string, pointer *models.NavigationPointer) error
	Clear(ctx context.Context, userID string) error
}

// NewNavigationStore returns a redis-backed store, or an in-process one when client is nil
func NewNavigationStore(client *redis.Client, ttl time.Duration) NavigationStore {
	if ttl <= 0 {
		ttl = NavigationCacheConfig.TTL
	}
	if client == nil {
		return NewMemoryNavigationStore()
	}
	return &RedisNavigationStore{
		helper: NewCacheHelper(client, NavigationCacheConfig.Prefix),
		ttl:    ttl,
	}
}

// RedisNavigationStore keeps pointers under nav:{user_id} with a sliding TTL refreshed on every read and save
type RedisNavigationStore struct {
	helper *CacheHelper
	ttl    time.Duration
}

func (s *RedisNavigationStore) Get(ctx context.Context, userID string) (*models.NavigationPointer, error) {
	var pointer models.NavigationPointer
	if err := s.helper.Get(ctx, userID, &pointer); err != nil {
		if errors.Is(err, ErrCacheNotFound) {
			return nil, ErrNavigationNotFound
		}
		return nil, fmt.Errorf("failed to load navigation pointer: %w", err)
	}

	// Reads extend the lifetime of an active pointer
	if err := s.helper.client.Expire(ctx, s.helper.GetCacheKey(userID), s.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "Failed to refresh navigation pointer TTL", "error", err, "user_id", userID)
	}
	return &pointer, nil
}

func (s *RedisNavigationStore) Save(ctx context.Context, userID string, pointer *models.NavigationPointer) error {
	if err := s.helper.Set(ctx, userID, pointer, s.ttl); err != nil {
		return fmt.Errorf("failed to save navigation pointer: %w", err)
	}
	return nil
}

func (s *RedisNavigationStore) Clear(ctx context.Context, userID string) error {
	if err := s.helper.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear navigation pointer: %w", err)
	}
	return nil
}

// MemoryNavigationStore is a process-local store for single-instance deployments and tests
type MemoryNavigationStore struct {
	mu       sync.RWMutex
	pointers map[string]models.NavigationPointer
}

func NewMemoryNavigationStore() *MemoryNavigationStore {
	return &MemoryNavigationStore{pointers: make(map[string]models.NavigationPointer)}
}

func (s *MemoryNavigationStore) Get(_ context.Context, userID string) (*models.NavigationPointer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pointer, ok := s.pointers[userID]
	if !ok {
		return nil, ErrNavigationNotFound
	}
	pointer.QuestionIDs = append([]uint(nil), pointer.QuestionIDs...)
	return &pointer, nil
}

func (s *MemoryNavigationStore) Save(_ context.Context, userID string, pointer *models.NavigationPointer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *pointer
	stored.QuestionIDs = append([]uint(nil), pointer.QuestionIDs...)
	s.pointers[userID] = stored
	return nil
}

func (s *MemoryNavigationStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pointers, userID)
	return nil
}
