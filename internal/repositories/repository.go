package repositories

import "context"

// Repository aggregates all repositories used by the service
type Repository interface {
	ExamSet() ExamSetRepository
	Question() QuestionRepository
	Session() ExamSessionRepository
	Answer() AnswerRepository

	// User domain (read-only, backed by Casdoor)
	User() UserRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager manages repository lifecycle
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
