package repositories

import (
	"context"

	"github.com/SAP-F-2025/exam-session-service/internal/models"
)

// UserRepository reads user identities; the service does not own user data
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
}
