package casdoor

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/exam-session-service/internal/cache"
	"github.com/SAP-F-2025/exam-session-service/internal/models"
	"github.com/SAP-F-2025/exam-session-service/internal/repositories"
)

// CasdoorConfig holds the configuration for Casdoor connection
type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

// userSource is the subset of the Casdoor client used here
type userSource interface {
	GetUserByUserId(userId string) (*casdoorsdk.User, error)
}

type UserCasdoor struct {
	client userSource
	cache  *cache.CacheHelper
	ttl    time.Duration
}

func NewUserCasdoor(config CasdoorConfig, redisClient *redis.Client) repositories.UserRepository {
	client := casdoorsdk.NewClient(
		config.Endpoint,
		config.ClientID,
		config.ClientSecret,
		config.Certificate,
		config.OrganizationName,
		config.ApplicationName,
	)
	return newUserCasdoor(client, redisClient)
}

func newUserCasdoor(client userSource, redisClient *redis.Client) *UserCasdoor {
	return &UserCasdoor{
		client: client,
		cache:  cache.NewCacheHelper(redisClient, "user:"),
		ttl:    15 * time.Minute,
	}
}

// GetByID retrieves a user by Casdoor user id
func (u *UserCasdoor) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := u.cache.CacheOrExecute(ctx, "id:"+id, &user, u.ttl, func() (interface{}, error) {
		casdoorUser, err := u.client.GetUserByUserId(id)
		if err != nil {
			return nil, fmt.Errorf("failed to get user from Casdoor: %w", err)
		}
		if casdoorUser == nil {
			return nil, fmt.Errorf("user %s: %w", id, repositories.ErrNotFound)
		}
		return convertCasdoorUser(casdoorUser), nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ExistsByID checks if a user exists
func (u *UserCasdoor) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, err := u.GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func convertCasdoorUser(casdoorUser *casdoorsdk.User) *models.User {
	var createdAt, updatedAt time.Time
	if casdoorUser.CreatedTime != "" {
		createdAt, _ = time.Parse(time.RFC3339, casdoorUser.CreatedTime)
	}
	if casdoorUser.UpdatedTime != "" {
		updatedAt, _ = time.Parse(time.RFC3339, casdoorUser.UpdatedTime)
	}

	avatar := casdoorUser.Avatar
	return &models.User{
		ID:            casdoorUser.Id,
		Name:          casdoorUser.Name,
		FullName:      casdoorUser.DisplayName,
		Email:         casdoorUser.Email,
		Role:          RoleFromCasdoorUser(casdoorUser),
		AvatarURL:     &avatar,
		EmailVerified: casdoorUser.EmailVerified,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
}

// RoleFromCasdoorUser maps Casdoor roles to the highest internal role
func RoleFromCasdoorUser(casdoorUser *casdoorsdk.User) models.UserRole {
	var roles []models.UserRole
	for _, role := range casdoorUser.Roles {
		if role == nil {
			continue
		}
		roles = append(roles, MapRole(role.Name))
	}

	if casdoorUser.IsAdmin || slices.Contains(roles, models.RoleAdmin) {
		return models.RoleAdmin
	}
	if slices.Contains(roles, models.RoleTeacher) {
		return models.RoleTeacher
	}
	if casdoorUser.Type != "" {
		return MapRole(casdoorUser.Type)
	}
	return models.RoleStudent
}

// MapRole maps a single Casdoor role or user type name
func MapRole(name string) models.UserRole {
	switch strings.ToLower(name) {
	case "admin", "administrator":
		return models.RoleAdmin
	case "teacher", "instructor", "educator":
		return models.RoleTeacher
	case "student", "learner":
		return models.RoleStudent
	default:
		slog.Debug("Unknown Casdoor role, defaulting to student", "role", name)
		return models.RoleStudent
	}
}
