package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-session-service/internal/config"
	"github.com/SAP-F-2025/exam-session-service/internal/models"
	"github.com/SAP-F-2025/exam-session-service/internal/repositories"
	"github.com/SAP-F-2025/exam-session-service/internal/repositories/casdoor"
)

// TokenParser validates a bearer token and returns its claims
type TokenParser interface {
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
}

// CasdoorAuthMiddleware provides authentication using Casdoor SDK
type CasdoorAuthMiddleware struct {
	parser   TokenParser
	userRepo repositories.UserRepository
	logger   *slog.Logger
}

// NewCasdoorAuthMiddleware creates a new Casdoor authentication middleware
func NewCasdoorAuthMiddleware(cfg config.CasdoorConfig, userRepo repositories.UserRepository, logger *slog.Logger) *CasdoorAuthMiddleware {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)
	return NewCasdoorAuthMiddlewareWithParser(client, userRepo, logger)
}

func NewCasdoorAuthMiddlewareWithParser(parser TokenParser, userRepo repositories.UserRepository, logger *slog.Logger) *CasdoorAuthMiddleware {
	return &CasdoorAuthMiddleware{
		parser:   parser,
		userRepo: userRepo,
		logger:   logger,
	}
}

// AuthMiddleware returns a Gin middleware function for Casdoor authentication
func (cam *CasdoorAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "unauthorized",
				Details: "missing or malformed authorization header",
			})
			return
		}

		claims, err := cam.parser.ParseJwtToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "unauthorized",
				Details: fmt.Sprintf("invalid token: %v", err),
			})
			return
		}

		user, err := cam.extractUserFromClaims(c.Request.Context(), claims)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "unauthorized",
				Details: err.Error(),
			})
			return
		}

		setUser(c, user)
		c.Next()
	}
}

// RequireRoleMiddleware checks if user has required role; admins always pass
func (cam *CasdoorAuthMiddleware) RequireRoleMiddleware(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := GetUserRoleFromContext(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "forbidden",
				Details: err.Error(),
			})
			return
		}

		allowed := role == models.RoleAdmin
		for _, requiredRole := range requiredRoles {
			if role == requiredRole {
				allowed = true
				break
			}
		}

		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "forbidden",
				Details: fmt.Sprintf("insufficient permissions, required role: %v", requiredRoles),
			})
			return
		}

		c.Next()
	}
}

// extractUserFromClaims prefers the stored Casdoor profile and falls back to the token
func (cam *CasdoorAuthMiddleware) extractUserFromClaims(ctx context.Context, claims *casdoorsdk.Claims) (*models.User, error) {
	userID := claims.Id
	if userID == "" {
		return nil, fmt.Errorf("invalid user ID in token")
	}

	if cam.userRepo != nil {
		user, err := cam.userRepo.GetByID(ctx, userID)
		if err == nil {
			return user, nil
		}
		cam.logger.Debug("Falling back to token claims for user", "user_id", userID, "error", err)
	}

	return createUserFromClaims(claims), nil
}

func createUserFromClaims(claims *casdoorsdk.Claims) *models.User {
	avatarURL := claims.User.Avatar
	now := time.Now()
	return &models.User{
		ID:            claims.Id,
		Name:          claims.User.Name,
		FullName:      claims.User.DisplayName,
		Email:         claims.User.Email,
		Role:          casdoor.RoleFromCasdoorUser(&claims.User),
		AvatarURL:     &avatarURL,
		EmailVerified: claims.User.EmailVerified,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

func setUser(c *gin.Context, user *models.User) {
	c.Set("user_id", user.ID)
	c.Set("user", user)
	c.Set("user_role", user.Role)
	c.Set("user_email", user.Email)
}

// GetUserFromContext extracts user from Gin context
func GetUserFromContext(c *gin.Context) (*models.User, error) {
	user, exists := c.Get("user")
	if !exists {
		return nil, fmt.Errorf("user not found in context")
	}

	userModel, ok := user.(*models.User)
	if !ok {
		return nil, fmt.Errorf("invalid user type in context")
	}

	return userModel, nil
}

// GetUserIDFromContext extracts user ID from Gin context
func GetUserIDFromContext(c *gin.Context) (string, error) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", fmt.Errorf("user ID not found in context")
	}

	id, ok := userID.(string)
	if !ok || id == "" {
		return "", fmt.Errorf("invalid user ID type in context")
	}

	return id, nil
}

// GetUserRoleFromContext extracts user role from Gin context
func GetUserRoleFromContext(c *gin.Context) (models.UserRole, error) {
	userRole, exists := c.Get("user_role")
	if !exists {
		return "", fmt.Errorf("user role not found in context")
	}

	role, ok := userRole.(models.UserRole)
	if !ok {
		return "", fmt.Errorf("invalid user role type in context")
	}

	return role, nil
}
