package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-session-service/internal/models"
	"github.com/SAP-F-2025/exam-session-service/internal/repositories"
	"github.com/SAP-F-2025/exam-session-service/internal/services"
	"github.com/SAP-F-2025/exam-session-service/internal/utils"
)

type HandlerManager struct {
	serviceManager     services.ServiceManager
	examSetHandler     *ExamSetHandler
	examSessionHandler *ExamSessionHandler
	userHandler        *UserHandler
	authMiddleware     *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	authMiddleware *CasdoorAuthMiddleware,
	userRepo repositories.UserRepository,
) *HandlerManager {
	return &HandlerManager{
		serviceManager:     serviceManager,
		examSetHandler:     NewExamSetHandler(serviceManager.ExamSet(), serviceManager.ImportExport(), logger),
		examSessionHandler: NewExamSessionHandler(serviceManager.ExamSession(), serviceManager.ImportExport(), logger),
		userHandler:        NewUserHandler(userRepo, logger),
		authMiddleware:     authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		v1.GET("/me", hm.userHandler.GetMe)

		examSets := v1.Group("/exam-sets")
		{
			examSets.GET("", hm.examSetHandler.ListExamSets)
			examSets.GET("/:id", hm.examSetHandler.GetExamSet)

			// Content management - Teachers and Admins only
			examSets.POST("/import", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.examSetHandler.ImportExamSets)
			examSets.GET("/:id/export", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.examSetHandler.ExportExamSet)
		}

		sessions := v1.Group("/sessions")
		{
			sessions.POST("/start", hm.examSessionHandler.StartSession)
			sessions.GET("", hm.examSessionHandler.ListSessions)
			sessions.GET("/incomplete/:exam_set_id", hm.examSessionHandler.FindIncompleteSession)
			sessions.POST("/:id/resume", hm.examSessionHandler.ResumeSession)
			sessions.DELETE("/:id", hm.examSessionHandler.DeleteSession)
			sessions.GET("/:id/result", hm.examSessionHandler.GetResult)
			sessions.GET("/:id/result/export", hm.examSessionHandler.ExportResult)
		}

		// Progression through the caller's active session
		exam := v1.Group("/exam")
		{
			exam.GET("/current", hm.examSessionHandler.CurrentQuestion)
			exam.POST("/answer", hm.examSessionHandler.SubmitAnswer)
			exam.POST("/previous", hm.examSessionHandler.PreviousQuestion)
			exam.POST("/cancel", hm.examSessionHandler.Cancel)
		}
	}

	router.GET("/health", hm.health)
}

func (hm *HandlerManager) health(c *gin.Context) {
	status, code := "healthy", http.StatusOK
	details := gin.H{}
	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		status, code = "unhealthy", http.StatusServiceUnavailable
		details["error"] = err.Error()
	}

	c.JSON(code, gin.H{
		"status":    status,
		"service":   "exam-session-service",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"details":   details,
	})
}
