package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-session-service/internal/services"
	"github.com/SAP-F-2025/exam-session-service/internal/utils"
)

type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// BaseHandler carries the logging and error mapping shared by all handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) requestLogger(c *gin.Context) utils.Logger {
	return utils.FromContext(c.Request.Context(), h.logger)
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	args = append(args, "method", c.Request.Method, "path", c.FullPath())
	if userID := c.GetString("user_id"); userID != "" {
		args = append(args, "user_id", userID)
	}
	h.requestLogger(c).Info(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	args = append(args, "error", err, "method", c.Request.Method, "path", c.FullPath())
	h.requestLogger(c).Error(msg, args...)
	_ = c.Error(err)
}

// getUserID writes a 401 and returns "" when the request is unauthenticated
func (h *BaseHandler) getUserID(c *gin.Context) string {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return ""
	}
	return userID
}

func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		details := "must be a positive integer"
		if err != nil {
			details = err.Error()
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: details,
		})
		return 0
	}
	return uint(id)
}

func (h *BaseHandler) parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func (h *BaseHandler) parseBoolQueryPtr(c *gin.Context, param string) *bool {
	valueStr := c.Query(param)
	if valueStr == "" {
		return nil
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return nil
	}
	return &value
}

// pagination converts page/size query params into limit/offset
func (h *BaseHandler) pagination(c *gin.Context) (limit, offset int) {
	page := max(h.parseIntQuery(c, "page", 1), 1)
	size := h.parseIntQuery(c, "size", 20)
	if size < 1 || size > 100 {
		size = 20
	}
	return size, (page - 1) * size
}

func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	// Handle custom error types first
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var insufficient *services.InsufficientQuestionsError
	if errors.As(err, &insufficient) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Exam set does not have enough questions",
			Details: map[string]interface{}{
				"exam_set_id": insufficient.ExamSetID,
				"available":   insufficient.Available,
				"required":    insufficient.Required,
			},
		})
		return
	}

	var incomplete *services.IncompleteSessionExistsError
	if errors.As(err, &incomplete) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "An incomplete session exists for this exam set",
			Details: map[string]interface{}{
				"session_id":  incomplete.SessionID,
				"exam_set_id": incomplete.ExamSetID,
				"answered":    incomplete.Answered,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrExamSetNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Exam set not found",
		})
	case errors.Is(err, services.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Exam session not found",
		})
	case errors.Is(err, services.ErrNoActiveSession):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "No active exam session",
		})
	case errors.Is(err, services.ErrInvalidChoice):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid choice",
			Details: err.Error(),
		})
	case errors.Is(err, services.ErrInvalidCancelAction):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid cancel action",
			Details: err.Error(),
		})
	case errors.Is(err, services.ErrSessionAlreadyCompleted):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Exam session already completed",
		})
	case errors.Is(err, services.ErrSessionNotCompleted):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Exam session is not completed yet",
		})
	case errors.Is(err, services.ErrSessionNotDeletable):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Completed exam sessions cannot be deleted",
		})
	case errors.Is(err, services.ErrInvalidImportFile):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid import file",
			Details: err.Error(),
		})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
