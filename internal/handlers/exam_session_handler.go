package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-session-service/internal/repositories"
	"github.com/SAP-F-2025/exam-session-service/internal/services"
	"github.com/SAP-F-2025/exam-session-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExamSessionHandler struct {
	BaseHandler
	sessionService services.ExamSessionService
	exportService  services.ImportExportService
}

func NewExamSessionHandler(
	sessionService services.ExamSessionService,
	exportService services.ImportExportService,
	logger utils.Logger,
) *ExamSessionHandler {
	return &ExamSessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
		exportService:  exportService,
	}
}

// StartSession starts a new exam session
// @Summary Start exam session
// @Description Draws a random question sequence from the exam set and starts a session
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body services.StartSessionRequest true "Exam set to start"
// @Success 201 {object} services.StartSessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /sessions/start [post]
func (h *ExamSessionHandler) StartSession(c *gin.Context) {
	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	var req services.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Starting exam session", "exam_set_id", req.ExamSetID, "restart", req.Restart)

	resp, err := h.sessionService.StartSession(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ResumeSession resumes an incomplete session
// @Summary Resume exam session
// @Tags sessions
// @Produce json
// @Param id path uint true "Session ID"
// @Success 200 {object} services.ResumeSessionResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/resume [post]
func (h *ExamSessionHandler) ResumeSession(c *gin.Context) {
	userID := h.getUserID(c)
	if userID == "" {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Resuming exam session", "session_id", id)

	resp, err := h.sessionService.ResumeSession(c.Request.Context(), userID, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteSession deletes an incomplete session with its answers
// @Summary Delete exam session
// @Tags sessions
// @Param id path uint true "Session ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [delete]
func (h *ExamSessionHandler) DeleteSession(c *gin.Context) {
	userID := h.getUserID(c)
	if userID == "" {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting exam session", "session_id", id)

	if err := h.sessionService.DeleteSession(c.Request.Context(), userID, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message:   "Exam session deleted successfully",
		Timestamp: time.Now(),
	})
}

// ListSessions lists the caller's sessions
// @Summary List exam sessions
// @Tags sessions
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Param exam_set_id query int false "Filter by exam set"
// @Param completed query bool false "Filter by completion"
// @Success 200 {object} services.SessionListResponse
// @Router /sessions [get]
func (h *ExamSessionHandler) ListSessions(c *gin.Context) {
	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	limit, offset := h.pagination(c)
	filters := repositories.ExamSessionFilters{
		IsCompleted: h.parseBoolQueryPtr(c, "completed"),
		Limit:       limit,
		Offset:      offset,
	}
	if examSetID := h.parseIntQuery(c, "exam_set_id", 0); examSetID > 0 {
		id := uint(examSetID)
		filters.ExamSetID = &id
	}

	resp, err := h.sessionService.ListSessions(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// FindIncompleteSession reports the caller's incomplete session for a set
// @Summary Find incomplete session
// @Tags sessions
// @Produce json
// @Param exam_set_id path uint true "Exam set ID"
// @Success 200 {object} services.SessionResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/incomplete/{exam_set_id} [get]
func (h *ExamSessionHandler) FindIncompleteSession(c *gin.Context) {
	userID := h.getUserID(c)
	if userID == "" {
		return
	}
	examSetID := h.parseIDParam(c, "exam_set_id")
	if examSetID == 0 {
		return
	}

	session, err := h.sessionService.FindIncompleteSession(c.Request.Context(), userID, examSetID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if session == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "No incomplete session for this exam set",
		})
		return
	}

	c.JSON(http.StatusOK, session)
}

// GetResult returns the per-question review of a completed session
// @Summary Get session result
// @Tags sessions
// @Produce json
// @Param id path uint true "Session ID"
// @Success 200 {object} services.ResultResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/result [get]
func (h *ExamSessionHandler) GetResult(c *gin.Context) {
	userID := h.getUserID(c)
	if userID == "" {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	result, err := h.sessionService.GetResult(c.Request.Context(), userID, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportResult downloads a completed session's result as xlsx
// @Summary Export session result
// @Tags sessions
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Session ID"
// @Success 200 {file} file
// @Router /sessions/{id}/result/export [get]
func (h *ExamSessionHandler) ExportResult(c *gin.Context) {
	userID := h.getUserID(c)
	if userID == "" {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	data, err := h.exportService.ExportSessionResult(c.Request.Context(), userID, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="session-%d-result.xlsx"`, id))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// ===== PROGRESSION =====

// CurrentQuestion returns the question under the caller's cursor
// @Summary Current question
// @Tags exam
// @Produce json
// @Success 200 {object} services.CurrentQuestionResponse
// @Failure 404 {object} ErrorResponse
// @Router /exam/current [get]
func (h *ExamSessionHandler) CurrentQuestion(c *gin.Context) {
	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	resp, err := h.sessionService.CurrentQuestion(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SubmitAnswer records an answer for the current question
// @Summary Submit answer
// @Tags exam
// @Accept json
// @Produce json
// @Param request body services.SubmitAnswerRequest true "Chosen option (1-4)"
// @Success 200 {object} services.SubmitAnswerResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /exam/answer [post]
func (h *ExamSessionHandler) SubmitAnswer(c *gin.Context) {
	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	var req services.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.sessionService.SubmitAnswer(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// PreviousQuestion moves the cursor back one question
// @Summary Previous question
// @Tags exam
// @Produce json
// @Success 200 {object} services.NavigationResponse
// @Router /exam/previous [post]
func (h *ExamSessionHandler) PreviousQuestion(c *gin.Context) {
	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	resp, err := h.sessionService.PreviousQuestion(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Cancel finishes, pauses or dismisses a cancel request for the active session
// @Summary Cancel exam
// @Tags exam
// @Accept json
// @Produce json
// @Param request body services.CancelRequest true "finish, pause or abort"
// @Success 200 {object} services.CancelResponse
// @Failure 400 {object} ErrorResponse
// @Router /exam/cancel [post]
func (h *ExamSessionHandler) Cancel(c *gin.Context) {
	userID := h.getUserID(c)
	if userID == "" {
		return
	}

	var req services.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Cancelling exam session", "action", req.Action)

	resp, err := h.sessionService.Cancel(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
