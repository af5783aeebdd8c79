package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-session-service/internal/repositories"
	"github.com/SAP-F-2025/exam-session-service/internal/services"
	"github.com/SAP-F-2025/exam-session-service/internal/utils"
)

// maxImportSize bounds uploaded workbooks
const maxImportSize = 10 << 20

type ExamSetHandler struct {
	BaseHandler
	examSetService services.ExamSetService
	importService  services.ImportExportService
}

func NewExamSetHandler(
	examSetService services.ExamSetService,
	importService services.ImportExportService,
	logger utils.Logger,
) *ExamSetHandler {
	return &ExamSetHandler{
		BaseHandler:    NewBaseHandler(logger),
		examSetService: examSetService,
		importService:  importService,
	}
}

// ListExamSets lists exam sets
// @Summary List exam sets
// @Tags exam-sets
// @Produce json
// @Param q query string false "Name filter"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} services.ExamSetListResponse
// @Router /exam-sets [get]
func (h *ExamSetHandler) ListExamSets(c *gin.Context) {
	limit, offset := h.pagination(c)
	filters := repositories.ExamSetFilters{
		Query:  strings.TrimSpace(c.Query("q")),
		Limit:  limit,
		Offset: offset,
	}

	resp, err := h.examSetService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetExamSet retrieves an exam set by ID
// @Summary Get exam set
// @Tags exam-sets
// @Produce json
// @Param id path uint true "Exam set ID"
// @Success 200 {object} services.ExamSetResponse
// @Failure 404 {object} ErrorResponse
// @Router /exam-sets/{id} [get]
func (h *ExamSetHandler) GetExamSet(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	resp, err := h.examSetService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ImportExamSets imports exam sets and questions from an xlsx upload
// @Summary Import exam sets
// @Tags exam-sets
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Workbook with ExamSets and Questions sheets"
// @Success 201 {object} SuccessResponse{data=models.ImportSummary}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /exam-sets/import [post]
func (h *ExamSetHandler) ImportExamSets(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing import file",
			Details: err.Error(),
		})
		return
	}
	if fileHeader.Size > maxImportSize {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Message: "Import file too large",
			Details: fmt.Sprintf("maximum size is %d bytes", maxImportSize),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.LogError(c, err, "Failed to open uploaded file")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Cannot read import file",
		})
		return
	}
	defer file.Close()

	h.LogRequest(c, "Importing exam sets", "filename", fileHeader.Filename, "size", fileHeader.Size)

	summary, err := h.importService.ImportExamSets(c.Request.Context(), file)
	if err != nil {
		if services.IsImportError(err) {
			h.logger.Warn("Rejected exam set import", "filename", fileHeader.Filename, "error", err)
		} else {
			h.LogError(c, err, "Failed to import exam sets")
		}
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message:   "Exam sets imported successfully",
		Data:      summary,
		Timestamp: time.Now(),
	})
}

// ExportExamSet downloads an exam set in import format
// @Summary Export exam set
// @Tags exam-sets
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Exam set ID"
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponse
// @Router /exam-sets/{id}/export [get]
func (h *ExamSetHandler) ExportExamSet(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	data, err := h.importService.ExportExamSet(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="exam-set-%d.xlsx"`, id))
	c.Data(http.StatusOK, xlsxContentType, data)
}
