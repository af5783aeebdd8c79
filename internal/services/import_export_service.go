package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/exam-session-service/internal/models"
	"github.com/SAP-F-2025/exam-session-service/internal/repositories"
	"github.com/SAP-F-2025/exam-session-service/internal/validator"
)

const (
	SheetExamSets  = "ExamSets"
	SheetQuestions = "Questions"
	SheetSummary   = "Summary"
	SheetAnswers   = "Answers"
)

var (
	examSetHeader  = []string{"name", "description", "total_questions"}
	questionHeader = []string{
		"exam_set_name", "text",
		"choice_1", "choice_2", "choice_3", "choice_4",
		"correct_answer", "explanation",
		"explanation_1", "explanation_2", "explanation_3", "explanation_4",
	}
	answerHeader = []string{
		"question_order", "question", "user_answer", "correct_answer", "is_correct", "explanation",
	}
)

type importExportService struct {
	repo              repositories.Repository
	sessions          ExamSessionService
	validator         *validator.Validator
	businessValidator *validator.BusinessValidator
	logger            *slog.Logger
}

func NewImportExportService(
	repo repositories.Repository,
	sessions ExamSessionService,
	v *validator.Validator,
	logger *slog.Logger,
) ImportExportService {
	return &importExportService{
		repo:              repo,
		sessions:          sessions,
		validator:         v,
		businessValidator: validator.NewBusinessValidator(v),
		logger:            logger,
	}
}

// ===== IMPORT =====

func (s *importExportService) ImportExamSets(ctx context.Context, r io.Reader) (*models.ImportSummary, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImportFile, err)
	}
	defer f.Close()

	setRows, err := f.GetRows(SheetExamSets)
	if err != nil {
		return nil, fmt.Errorf("%w: missing sheet %q", ErrInvalidImportFile, SheetExamSets)
	}
	questionRows, err := f.GetRows(SheetQuestions)
	if err != nil {
		return nil, fmt.Errorf("%w: missing sheet %q", ErrInvalidImportFile, SheetQuestions)
	}

	var parseErrors ValidationErrors
	sets, errs := parseExamSetRows(setRows)
	parseErrors = append(parseErrors, errs...)
	questions, errs := parseQuestionRows(questionRows)
	parseErrors = append(parseErrors, errs...)
	if len(parseErrors) > 0 {
		return nil, parseErrors
	}

	existing := make(map[string]bool)
	for _, q := range questions {
		key := validator.NormalizeName(q.ExamSetName)
		if _, checked := existing[key]; checked {
			continue
		}
		found, err := s.repo.ExamSet().ExistsByName(ctx, nil, strings.TrimSpace(q.ExamSetName))
		if err != nil {
			return nil, fmt.Errorf("failed to look up exam set: %w", err)
		}
		existing[key] = found
	}

	if verrs := s.businessValidator.ValidateImport(sets, questions, existing); len(verrs) > 0 {
		return nil, verrs
	}

	summary := &models.ImportSummary{}
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		byName := make(map[string]*models.ExamSet)

		for _, row := range sets {
			name := strings.TrimSpace(row.Name)
			examSet, err := txRepo.ExamSet().GetByName(ctx, nil, name)
			switch {
			case err == nil:
				examSet.Description = row.Description
				examSet.TotalQuestions = row.TotalQuestions
				if err := txRepo.ExamSet().Update(ctx, nil, examSet); err != nil {
					return fmt.Errorf("failed to update exam set %q: %w", name, err)
				}
				summary.ExamSetsReused++
			case repositories.IsNotFoundError(err):
				examSet = &models.ExamSet{
					Name:           name,
					Description:    row.Description,
					TotalQuestions: row.TotalQuestions,
				}
				if err := txRepo.ExamSet().Create(ctx, nil, examSet); err != nil {
					return fmt.Errorf("failed to create exam set %q: %w", name, err)
				}
				summary.ExamSetsCreated++
			default:
				return fmt.Errorf("failed to look up exam set %q: %w", name, err)
			}
			byName[validator.NormalizeName(name)] = examSet
			summary.ExamSetNames = append(summary.ExamSetNames, examSet.Name)
		}

		batch := make([]*models.Question, 0, len(questions))
		for _, row := range questions {
			key := validator.NormalizeName(row.ExamSetName)
			examSet, ok := byName[key]
			if !ok {
				found, err := txRepo.ExamSet().GetByName(ctx, nil, strings.TrimSpace(row.ExamSetName))
				if err != nil {
					return fmt.Errorf("failed to resolve exam set %q: %w", row.ExamSetName, err)
				}
				examSet = found
				byName[key] = found
			}
			batch = append(batch, &models.Question{
				ExamSetID:          examSet.ID,
				Text:               row.Text,
				Choices:            row.Choices,
				CorrectAnswer:      row.CorrectAnswer,
				Explanation:        row.Explanation,
				ChoiceExplanations: row.ChoiceExplanations,
			})
		}

		if len(batch) > 0 {
			if err := txRepo.Question().CreateBatch(ctx, nil, batch); err != nil {
				return fmt.Errorf("failed to create questions: %w", err)
			}
		}
		summary.QuestionsCreated = len(batch)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Exam sets imported",
		"exam_sets_created", summary.ExamSetsCreated,
		"exam_sets_reused", summary.ExamSetsReused,
		"questions_created", summary.QuestionsCreated)

	return summary, nil
}

func parseExamSetRows(rows [][]string) ([]models.ExamSetImportRow, ValidationErrors) {
	var (
		out  []models.ExamSetImportRow
		errs ValidationErrors
	)
	for i, row := range dataRows(rows) {
		if row == nil {
			continue
		}
		rowNum := i + 2
		total, err := strconv.Atoi(cell(row, 2))
		if err != nil {
			errs = append(errs, validator.ValidationError{
				Field:   fmt.Sprintf("%s[%d].total_questions", SheetExamSets, rowNum),
				Message: "must be a whole number",
				Value:   cell(row, 2),
				Rule:    "numeric",
			})
			continue
		}
		out = append(out, models.ExamSetImportRow{
			Row:            rowNum,
			Name:           cell(row, 0),
			Description:    cell(row, 1),
			TotalQuestions: total,
		})
	}
	return out, errs
}

func parseQuestionRows(rows [][]string) ([]models.QuestionImportRow, ValidationErrors) {
	var (
		out  []models.QuestionImportRow
		errs ValidationErrors
	)
	for i, row := range dataRows(rows) {
		if row == nil {
			continue
		}
		rowNum := i + 2
		correct, err := strconv.Atoi(cell(row, 6))
		if err != nil {
			errs = append(errs, validator.ValidationError{
				Field:   fmt.Sprintf("%s[%d].correct_answer", SheetQuestions, rowNum),
				Message: "must be a whole number",
				Value:   cell(row, 6),
				Rule:    "numeric",
			})
			continue
		}

		q := models.QuestionImportRow{
			Row:           rowNum,
			ExamSetName:   cell(row, 0),
			Text:          cell(row, 1),
			Choices:       []string{cell(row, 2), cell(row, 3), cell(row, 4), cell(row, 5)},
			CorrectAnswer: correct,
			Explanation:   cell(row, 7),
		}
		explanations := []string{cell(row, 8), cell(row, 9), cell(row, 10), cell(row, 11)}
		for _, e := range explanations {
			if e != "" {
				q.ChoiceExplanations = explanations
				break
			}
		}
		out = append(out, q)
	}
	return out, errs
}

// dataRows drops the header row and blank rows
func dataRows(rows [][]string) [][]string {
	if len(rows) <= 1 {
		return nil
	}
	out := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		blank := true
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				blank = false
				break
			}
		}
		if blank {
			// keep the slot so row numbers stay aligned with the sheet
			out = append(out, nil)
			continue
		}
		out = append(out, row)
	}
	return trimBlank(out)
}

func trimBlank(rows [][]string) [][]string {
	for len(rows) > 0 && rows[len(rows)-1] == nil {
		rows = rows[:len(rows)-1]
	}
	return rows
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ===== EXPORT =====

func (s *importExportService) ExportExamSet(ctx context.Context, examSetID uint) ([]byte, error) {
	examSet, err := s.repo.ExamSet().GetByID(ctx, nil, examSetID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamSetNotFound
		}
		return nil, fmt.Errorf("failed to get exam set: %w", err)
	}

	questions, err := s.repo.Question().ListByExamSet(ctx, nil, examSetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetExamSets); err != nil {
		return nil, err
	}
	if err := writeRow(f, SheetExamSets, 1, toRow(examSetHeader)); err != nil {
		return nil, err
	}
	if err := writeRow(f, SheetExamSets, 2, []interface{}{examSet.Name, examSet.Description, examSet.TotalQuestions}); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(SheetQuestions); err != nil {
		return nil, err
	}
	if err := writeRow(f, SheetQuestions, 1, toRow(questionHeader)); err != nil {
		return nil, err
	}
	for i, q := range questions {
		row := []interface{}{examSet.Name, q.Text}
		for c := 0; c < models.ChoiceCount; c++ {
			row = append(row, choiceAt(q.Choices, c))
		}
		row = append(row, q.CorrectAnswer, q.Explanation)
		for c := 0; c < models.ChoiceCount; c++ {
			row = append(row, choiceAt(q.ChoiceExplanations, c))
		}
		if err := writeRow(f, SheetQuestions, i+2, row); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Exam set exported", "exam_set_id", examSetID, "questions", len(questions))
	return workbookBytes(f)
}

func (s *importExportService) ExportSessionResult(ctx context.Context, userID string, sessionID uint) ([]byte, error) {
	result, err := s.sessions.GetResult(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, err
	}
	summary := [][]interface{}{
		{"exam_set", result.ExamSetName},
		{"started_at", result.StartedAt.UTC().Format("2006-01-02 15:04:05")},
		{"score", result.Score},
		{"total_questions", result.TotalQuestions},
		{"answered", result.Answered},
		{"percentage", result.Percentage},
	}
	if result.CompletedAt != nil {
		summary = append(summary, []interface{}{"completed_at", result.CompletedAt.UTC().Format("2006-01-02 15:04:05")})
	}
	for i, row := range summary {
		if err := writeRow(f, SheetSummary, i+1, row); err != nil {
			return nil, err
		}
	}

	if _, err := f.NewSheet(SheetAnswers); err != nil {
		return nil, err
	}
	if err := writeRow(f, SheetAnswers, 1, toRow(answerHeader)); err != nil {
		return nil, err
	}
	for i, a := range result.Answers {
		row := []interface{}{a.QuestionOrder, a.Text, a.UserAnswer, a.CorrectAnswer, a.IsCorrect, a.Explanation}
		if err := writeRow(f, SheetAnswers, i+2, row); err != nil {
			return nil, err
		}
	}

	return workbookBytes(f)
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cellName, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cellName, &values)
}

func workbookBytes(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func toRow(values []string) []interface{} {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}

func choiceAt(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

// IsImportError reports whether err was caused by the uploaded workbook
func IsImportError(err error) bool {
	var verrs ValidationErrors
	return errors.Is(err, ErrInvalidImportFile) || errors.As(err, &verrs)
}
