package validator

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/exam-session-service/internal/models"
)

// BusinessValidator checks cross-row rules that struct tags cannot express
type BusinessValidator struct {
	v *Validator
}

// NewBusinessValidator creates a business validator on top of v
func NewBusinessValidator(v *Validator) *BusinessValidator {
	return &BusinessValidator{v: v}
}

// ValidateImport validates an exam set workbook before anything is written.
// existing holds normalized names of exam sets already stored.
func (bv *BusinessValidator) ValidateImport(sets []models.ExamSetImportRow, questions []models.QuestionImportRow, existing map[string]bool) ValidationErrors {
	var errors ValidationErrors

	declared := make(map[string]bool, len(sets))
	for _, set := range sets {
		errors = append(errors, bv.rowErrors("ExamSets", set.Row, &set)...)

		key := normalizeName(set.Name)
		if declared[key] {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("ExamSets[%d].name", set.Row),
				Message: "duplicate exam set name in workbook",
				Value:   set.Name,
			})
		}
		declared[key] = true
	}

	for _, q := range questions {
		errors = append(errors, bv.rowErrors("Questions", q.Row, &q)...)

		key := normalizeName(q.ExamSetName)
		if !declared[key] && !existing[key] {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("Questions[%d].exam_set_name", q.Row),
				Message: "references an unknown exam set",
				Value:   q.ExamSetName,
			})
		}
	}

	if len(errors) == 0 {
		return nil
	}
	return errors
}

func (bv *BusinessValidator) rowErrors(sheet string, row int, s interface{}) ValidationErrors {
	err := bv.v.Validate(s)
	if err == nil {
		return nil
	}
	errs := ToValidationErrors(err)
	for i := range errs {
		errs[i].Field = fmt.Sprintf("%s[%d].%s", sheet, row, errs[i].Field)
	}
	return errs
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeName is the key used to match exam set names across sheets
func NormalizeName(name string) string {
	return normalizeName(name)
}
