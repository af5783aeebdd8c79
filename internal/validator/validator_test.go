package validator

import (
	"errors"
	"testing"

	"github.com/SAP-F-2025/exam-session-service/internal/models"
)

type answerRequest struct {
	Choice int `validate:"choice"`
}

type cancelRequest struct {
	Action string `validate:"required,cancel_action"`
}

func TestValidator_Choice(t *testing.T) {
	v := New()
	tests := []struct {
		name    string
		choice  int
		wantErr bool
	}{
		{name: "lowest", choice: 1},
		{name: "highest", choice: 4},
		{name: "zero", choice: 0, wantErr: true},
		{name: "five", choice: 5, wantErr: true},
		{name: "negative", choice: -1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&answerRequest{Choice: tt.choice})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var ve ValidationErrors
				if !errors.As(err, &ve) || ve[0].Field != "choice" || ve[0].Rule != "choice" {
					t.Errorf("unexpected validation errors: %#v", err)
				}
			}
		})
	}
}

func TestValidator_CancelAction(t *testing.T) {
	v := New()
	for _, action := range []string{"finish", "pause", "abort"} {
		if err := v.Validate(&cancelRequest{Action: action}); err != nil {
			t.Errorf("action %q rejected: %v", action, err)
		}
	}
	if err := v.Validate(&cancelRequest{Action: "restart"}); err == nil {
		t.Error("expected error for unknown action")
	}
}

func TestToValidationErrors_KeepsConvertedFields(t *testing.T) {
	v := New()
	row := &models.QuestionImportRow{Row: 4, ExamSetName: "Go", CorrectAnswer: 7}

	err := v.Validate(row)
	errs := ToValidationErrors(err)

	fields := make(map[string]string, len(errs))
	for _, e := range errs {
		fields[e.Field] = e.Rule
	}
	for field, rule := range map[string]string{"text": "required", "choices": "len", "correct_answer": "choice"} {
		if fields[field] != rule {
			t.Errorf("field %s rule = %q, want %q (errors %+v)", field, fields[field], rule, errs)
		}
	}
	if len(errs) != 3 {
		t.Errorf("got %d errors, want 3: %+v", len(errs), errs)
	}
}

func TestBusinessValidator_ValidateImport(t *testing.T) {
	bv := NewBusinessValidator(New())
	choices := []string{"a", "b", "c", "d"}

	sets := []models.ExamSetImportRow{
		{Row: 2, Name: "Networking", TotalQuestions: 2},
		{Row: 3, Name: " networking ", TotalQuestions: 2},
	}
	questions := []models.QuestionImportRow{
		{Row: 2, ExamSetName: "Networking", Text: "q1", Choices: choices, CorrectAnswer: 1},
		{Row: 3, ExamSetName: "Databases", Text: "q2", Choices: choices, CorrectAnswer: 2},
		{Row: 4, ExamSetName: "Security", Text: "q3", Choices: choices, CorrectAnswer: 5},
		{Row: 5, ExamSetName: "Networking", Text: "q4", Choices: choices[:3], CorrectAnswer: 1},
	}
	existing := map[string]bool{"security": true}

	errs := bv.ValidateImport(sets, questions, existing)

	want := map[string]bool{
		"ExamSets[3].name":            false,
		"Questions[3].exam_set_name":  false,
		"Questions[4].correct_answer": false,
		"Questions[5].choices":        false,
	}
	for _, e := range errs {
		if _, ok := want[e.Field]; ok {
			want[e.Field] = true
		}
	}
	for field, seen := range want {
		if !seen {
			t.Errorf("expected error for %s, got %v", field, errs)
		}
	}
}

func TestBusinessValidator_ValidImport(t *testing.T) {
	bv := NewBusinessValidator(New())
	sets := []models.ExamSetImportRow{{Row: 2, Name: "Go", TotalQuestions: 1}}
	questions := []models.QuestionImportRow{
		{Row: 2, ExamSetName: "go", Text: "What is a goroutine?", Choices: []string{"a", "b", "c", "d"}, CorrectAnswer: 3},
	}
	if errs := bv.ValidateImport(sets, questions, nil); errs != nil {
		t.Fatalf("ValidateImport() = %v, want nil", errs)
	}
}
