package models

import "testing"

func TestPercentage(t *testing.T) {
	tests := []struct {
		name         string
		score, total int
		want         float64
	}{
		{"full marks", 40, 40, 100},
		{"pass", 32, 40, 80},
		{"half step", 7, 40, 17.5},
		{"rounds up", 2, 3, 66.7},
		{"rounds down", 1, 3, 33.3},
		{"tie to even down", 1, 16, 6.2},
		{"tie to even up", 3, 16, 18.8},
		{"tie to even down again", 5, 16, 31.2},
		{"tie on eighty", 1, 80, 1.2},
		{"zero score", 0, 40, 0},
		{"empty total", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percentage(tt.score, tt.total); got != tt.want {
				t.Errorf("Percentage(%d, %d) = %v, want %v", tt.score, tt.total, got, tt.want)
			}
		})
	}
}

func TestNavigationPointer(t *testing.T) {
	p := &NavigationPointer{SessionID: 1, QuestionIDs: []uint{10, 20, 30}}

	if id, ok := p.CurrentQuestionID(); !ok || id != 10 {
		t.Fatalf("CurrentQuestionID() = %d, %v, want 10, true", id, ok)
	}

	p.CurrentIndex = 2
	if p.Finished() {
		t.Fatal("pointer on last question reported finished")
	}

	p.CurrentIndex = 3
	if !p.Finished() {
		t.Fatal("pointer past last question not finished")
	}
	if _, ok := p.CurrentQuestionID(); ok {
		t.Error("finished pointer returned a question")
	}
	if p.Total() != 3 {
		t.Errorf("Total() = %d, want 3", p.Total())
	}
}

func TestQuestion_Choices(t *testing.T) {
	q := &Question{CorrectAnswer: 3, ChoiceExplanations: []string{"a", "b", "c", "d"}}

	if !q.IsCorrect(3) || q.IsCorrect(2) {
		t.Error("IsCorrect mismatch")
	}
	if got := q.ChoiceExplanation(4); got != "d" {
		t.Errorf("ChoiceExplanation(4) = %q, want d", got)
	}
	if got := q.ChoiceExplanation(5); got != "" {
		t.Errorf("ChoiceExplanation(5) = %q, want empty", got)
	}
	for _, c := range []int{0, 5, -1} {
		if ValidChoice(c) {
			t.Errorf("ValidChoice(%d) = true", c)
		}
	}
}

func TestExamSet_Startable(t *testing.T) {
	set := &ExamSet{TotalQuestions: 40, AvailableQuestions: 39}
	if set.Startable() {
		t.Error("set with 39 of 40 questions is startable")
	}
	set.AvailableQuestions = 40
	if !set.Startable() {
		t.Error("set with 40 of 40 questions is not startable")
	}
}
