package models

// ExamSetImportRow is one row of the "ExamSets" sheet
type ExamSetImportRow struct {
	Row            int    `json:"row"`
	Name           string `json:"name" validate:"required,max=200"`
	Description    string `json:"description" validate:"max=2000"`
	TotalQuestions int    `json:"total_questions" validate:"min=1,max=500"`
}

// QuestionImportRow is one row of the "Questions" sheet
type QuestionImportRow struct {
	Row                int      `json:"row"`
	ExamSetName        string   `json:"exam_set_name" validate:"required"`
	Text               string   `json:"text" validate:"required,max=4000"`
	Choices            []string `json:"choices" validate:"len=4,dive,required"`
	CorrectAnswer      int      `json:"correct_answer" validate:"choice"`
	Explanation        string   `json:"explanation"`
	ChoiceExplanations []string `json:"choice_explanations" validate:"omitempty,len=4"`
}

// ImportSummary reports what an xlsx import created
type ImportSummary struct {
	ExamSetsCreated  int      `json:"exam_sets_created"`
	ExamSetsReused   int      `json:"exam_sets_reused"`
	QuestionsCreated int      `json:"questions_created"`
	ExamSetNames     []string `json:"exam_set_names"`
}
