package models

// NavigationPointer is the transient per-user cursor over an active session
type NavigationPointer struct {
	SessionID    uint   `json:"session_id"`
	QuestionIDs  []uint `json:"question_ids"`
	CurrentIndex int    `json:"current_index"`
}

// Total is the length of the selected sequence
func (p *NavigationPointer) Total() int {
	return len(p.QuestionIDs)
}

// Finished reports whether the cursor has moved past the last question
func (p *NavigationPointer) Finished() bool {
	return p.CurrentIndex >= len(p.QuestionIDs)
}

// CurrentQuestionID returns the question under the cursor
func (p *NavigationPointer) CurrentQuestionID() (uint, bool) {
	if p.CurrentIndex < 0 || p.Finished() {
		return 0, false
	}
	return p.QuestionIDs[p.CurrentIndex], true
}
