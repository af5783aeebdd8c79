package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/SAP-F-2025/exam-session-service/internal/events"
	"github.com/SAP-F-2025/exam-session-service/internal/models"
	"github.com/SAP-F-2025/exam-session-service/internal/repositories"
)

// Sampler selects k distinct ids uniformly at random
type Sampler interface {
	Sample(ids []uint, k int) []uint
}

type RandomSampler struct{}

func (RandomSampler) Sample(ids []uint, k int) []uint {
	shuffled := slices.Clone(ids)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if k > len(shuffled) {
		k = len(shuffled)
	}
	return shuffled[:k]
}

// restoreSequence rebuilds the question order of an interrupted session: the
// answered questions in the order they were answered, then a fresh draw from the rest.
func (s *examSessionService) restoreSequence(ctx context.Context, session *models.ExamSession, answered []uint) ([]uint, error) {
	available, err := s.repo.Question().GetIDsByExamSet(ctx, nil, session.ExamSetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	seen := make(map[uint]struct{}, len(answered))
	for _, id := range answered {
		seen[id] = struct{}{}
	}

	pool := make([]uint, 0, len(available))
	for _, id := range available {
		if _, ok := seen[id]; !ok {
			pool = append(pool, id)
		}
	}

	remaining := max(session.TotalQuestions-len(answered), 0)
	sequence := make([]uint, 0, len(answered)+remaining)
	sequence = append(sequence, answered...)
	sequence = append(sequence, s.sampler.Sample(pool, remaining)...)
	return sequence, nil
}

// completeSession scores and finalizes the session, then drops the pointer.
// Completing an already completed session returns the stored result.
func (s *examSessionService) completeSession(ctx context.Context, userID string, session *models.ExamSession, reason string) (*SessionSummary, error) {
	if session.IsCompleted {
		s.clearNavigation(ctx, userID)
		return summaryOf(session), nil
	}

	correct, err := s.repo.Answer().CountCorrect(ctx, nil, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count correct answers: %w", err)
	}

	completedAt := s.now()
	ok, err := s.repo.Session().Complete(ctx, nil, session.ID, int(correct), completedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}

	if !ok {
		// Another request completed it first; report what was stored
		stored, err := s.repo.Session().GetByID(ctx, nil, session.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload session: %w", err)
		}
		s.clearNavigation(ctx, userID)
		return summaryOf(stored), nil
	}

	s.clearNavigation(ctx, userID)

	score := int(correct)
	session.Score = &score
	session.CompletedAt = &completedAt
	session.IsCompleted = true

	summary := summaryOf(session)
	s.logger.Info("Exam session completed",
		"session_id", session.ID,
		"user_id", userID,
		"score", summary.Score,
		"total_questions", summary.TotalQuestions,
		"percentage", summary.Percentage,
		"reason", reason)

	data := s.sessionEventData(session, reason)
	data.Percentage = summary.Percentage
	if answered, err := s.repo.Answer().CountBySession(ctx, nil, session.ID); err == nil {
		data.Answered = int(answered)
	}
	s.publish(ctx, events.ExamSessionCompleted, data)

	return summary, nil
}

func summaryOf(session *models.ExamSession) *SessionSummary {
	summary := &SessionSummary{
		SessionID:      session.ID,
		TotalQuestions: session.TotalQuestions,
		Percentage:     session.Percentage(),
	}
	if session.Score != nil {
		summary.Score = *session.Score
	}
	return summary
}

func toQuestionView(question *models.Question) *QuestionView {
	return &QuestionView{
		ID:      question.ID,
		Text:    question.Text,
		Choices: slices.Clone([]string(question.Choices)),
	}
}

func toFeedback(question *models.Question, answer *models.Answer) *AnswerFeedback {
	return &AnswerFeedback{
		QuestionID:        question.ID,
		UserAnswer:        answer.UserAnswer,
		CorrectAnswer:     question.CorrectAnswer,
		IsCorrect:         answer.IsCorrect,
		Explanation:       question.Explanation,
		ChoiceExplanation: question.ChoiceExplanation(answer.UserAnswer),
	}
}

func toAnswerResult(answer *models.Answer) AnswerResult {
	result := AnswerResult{
		QuestionOrder: answer.QuestionOrder,
		QuestionID:    answer.QuestionID,
		UserAnswer:    answer.UserAnswer,
		IsCorrect:     answer.IsCorrect,
	}
	if q := answer.Question; q != nil {
		result.Text = q.Text
		result.Choices = slices.Clone([]string(q.Choices))
		result.CorrectAnswer = q.CorrectAnswer
		result.Explanation = q.Explanation
		result.ChoiceExplanation = q.ChoiceExplanation(answer.UserAnswer)
	}
	return result
}

// deleteSessionRecords removes a session and its answer ledger
func deleteSessionRecords(ctx context.Context, repo repositories.Repository, sessionID uint) error {
	if err := repo.Answer().DeleteBySession(ctx, nil, sessionID); err != nil {
		return err
	}
	return repo.Session().Delete(ctx, nil, sessionID)
}
