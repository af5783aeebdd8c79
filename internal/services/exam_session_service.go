package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/exam-session-service/internal/cache"
	"github.com/SAP-F-2025/exam-session-service/internal/events"
	"github.com/SAP-F-2025/exam-session-service/internal/models"
	"github.com/SAP-F-2025/exam-session-service/internal/repositories"
	"github.com/SAP-F-2025/exam-session-service/internal/validator"
)

type examSessionService struct {
	repo           repositories.Repository
	navigation     cache.NavigationStore
	eventPublisher events.EventPublisher
	logger         *slog.Logger
	validator      *validator.Validator
	sampler        Sampler
	now            func() time.Time
}

func NewExamSessionService(
	repo repositories.Repository,
	navigation cache.NavigationStore,
	eventPublisher events.EventPublisher,
	logger *slog.Logger,
	validator *validator.Validator,
) ExamSessionService {
	return &examSessionService{
		repo:           repo,
		navigation:     navigation,
		eventPublisher: eventPublisher,
		logger:         logger,
		validator:      validator,
		sampler:        RandomSampler{},
		now:            time.Now,
	}
}

// ===== LIFECYCLE =====

func (s *examSessionService) StartSession(ctx context.Context, userID string, req *StartSessionRequest) (*StartSessionResponse, error) {
	s.logger.Info("Starting exam session",
		"user_id", userID,
		"exam_set_id", req.ExamSetID,
		"restart", req.Restart)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	examSet, err := s.repo.ExamSet().GetByID(ctx, nil, req.ExamSetID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamSetNotFound
		}
		return nil, fmt.Errorf("failed to get exam set: %w", err)
	}

	available, err := s.repo.Question().GetIDsByExamSet(ctx, nil, examSet.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	if len(available) < examSet.TotalQuestions {
		return nil, &InsufficientQuestionsError{
			ExamSetID: examSet.ID,
			Available: int64(len(available)),
			Required:  examSet.TotalQuestions,
		}
	}

	existing, err := s.repo.Session().GetIncomplete(ctx, nil, userID, examSet.ID)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check incomplete session: %w", err)
	}
	if err != nil {
		existing = nil
	}
	if existing != nil && !req.Restart {
		answered, err := s.repo.Answer().CountBySession(ctx, nil, existing.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count answers: %w", err)
		}
		return nil, &IncompleteSessionExistsError{
			SessionID: existing.ID,
			ExamSetID: examSet.ID,
			Answered:  answered,
		}
	}

	selected := s.sampler.Sample(available, examSet.TotalQuestions)

	var session *models.ExamSession
	pointerSaved := false
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if existing != nil {
			if err := deleteSessionRecords(ctx, txRepo, existing.ID); err != nil {
				return fmt.Errorf("failed to delete incomplete session: %w", err)
			}
		}

		session = &models.ExamSession{
			UserID:         userID,
			ExamSetID:      examSet.ID,
			StartedAt:      s.now(),
			TotalQuestions: examSet.TotalQuestions,
			IsCompleted:    false,
		}
		if err := txRepo.Session().Create(ctx, nil, session); err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}

		pointer := &models.NavigationPointer{
			SessionID:    session.ID,
			QuestionIDs:  selected,
			CurrentIndex: 0,
		}
		if err := s.navigation.Save(ctx, userID, pointer); err != nil {
			return err
		}
		pointerSaved = true
		return nil
	})
	if err != nil {
		// The pointer must never reference a session that was rolled back
		if pointerSaved {
			s.clearNavigation(ctx, userID)
		}
		return nil, fmt.Errorf("failed to start exam session: %w", err)
	}

	if existing != nil {
		s.publish(ctx, events.ExamSessionDeleted, s.sessionEventData(existing, "restart"))
	}
	s.publish(ctx, events.ExamSessionStarted, s.sessionEventData(session, ""))

	s.logger.Info("Exam session started",
		"session_id", session.ID,
		"user_id", userID,
		"exam_set_id", examSet.ID,
		"total_questions", session.TotalQuestions)

	session.ExamSet = examSet
	return &StartSessionResponse{
		Session:      toSessionResponse(session),
		CurrentIndex: 0,
		Total:        len(selected),
	}, nil
}

func (s *examSessionService) ResumeSession(ctx context.Context, userID string, sessionID uint) (*ResumeSessionResponse, error) {
	s.logger.Info("Resuming exam session",
		"session_id", sessionID,
		"user_id", userID)

	session, err := s.getOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsCompleted {
		return nil, ErrSessionNotFound
	}

	answered, err := s.repo.Answer().GetAnsweredQuestionIDs(ctx, nil, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answered questions: %w", err)
	}

	sequence, err := s.restoreSequence(ctx, session, answered)
	if err != nil {
		return nil, err
	}

	pointer := &models.NavigationPointer{
		SessionID:    session.ID,
		QuestionIDs:  sequence,
		CurrentIndex: len(answered),
	}
	if err := s.navigation.Save(ctx, userID, pointer); err != nil {
		return nil, err
	}

	resp := &ResumeSessionResponse{
		Session:      toSessionResponse(session),
		CurrentIndex: pointer.CurrentIndex,
		Total:        pointer.Total(),
		Answered:     len(answered),
	}
	if shortBy := session.TotalQuestions - len(sequence); shortBy > 0 {
		resp.Degraded = true
		resp.ShortBy = shortBy
		s.logger.Warn("Resumed session is shorter than its target length",
			"session_id", session.ID,
			"total_questions", session.TotalQuestions,
			"restored", len(sequence),
			"short_by", shortBy)
	}

	data := s.sessionEventData(session, "")
	data.Answered = len(answered)
	s.publish(ctx, events.ExamSessionResumed, data)

	return resp, nil
}

func (s *examSessionService) DeleteSession(ctx context.Context, userID string, sessionID uint) error {
	s.logger.Info("Deleting exam session",
		"session_id", sessionID,
		"user_id", userID)

	session, err := s.getOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if session.IsCompleted {
		return ErrSessionNotDeletable
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		return deleteSessionRecords(ctx, txRepo, session.ID)
	})
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if pointer, err := s.navigation.Get(ctx, userID); err == nil && pointer.SessionID == session.ID {
		s.clearNavigation(ctx, userID)
	}

	s.publish(ctx, events.ExamSessionDeleted, s.sessionEventData(session, "user_request"))
	return nil
}

func (s *examSessionService) Cancel(ctx context.Context, userID string, req *CancelRequest) (*CancelResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, ErrInvalidCancelAction
	}

	pointer, session, err := s.activeSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Cancelling exam session",
		"session_id", session.ID,
		"user_id", userID,
		"action", req.Action,
		"index", pointer.CurrentIndex)

	resp := &CancelResponse{
		Action:       req.Action,
		SessionID:    session.ID,
		CurrentIndex: pointer.CurrentIndex,
	}

	switch req.Action {
	case CancelFinish:
		summary, err := s.completeSession(ctx, userID, session, "finished_early")
		if err != nil {
			return nil, err
		}
		resp.State = StateCompleted
		resp.Result = summary
	case CancelPause:
		if err := s.navigation.Clear(ctx, userID); err != nil {
			return nil, err
		}
		resp.State = StatePaused
		data := s.sessionEventData(session, "paused")
		data.Answered = pointer.CurrentIndex
		s.publish(ctx, events.ExamSessionPaused, data)
	case CancelAbort:
		resp.State = StateAwaitingAnswer
	default:
		return nil, ErrInvalidCancelAction
	}

	return resp, nil
}

// ===== PROGRESSION =====

func (s *examSessionService) CurrentQuestion(ctx context.Context, userID string) (*CurrentQuestionResponse, error) {
	pointer, err := s.loadPointer(ctx, userID)
	if err != nil {
		return nil, err
	}

	session, err := s.sessionForPointer(ctx, userID, pointer)
	if err != nil {
		return nil, err
	}

	// A pointer that outlived its session, or reached the end, resolves to the result
	if session.IsCompleted || pointer.Finished() {
		summary, err := s.completeSession(ctx, userID, session, "finished")
		if err != nil {
			return nil, err
		}
		return &CurrentQuestionResponse{
			State:     StateCompleted,
			SessionID: session.ID,
			Index:     pointer.CurrentIndex,
			Total:     pointer.Total(),
			Result:    summary,
		}, nil
	}

	questionID, _ := pointer.CurrentQuestionID()
	question, err := s.repo.Question().GetByID(ctx, nil, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get question %d: %w", questionID, err)
	}

	resp := &CurrentQuestionResponse{
		State:     StateAwaitingAnswer,
		SessionID: session.ID,
		Position:  pointer.CurrentIndex + 1,
		Index:     pointer.CurrentIndex,
		Total:     pointer.Total(),
		Question:  toQuestionView(question),
	}

	previous, err := s.repo.Answer().GetBySessionAndQuestion(ctx, nil, session.ID, questionID)
	switch {
	case err == nil:
		resp.PreviousAnswer = &previous.UserAnswer
	case !repositories.IsNotFoundError(err):
		return nil, fmt.Errorf("failed to load previous answer: %w", err)
	}

	return resp, nil
}

func (s *examSessionService) SubmitAnswer(ctx context.Context, userID string, req *SubmitAnswerRequest) (*SubmitAnswerResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, ErrInvalidChoice
	}

	pointer, session, err := s.activeSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	if pointer.Finished() {
		if _, err := s.completeSession(ctx, userID, session, "finished"); err != nil {
			return nil, err
		}
		return nil, ErrSessionAlreadyCompleted
	}

	questionID, _ := pointer.CurrentQuestionID()
	question, err := s.repo.Question().GetByID(ctx, nil, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get question %d: %w", questionID, err)
	}

	answer := &models.Answer{
		SessionID:     session.ID,
		QuestionID:    question.ID,
		QuestionOrder: pointer.CurrentIndex + 1,
		UserAnswer:    req.Choice,
		IsCorrect:     question.IsCorrect(req.Choice),
		AnsweredAt:    s.now(),
	}
	if err := s.repo.Answer().Upsert(ctx, nil, answer); err != nil {
		return nil, fmt.Errorf("failed to record answer: %w", err)
	}

	s.logger.Debug("Answer recorded",
		"session_id", session.ID,
		"question_id", question.ID,
		"question_order", answer.QuestionOrder,
		"is_correct", answer.IsCorrect)

	pointer.CurrentIndex++
	resp := &SubmitAnswerResponse{
		SessionID: session.ID,
		Feedback:  toFeedback(question, answer),
		NextIndex: pointer.CurrentIndex,
		Total:     pointer.Total(),
	}

	if pointer.Finished() {
		summary, err := s.completeSession(ctx, userID, session, "finished")
		if err != nil {
			return nil, err
		}
		resp.State = StateCompleted
		resp.Result = summary
		return resp, nil
	}

	if err := s.navigation.Save(ctx, userID, pointer); err != nil {
		return nil, err
	}
	resp.State = StateAwaitingAnswer
	return resp, nil
}

// PreviousQuestion moves the cursor back one position. Recorded answers are kept;
// re-submitting the earlier question overwrites its answer.
func (s *examSessionService) PreviousQuestion(ctx context.Context, userID string) (*NavigationResponse, error) {
	pointer, session, err := s.activeSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	if pointer.CurrentIndex > 0 {
		pointer.CurrentIndex = max(min(pointer.CurrentIndex-1, pointer.Total()-1), 0)
		if err := s.navigation.Save(ctx, userID, pointer); err != nil {
			return nil, err
		}
	}

	return &NavigationResponse{
		SessionID:    session.ID,
		CurrentIndex: pointer.CurrentIndex,
		Total:        pointer.Total(),
	}, nil
}

// ===== QUERIES =====

func (s *examSessionService) FindIncompleteSession(ctx context.Context, userID string, examSetID uint) (*SessionResponse, error) {
	session, err := s.repo.Session().GetIncomplete(ctx, nil, userID, examSetID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find incomplete session: %w", err)
	}
	return toSessionResponse(session), nil
}

func (s *examSessionService) ListSessions(ctx context.Context, userID string, filters repositories.ExamSessionFilters) (*SessionListResponse, error) {
	sessions, total, err := s.repo.Session().ListByUser(ctx, nil, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	resp := &SessionListResponse{
		Sessions: make([]*SessionResponse, 0, len(sessions)),
		Total:    total,
		Size:     filters.Limit,
		Page:     filters.Offset/max(filters.Limit, 1) + 1,
	}
	for _, session := range sessions {
		resp.Sessions = append(resp.Sessions, toSessionResponse(session))
	}
	return resp, nil
}

func (s *examSessionService) GetResult(ctx context.Context, userID string, sessionID uint) (*ResultResponse, error) {
	session, err := s.getOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsCompleted {
		return nil, ErrSessionNotCompleted
	}

	answers, err := s.repo.Answer().GetBySession(ctx, nil, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}

	resp := &ResultResponse{
		SessionID:      session.ID,
		ExamSetID:      session.ExamSetID,
		StartedAt:      session.StartedAt,
		CompletedAt:    session.CompletedAt,
		TotalQuestions: session.TotalQuestions,
		Answered:       len(answers),
		Percentage:     session.Percentage(),
		Answers:        make([]AnswerResult, 0, len(answers)),
	}
	if session.Score != nil {
		resp.Score = *session.Score
	}

	examSet, err := s.repo.ExamSet().GetByID(ctx, nil, session.ExamSetID)
	switch {
	case err == nil:
		resp.ExamSetName = examSet.Name
	case !repositories.IsNotFoundError(err):
		return nil, fmt.Errorf("failed to get exam set: %w", err)
	}

	for _, answer := range answers {
		resp.Answers = append(resp.Answers, toAnswerResult(answer))
	}

	return resp, nil
}

// ===== INTERNAL =====

func (s *examSessionService) getOwnedSession(ctx context.Context, userID string, sessionID uint) (*models.ExamSession, error) {
	session, err := s.repo.Session().GetByID(ctx, nil, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	// Sessions of other users are reported as missing
	if session.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *examSessionService) loadPointer(ctx context.Context, userID string) (*models.NavigationPointer, error) {
	pointer, err := s.navigation.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, cache.ErrNavigationNotFound) {
			return nil, ErrNoActiveSession
		}
		return nil, err
	}
	return pointer, nil
}

// sessionForPointer loads the session referenced by the pointer, dropping stale pointers
func (s *examSessionService) sessionForPointer(ctx context.Context, userID string, pointer *models.NavigationPointer) (*models.ExamSession, error) {
	session, err := s.repo.Session().GetByID(ctx, nil, pointer.SessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			s.clearNavigation(ctx, userID)
			return nil, ErrNoActiveSession
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session.UserID != userID {
		s.clearNavigation(ctx, userID)
		return nil, ErrNoActiveSession
	}
	return session, nil
}

// activeSession returns the pointer and its session, rejecting completed sessions
func (s *examSessionService) activeSession(ctx context.Context, userID string) (*models.NavigationPointer, *models.ExamSession, error) {
	pointer, err := s.loadPointer(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	session, err := s.sessionForPointer(ctx, userID, pointer)
	if err != nil {
		return nil, nil, err
	}

	if session.IsCompleted {
		s.clearNavigation(ctx, userID)
		return nil, nil, ErrSessionAlreadyCompleted
	}
	return pointer, session, nil
}

func (s *examSessionService) clearNavigation(ctx context.Context, userID string) {
	if err := s.navigation.Clear(ctx, userID); err != nil {
		s.logger.Error("Failed to clear navigation pointer", "user_id", userID, "error", err)
	}
}

func (s *examSessionService) publish(ctx context.Context, eventType events.EventType, data events.ExamSessionEvent) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events.NewEvent(eventType, data)); err != nil {
		s.logger.Error("Failed to publish exam session event",
			"event_type", eventType,
			"session_id", data.SessionID,
			"error", err)
	}
}

func (s *examSessionService) sessionEventData(session *models.ExamSession, reason string) events.ExamSessionEvent {
	return events.ExamSessionEvent{
		SessionID:      session.ID,
		UserID:         session.UserID,
		ExamSetID:      session.ExamSetID,
		TotalQuestions: session.TotalQuestions,
		Score:          session.Score,
		Reason:         reason,
	}
}
