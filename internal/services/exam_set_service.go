package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/exam-session-service/internal/repositories"
)

type examSetService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExamSetService(repo repositories.Repository, logger *slog.Logger) ExamSetService {
	return &examSetService{
		repo:   repo,
		logger: logger,
	}
}

func (s *examSetService) List(ctx context.Context, filters repositories.ExamSetFilters) (*ExamSetListResponse, error) {
	examSets, total, err := s.repo.ExamSet().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list exam sets: %w", err)
	}

	resp := &ExamSetListResponse{
		ExamSets: make([]*ExamSetResponse, 0, len(examSets)),
		Total:    total,
		Size:     filters.Limit,
		Page:     filters.Offset/max(filters.Limit, 1) + 1,
	}
	for _, examSet := range examSets {
		resp.ExamSets = append(resp.ExamSets, toExamSetResponse(examSet))
	}
	return resp, nil
}

func (s *examSetService) GetByID(ctx context.Context, id uint) (*ExamSetResponse, error) {
	examSet, err := s.repo.ExamSet().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamSetNotFound
		}
		return nil, fmt.Errorf("failed to get exam set: %w", err)
	}

	count, err := s.repo.Question().CountByExamSet(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count questions: %w", err)
	}
	examSet.AvailableQuestions = count

	s.logger.Debug("Exam set loaded", "exam_set_id", id, "available_questions", count)
	return toExamSetResponse(examSet), nil
}
