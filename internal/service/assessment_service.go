package service

import (
	"context"
	"fmt"

	"symptom-checker-be/internal/constant"
	"symptom-checker-be/internal/dto"
	"symptom-checker-be/internal/mapper"
	"symptom-checker-be/internal/repository/contract"

	"github.com/google/uuid"
)

const maxAssessmentPage = 100

type IAssessmentService interface {
	Show(ctx context.Context, ownerId string, id uuid.UUID) (*dto.AssessmentResponse, error)
	GetMine(ctx context.Context, ownerId string, limit, offset int) ([]*dto.AssessmentResponse, error)
}

type assessmentService struct {
	repo   contract.AssessmentRepository
	mapper *mapper.InterviewMapper
}

func NewAssessmentService(repo contract.AssessmentRepository) IAssessmentService {
	return &assessmentService{repo: repo, mapper: mapper.NewInterviewMapper()}
}

// Show hides assessments that belong to someone else behind a not found.
func (s *assessmentService) Show(ctx context.Context, ownerId string, id uuid.UUID) (*dto.AssessmentResponse, error) {
	assessment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if assessment == nil || (assessment.OwnerId != "" && assessment.OwnerId != ownerId) {
		return nil, fmt.Errorf("assessment %s: %w", id, constant.ErrNotFound)
	}
	return s.mapper.ToAssessmentResponse(assessment), nil
}

func (s *assessmentService) GetMine(ctx context.Context, ownerId string, limit, offset int) ([]*dto.AssessmentResponse, error) {
	if limit <= 0 || limit > maxAssessmentPage {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	assessments, err := s.repo.FindByOwner(ctx, ownerId, limit, offset)
	if err != nil {
		return nil, err
	}
	res := make([]*dto.AssessmentResponse, 0, len(assessments))
	for _, a := range assessments {
		res = append(res, s.mapper.ToAssessmentResponse(a))
	}
	return res, nil
}
