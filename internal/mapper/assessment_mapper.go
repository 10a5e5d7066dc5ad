package mapper

import (
	"encoding/json"
	"fmt"
	"time"

	"symptom-checker-be/internal/entity"
	"symptom-checker-be/internal/model"
	"symptom-checker-be/pkg/interview"

	"gorm.io/datatypes"
)

type AssessmentMapper struct{}

func NewAssessmentMapper() *AssessmentMapper {
	return &AssessmentMapper{}
}

func (m *AssessmentMapper) ToModel(a *entity.Assessment) (*model.Assessment, error) {
	if a == nil {
		return nil, nil
	}
	evidence, err := json.Marshal(a.Evidence)
	if err != nil {
		return nil, fmt.Errorf("marshal evidence: %w", err)
	}
	conditions, err := json.Marshal(a.Conditions)
	if err != nil {
		return nil, fmt.Errorf("marshal conditions: %w", err)
	}

	var owner *string
	if a.OwnerId != "" {
		o := a.OwnerId
		owner = &o
	}

	return &model.Assessment{
		Id:            a.Id,
		SessionKey:    a.SessionKey,
		InterviewId:   a.InterviewId,
		OwnerId:       owner,
		Age:           a.Age,
		Sex:           a.Sex,
		Evidence:      datatypes.JSON(evidence),
		Conditions:    datatypes.JSON(conditions),
		Emergencies:   datatypes.JSONSlice[string](a.Emergencies),
		StopReason:    a.StopReason,
		QuestionCount: a.QuestionCount,
		Explanation:   a.Explanation,
		CreatedAt:     a.CreatedAt,
	}, nil
}

func (m *AssessmentMapper) ToEntity(a *model.Assessment) (*entity.Assessment, error) {
	if a == nil {
		return nil, nil
	}
	var evidence []interview.EvidenceItem
	if err := json.Unmarshal(a.Evidence, &evidence); err != nil {
		return nil, fmt.Errorf("unmarshal evidence: %w", err)
	}
	var conditions []interview.Condition
	if err := json.Unmarshal(a.Conditions, &conditions); err != nil {
		return nil, fmt.Errorf("unmarshal conditions: %w", err)
	}

	var updatedAt *time.Time
	if !a.UpdatedAt.IsZero() {
		t := a.UpdatedAt
		updatedAt = &t
	}
	var owner string
	if a.OwnerId != nil {
		owner = *a.OwnerId
	}

	return &entity.Assessment{
		Id:            a.Id,
		SessionKey:    a.SessionKey,
		InterviewId:   a.InterviewId,
		OwnerId:       owner,
		Age:           a.Age,
		Sex:           a.Sex,
		Evidence:      evidence,
		Conditions:    conditions,
		Emergencies:   []string(a.Emergencies),
		StopReason:    a.StopReason,
		QuestionCount: a.QuestionCount,
		Explanation:   a.Explanation,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     updatedAt,
	}, nil
}
