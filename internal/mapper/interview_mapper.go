package mapper

import (
	"symptom-checker-be/internal/dto"
	"symptom-checker-be/internal/entity"
	"symptom-checker-be/pkg/interview"
)

type InterviewMapper struct{}

func NewInterviewMapper() *InterviewMapper {
	return &InterviewMapper{}
}

func (m *InterviewMapper) ToResponse(v interview.View, assessmentId string) *dto.InterviewResponse {
	res := &dto.InterviewResponse{
		SessionKey:    v.Key,
		InterviewId:   v.InterviewID,
		State:         string(v.State),
		Evidence:      m.evidence(v.Evidence),
		Question:      m.question(v.Question),
		Conditions:    m.conditions(v.Conditions),
		QuestionCount: v.QuestionCount,
		MaxQuestions:  v.MaxQuestions,
		Extended:      v.Extended,
		CanExtend:     v.CanExtend,
		Emergencies:   v.Emergencies,
		StopReason:    string(v.Reason),
		InFlight:      v.InFlight,
		AssessmentId:  assessmentId,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
	if v.Patient.Age > 0 {
		res.Patient = &dto.PatientResponse{Age: v.Patient.Age, Sex: string(v.Patient.Sex)}
	}
	if len(v.Selections) > 0 {
		res.Selections = make(map[string]string, len(v.Selections))
		for id, choice := range v.Selections {
			res.Selections[id] = string(choice)
		}
	}
	return res
}

func (m *InterviewMapper) ToAssessmentResponse(a *entity.Assessment) *dto.AssessmentResponse {
	emergencies := a.Emergencies
	if emergencies == nil {
		emergencies = []string{}
	}
	return &dto.AssessmentResponse{
		Id:            a.Id,
		SessionKey:    a.SessionKey,
		InterviewId:   a.InterviewId,
		Patient:       dto.PatientResponse{Age: a.Age, Sex: a.Sex},
		Evidence:      m.evidence(a.Evidence),
		Conditions:    m.conditions(interview.Ranked(a.Conditions)),
		Emergencies:   emergencies,
		StopReason:    a.StopReason,
		QuestionCount: a.QuestionCount,
		Explanation:   a.Explanation,
		CreatedAt:     a.CreatedAt,
	}
}

func (m *InterviewMapper) evidence(items []interview.EvidenceItem) []dto.EvidenceResponse {
	out := make([]dto.EvidenceResponse, 0, len(items))
	for _, it := range items {
		out = append(out, dto.EvidenceResponse{Id: it.ID, ChoiceId: string(it.ChoiceID), Source: string(it.Source)})
	}
	return out
}

func (m *InterviewMapper) conditions(conditions []interview.Condition) []dto.ConditionResponse {
	out := make([]dto.ConditionResponse, 0, len(conditions))
	for _, c := range conditions {
		res := dto.ConditionResponse{
			Id:          c.ID,
			Name:        c.Name,
			CommonName:  c.CommonName,
			Probability: c.Probability,
		}
		if c.Details != nil {
			res.Severity = c.Details.Severity
			res.Acuteness = c.Details.Acuteness
			res.Category = c.Details.Category
			res.Description = c.Details.Description
		}
		out = append(out, res)
	}
	return out
}

func (m *InterviewMapper) question(q interview.Question) *dto.QuestionResponse {
	if q == nil {
		return nil
	}
	items := make([]dto.QuestionItemResponse, 0, len(q.Items()))
	for _, it := range q.Items() {
		choices := make([]dto.ChoiceResponse, 0, len(it.Choices))
		for _, ch := range it.Choices {
			choices = append(choices, dto.ChoiceResponse{Id: string(ch.ID), Label: ch.Label})
		}
		items = append(items, dto.QuestionItemResponse{Id: it.ID, Name: it.Name, Choices: choices})
	}
	return &dto.QuestionResponse{Type: string(q.Kind()), Text: q.Prompt(), Items: items}
}
