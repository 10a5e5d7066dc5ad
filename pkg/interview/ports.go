package interview

import (
	"context"
	"time"
)

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

func (s Sex) Valid() bool {
	return s == SexMale || s == SexFemale
}

type Patient struct {
	Age int `json:"age"`
	Sex Sex `json:"sex"`
}

// DiagnosisRequest always carries the complete evidence list; the remote
// side keeps no state between calls apart from the interview id header.
type DiagnosisRequest struct {
	InterviewID string
	Patient     Patient
	Evidence    []EvidenceItem
	EvaluatedAt *time.Time
	Extras      map[string]any
}

// DiagnosisStep is one remote answer. A nil Question means the remote has
// nothing left to ask.
type DiagnosisStep struct {
	Question   Question
	Conditions []Condition
	ShouldStop bool
}

type DiagnosisGateway interface {
	Diagnose(ctx context.Context, req DiagnosisRequest) (*DiagnosisStep, error)
}

type ParseRequest struct {
	InterviewID string
	Text        string
	Patient     Patient
}

type SymptomParser interface {
	Parse(ctx context.Context, req ParseRequest) ([]Mention, error)
}

// LeadingConditions is emitted after every round-trip that returned at
// least one condition.
type LeadingConditions struct {
	SessionKey    string      `json:"session_key"`
	InterviewID   string      `json:"interview_id"`
	QuestionCount int         `json:"question_count"`
	Conditions    []Condition `json:"conditions"`
}

// Notifier is called with the session lock held and must not call back into
// the session.
type Notifier interface {
	LeadingConditions(ctx context.Context, n LeadingConditions)
}
