package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type DemographicsRequest struct {
	// range checks belong to the interview, only presence is checked here
	Age *int   `json:"age" validate:"required"`
	Sex string `json:"sex" validate:"required"`
}

type SymptomsRequest struct {
	Text string `json:"text" validate:"required"`
}

type AnswerRequest struct {
	ItemId   string `json:"item_id" validate:"required"`
	ChoiceId string `json:"choice_id" validate:"required,oneof=present absent unknown"`
}

type SelectionRequest struct {
	ItemId   string `json:"item_id" validate:"required"`
	ChoiceId string `json:"choice_id" validate:"required,oneof=present absent unknown"`
}

type PatientResponse struct {
	Age int    `json:"age"`
	Sex string `json:"sex"`
}

type EvidenceResponse struct {
	Id       string `json:"id"`
	ChoiceId string `json:"choice_id"`
	Source   string `json:"source,omitempty"`
}

type ChoiceResponse struct {
	Id    string `json:"id"`
	Label string `json:"label"`
}

type QuestionItemResponse struct {
	Id      string           `json:"id"`
	Name    string           `json:"name"`
	Choices []ChoiceResponse `json:"choices"`
}

type QuestionResponse struct {
	Type  string                 `json:"type"`
	Text  string                 `json:"text"`
	Items []QuestionItemResponse `json:"items"`
}

type ConditionResponse struct {
	Id          string  `json:"id"`
	Name        string  `json:"name"`
	CommonName  string  `json:"common_name"`
	Probability float64 `json:"probability"`
	Severity    string  `json:"severity,omitempty"`
	Acuteness   string  `json:"acuteness,omitempty"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
}

type InterviewResponse struct {
	SessionKey    string              `json:"session_key"`
	InterviewId   string              `json:"interview_id"`
	State         string              `json:"state"`
	Patient       *PatientResponse    `json:"patient,omitempty"`
	Evidence      []EvidenceResponse  `json:"evidence"`
	Question      *QuestionResponse   `json:"question,omitempty"`
	Selections    map[string]string   `json:"selections,omitempty"`
	Conditions    []ConditionResponse `json:"conditions"`
	QuestionCount int                 `json:"question_count"`
	MaxQuestions  int                 `json:"max_questions"`
	Extended      bool                `json:"extended"`
	CanExtend     bool                `json:"can_extend"`
	Emergencies   []string            `json:"emergencies"`
	StopReason    string              `json:"stop_reason,omitempty"`
	InFlight      bool                `json:"in_flight"`
	AssessmentId  string              `json:"assessment_id,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

type ExplanationResponse struct {
	AssessmentId string `json:"assessment_id"`
	Explanation  string `json:"explanation"`
}

type AssessmentResponse struct {
	Id            uuid.UUID           `json:"id"`
	SessionKey    string              `json:"session_key"`
	InterviewId   string              `json:"interview_id"`
	Patient       PatientResponse     `json:"patient"`
	Evidence      []EvidenceResponse  `json:"evidence"`
	Conditions    []ConditionResponse `json:"conditions"`
	Emergencies   []string            `json:"emergencies"`
	StopReason    string              `json:"stop_reason"`
	QuestionCount int                 `json:"question_count"`
	Explanation   string              `json:"explanation,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// StreamMessage travels on the in-process stream topic before it reaches
// the websocket hub.
type StreamMessage struct {
	SessionKey string          `json:"session_key"`
	Type       string          `json:"type"`
	Data       json.RawMessage `json:"data"`
}
