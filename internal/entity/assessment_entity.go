package entity

import (
	"time"

	"symptom-checker-be/pkg/interview"

	"github.com/google/uuid"
)

// Assessment is the snapshot kept after an interview is finalized.
type Assessment struct {
	Id            uuid.UUID
	SessionKey    string
	InterviewId   string
	OwnerId       string // empty for anonymous interviews
	Age           int
	Sex           string
	Evidence      []interview.EvidenceItem
	Conditions    []interview.Condition
	Emergencies   []string
	StopReason    string
	QuestionCount int
	Explanation   string
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

func (a *Assessment) HasEmergency() bool {
	return len(a.Emergencies) > 0
}
