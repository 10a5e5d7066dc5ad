package events

import "time"

const (
	TypeInterviewFinalized = "interview.finalized"
	TypeEmergencyDetected  = "interview.emergency"
)

// ConditionSummary is the slimmed-down condition carried on the bus.
type ConditionSummary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
}

// InterviewFinalized is raised once per interview, after its assessment has
// been stored.
type InterviewFinalized struct {
	SessionKey    string
	InterviewID   string
	AssessmentID  string
	OwnerID       string
	Reason        string
	QuestionCount int
	Leading       []ConditionSummary
	Emergencies   []string
	OccurredAt    time.Time
}

func (e InterviewFinalized) EventType() string { return TypeInterviewFinalized }

func (e InterviewFinalized) Payload() map[string]interface{} {
	return map[string]interface{}{
		"session_key":    e.SessionKey,
		"interview_id":   e.InterviewID,
		"assessment_id":  e.AssessmentID,
		"owner_id":       e.OwnerID,
		"reason":         e.Reason,
		"question_count": e.QuestionCount,
		"leading":        e.Leading,
		"emergencies":    e.Emergencies,
		"occurred_at":    e.OccurredAt,
	}
}

func (e InterviewFinalized) Timestamp() time.Time { return e.OccurredAt }

// EmergencyDetected is raised the first time a condition is flagged as an
// emergency during an interview.
type EmergencyDetected struct {
	SessionKey  string
	InterviewID string
	OwnerID     string
	Conditions  []string
	OccurredAt  time.Time
}

func (e EmergencyDetected) EventType() string { return TypeEmergencyDetected }

func (e EmergencyDetected) Payload() map[string]interface{} {
	return map[string]interface{}{
		"session_key":  e.SessionKey,
		"interview_id": e.InterviewID,
		"owner_id":     e.OwnerID,
		"conditions":   e.Conditions,
		"occurred_at":  e.OccurredAt,
	}
}

func (e EmergencyDetected) Timestamp() time.Time { return e.OccurredAt }
