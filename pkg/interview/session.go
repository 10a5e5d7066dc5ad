package interview

import (
	"sync"
	"time"
)

type State string

const (
	StateCollectingDemographics State = "COLLECTING_DEMOGRAPHICS"
	StateCollectingSymptoms     State = "COLLECTING_SYMPTOMS"
	StateAwaitingStep           State = "AWAITING_DIAGNOSIS_STEP"
	StatePresentingQuestion     State = "PRESENTING_QUESTION"
	StateAwaitingAnswer         State = "AWAITING_ANSWER"
	StateLimitReached           State = "LIMIT_REACHED"
	StateFinalized              State = "FINALIZED"
)

// Session is one interview. Key stays fixed for the lifetime of the session
// while the interview id changes on every reset.
type Session struct {
	mu sync.Mutex

	key         string
	interviewID string
	state       State
	patient     Patient
	evidence    *EvidenceStore

	conditions       []Condition
	question         Question
	remoteShouldStop bool
	selections       map[string]ChoiceID

	questionCount int
	maxQuestions  int
	extended      bool
	emergencies   []string
	reason        StopReason

	inFlight  bool
	createdAt time.Time
	updatedAt time.Time
}

// View is a read-only copy of a session.
type View struct {
	Key           string
	InterviewID   string
	State         State
	Patient       Patient
	Evidence      []EvidenceItem
	Conditions    []Condition
	Question      Question
	Selections    map[string]ChoiceID
	QuestionCount int
	MaxQuestions  int
	Extended      bool
	CanExtend     bool
	Emergencies   []string
	Reason        StopReason
	InFlight      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (s *Session) Key() string {
	return s.key
}

func (s *Session) InterviewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interviewID
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	selections := make(map[string]ChoiceID, len(s.selections))
	for k, v := range s.selections {
		selections[k] = v
	}
	emergencies := make([]string, len(s.emergencies))
	copy(emergencies, s.emergencies)

	return View{
		Key:           s.key,
		InterviewID:   s.interviewID,
		State:         s.state,
		Patient:       s.patient,
		Evidence:      s.evidence.Items(),
		Conditions:    Ranked(s.conditions),
		Question:      s.question,
		Selections:    selections,
		QuestionCount: s.questionCount,
		MaxQuestions:  s.maxQuestions,
		Extended:      s.extended,
		CanExtend:     s.state == StateLimitReached,
		Emergencies:   emergencies,
		Reason:        s.reason,
		InFlight:      s.inFlight,
		CreatedAt:     s.createdAt,
		UpdatedAt:     s.updatedAt,
	}
}

func (s *Session) answerable() bool {
	return s.state == StatePresentingQuestion || s.state == StateAwaitingAnswer
}
