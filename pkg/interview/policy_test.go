package interview

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func cond(id string, p float64) Condition {
	return Condition{ID: id, Name: id, Probability: p}
}

func TestStopPolicy_Rules(t *testing.T) {
	policy := NewStopPolicy(DefaultPolicyConfig())

	tests := []struct {
		name   string
		in     PolicyInput
		stop   bool
		reason StopReason
	}{
		{
			name:   "high confidence stops regardless of count",
			in:     PolicyInput{Conditions: []Condition{cond("c_1", 0.90)}, QuestionCount: 0, HasQuestion: true, MaxQuestions: 15},
			stop:   true,
			reason: ReasonHighConfidence,
		},
		{
			name:   "exactly the high confidence threshold does not stop",
			in:     PolicyInput{Conditions: []Condition{cond("c_1", 0.85)}, QuestionCount: 1, HasQuestion: true, MaxQuestions: 15},
			stop:   false,
			reason: ReasonMinimumNotReached,
		},
		{
			name:   "dominant leader",
			in:     PolicyInput{Conditions: []Condition{cond("c_1", 0.50), cond("c_2", 0.05)}, QuestionCount: 4, HasQuestion: true, MaxQuestions: 15},
			stop:   true,
			reason: ReasonDominantLeader,
		},
		{
			name:   "dominance uses ranked order not remote order",
			in:     PolicyInput{Conditions: []Condition{cond("c_2", 0.05), cond("c_1", 0.50)}, QuestionCount: 1, HasQuestion: true, MaxQuestions: 15},
			stop:   true,
			reason: ReasonDominantLeader,
		},
		{
			name:   "confirmed leader needs remote stop",
			in:     PolicyInput{Conditions: []Condition{cond("c_1", 0.75), cond("c_2", 0.50)}, QuestionCount: 1, RemoteShouldStop: true, HasQuestion: true, MaxQuestions: 15},
			stop:   true,
			reason: ReasonConfirmedLeader,
		},
		{
			name:   "minimum length overrides lower rules",
			in:     PolicyInput{Conditions: []Condition{cond("c_1", 0.50)}, QuestionCount: 2, RemoteShouldStop: true, HasQuestion: false, MaxQuestions: 1},
			stop:   false,
			reason: ReasonMinimumNotReached,
		},
		{
			name:   "remote stop after five questions",
			in:     PolicyInput{Conditions: []Condition{cond("c_1", 0.50)}, QuestionCount: 5, RemoteShouldStop: true, HasQuestion: true, MaxQuestions: 15},
			stop:   true,
			reason: ReasonRemoteStop,
		},
		{
			name:   "remote stop ignored before five questions",
			in:     PolicyInput{Conditions: []Condition{cond("c_1", 0.50), cond("c_2", 0.30)}, QuestionCount: 4, RemoteShouldStop: true, HasQuestion: true, MaxQuestions: 15},
			stop:   false,
			reason: ReasonNone,
		},
		{
			name:   "no next question",
			in:     PolicyInput{QuestionCount: 3, HasQuestion: false, MaxQuestions: 15},
			stop:   true,
			reason: ReasonNoQuestion,
		},
		{
			name:   "question limit",
			in:     PolicyInput{Conditions: []Condition{cond("c_1", 0.30), cond("c_2", 0.25)}, QuestionCount: 15, HasQuestion: true, MaxQuestions: 15},
			stop:   true,
			reason: ReasonQuestionLimit,
		},
		{
			name:   "convergence",
			in:     PolicyInput{Conditions: []Condition{cond("c_1", 0.61), cond("c_2", 0.30)}, QuestionCount: 6, HasQuestion: true, MaxQuestions: 15},
			stop:   true,
			reason: ReasonConverged,
		},
		{
			name:   "convergence skipped without conditions",
			in:     PolicyInput{QuestionCount: 8, HasQuestion: true, MaxQuestions: 15},
			stop:   false,
			reason: ReasonNone,
		},
		{
			name:   "continue",
			in:     PolicyInput{Conditions: []Condition{cond("c_1", 0.40), cond("c_2", 0.35)}, QuestionCount: 4, HasQuestion: true, MaxQuestions: 15},
			stop:   false,
			reason: ReasonNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := policy.Evaluate(tt.in)
			assert.Equal(t, tt.stop, d.Stop)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestStopPolicy_NoQuestionKeepsEmergencies(t *testing.T) {
	policy := NewStopPolicy(DefaultPolicyConfig())
	known := []string{"stroke"}

	d := policy.Evaluate(PolicyInput{QuestionCount: 3, MaxQuestions: 15, KnownEmergencies: known})

	assert.True(t, d.Stop)
	assert.Equal(t, ReasonNoQuestion, d.Reason)
	assert.Equal(t, known, d.Emergencies)
}

func TestStopPolicy_EmergencyScan(t *testing.T) {
	policy := NewStopPolicy(DefaultPolicyConfig())

	conditions := []Condition{
		{
			ID: "c_1", Name: "Acute coronary syndrome", CommonName: "Heart attack", Probability: 0.2,
			Details: &ConditionDetails{Severity: "severe", Acuteness: "acute", Description: "Presents with severe chest pain."},
		},
		{
			ID: "c_2", Name: "Migraine", Probability: 0.4,
			Details: &ConditionDetails{Severity: "moderate", Acuteness: "chronic", Description: "Not a stroke."},
		},
		{ID: "c_3", Name: "Anaphylaxis", Probability: 0.1},
	}

	d := policy.Evaluate(PolicyInput{Conditions: conditions, QuestionCount: 4, HasQuestion: true, MaxQuestions: 15, KnownEmergencies: []string{"heart attack"}})

	assert.Equal(t, []string{"heart attack", "severe chest pain", "chest pain"}, d.Emergencies)
	assert.False(t, d.Stop, "emergencies never stop the interview")
}

func TestStopPolicy_CustomConfig(t *testing.T) {
	cfg := DefaultPolicyConfig()
	cfg.HighConfidence = 0.95
	cfg.MinQuestions = 1
	cfg.EmergencyKeywords = []string{"  Sepsis "}
	policy := NewStopPolicy(cfg)

	d := policy.Evaluate(PolicyInput{
		Conditions:    []Condition{{ID: "c_1", Name: "Sepsis", Probability: 0.9, Details: &ConditionDetails{Severity: "severe"}}},
		QuestionCount: 1,
		HasQuestion:   true,
		MaxQuestions:  15,
	})

	assert.False(t, d.Stop)
	assert.Equal(t, []string{"sepsis"}, d.Emergencies)
}

func TestPolicyConfig_ExtendedLimit(t *testing.T) {
	cfg := DefaultPolicyConfig()

	assert.Equal(t, 22, cfg.ExtendedLimit(15))
	assert.Equal(t, 15, cfg.ExtendedLimit(10))
}
