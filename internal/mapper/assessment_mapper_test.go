package mapper

import (
	"testing"
	"time"

	"symptom-checker-be/internal/entity"
	"symptom-checker-be/pkg/interview"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssessmentMapper_AnonymousOwner(t *testing.T) {
	m := NewAssessmentMapper()
	a := &entity.Assessment{
		Id:         uuid.New(),
		SessionKey: "key",
		Evidence:   []interview.EvidenceItem{{ID: "s_21", ChoiceID: interview.ChoicePresent, Source: interview.SourceInitial}},
		Conditions: []interview.Condition{{ID: "c_1", Name: "Migraine", Probability: 0.91}},
		StopReason: string(interview.ReasonHighConfidence),
		CreatedAt:  time.Now(),
	}

	mdl, err := m.ToModel(a)
	require.NoError(t, err)
	assert.Nil(t, mdl.OwnerId)
	assert.JSONEq(t, `[{"id":"s_21","choice_id":"present","source":"initial"}]`, string(mdl.Evidence))

	back, err := m.ToEntity(mdl)
	require.NoError(t, err)
	assert.Equal(t, "", back.OwnerId)
	assert.Equal(t, a.Evidence, back.Evidence)
	assert.Equal(t, a.Conditions, back.Conditions)
	assert.Nil(t, back.UpdatedAt)
}

func TestAssessmentMapper_NilSafe(t *testing.T) {
	m := NewAssessmentMapper()

	mdl, err := m.ToModel(nil)
	assert.NoError(t, err)
	assert.Nil(t, mdl)

	ent, err := m.ToEntity(nil)
	assert.NoError(t, err)
	assert.Nil(t, ent)
}
