package gemini

import (
	"context"
	"testing"

	"symptom-checker-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToContents(t *testing.T) {
	contents, system := toContents([]llm.Message{
		{Role: llm.RoleSystem, Content: "Be brief."},
		{Role: llm.RoleUser, Content: "What is a migraine?"},
		{Role: llm.RoleAssistant, Content: "A headache disorder."},
		{Role: llm.RoleSystem, Content: "No diagnoses."},
	})

	require.NotNil(t, system)
	require.Len(t, system.Parts, 2)
	assert.Equal(t, "No diagnoses.", system.Parts[1].Text)

	require.Len(t, contents, 2)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "A headache disorder.", contents[1].Parts[0].Text)
}

func TestNewProvider_RequiresKey(t *testing.T) {
	_, err := NewProvider(context.Background(), " ", "")
	assert.Error(t, err)
}
