package factory

import (
	"context"
	"testing"

	"symptom-checker-be/pkg/llm/ollama"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	p, err := NewLLMProvider(context.Background(), "ollama", "llama3", "", "")
	require.NoError(t, err)
	assert.IsType(t, &ollama.OllamaProvider{}, p)

	_, err = NewLLMProvider(context.Background(), "gemini", "", "", "")
	assert.Error(t, err, "gemini needs an api key")

	_, err = NewLLMProvider(context.Background(), "gpt", "", "", "")
	assert.ErrorContains(t, err, "unsupported")
}
