package factory

import (
	"context"
	"fmt"

	"symptom-checker-be/pkg/llm"
	"symptom-checker-be/pkg/llm/gemini"
	"symptom-checker-be/pkg/llm/ollama"
)

func NewLLMProvider(ctx context.Context, providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "gemini", "":
		p, err := gemini.NewProvider(ctx, apiKey, modelName)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "ollama":
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
