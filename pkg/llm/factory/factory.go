package factory

import (
	"fmt"
	"time"

	"ai-tutoring-be/pkg/llm"
	"ai-tutoring-be/pkg/llm/gemini"
	"ai-tutoring-be/pkg/llm/ollama"
)

// NewLLMProvider selects a chat backend by name.
func NewLLMProvider(providerName, model, baseURL, apiKey string, timeout time.Duration) (llm.LLMProvider, error) {
	switch providerName {
	case "ollama":
		return ollama.NewOllamaProvider(baseURL, model, timeout), nil
	case "gemini":
		return gemini.NewGeminiProvider(apiKey, model, timeout), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", providerName)
	}
}
