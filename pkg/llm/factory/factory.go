package factory

import (
	"fmt"

	"nutriplan-llm-be/pkg/llm"
	"nutriplan-llm-be/pkg/llm/ollama"
	"nutriplan-llm-be/pkg/llm/openai"
)

func NewLLMProvider(providerType, modelName, baseURL, apiKey string, temperature float64) (llm.LLMProvider, error) {
	switch providerType {
	case "vllm", "openai":
		if baseURL == "" {
			return nil, fmt.Errorf("base URL is required for provider %q", providerType)
		}
		return openai.NewOpenAIProvider(baseURL, apiKey, modelName, temperature), nil
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
