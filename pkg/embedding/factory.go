package embedding

import "fmt"

// NewProvider selects an embedding backend by name. One provider is
// active per process; backends are never hot-swapped mid-request.
func NewProvider(providerType, geminiApiKey, ollamaBaseURL, ollamaModel string) (EmbeddingProvider, error) {
	switch providerType {
	case "gemini":
		if geminiApiKey == "" {
			return nil, fmt.Errorf("gemini embedding provider requires an API key")
		}
		return NewGeminiProvider(geminiApiKey), nil
	case "ollama":
		return NewOllamaProvider(ollamaBaseURL, ollamaModel), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", providerType)
	}
}
