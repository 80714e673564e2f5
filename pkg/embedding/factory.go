package embedding

import "fmt"

func NewEmbeddingProvider(providerType, apiKey, modelName string) (EmbeddingProvider, error) {
	switch providerType {
	case "openai":
		return NewOpenAIProvider(apiKey, modelName), nil
	case "zhipu":
		return NewZhipuEmbeddingProvider(apiKey, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", providerType)
	}
}
