package factory

import (
	"fmt"
	"time"

	"org-diagnostics-be/pkg/llm"
	"org-diagnostics-be/pkg/llm/zhipu"
)

func NewLLMProvider(providerType, modelName, baseURL, apiKey string, timeout time.Duration) (llm.LLMProvider, error) {
	switch providerType {
	case "zhipu":
		if baseURL == "" {
			baseURL = "https://open.bigmodel.cn/api/paas/v4" // Default
		}
		return zhipu.NewZhipuProvider(baseURL, apiKey, modelName, timeout), nil
	case "openai":
		// Same wire format, different host.
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		return zhipu.NewZhipuProvider(baseURL, apiKey, modelName, timeout), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
