package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"
)

// OpenAIProvider calls the OpenAI-compatible /embeddings endpoint. Zhipu's
// embedding API shares the same wire format, so both go through this type.
type OpenAIProvider struct {
	BaseURL   string
	ApiKey    string
	ModelName string
	Client    *http.Client

	name string
}

var _ EmbeddingProvider = &OpenAIProvider{}

func NewOpenAIProvider(apiKey, modelName string) *OpenAIProvider {
	return &OpenAIProvider{
		BaseURL:   "https://api.openai.com/v1",
		ApiKey:    apiKey,
		ModelName: modelName,
		Client:    &http.Client{Timeout: 30 * time.Second},
		name:      "openai",
	}
}

// NewZhipuEmbeddingProvider targets Zhipu's embedding endpoint with the same
// request shape.
func NewZhipuEmbeddingProvider(apiKey, modelName string) *OpenAIProvider {
	return &OpenAIProvider{
		BaseURL:   "https://open.bigmodel.cn/api/paas/v4",
		ApiKey:    apiKey,
		ModelName: modelName,
		Client:    &http.Client{Timeout: 30 * time.Second},
		name:      "zhipu",
	}
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (p *OpenAIProvider) Generate(ctx context.Context, text string) ([]float32, error) {
	reqPayload := embeddingRequest{
		Model: p.ModelName,
		Input: text,
	}
	payloadBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, &ProviderError{Provider: p.name, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.BaseURL+"/embeddings", bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, &ProviderError{Provider: p.name, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.ApiKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, &ProviderError{Provider: p.name, Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: p.name, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: p.name, StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(bodyBytes, &embResp); err != nil {
		return nil, &ProviderError{Provider: p.name, Err: err}
	}
	if len(embResp.Data) == 0 || len(embResp.Data[0].Embedding) == 0 {
		return nil, &ProviderError{Provider: p.name, Err: errors.New("empty embedding in response")}
	}

	return embResp.Data[0].Embedding, nil
}
