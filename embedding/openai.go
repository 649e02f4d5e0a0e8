package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const openaiBaseURL = "https://api.openai.com/v1"

// apiModels maps the declarative model names to OpenAI API model IDs.
var apiModels = map[string]string{
	ModelOpenAIEmbed3Large: "text-embedding-3-large",
	ModelOpenAIEmbed3Small: "text-embedding-3-small",
}

func NewOpenAIProvider(model string, apiKey string) Provider {
	return &openaiProvider{
		model:   model,
		apiKey:  apiKey,
		baseURL: openaiBaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type openaiProvider struct {
	model   string
	apiKey  string
	baseURL string
	client  *http.Client
}

func (p *openaiProvider) Model() string {
	return p.model
}

func (p *openaiProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := p.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	return embeddings[0], nil
}

func (p *openaiProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	return p.embed(ctx, texts)
}

func (p *openaiProvider) embed(ctx context.Context, input []string) ([][]float32, error) {
	body := struct {
		Input []string `json:"input"`
		Model string   `json:"model"`
	}{
		Input: input,
		Model: apiModels[p.model],
	}

	data, err := json.Marshal(&body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/embeddings", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &ProviderError{Model: p.model, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

		err := fmt.Errorf("status %d: %s", resp.StatusCode, string(msg))
		return nil, &ProviderError{Model: p.model, Err: err}
	}

	var result struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ProviderError{Model: p.model, Err: err}
	}

	if len(result.Data) != len(input) {
		err := fmt.Errorf("expected %d embeddings, got %d", len(input), len(result.Data))
		return nil, &ProviderError{Model: p.model, Err: err}
	}

	embeddings := make([][]float32, len(input))
	for _, d := range result.Data {
		if d.Index < 0 || d.Index >= len(input) {
			err := fmt.Errorf("embedding index %d out of range", d.Index)
			return nil, &ProviderError{Model: p.model, Err: err}
		}

		embeddings[d.Index] = d.Embedding
	}

	return embeddings, nil
}
