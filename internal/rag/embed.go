package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"alad-i18n/internal/worker"

	"github.com/rs/zerolog/log"
)

// Embedder turns texts into vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingClient generates text embeddings via an OpenAI-compatible API.
type EmbeddingClient struct {
	apiKey     string
	model      string
	baseURL    string
	dimensions int
	batchSize  int
	httpClient *http.Client
}

// NewEmbeddingClient creates a new embedding client. baseURL is the API
// root, e.g. https://dashscope.aliyuncs.com/compatible-mode/v1.
func NewEmbeddingClient(apiKey, model, baseURL string, dimensions int) *EmbeddingClient {
	if dimensions <= 0 {
		dimensions = 1024
	}
	return &EmbeddingClient{
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		dimensions: dimensions,
		batchSize:  32,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Dimensions returns the vector size the client requests.
func (ec *EmbeddingClient) Dimensions() int { return ec.dimensions }

type embeddingRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Usage embeddingUsage  `json:"usage"`
}

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type embeddingUsage struct {
	TotalTokens int `json:"total_tokens"`
}

// Embed generates embeddings for texts, in request batches the API accepts.
// The result is index-aligned with texts.
func (ec *EmbeddingClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, batch := range worker.Batch(texts, ec.batchSize) {
		vecs, err := ec.embedBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (ec *EmbeddingClient) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	bodyBytes, err := json.Marshal(embeddingRequest{
		Input:      texts,
		Model:      ec.model,
		Dimensions: ec.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ec.baseURL+"/embeddings", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ec.apiKey)

	resp, err := ec.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding API call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var embedResp embeddingResponse
	if err := json.Unmarshal(respBody, &embedResp); err != nil {
		return nil, fmt.Errorf("unmarshal embedding response: %w", err)
	}

	results := make([][]float32, len(texts))
	for _, d := range embedResp.Data {
		if d.Index >= 0 && d.Index < len(results) {
			results[d.Index] = d.Embedding
		}
	}

	log.Debug().
		Int("texts", len(texts)).
		Int("tokens", embedResp.Usage.TotalTokens).
		Msg("Generated embeddings")

	return results, nil
}
