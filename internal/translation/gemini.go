package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"alad-i18n/internal/glossary"
	"alad-i18n/internal/interpolation"
	"alad-i18n/internal/rag"

	"github.com/rs/zerolog/log"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// GeminiClient translates batches through the Google Gemini API.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	backoff    time.Duration
	glossary   glossary.Source
	examples   ExampleSource
	prompts    *PromptBuilder
	httpClient *http.Client
}

// GeminiOption configures a GeminiClient.
type GeminiOption func(*GeminiClient)

// WithGeminiBaseURL points the client at another endpoint.
func WithGeminiBaseURL(u string) GeminiOption {
	return func(c *GeminiClient) { c.baseURL = u }
}

// WithGlossary adds glossary terms to every prompt.
func WithGlossary(src glossary.Source) GeminiOption {
	return func(c *GeminiClient) { c.glossary = src }
}

// ExampleSource finds earlier translations similar to texts.
type ExampleSource interface {
	Similar(ctx context.Context, texts []string, lang string) ([]rag.Example, error)
}

// WithExamples adds similar earlier translations to every prompt.
func WithExamples(src ExampleSource) GeminiOption {
	return func(c *GeminiClient) { c.examples = src }
}

// WithGeminiBackoff sets the base retry backoff.
func WithGeminiBackoff(d time.Duration) GeminiOption {
	return func(c *GeminiClient) { c.backoff = d }
}

// NewGeminiClient creates a new Gemini translation client.
func NewGeminiClient(apiKey, model string, opts ...GeminiOption) *GeminiClient {
	c := &GeminiClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: geminiBaseURL,
		backoff: time.Second,
		prompts: NewPromptBuilder(),
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// --- Gemini API request/response types ---

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  *genConfig      `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type genConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
}

type geminiResponse struct {
	Candidates    []geminiCandidate `json:"candidates"`
	UsageMetadata *geminiUsage      `json:"usageMetadata,omitempty"`
	Error         *geminiError      `json:"error,omitempty"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

type geminiUsage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// batchIndexPrefix strips an echoed "[3] " numbering from a batch answer.
var batchIndexPrefix = regexp.MustCompile(`^\[\d+\]\s*`)

// Translate sends texts in one prompt and splits the ||| separated answer.
// Answers missing from the response are left out of the result.
func (gc *GeminiClient) Translate(ctx context.Context, texts []string, lang string) (map[string]string, error) {
	if len(texts) == 0 {
		return map[string]string{}, nil
	}
	if !IsSupported(lang) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
	}

	protected := make([]string, len(texts))
	mappings := make([][]interpolation.Mapping, len(texts))
	for i, text := range texts {
		protected[i], mappings[i] = interpolation.Protect(text)
	}

	var terms []glossary.Term
	if gc.glossary != nil {
		all, err := gc.glossary.Terms(ctx, lang)
		if err != nil {
			log.Warn().Err(err).Str("lang", lang).Msg("Failed to load glossary")
		} else {
			terms = glossary.Relevant(all, texts)
		}
	}

	var examples []rag.Example
	if gc.examples != nil {
		found, err := gc.examples.Similar(ctx, texts, lang)
		if err != nil {
			log.Warn().Err(err).Str("lang", lang).Msg("Similar translation lookup failed")
		} else {
			examples = found
		}
	}

	response, err := gc.complete(ctx, gc.prompts.SystemPrompt(lang), gc.prompts.BuildBatchUserPrompt(protected, terms, examples))
	if err != nil {
		return nil, err
	}

	parts := strings.Split(response, "|||")
	out := make(map[string]string, len(texts))
	for i, text := range texts {
		if i >= len(parts) {
			log.Warn().Str("lang", lang).Int("index", i).Msg("Missing translation in batch response")
			continue
		}
		translated := batchIndexPrefix.ReplaceAllString(strings.TrimSpace(parts[i]), "")
		if translated == "" {
			continue
		}
		out[text] = interpolation.Restore(translated, mappings[i])
	}
	return out, nil
}

func (gc *GeminiClient) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := geminiRequest{
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: systemPrompt}},
		},
		Contents: []geminiContent{
			{
				Role:  "user",
				Parts: []geminiPart{{Text: userPrompt}},
			},
		},
		GenerationConfig: &genConfig{
			MaxOutputTokens: 8192,
			Temperature:     0.3,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal translation request: %w", err)
	}

	var lastErr error
	maxRetries := 3

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt*2) * gc.backoff
			log.Warn().Int("attempt", attempt+1).Dur("backoff", backoff).Msg("Retrying translation")
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		result, err := gc.doRequest(ctx, bodyBytes)
		if err == nil {
			return result, nil
		}
		lastErr = err

		// Don't retry on context cancellation.
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	return "", fmt.Errorf("translation failed after %d retries: %w", maxRetries, lastErr)
}

func (gc *GeminiClient) doRequest(ctx context.Context, bodyBytes []byte) (string, error) {
	url := fmt.Sprintf("%s/%s:generateContent?key=%s", gc.baseURL, gc.model, gc.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := gc.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("API call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", fmt.Errorf("retryable error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var apiResp geminiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if apiResp.Error != nil {
		return "", fmt.Errorf("API error [%s]: %s", apiResp.Error.Status, apiResp.Error.Message)
	}

	if len(apiResp.Candidates) == 0 {
		return "", fmt.Errorf("empty response: no candidates")
	}

	var result strings.Builder
	for _, p := range apiResp.Candidates[0].Content.Parts {
		result.WriteString(p.Text)
	}

	if apiResp.UsageMetadata != nil {
		log.Debug().
			Int("prompt_tokens", apiResp.UsageMetadata.PromptTokenCount).
			Int("output_tokens", apiResp.UsageMetadata.CandidatesTokenCount).
			Msg("Translation complete")
	}

	return strings.TrimSpace(result.String()), nil
}
