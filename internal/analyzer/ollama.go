package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/ApeachM/llm-code-reviewer-sub001/internal/parser"
	"github.com/ApeachM/llm-code-reviewer-sub001/pkg/types"
)

// Engine configuration
const (
	EngineOllama = "ollama"

	DefaultOllamaURL = "http://localhost:11434"
	DefaultModel     = "qwen2.5-coder:7b"

	// Sampling defaults: low temperature keeps the JSON contract stable
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 2000
)

// Environment variables for engine configuration
const (
	EnvOllamaURL = "LLMREVIEW_OLLAMA_URL"
	EnvModel     = "LLMREVIEW_MODEL"
)

// OllamaAnalyzer implements Analyzer against a local Ollama server
type OllamaAnalyzer struct {
	baseURL    string
	model      string
	httpClient *http.Client
	cache      *Cache
}

// NewOllamaAnalyzer creates an analyzer for an Ollama server. Empty
// baseURL or model fall back to environment variables, then defaults.
func NewOllamaAnalyzer(baseURL, model string, cache *Cache) *OllamaAnalyzer {
	if baseURL == "" {
		baseURL = os.Getenv(EnvOllamaURL)
	}
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}

	if model == "" {
		model = os.Getenv(EnvModel)
	}
	if model == "" {
		model = DefaultModel
	}

	return &OllamaAnalyzer{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			// Generation on consumer hardware is slow; the dispatcher's
			// per-chunk deadline is the real bound
			Timeout: 5 * time.Minute,
		},
		cache: cache,
	}
}

// AnalyzeChunk reviews one chunk via the Ollama chat API. Results are
// cached by (model, dispatch text) hash, so unchanged chunks are free
// on re-review.
func (o *OllamaAnalyzer) AnalyzeChunk(ctx context.Context, chunk types.Chunk) (*Result, error) {
	if chunk.Code == "" {
		return nil, ErrEmptyChunk
	}

	text := chunk.DispatchText()

	hash := ComputeHash(o.model, text)
	if o.cache != nil {
		if result, ok := o.cache.Get(hash); ok {
			result.Tokens = 0 // cache hits consume nothing
			return result, nil
		}
	}

	userPrompt := buildUserPrompt(chunk, parser.DetectLanguage(chunk.FilePath))

	config := DefaultRetryConfig()
	resp, err := retryWithBackoff(ctx, config, func() (*chatResponse, error) {
		return o.callAPI(ctx, userPrompt)
	})
	if err != nil {
		return nil, fmt.Errorf("%w after %d retries: %v", ErrEngineFailed, MaxRetries, err)
	}

	findings, err := parseFindings(resp.Message.Content)
	if err != nil {
		return nil, err
	}

	tokens := resp.PromptEvalCount + resp.EvalCount
	if tokens == 0 {
		tokens = estimateTokens(systemPrompt) + estimateTokens(userPrompt) + estimateTokens(resp.Message.Content)
	}

	result := &Result{
		Findings: findings,
		Tokens:   tokens,
	}

	if o.cache != nil {
		o.cache.Set(hash, result)
	}

	return result, nil
}

// chatMessage is one message in the Ollama chat request
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the non-streaming Ollama chat response
type chatResponse struct {
	Message         chatMessage `json:"message"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
}

func (o *OllamaAnalyzer) callAPI(ctx context.Context, userPrompt string) (*chatResponse, error) {
	reqBody := map[string]interface{}{
		"model": o.model,
		"messages": []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		"stream": false,
		"options": map[string]interface{}{
			"temperature": DefaultTemperature,
			"num_predict": DefaultMaxTokens,
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("api error %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &apiResp, nil
}

// estimateTokens approximates token count as len/4, used only when the
// engine omits its own counts
func estimateTokens(text string) int {
	return len(text) / 4
}

func (o *OllamaAnalyzer) Engine() string {
	return EngineOllama
}

func (o *OllamaAnalyzer) Model() string {
	return o.model
}

func (o *OllamaAnalyzer) Close() error {
	o.httpClient.CloseIdleConnections()
	return nil
}
