package gloss

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ppiankov/lexigraph/internal/worker"
)

// OllamaProvider asks a local Ollama model for a gloss. It needs no API key.
type OllamaProvider struct {
	baseURL    string
	model      string
	language   string
	httpClient *http.Client
	limiter    *worker.Limiter
}

// Ollama API structures
type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	System  string        `json:"system,omitempty"`
	Format  string        `json:"format,omitempty"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"` // Max tokens
}

type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type ollamaError struct {
	Error string `json:"error"`
}

// NewOllamaProvider creates a provider for the Ollama server at baseURL
func NewOllamaProvider(httpClient *http.Client, baseURL, model string, limiter *worker.Limiter) (*OllamaProvider, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		return nil, fmt.Errorf("ollama model must be specified (e.g., llama3.1:8b, mistral)")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &OllamaProvider{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
		language:   "Ancient Greek",
		httpClient: httpClient,
		limiter:    limiter,
	}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// Lookup asks the local model for the part of speech and a short English gloss
func (p *OllamaProvider) Lookup(ctx context.Context, lemma string) ([]Definition, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx, p.baseURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	resp, err := p.generate(ctx, ollamaRequest{
		Model:   p.model,
		Prompt:  fmt.Sprintf("%s lemma: %s", p.language, lemma),
		System:  glossInstructions,
		Format:  "json",
		Stream:  false,
		Options: ollamaOptions{Temperature: 0, NumPredict: 120},
	})
	if err != nil {
		return nil, err
	}

	answer, err := parseAnswer(resp.Response)
	if err != nil {
		return nil, err
	}
	return []Definition{{
		POS:    normalizePOS(answer.POS),
		Text:   answer.Gloss,
		Source: p.Name(),
	}}, nil
}

// generate makes a non-streaming request to the Ollama generate API
func (p *OllamaProvider) generate(ctx context.Context, apiReq ollamaRequest) (*ollamaResponse, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr ollamaError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			return nil, &StatusError{Provider: p.Name(), Code: httpResp.StatusCode, Err: fmt.Errorf("%s", apiErr.Error)}
		}
		return nil, &StatusError{Provider: p.Name(), Code: httpResp.StatusCode}
	}

	var resp ollamaResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &resp, nil
}
