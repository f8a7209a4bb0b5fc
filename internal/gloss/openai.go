package gloss

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/lexigraph/internal/worker"
)

// OpenAIConfig configures the OpenAI gloss provider
type OpenAIConfig struct {
	APIKey   string
	BaseURL  string // custom endpoint for compatible servers
	Model    string
	Language string // language name used in the prompt
}

// OpenAIProvider asks a chat model for a short gloss when no dictionary
// knows the lemma
type OpenAIProvider struct {
	client  *openai.Client
	config  OpenAIConfig
	limiter *worker.Limiter
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config OpenAIConfig, httpClient *http.Client, limiter *worker.Limiter) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if config.Model == "" {
		config.Model = openai.GPT4oMini
	}
	if config.Language == "" {
		config.Language = "Ancient Greek"
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if httpClient != nil {
		clientConfig.HTTPClient = httpClient
	}

	return &OpenAIProvider{
		client:  openai.NewClientWithConfig(clientConfig),
		config:  config,
		limiter: limiter,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// glossInstructions is the system prompt shared by the model providers
const glossInstructions = "You are a lexicographer. Answer with a JSON object " +
	`{"pos": "<part of speech>", "gloss": "<short English gloss>"}. ` +
	`Use an empty gloss if you do not know the word.`

// glossAnswer is the JSON object the model is asked to return
type glossAnswer struct {
	POS   string `json:"pos"`
	Gloss string `json:"gloss"`
}

// Lookup asks the model for the part of speech and a short English gloss
func (p *OpenAIProvider) Lookup(ctx context.Context, lemma string) ([]Definition, error) {
	if p.limiter != nil {
		endpoint := p.config.BaseURL
		if endpoint == "" {
			endpoint = "https://api.openai.com/v1"
		}
		if err := p.limiter.Wait(ctx, endpoint); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req := openai.ChatCompletionRequest{
		Model: p.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: glossInstructions,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("%s lemma: %s", p.config.Language, lemma),
			},
		},
		MaxTokens:   120,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, &StatusError{Provider: p.Name(), Code: apiErr.HTTPStatusCode, Err: err}
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return nil, &StatusError{Provider: p.Name(), Code: reqErr.HTTPStatusCode, Err: err}
		}
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no response from OpenAI", ErrNotFound)
	}

	answer, err := parseAnswer(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	return []Definition{{
		POS:    normalizePOS(answer.POS),
		Text:   answer.Gloss,
		Source: p.Name(),
	}}, nil
}

// parseAnswer decodes the model's JSON, tolerating a fenced code block
func parseAnswer(content string) (glossAnswer, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var answer glossAnswer
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &answer); err != nil {
		return answer, fmt.Errorf("decode model answer: %w", err)
	}
	answer.Gloss = strings.TrimSpace(answer.Gloss)
	if answer.Gloss == "" {
		return answer, ErrNotFound
	}
	return answer, nil
}
