package gloss

import (
	"fmt"
	"strings"

	"github.com/ppiankov/lexigraph/internal/cache"
	"github.com/ppiankov/lexigraph/internal/model"
	"github.com/ppiankov/lexigraph/internal/util"
	"github.com/ppiankov/lexigraph/internal/worker"
)

// NewProvider builds the provider chain described by cfg. It returns nil
// when gloss lookup is disabled. Each provider gets its own cache entries
// when c is non-nil.
func NewProvider(cfg *model.Config, c cache.Cache) (Provider, error) {
	if cfg.Gloss.Disabled || len(cfg.Gloss.Providers) == 0 {
		return nil, nil
	}

	client := util.NewHTTPClient(cfg.HTTP, cfg.Gloss.Timeout)
	limiter := worker.NewLimiter(cfg.Concurrency.RequestsPerSecond, cfg.Concurrency.BurstSize)

	var providers []Provider
	for _, name := range cfg.Gloss.Providers {
		var p Provider

		switch strings.ToLower(strings.TrimSpace(name)) {
		case "wiktionary", "wikt":
			opts := []WiktionaryOption{WithLimiter(limiter)}
			if cfg.Gloss.RespectRobots {
				opts = append(opts, WithRobots(util.NewRobotsChecker(client, cfg.HTTP.UserAgent)))
			}
			p = NewWiktionaryProvider(client, cfg.Gloss.WiktionaryURL, cfg.Gloss.Language, cfg.HTTP.UserAgent, opts...)

		case "openai", "llm":
			op, err := NewOpenAIProvider(OpenAIConfig{
				APIKey:  cfg.Gloss.APIKey,
				BaseURL: cfg.Gloss.OpenAIBaseURL,
				Model:   cfg.Gloss.OpenAIModel,
			}, client, limiter)
			if err != nil {
				return nil, fmt.Errorf("openai provider: %w", err)
			}
			p = op

		case "ollama":
			op, err := NewOllamaProvider(client, cfg.Gloss.OllamaURL, cfg.Gloss.OllamaModel, limiter)
			if err != nil {
				return nil, fmt.Errorf("ollama provider: %w", err)
			}
			p = op

		default:
			return nil, fmt.Errorf("unknown gloss provider: %s (supported: wiktionary, openai, ollama)", name)
		}

		if c != nil {
			p = NewCachedProvider(p, c, 0)
		}
		providers = append(providers, p)
	}

	if len(providers) == 1 {
		return providers[0], nil
	}
	return NewChain(providers...), nil
}

// NewResolverFromConfig creates a resolver sized by cfg
func NewResolverFromConfig(p Provider, cfg model.GlossConfig) *Resolver {
	return NewResolver(p, cfg.Workers, cfg.Timeout, cfg.MaxRetries)
}
