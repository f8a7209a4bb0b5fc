package gloss

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/lexigraph/internal/cache"
)

// Chain tries providers in order; the first non-empty answer wins
type Chain struct {
	providers []Provider
}

// NewChain creates a chain over providers
func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

// Name returns the joined provider names
func (c *Chain) Name() string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return strings.Join(names, "+")
}

// Lookup returns the first provider answer. When every provider fails the
// errors are joined, so retry classification sees all of them.
func (c *Chain) Lookup(ctx context.Context, lemma string) ([]Definition, error) {
	if len(c.providers) == 0 {
		return nil, fmt.Errorf("%w: no providers configured", ErrNotFound)
	}

	var errs []error
	for _, p := range c.providers {
		defs, err := p.Lookup(ctx, lemma)
		if err == nil && len(defs) > 0 {
			return defs, nil
		}
		if err == nil {
			err = fmt.Errorf("%s: %w", p.Name(), ErrNotFound)
		}
		errs = append(errs, err)

		if ctx.Err() != nil {
			break
		}
	}
	return nil, errors.Join(errs...)
}

// CachedProvider remembers answers of an inner provider, including
// definitive "not found" answers
type CachedProvider struct {
	inner Provider
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedProvider wraps inner with c; a zero ttl uses the cache default
func NewCachedProvider(inner Provider, c cache.Cache, ttl time.Duration) *CachedProvider {
	return &CachedProvider{inner: inner, cache: c, ttl: ttl}
}

// Name returns the inner provider name
func (p *CachedProvider) Name() string {
	return p.inner.Name()
}

// Lookup serves from cache or asks the inner provider
func (p *CachedProvider) Lookup(ctx context.Context, lemma string) ([]Definition, error) {
	key := cache.Key(p.inner.Name(), lemma)

	if raw, ok := p.cache.Get(key); ok {
		var defs []Definition
		if err := json.Unmarshal(raw, &defs); err == nil {
			if len(defs) == 0 {
				return nil, fmt.Errorf("%w: %s (cached)", ErrNotFound, lemma)
			}
			return defs, nil
		}
		_ = p.cache.Delete(key)
	}

	defs, err := p.inner.Lookup(ctx, lemma)
	switch {
	case err == nil:
		p.store(key, defs)
	case errors.Is(err, ErrNotFound):
		p.store(key, []Definition{})
	}
	return defs, err
}

func (p *CachedProvider) store(key string, defs []Definition) {
	raw, err := json.Marshal(defs)
	if err != nil {
		return
	}
	_ = p.cache.Set(key, raw, p.ttl)
}
