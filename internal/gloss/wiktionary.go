package gloss

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/lexigraph/internal/util"
	"github.com/ppiankov/lexigraph/internal/worker"
)

// maxDefinitionBytes caps a definition response body
const maxDefinitionBytes = 2 << 20

// WiktionaryProvider reads definitions from the Wiktionary REST API
type WiktionaryProvider struct {
	baseURL    string
	language   string
	userAgent  string
	httpClient *http.Client
	robots     *util.RobotsChecker
	limiter    *worker.Limiter
}

// WiktionaryOption customises a WiktionaryProvider
type WiktionaryOption func(*WiktionaryProvider)

// WithRobots makes the provider honour robots.txt and its crawl delay
func WithRobots(rc *util.RobotsChecker) WiktionaryOption {
	return func(p *WiktionaryProvider) { p.robots = rc }
}

// WithLimiter rate limits requests per host
func WithLimiter(l *worker.Limiter) WiktionaryOption {
	return func(p *WiktionaryProvider) { p.limiter = l }
}

// NewWiktionaryProvider creates a provider reading the language section
// (e.g. "grc") of baseURL's definition endpoint
func NewWiktionaryProvider(client *http.Client, baseURL, language, userAgent string, opts ...WiktionaryOption) *WiktionaryProvider {
	p := &WiktionaryProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   language,
		userAgent:  userAgent,
		httpClient: client,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider name
func (p *WiktionaryProvider) Name() string {
	return "wiktionary"
}

// definitionSection is one part-of-speech block of the REST response
type definitionSection struct {
	PartOfSpeech string `json:"partOfSpeech"`
	Language     string `json:"language"`
	Definitions  []struct {
		Definition string `json:"definition"`
	} `json:"definitions"`
}

// Lookup fetches the definitions of lemma
func (p *WiktionaryProvider) Lookup(ctx context.Context, lemma string) ([]Definition, error) {
	endpoint := p.baseURL + "/api/rest_v1/page/definition/" + url.PathEscape(lemma)

	if err := p.checkRobots(ctx, endpoint); err != nil {
		return nil, err
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx, endpoint); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, lemma)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Provider: p.Name(), Code: resp.StatusCode}
	}

	var sections map[string][]definitionSection
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxDefinitionBytes)).Decode(&sections); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	var defs []Definition
	for _, section := range sections[p.language] {
		pos := normalizePOS(section.PartOfSpeech)
		for _, d := range section.Definitions {
			text := stripHTML(d.Definition)
			if text == "" {
				continue
			}
			defs = append(defs, Definition{POS: pos, Text: text, Source: p.Name()})
		}
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: %s has no %s section", ErrNotFound, lemma, p.language)
	}
	return defs, nil
}

// checkRobots refuses disallowed URLs and slows the host down to its
// robots.txt crawl delay. A robots.txt that answered 5xx comes back as a
// retryable *StatusError.
func (p *WiktionaryProvider) checkRobots(ctx context.Context, endpoint string) error {
	if p.robots == nil {
		return nil
	}
	allowed, delay, err := p.robots.CanFetch(ctx, endpoint)
	if err != nil {
		var robotsErr *util.RobotsStatusError
		if errors.As(err, &robotsErr) {
			return &StatusError{Provider: p.Name(), Code: robotsErr.Code, Err: err}
		}
		return fmt.Errorf("%w: %s: %w", ErrDisallowed, endpoint, err)
	}
	if !allowed {
		return fmt.Errorf("%w: %s", ErrDisallowed, endpoint)
	}

	if delay > 0 && p.limiter != nil {
		if u, err := url.Parse(endpoint); err == nil {
			p.limiter.SetHostRate(u.Host, 1/delay.Seconds(), 1)
		}
	}
	return nil
}

var blockTags = map[string]bool{
	"br": true, "p": true, "div": true, "li": true, "ol": true, "ul": true, "dd": true, "dt": true,
}

// stripHTML returns the text content of an HTML fragment with whitespace
// collapsed
func stripHTML(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if blockTags[string(name)] {
				b.WriteByte(' ')
			}
		}
	}
}
