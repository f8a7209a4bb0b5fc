package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsStatusError reports a robots.txt answer that says nothing about the
// rules, such as a 503 from an overloaded server. It is never cached.
type RobotsStatusError struct {
	Origin string
	Code   int
}

func (e *RobotsStatusError) Error() string {
	return fmt.Sprintf("robots.txt at %s: HTTP %d", e.Origin, e.Code)
}

// RobotsChecker answers whether a lookup URL may be fetched, caching one
// robots.txt per origin
type RobotsChecker struct {
	cache      map[string]*robotstxt.RobotsData
	mu         sync.RWMutex
	httpClient *http.Client
	userAgent  string
	agentToken string
}

// NewRobotsChecker creates a checker sending userAgent and matching rules
// against its product token
func NewRobotsChecker(client *http.Client, userAgent string) *RobotsChecker {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RobotsChecker{
		cache:      make(map[string]*robotstxt.RobotsData),
		httpClient: client,
		userAgent:  userAgent,
		agentToken: ProductToken(userAgent),
	}
}

// CanFetch reports whether rawURL is allowed and the crawl delay requested
// for our agent. An unreachable robots.txt allows everything; a 5xx answer
// returns a *RobotsStatusError so the caller can try again later.
func (r *RobotsChecker) CanFetch(ctx context.Context, rawURL string) (bool, time.Duration, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, 0, fmt.Errorf("parse URL: %w", err)
	}

	origin := parsed.Scheme + "://" + parsed.Host
	data, err := r.robotsFor(ctx, origin)
	if err != nil {
		var statusErr *RobotsStatusError
		if errors.As(err, &statusErr) {
			return false, 0, err
		}
		return true, 0, nil
	}

	allowed := data.TestAgent(parsed.EscapedPath(), r.agentToken)

	var delay time.Duration
	if group := data.FindGroup(r.agentToken); group != nil {
		delay = group.CrawlDelay
	}
	return allowed, delay, nil
}

func (r *RobotsChecker) robotsFor(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	r.mu.RLock()
	data, ok := r.cache[origin]
	r.mu.RUnlock()
	if ok {
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// FromResponse would turn a 5xx into disallow-all for the whole run
	if resp.StatusCode >= 500 {
		return nil, &RobotsStatusError{Origin: origin, Code: resp.StatusCode}
	}

	// 4xx means no rules, allow everything
	data, err = robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	r.mu.Lock()
	r.cache[origin] = data
	r.mu.Unlock()
	return data, nil
}

// ProductToken returns the product name of a user agent, "Lexigraph" for
// "Lexigraph/0.1 (+https://...)"
func ProductToken(ua string) string {
	fields := strings.Fields(ua)
	if len(fields) == 0 {
		return ua
	}
	return strings.SplitN(fields[0], "/", 2)[0]
}
