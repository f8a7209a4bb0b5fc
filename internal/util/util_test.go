package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/lexigraph/internal/model"
)

func TestNewProxyFunc(t *testing.T) {
	fn := NewProxyFunc("http://proxy.local:3128", "", "wiktionary.org")

	req, _ := http.NewRequest(http.MethodGet, "https://api.openai.com/v1/chat", nil)
	u, err := fn(req)
	if err != nil {
		t.Fatalf("proxy func failed: %v", err)
	}
	if u == nil || u.Host != "proxy.local:3128" {
		t.Errorf("expected https to fall back to the http proxy, got %v", u)
	}

	req, _ = http.NewRequest(http.MethodGet, "https://en.wiktionary.org/api/rest_v1/page/definition/x", nil)
	u, err = fn(req)
	if err != nil {
		t.Fatalf("proxy func failed: %v", err)
	}
	if u != nil {
		t.Errorf("expected no proxy for a no_proxy host, got %v", u)
	}
}

func TestNewHTTPClient(t *testing.T) {
	c := NewHTTPClient(model.HTTPConfig{}, 3*time.Second)
	if c.Timeout != 3*time.Second {
		t.Errorf("unexpected timeout %v", c.Timeout)
	}
}

func TestProductToken(t *testing.T) {
	tests := map[string]string{
		"Lexigraph/0.1 (+https://github.com/ppiankov/lexigraph)": "Lexigraph",
		"curl":  "curl",
		"":      "",
		"  a/b": "a",
	}
	for in, want := range tests {
		if got := ProductToken(in); got != want {
			t.Errorf("ProductToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRobotsChecker(t *testing.T) {
	var fetches atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			w.WriteHeader(http.StatusOK)
			return
		}
		fetches.Add(1)
		fmt.Fprint(w, "User-agent: Lexigraph\nDisallow: /private/\nCrawl-delay: 2\n\nUser-agent: *\nDisallow: /\n")
	}))
	defer server.Close()

	rc := NewRobotsChecker(server.Client(), "Lexigraph/0.1")
	ctx := context.Background()

	allowed, delay, err := rc.CanFetch(ctx, server.URL+"/api/rest_v1/page/definition/x")
	if err != nil {
		t.Fatalf("CanFetch failed: %v", err)
	}
	if !allowed {
		t.Error("expected public path to be allowed")
	}
	if delay != 2*time.Second {
		t.Errorf("expected crawl delay 2s, got %v", delay)
	}

	allowed, _, _ = rc.CanFetch(ctx, server.URL+"/private/page")
	if allowed {
		t.Error("expected /private/ to be disallowed")
	}

	if fetches.Load() != 1 {
		t.Errorf("expected robots.txt to be fetched once, got %d", fetches.Load())
	}
}

func TestRobotsChecker_MissingAllowsAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	rc := NewRobotsChecker(server.Client(), "Lexigraph/0.1")
	allowed, _, err := rc.CanFetch(context.Background(), server.URL+"/anything")
	if err != nil || !allowed {
		t.Errorf("expected allow on missing robots.txt, got %v %v", allowed, err)
	}
}

func TestRobotsChecker_ServerErrorNotCached(t *testing.T) {
	var fetches atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fetches.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "User-agent: *\nAllow: /\n")
	}))
	defer server.Close()

	rc := NewRobotsChecker(server.Client(), "Lexigraph/0.1")
	ctx := context.Background()

	allowed, _, err := rc.CanFetch(ctx, server.URL+"/api/x")
	var statusErr *RobotsStatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected a 503 RobotsStatusError, got %v", err)
	}
	if allowed {
		t.Error("expected no answer while robots.txt is unavailable")
	}

	allowed, _, err = rc.CanFetch(ctx, server.URL+"/api/x")
	if err != nil || !allowed {
		t.Errorf("expected allow once robots.txt recovers, got %v %v", allowed, err)
	}
	if fetches.Load() != 2 {
		t.Errorf("expected robots.txt to be fetched again after a 503, got %d fetches", fetches.Load())
	}
}

func TestRobotsChecker_Unreachable(t *testing.T) {
	rc := NewRobotsChecker(&http.Client{Timeout: 100 * time.Millisecond}, "Lexigraph/0.1")
	allowed, _, err := rc.CanFetch(context.Background(), "http://127.0.0.1:1/x")
	if err != nil || !allowed {
		t.Errorf("expected allow when robots.txt is unreachable, got %v %v", allowed, err)
	}
}
