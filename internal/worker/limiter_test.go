package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "https://en.wiktionary.org/api/rest_v1/page/definition/λόγος"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, "https://api.openai.com/v1"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

// waitBriefly reports whether a request to rawURL gets through within 20ms
func waitBriefly(limiter *Limiter, rawURL string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	return limiter.Wait(ctx, rawURL) == nil
}

func TestLimiter_PerHost(t *testing.T) {
	limiter := NewLimiter(1, 1)
	wikt := "https://en.wiktionary.org/api/rest_v1/page/definition/a"

	if !waitBriefly(limiter, wikt) {
		t.Fatal("first wait failed")
	}
	if waitBriefly(limiter, "https://en.wiktionary.org/api/rest_v1/page/definition/b") {
		t.Error("expected same host to be exhausted")
	}
	if !waitBriefly(limiter, "https://api.openai.com/v1") {
		t.Error("expected another host to have its own budget")
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 20; i++ {
		if !waitBriefly(limiter, "http://example.com") {
			t.Fatalf("request %d refused by an unlimited limiter", i)
		}
	}
}

func TestLimiter_WaitCancelled(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := limiter.Wait(ctx, "http://example.com"); err == nil {
		t.Error("expected an error from a cancelled context")
	}
}

func TestLimiter_SetHostRate(t *testing.T) {
	limiter := NewLimiter(10, 10)
	limiter.SetHostRate("slow.example", 0.1, 1)

	if !waitBriefly(limiter, "http://slow.example") {
		t.Error("first request should pass")
	}
	if waitBriefly(limiter, "http://slow.example") {
		t.Error("second request should wait")
	}
	if !waitBriefly(limiter, "http://fast.example") {
		t.Error("other host should pass")
	}
}

func TestLimiter_SetHostRateKeepsTokens(t *testing.T) {
	limiter := NewLimiter(0, 5)
	limiter.SetHostRate("slow.example", 0.1, 1)
	if !waitBriefly(limiter, "http://slow.example") {
		t.Fatal("first request should pass")
	}

	limiter.SetHostRate("slow.example", 0.1, 1)
	if waitBriefly(limiter, "http://slow.example") {
		t.Error("repeating the same rate must not refill the bucket")
	}
}

func TestHostOf(t *testing.T) {
	host, err := hostOf("https://en.wiktionary.org/wiki/x")
	if err != nil {
		t.Fatalf("hostOf failed: %v", err)
	}
	if host != "en.wiktionary.org" {
		t.Errorf("expected en.wiktionary.org, got %s", host)
	}

	if _, err := hostOf("::invalid"); err == nil {
		t.Error("expected error for invalid URL")
	}
}
