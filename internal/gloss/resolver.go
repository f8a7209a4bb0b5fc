package gloss

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/ppiankov/lexigraph/internal/model"
	"github.com/ppiankov/lexigraph/internal/worker"
)

// resolverSleepFunc waits between retries (injectable for tests)
var resolverSleepFunc = sleepContext

// sleepContext sleeps for d or until ctx is done, whichever comes first
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Result is the outcome of resolving one lemma
type Result struct {
	Lemma       string
	Definitions []Definition
	Attempts    int
	Skipped     bool // not attempted because the deadline had passed
	Err         error
}

// Resolved reports whether at least one definition was found
func (r Result) Resolved() bool {
	return r.Err == nil && len(r.Definitions) > 0
}

// Resolver runs lookups with bounded concurrency, a timeout per attempt and
// bounded retries for transient failures
type Resolver struct {
	provider   Provider
	workers    int
	timeout    time.Duration
	maxRetries int
}

// NewResolver creates a resolver over provider
func NewResolver(provider Provider, workers int, timeout time.Duration, maxRetries int) *Resolver {
	if workers <= 0 {
		workers = 1
	}
	if maxRetries <= 0 {
		maxRetries = 1
	}
	return &Resolver{
		provider:   provider,
		workers:    workers,
		timeout:    timeout,
		maxRetries: maxRetries,
	}
}

// Resolve looks up one lemma. Once ctx is done no new attempt is made and
// the lemma is reported as skipped.
func (r *Resolver) Resolve(ctx context.Context, lemma string) Result {
	result := Result{Lemma: lemma}
	if ctx.Err() != nil {
		result.Skipped = true
		result.Err = fmt.Errorf("%w: %s: deadline reached before lookup", model.ErrGlossLookup, lemma)
		return result
	}

	var lastErr error
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		if ctx.Err() != nil {
			break
		}
		result.Attempts++

		defs, err := r.lookupOnce(ctx, lemma)
		if err == nil {
			result.Definitions = defs
			return result
		}
		lastErr = err

		if !IsRetryable(err) {
			break
		}
		if attempt < r.maxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			if resolverSleepFunc(ctx, backoff) != nil {
				break
			}
		}
	}

	if lastErr == nil {
		lastErr = ctx.Err()
	}
	result.Err = fmt.Errorf("%w: %s: %w", model.ErrGlossLookup, lemma, lastErr)
	return result
}

func (r *Resolver) lookupOnce(ctx context.Context, lemma string) ([]Definition, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	defs, err := r.provider.Lookup(ctx, lemma)
	if err == nil && len(defs) == 0 {
		err = ErrNotFound
	}
	return defs, err
}

// ResolveAll resolves lemmas on a worker pool and returns results in input
// order. Lemmas not started before ctx is done come back as skipped.
func (r *Resolver) ResolveAll(ctx context.Context, lemmas []string) []Result {
	results := make([]Result, len(lemmas))
	if len(lemmas) == 0 {
		return results
	}

	pool := worker.NewPool(ctx, r.workers)
	pool.Start()
	defer pool.Shutdown()

	go func() {
		defer pool.Close()
		for i, lemma := range lemmas {
			if !pool.Submit(&lookupJob{index: i, lemma: lemma, resolver: r}) {
				return
			}
		}
	}()

	done := make([]bool, len(lemmas))
	for res := range pool.Results() {
		lr := res.(*lookupResult)
		results[lr.index] = lr.Result
		done[lr.index] = true
	}

	for i, ok := range done {
		if !ok {
			results[i] = Result{
				Lemma:   lemmas[i],
				Skipped: true,
				Err:     fmt.Errorf("%w: %s: deadline reached before lookup", model.ErrGlossLookup, lemmas[i]),
			}
		}
	}
	return results
}

// lookupJob adapts one lookup to the worker pool
type lookupJob struct {
	index    int
	lemma    string
	resolver *Resolver
}

func (j *lookupJob) Execute(ctx context.Context) worker.Result {
	return &lookupResult{index: j.index, Result: j.resolver.Resolve(ctx, j.lemma)}
}

type lookupResult struct {
	index int
	Result
}

func (r *lookupResult) GetError() error {
	return r.Err
}

// IsRetryable reports whether a lookup error is transient: 429 and 5xx
// answers, timeouts and dropped connections. Missing definitions and
// robots.txt refusals are permanent.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) && (statusErr.Code == 429 || statusErr.Code >= 500 && statusErr.Code < 600) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if statusErr != nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrDisallowed) {
		return false
	}
	return isRetryableNetworkError(err.Error())
}

// isRetryableNetworkError checks error strings for transient network failures
func isRetryableNetworkError(errMsg string) bool {
	s := strings.ToLower(errMsg)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
