package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/lexigraph/internal/model"
)

// fetchSleepFunc is the sleep function used between retries (injectable for tests)
var fetchSleepFunc = time.Sleep

// Fetcher downloads a remote corpus archive so it can be read locally
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxRetries int
}

// NewFetcher creates a fetcher using client
func NewFetcher(client *http.Client, userAgent string) *Fetcher {
	return &Fetcher{
		httpClient: client,
		userAgent:  userAgent,
		maxRetries: 3,
	}
}

// IsRemote reports whether an archive location is an http(s) URL
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Download stores rawURL under dir and returns the local path. A file that
// was downloaded before is reused. Transient failures are retried with
// exponential backoff.
func (f *Fetcher) Download(ctx context.Context, rawURL, dir string) (string, error) {
	name, err := archiveName(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", model.ErrArchiveUnreadable, rawURL, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("%w: create download dir: %v", model.ErrArchiveUnreadable, err)
	}

	target := filepath.Join(dir, name)
	if info, err := os.Stat(target); err == nil && info.Size() > 0 {
		return target, nil
	}

	var lastErr error
	for attempt := 0; attempt < f.maxRetries; attempt++ {
		lastErr = f.fetchOnce(ctx, rawURL, target)
		if lastErr == nil {
			return target, nil
		}
		if !isRetryableFetchError(lastErr) || ctx.Err() != nil {
			break
		}
		if attempt < f.maxRetries-1 {
			fetchSleepFunc(time.Duration(1<<uint(attempt)) * time.Second)
		}
	}

	return "", fmt.Errorf("%w: %s: %w", model.ErrArchiveUnreadable, rawURL, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &fetchStatusError{code: resp.StatusCode}
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("read body: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename download: %w", err)
	}
	return nil
}

type fetchStatusError struct {
	code int
}

func (e *fetchStatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.code, http.StatusText(e.code))
}

func isRetryableFetchError(err error) bool {
	var statusErr *fetchStatusError
	if errors.As(err, &statusErr) {
		return statusErr.code == http.StatusTooManyRequests || statusErr.code >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "unexpected eof")
}

// archiveName derives the local file name from the last URL path segment
func archiveName(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	name := path.Base(strings.Trim(parsed.Path, "/"))
	if name == "" || name == "." || name == "/" {
		name = parsed.Hostname() + ".archive"
	}
	return name, nil
}
