package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fetcher downloads candidate and label images.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	minBytes   int
}

// Retry policy for label-image downloads: bounded attempts with delays
// doubling from one second. Bodies below minBytes are CDN placeholders and
// count as failures.
const (
	retryAttempts     = 3
	retryInitialDelay = time.Second
)

// sleepFunc is swapped out by tests to avoid real backoff delays.
var sleepFunc = time.Sleep

// NewFetcher creates a Fetcher with the given limits. minBytes applies only
// to FetchWithRetry.
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64, minBytes int) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		maxBytes:   maxBytes,
		minBytes:   minBytes,
	}
}

// Fetch downloads the image once. Candidate scoring uses this: a failed
// candidate is skipped, never retried.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// FetchWithRetry downloads the image with bounded exponential backoff. It is
// used on the paid extraction path where giving up too early wastes the work
// already spent selecting a label image.
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	delay := retryInitialDelay

	for attempt := 1; attempt <= retryAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			sleepFunc(delay)
			delay *= 2
		}

		body, err := f.Fetch(ctx, rawURL)
		if err != nil {
			lastErr = err
			continue
		}
		if len(body) < f.minBytes {
			lastErr = fmt.Errorf("image too small: %d bytes (min %d)", len(body), f.minBytes)
			continue
		}
		return body, nil
	}

	return nil, fmt.Errorf("download failed after %d attempts: %w", retryAttempts, lastErr)
}
