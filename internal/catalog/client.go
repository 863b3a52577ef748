package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/labelminer/labelminer/internal/model"
)

// Search pages are retried because a lost page silently shrinks the dataset;
// detail fetches are not: a failed row stays unprocessed and is picked up on
// the next run.
const searchRetries = 3

// sleepFunc is swapped out by tests to avoid real backoff delays.
var sleepFunc = time.Sleep

// Client talks to the product catalog API (search and detail endpoints).
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	domain     string
	limiter    *rate.Limiter
	logger     *zap.Logger
	stats      *model.Stats
}

// NewClient creates a catalog client. All requests share one rate limiter so
// search and detail traffic together stay under the API's rate tolerance.
func NewClient(cfg model.CatalogConfig, logger *zap.Logger, stats *model.Stats) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		domain:     cfg.Domain,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:     logger,
		stats:      stats,
	}
}

// Search fetches one page of search results, retrying transient failures
// with exponential backoff.
func (c *Client) Search(ctx context.Context, term string, page int) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("type", "search")
	params.Set("amazon_domain", c.domain)
	params.Set("search_term", term)
	params.Set("page", fmt.Sprintf("%d", page))

	var lastErr error
	for attempt := 1; attempt <= searchRetries; attempt++ {
		if attempt > 1 {
			sleepFunc(time.Duration(1<<(attempt-2)) * time.Second)
		}

		var resp searchResponse
		if err := c.get(ctx, params, &resp); err != nil {
			lastErr = err
			c.logger.Warn("search page failed",
				zap.String("term", term),
				zap.Int("page", page),
				zap.Int("attempt", attempt),
				zap.Error(err))
			continue
		}

		c.stats.APICalls++
		c.stats.SearchCalls++
		c.stats.CreditsUsed += resp.RequestInfo.CreditsUsed

		if !resp.RequestInfo.Success {
			// The API answered but refused the request; retrying the same
			// parameters will not help.
			return nil, fmt.Errorf("search %q page %d: %s", term, page, apiMessage(resp.RequestInfo))
		}
		return resp.SearchResults, nil
	}
	return nil, fmt.Errorf("search %q page %d: %w", term, page, lastErr)
}

// SearchAllPages fetches up to maxPages of results for one term. A page that
// fails after retries is skipped, not fatal; whatever was gathered is
// returned.
func (c *Client) SearchAllPages(ctx context.Context, term string, maxPages int) []SearchResult {
	var all []SearchResult
	for page := 1; page <= maxPages; page++ {
		results, err := c.Search(ctx, term, page)
		if err != nil {
			c.logger.Warn("skipping search page", zap.String("term", term), zap.Int("page", page), zap.Error(err))
			continue
		}
		c.logger.Info("search page fetched", zap.String("term", term), zap.Int("page", page), zap.Int("results", len(results)))
		all = append(all, results...)
	}
	c.stats.ProductsFound += len(all)
	return all
}

// ProductDetail fetches the detail record for one catalog item. Single
// attempt: callers defer a failed row to the next run.
func (c *Client) ProductDetail(ctx context.Context, asin string) (*Product, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("type", "product")
	params.Set("amazon_domain", c.domain)
	params.Set("asin", asin)

	var resp productResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return nil, fmt.Errorf("product %s: %w", asin, err)
	}

	c.stats.APICalls++
	c.stats.ProductCalls++
	c.stats.CreditsUsed += resp.RequestInfo.CreditsUsed

	if !resp.RequestInfo.Success {
		return nil, fmt.Errorf("product %s: %s", asin, apiMessage(resp.RequestInfo))
	}
	if resp.Product == nil {
		return nil, fmt.Errorf("product %s: detail data missing", asin)
	}
	return resp.Product, nil
}

func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func apiMessage(info RequestInfo) string {
	if info.Message != "" {
		return info.Message
	}
	return "API request failed"
}
