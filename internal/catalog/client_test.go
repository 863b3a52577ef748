package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/labelminer/labelminer/internal/model"
)

func newTestClient(baseURL string, stats *model.Stats) *Client {
	return NewClient(model.CatalogConfig{
		APIKey:            "test-key",
		BaseURL:           baseURL,
		Domain:            "amazon.com",
		Timeout:           5 * time.Second,
		RequestsPerSecond: 1000,
		Burst:             1000,
	}, zap.NewNop(), stats)
}

const searchPage = `{
	"request_info": {"success": true, "credits_used_this_request": 1},
	"search_results": [
		{
			"asin": "B0TEST1234",
			"title": "Kids Multivitamin Gummies",
			"link": "https://example.com/dp/B0TEST1234",
			"rating": 4.7,
			"ratings_total": 1234,
			"price": {"raw": "$14.99"},
			"brand": "TestBrand",
			"bestsellers_rank": [{"rank": 12, "category": "Vitamins"}]
		}
	]
}`

func TestSearch_ParsesResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("type") != "search" || q.Get("search_term") != "kids vitamins" || q.Get("page") != "1" {
			t.Errorf("unexpected query: %v", q)
		}
		if q.Get("api_key") != "test-key" {
			t.Errorf("api_key = %q", q.Get("api_key"))
		}
		fmt.Fprint(w, searchPage)
	}))
	defer server.Close()

	stats := model.NewStats()
	client := newTestClient(server.URL, stats)

	results, err := client.Search(context.Background(), "kids vitamins", 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	got := results[0]
	if got.ASIN != "B0TEST1234" || got.Brand != "TestBrand" || got.Price.Raw != "$14.99" {
		t.Errorf("Unexpected result: %+v", got)
	}
	if stats.SearchCalls != 1 || stats.CreditsUsed != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestSearch_RetriesTransientFailure(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, searchPage)
	}))
	defer server.Close()

	origSleep := sleepFunc
	sleepFunc = func(d time.Duration) {}
	defer func() { sleepFunc = origSleep }()

	client := newTestClient(server.URL, model.NewStats())
	results, err := client.Search(context.Background(), "kids vitamins", 1)
	if err != nil {
		t.Fatalf("Expected success after retry, got %v", err)
	}
	if len(results) != 1 {
		t.Errorf("Expected 1 result, got %d", len(results))
	}
	if attempts.Load() != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts.Load())
	}
}

func TestSearch_APIRefusalNotRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		fmt.Fprint(w, `{"request_info": {"success": false, "message": "invalid api key"}}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL, model.NewStats())
	if _, err := client.Search(context.Background(), "kids vitamins", 1); err == nil {
		t.Fatal("Expected error for refused request")
	}
	if attempts.Load() != 1 {
		t.Errorf("Refusal must not be retried, got %d attempts", attempts.Load())
	}
}

func TestSearchAllPages_SkipsFailedPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, searchPage)
	}))
	defer server.Close()

	origSleep := sleepFunc
	sleepFunc = func(d time.Duration) {}
	defer func() { sleepFunc = origSleep }()

	stats := model.NewStats()
	client := newTestClient(server.URL, stats)

	results := client.SearchAllPages(context.Background(), "kids vitamins", 2)
	if len(results) != 1 {
		t.Fatalf("Expected 1 result from surviving page, got %d", len(results))
	}
	if stats.ProductsFound != 1 {
		t.Errorf("ProductsFound = %d, want 1", stats.ProductsFound)
	}
}

func TestProductDetail_ParsesProduct(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("type") != "product" || q.Get("asin") != "B0TEST1234" {
			t.Errorf("unexpected query: %v", q)
		}
		fmt.Fprint(w, `{
			"request_info": {"success": true, "credits_used_this_request": 1},
			"product": {
				"brand": "TestBrand",
				"categories": [{"name": "Health"}, {"name": "Vitamins"}],
				"bestsellers_rank": [{"rank": 42, "category": "Multivitamins"}],
				"images": [{"link": "https://img.example.com/B0TEST1234._AC_.jpg"}]
			}
		}`)
	}))
	defer server.Close()

	stats := model.NewStats()
	client := newTestClient(server.URL, stats)

	product, err := client.ProductDetail(context.Background(), "B0TEST1234")
	if err != nil {
		t.Fatalf("ProductDetail failed: %v", err)
	}
	if product.Brand != "TestBrand" || len(product.Categories) != 2 || len(product.Images) != 1 {
		t.Errorf("Unexpected product: %+v", product)
	}
	if product.BestsellersRank[0].Rank != 42 {
		t.Errorf("Unexpected rank: %+v", product.BestsellersRank)
	}
	if stats.ProductCalls != 1 {
		t.Errorf("ProductCalls = %d, want 1", stats.ProductCalls)
	}
}

func TestProductDetail_MissingProduct(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"request_info": {"success": true}}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL, model.NewStats())
	if _, err := client.ProductDetail(context.Background(), "B0MISSING1"); err == nil {
		t.Fatal("Expected error when product data is absent")
	}
}
