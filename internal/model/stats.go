package model

import (
	"fmt"
	"strings"
	"time"
)

// Stats accumulates run counters. One instance is created per run and passed
// to every stage that spends API budget.
type Stats struct {
	APICalls     int
	SearchCalls  int
	ProductCalls int
	CreditsUsed  int

	ProductsFound int
	LabelsFound   int
	VisionCalls   int
	CacheHits     int

	RowsEnriched int
	RowsSkipped  int

	StartedAt time.Time
}

// NewStats creates a stats accumulator with the clock started.
func NewStats() *Stats {
	return &Stats{StartedAt: time.Now()}
}

// Summary renders the end-of-run report.
func (s *Stats) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Duration:            %s\n", time.Since(s.StartedAt).Round(time.Second))
	fmt.Fprintf(&b, "Catalog API calls:   %d (%d search, %d product)\n", s.APICalls, s.SearchCalls, s.ProductCalls)
	fmt.Fprintf(&b, "Catalog credits:     %d\n", s.CreditsUsed)
	fmt.Fprintf(&b, "Products found:      %d\n", s.ProductsFound)
	fmt.Fprintf(&b, "Label images found:  %d\n", s.LabelsFound)
	fmt.Fprintf(&b, "Vision calls:        %d (%d cache hits)\n", s.VisionCalls, s.CacheHits)
	fmt.Fprintf(&b, "Rows enriched:       %d (%d skipped as processed)\n", s.RowsEnriched, s.RowsSkipped)
	return b.String()
}
