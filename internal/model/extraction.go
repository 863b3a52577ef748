package model

import "time"

// ExtractionResult is the structured payload extracted from one label image,
// plus provenance for the cache entry. A cached result is authoritative
// forever; there is no TTL and no invalidation path.
type ExtractionResult struct {
	Ingredients string `json:"ingredients"`
	Dosages     string `json:"dosages"`
	AgeGroup    string `json:"age_group"`
	Form        string `json:"form"`

	AnalyzedAt  time.Time `json:"analyzed_at,omitzero"`
	ProductName string    `json:"product_name,omitempty"`
	Brand       string    `json:"brand,omitempty"`
}

// Empty reports whether every extracted field is blank.
func (r ExtractionResult) Empty() bool {
	return r.Ingredients == "" && r.Dosages == "" && r.AgeGroup == "" && r.Form == ""
}
