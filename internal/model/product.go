package model

import "strings"

// Status tracks how far a row has progressed through reconciliation.
type Status string

const (
	// StatusPending means the row is a search-result stub awaiting detail data.
	StatusPending Status = "pending"

	// StatusDetailFetched means product detail was fetched but no label image
	// cleared the relevance threshold.
	StatusDetailFetched Status = "detail_fetched"

	// StatusExtractionAttempted means a label image was found but the vision
	// extraction degraded to empty fields.
	StatusExtractionAttempted Status = "extraction_attempted"

	// StatusComplete means extraction produced at least one non-empty field.
	StatusComplete Status = "complete"
)

// ProductRecord is one row of the working dataset. Every field is a string so
// that loading a persisted table and comparing against it is exact, with no
// type coercion on resumption.
type ProductRecord struct {
	Seq           string `csv:"No"`
	SearchTerm    string `csv:"Search Term"`
	ASIN          string `csv:"ASIN"`
	Title         string `csv:"Title"`
	Brand         string `csv:"Brand"`
	Price         string `csv:"Price (USD)"`
	AgeGroup      string `csv:"Age Group"`
	Form          string `csv:"Form"`
	Ingredients   string `csv:"Ingredients"`
	Dosages       string `csv:"Dosages"`
	ReviewCount   string `csv:"Review Count"`
	Rating        string `csv:"Rating"`
	BSR           string `csv:"BSR"`
	Category      string `csv:"Category"`
	ProductURL    string `csv:"Product URL"`
	LabelImageURL string `csv:"Label Image URL"`
	Status        string `csv:"Status"`
}

// Processed reports whether the row has already been through detail
// reconciliation. The Status column is authoritative; a non-empty BSR or
// Category also counts so that tables written before the Status column
// existed resume correctly.
func (r *ProductRecord) Processed() bool {
	switch Status(r.Status) {
	case StatusDetailFetched, StatusExtractionAttempted, StatusComplete:
		return true
	case StatusPending:
		return false
	}
	// Rows written before the Status column existed.
	return strings.TrimSpace(r.BSR) != "" || strings.TrimSpace(r.Category) != ""
}

// ImageCandidate is the per-image scoring result used during label image
// selection. It is never persisted; only the winning URL survives on the row.
type ImageCandidate struct {
	URL        string
	ByteSize   int
	Text       string
	Confidence float64
	Keywords   []string
	Accepted   bool
}
