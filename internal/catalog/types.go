package catalog

// RequestInfo is the response envelope shared by all catalog endpoints.
type RequestInfo struct {
	Success     bool   `json:"success"`
	CreditsUsed int    `json:"credits_used_this_request"`
	Message     string `json:"message"`
}

// Price is the free-text price of a search result.
type Price struct {
	Raw string `json:"raw"`
}

// Rank is one best-sellers-rank entry.
type Rank struct {
	Rank     int    `json:"rank"`
	Category string `json:"category"`
}

// SearchResult is one product as returned by the search endpoint.
type SearchResult struct {
	ASIN            string  `json:"asin"`
	Title           string  `json:"title"`
	Link            string  `json:"link"`
	Rating          float64 `json:"rating"`
	RatingsTotal    int     `json:"ratings_total"`
	Price           Price   `json:"price"`
	Image           string  `json:"image"`
	IsPrime         bool    `json:"is_prime"`
	Brand           string  `json:"brand"`
	BestsellersRank []Rank  `json:"bestsellers_rank"`
}

// Category is one node of a product's category path.
type Category struct {
	Name string `json:"name"`
}

// ProductImage is one product photo.
type ProductImage struct {
	Link string `json:"link"`
}

// Product is the detail record for one catalog item.
type Product struct {
	Brand           string         `json:"brand"`
	Categories      []Category     `json:"categories"`
	BestsellersRank []Rank         `json:"bestsellers_rank"`
	Images          []ProductImage `json:"images"`
}

type searchResponse struct {
	RequestInfo   RequestInfo    `json:"request_info"`
	SearchResults []SearchResult `json:"search_results"`
}

type productResponse struct {
	RequestInfo RequestInfo `json:"request_info"`
	Product     *Product    `json:"product"`
}
