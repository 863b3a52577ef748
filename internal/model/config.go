package model

import "time"

// Config holds the complete runtime configuration.
type Config struct {
	Catalog  CatalogConfig  `yaml:"catalog" mapstructure:"catalog"`
	Vision   VisionConfig   `yaml:"vision" mapstructure:"vision"`
	Scorer   ScorerConfig   `yaml:"scorer" mapstructure:"scorer"`
	HTTP     HTTPConfig     `yaml:"http" mapstructure:"http"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
}

// CatalogConfig configures the product catalog API client.
type CatalogConfig struct {
	APIKey            string        `yaml:"api_key" mapstructure:"api_key"`
	BaseURL           string        `yaml:"base_url" mapstructure:"base_url"`
	Domain            string        `yaml:"domain" mapstructure:"domain"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
}

// VisionConfig configures the vision-model extraction client.
type VisionConfig struct {
	APIKey    string        `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string        `yaml:"base_url" mapstructure:"base_url"`
	Model     string        `yaml:"model" mapstructure:"model"`
	MaxTokens int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ScorerConfig configures label-image relevance scoring. Profile selects one
// of the two deployed keyword/threshold sets ("strict" or "broad"); Threshold,
// when non-zero, overrides the profile's acceptance threshold.
type ScorerConfig struct {
	Profile       string  `yaml:"profile" mapstructure:"profile"`
	Threshold     float64 `yaml:"threshold" mapstructure:"threshold"`
	MinImageBytes int     `yaml:"min_image_bytes" mapstructure:"min_image_bytes"`
}

// HTTPConfig configures candidate-image fetching.
type HTTPConfig struct {
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	ImageTimeout time.Duration `yaml:"image_timeout" mapstructure:"image_timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// CacheConfig configures the extraction cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir     string `yaml:"dir" mapstructure:"dir"`
}

// PipelineConfig configures the run driver.
type PipelineConfig struct {
	KeywordsFile string        `yaml:"keywords_file" mapstructure:"keywords_file"`
	OutputFile   string        `yaml:"output_file" mapstructure:"output_file"`
	MaxPages     int           `yaml:"max_pages" mapstructure:"max_pages"`
	DetailLimit  int           `yaml:"detail_limit" mapstructure:"detail_limit"`
	KeywordLimit int           `yaml:"keyword_limit" mapstructure:"keyword_limit"`
	RowDelay     time.Duration `yaml:"row_delay" mapstructure:"row_delay"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			BaseURL:           "https://api.rainforestapi.com/request",
			Domain:            "amazon.com",
			Timeout:           60 * time.Second,
			RequestsPerSecond: 1,
			Burst:             2,
		},
		Vision: VisionConfig{
			Model:     "gpt-4o",
			MaxTokens: 1000,
			Timeout:   90 * time.Second,
		},
		Scorer: ScorerConfig{
			Profile:       "broad",
			MinImageBytes: 10_000,
		},
		HTTP: HTTPConfig{
			UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			ImageTimeout: 10 * time.Second,
			MaxBodyBytes: 20_000_000,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     "cache",
		},
		Pipeline: PipelineConfig{
			KeywordsFile: "keywords.csv",
			OutputFile:   "products.csv",
			MaxPages:     2,
			RowDelay:     time.Second,
		},
	}
}
