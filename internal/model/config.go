package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the complete ClaimLens configuration
type Config struct {
	HTTP        HTTPConfig        `yaml:"http" json:"http"`
	Search      SearchConfig      `yaml:"search" json:"search"`
	Embedding   EmbeddingConfig   `yaml:"embedding" json:"embedding"`
	NLI         NLIConfig         `yaml:"nli" json:"nli"`
	Explain     ExplainConfig     `yaml:"explain" json:"explain"`
	Cache       CacheConfig       `yaml:"cache" json:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	Server      ServerConfig      `yaml:"server" json:"server"`
	Output      OutputConfig      `yaml:"output" json:"output"`
}

// HTTPConfig controls outbound HTTP behavior
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" json:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy" json:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" json:"https_proxy"`
}

// SearchConfig controls the evidence source
type SearchConfig struct {
	Provider string  `yaml:"provider" json:"provider"` // "serpapi", "duckduckgo", "" = auto
	APIKey   string  `yaml:"-" json:"-"`               // SERPAPI_API_KEY, never written to disk
	Rounds   int     `yaml:"rounds" json:"rounds"`     // Default retrieval rounds (1-4)
	TopK     int     `yaml:"top_k" json:"top_k"`       // Max snippets kept after dedup
	RateRPS  float64 `yaml:"rate_rps" json:"rate_rps"` // Per-domain request rate for scraping sources
	Burst    int     `yaml:"burst" json:"burst"`
}

// EmbeddingConfig controls the sentence embedder
type EmbeddingConfig struct {
	Model   string `yaml:"model" json:"model"` // OpenAI embedding model name
	APIKey  string `yaml:"-" json:"-"`         // OPENAI_API_KEY
	BaseURL string `yaml:"base_url" json:"base_url"`
	Timeout int    `yaml:"timeout" json:"timeout"` // seconds
}

// NLIConfig controls the natural-language-inference scorer
type NLIConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url"` // Hosted inference endpoint
	Model   string `yaml:"model" json:"model"`       // e.g. facebook/bart-large-mnli
	APIKey  string `yaml:"-" json:"-"`               // HF_API_TOKEN
	Timeout int    `yaml:"timeout" json:"timeout"`   // seconds
}

// ExplainConfig controls explanation generation.
// An empty Provider is a valid state: the pipeline falls back to a
// deterministic local template.
type ExplainConfig struct {
	Provider  string `yaml:"provider" json:"provider"` // "gemini", "openai", "ollama", ""
	Model     string `yaml:"model" json:"model"`
	APIKey    string `yaml:"-" json:"-"`
	BaseURL   string `yaml:"base_url" json:"base_url"`
	Timeout   int    `yaml:"timeout" json:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" json:"max_tokens"`
}

// CacheConfig controls search/embedding response caching
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" json:"enabled"`
	Dir     string        `yaml:"dir" json:"dir"`
	TTL     time.Duration `yaml:"ttl" json:"ttl"`
}

// ConcurrencyConfig controls worker pool sizes
type ConcurrencyConfig struct {
	ScoreWorkers int `yaml:"score_workers" json:"score_workers"` // Parallel cluster scoring
	BatchWorkers int `yaml:"batch_workers" json:"batch_workers"` // Parallel claims in batch mode
}

// ServerConfig controls the HTTP front end
type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// OutputConfig controls CLI output
type OutputConfig struct {
	Verbose bool `yaml:"verbose" json:"verbose"`
	JSON    bool `yaml:"json" json:"json"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	cacheDir := ".claimlens/cache"
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".claimlens", "cache")
	}

	return &Config{
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "ClaimLens/0.1 (+https://github.com/claimlens/claimlens)",
			MaxBodyBytes: 2_000_000,
		},
		Search: SearchConfig{
			Provider: "",
			Rounds:   2,
			TopK:     8,
			RateRPS:  1.0,
			Burst:    2,
		},
		Embedding: EmbeddingConfig{
			Model:   "text-embedding-3-small",
			Timeout: 30,
		},
		NLI: NLIConfig{
			BaseURL: "https://api-inference.huggingface.co",
			Model:   "facebook/bart-large-mnli",
			Timeout: 30,
		},
		Explain: ExplainConfig{
			Provider:  "",
			Timeout:   30,
			MaxTokens: 300,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     cacheDir,
			TTL:     24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			ScoreWorkers: 4,
			BatchWorkers: 3,
		},
		Server: ServerConfig{
			Addr: ":8501",
		},
		Output: OutputConfig{},
	}
}
