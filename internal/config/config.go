// Package config provides hierarchical configuration loading for toolrec.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the toolrec service.
type Config struct {
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
	Fusion   Fusion   `yaml:"fusion"`
	Cache    Cache    `yaml:"cache"`
	Backends Backends `yaml:"backends"`
	Breaker  Breaker  `yaml:"breaker"`
	OTel     OTel     `yaml:"otel"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

// Fusion holds fusion pipeline configuration. ScoringWeights maps a source
// component name (graph, vector, generative) to its fusion weight; the
// weights must sum to 1.0 within a 0.05 tolerance, checked once at load.
type Fusion struct {
	ConfidenceThreshold float64            `yaml:"confidence_threshold"`
	MaxRecommendations  int                `yaml:"max_recommendations"`
	AdapterTimeout      time.Duration      `yaml:"adapter_timeout"`
	MaxParallelFetches  int                `yaml:"max_parallel_fetches"` // 0 = one worker per source
	ScoringWeights      map[string]float64 `yaml:"scoring_weights"`
	Ranking             Ranking            `yaml:"ranking"`
}

// Ranking holds the ranking-score blend weights. They must sum to 1.0
// within a 0.05 tolerance.
type Ranking struct {
	Confidence float64 `yaml:"confidence"`
	Safety     float64 `yaml:"safety"`
	PriceFit   float64 `yaml:"price_fit"`
	// BudgetAware switches the price-fit term from a constant 1.0 to a
	// cheapness score relative to the request budget.
	BudgetAware bool `yaml:"budget_aware"`
}

// Cache holds response cache configuration.
type Cache struct {
	TTL         time.Duration `yaml:"ttl"`
	MaxSizeMB   int64         `yaml:"max_size_mb"`
	IncludeTopK bool          `yaml:"include_top_k"` // include max_recommendations in the cache key
}

// Backends holds connection configuration for the three candidate sources.
type Backends struct {
	Graph      GraphBackend      `yaml:"graph"`
	Vector     VectorBackend     `yaml:"vector"`
	Generative GenerativeBackend `yaml:"generative"`
}

// GraphBackend holds relationship-graph store connection configuration.
type GraphBackend struct {
	URL       string  `yaml:"url"`
	MaxRating float64 `yaml:"max_rating"`
	TopK      int     `yaml:"top_k"`
}

// VectorBackend holds vector-similarity store connection configuration.
type VectorBackend struct {
	URL        string `yaml:"url"`
	Collection string `yaml:"collection"`
	TopK       int    `yaml:"top_k"`
}

// GenerativeBackend holds generative-model API configuration.
type GenerativeBackend struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// Breaker holds circuit breaker configuration for backend clients.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// OTel holds OpenTelemetry metric export configuration.
type OTel struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "8080",
			CORSOrigin: "http://localhost:3000",
		},
		Logging: Logging{
			Level:   "info",
			Service: "toolrec",
		},
		Fusion: Fusion{
			ConfidenceThreshold: 0.65,
			MaxRecommendations:  10,
			AdapterTimeout:      10 * time.Second,
			ScoringWeights: map[string]float64{
				"graph":      0.3,
				"vector":     0.4,
				"generative": 0.3,
			},
			Ranking: Ranking{
				Confidence: 0.5,
				Safety:     0.3,
				PriceFit:   0.2,
			},
		},
		Cache: Cache{
			TTL:         300 * time.Second,
			MaxSizeMB:   64,
			IncludeTopK: true,
		},
		Backends: Backends{
			Graph: GraphBackend{
				URL:       "http://localhost:7474",
				MaxRating: 5.0,
				TopK:      20,
			},
			Vector: VectorBackend{
				URL:        "http://localhost:19530",
				Collection: "tools",
				TopK:       20,
			},
			Generative: GenerativeBackend{
				URL:   "http://localhost:4000",
				Model: "openai/gpt-4o-mini",
			},
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		OTel: OTel{
			Enabled:  false,
			Endpoint: "localhost:4317",
		},
	}
}
