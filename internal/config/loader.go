package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "toolrec.yaml"

// weightTolerance is the allowed deviation of a weight set from 1.0.
const weightTolerance = 0.05

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "TOOLREC_PORT")
	setString(&cfg.Server.CORSOrigin, "TOOLREC_CORS_ORIGIN")
	setString(&cfg.Logging.Level, "TOOLREC_LOG_LEVEL")
	setString(&cfg.Logging.Service, "TOOLREC_LOG_SERVICE")
	setFloat64(&cfg.Fusion.ConfidenceThreshold, "TOOLREC_CONFIDENCE_THRESHOLD")
	setInt(&cfg.Fusion.MaxRecommendations, "TOOLREC_MAX_RECOMMENDATIONS")
	setDuration(&cfg.Fusion.AdapterTimeout, "TOOLREC_ADAPTER_TIMEOUT")
	setInt(&cfg.Fusion.MaxParallelFetches, "TOOLREC_MAX_PARALLEL_FETCHES")
	setBool(&cfg.Fusion.Ranking.BudgetAware, "TOOLREC_RANKING_BUDGET_AWARE")
	setDuration(&cfg.Cache.TTL, "TOOLREC_CACHE_TTL")
	setInt64(&cfg.Cache.MaxSizeMB, "TOOLREC_CACHE_MAX_SIZE_MB")
	setString(&cfg.Backends.Graph.URL, "TOOLREC_GRAPH_URL")
	setString(&cfg.Backends.Vector.URL, "TOOLREC_VECTOR_URL")
	setString(&cfg.Backends.Vector.Collection, "TOOLREC_VECTOR_COLLECTION")
	setString(&cfg.Backends.Generative.URL, "TOOLREC_GENERATIVE_URL")
	setString(&cfg.Backends.Generative.APIKey, "TOOLREC_GENERATIVE_API_KEY")
	setString(&cfg.Backends.Generative.Model, "TOOLREC_GENERATIVE_MODEL")
	setInt(&cfg.Breaker.MaxFailures, "TOOLREC_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "TOOLREC_BREAKER_TIMEOUT")
	setBool(&cfg.OTel.Enabled, "TOOLREC_OTEL_ENABLED")
	setString(&cfg.OTel.Endpoint, "TOOLREC_OTEL_ENDPOINT")
}

// validate checks required fields and the weight-sum invariants.
// The scoring weights are verified once here, never per-request.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Fusion.ConfidenceThreshold < 0 || cfg.Fusion.ConfidenceThreshold > 1 {
		return errors.New("fusion.confidence_threshold must be in [0,1]")
	}
	if cfg.Fusion.MaxRecommendations < 1 {
		return errors.New("fusion.max_recommendations must be >= 1")
	}
	if cfg.Fusion.AdapterTimeout <= 0 {
		return errors.New("fusion.adapter_timeout must be positive")
	}
	if len(cfg.Fusion.ScoringWeights) == 0 {
		return errors.New("fusion.scoring_weights must not be empty")
	}
	var sum float64
	for name, w := range cfg.Fusion.ScoringWeights {
		if w < 0 {
			return fmt.Errorf("fusion.scoring_weights[%s] must not be negative", name)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("fusion.scoring_weights must sum to 1.0 +/- %.2f, got %.3f", weightTolerance, sum)
	}
	rsum := cfg.Fusion.Ranking.Confidence + cfg.Fusion.Ranking.Safety + cfg.Fusion.Ranking.PriceFit
	if math.Abs(rsum-1.0) > weightTolerance {
		return fmt.Errorf("fusion.ranking weights must sum to 1.0 +/- %.2f, got %.3f", weightTolerance, rsum)
	}
	if cfg.Cache.TTL <= 0 {
		return errors.New("cache.ttl must be positive")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
