package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Server.Port)
	}
	if cfg.Fusion.ConfidenceThreshold != 0.65 {
		t.Errorf("expected default threshold 0.65, got %v", cfg.Fusion.ConfidenceThreshold)
	}
	if cfg.Cache.TTL != 300*time.Second {
		t.Errorf("expected default cache TTL 300s, got %v", cfg.Cache.TTL)
	}
}

func TestLoadFromYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toolrec.yaml")
	data := `
server:
  port: "9090"
fusion:
  confidence_threshold: 0.7
  max_recommendations: 5
  scoring_weights:
    graph: 0.5
    vector: 0.5
cache:
  ttl: 60s
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %q", cfg.Server.Port)
	}
	if cfg.Fusion.MaxRecommendations != 5 {
		t.Errorf("expected max_recommendations 5, got %d", cfg.Fusion.MaxRecommendations)
	}
	if cfg.Cache.TTL != time.Minute {
		t.Errorf("expected cache TTL 1m, got %v", cfg.Cache.TTL)
	}
	// Untouched fields keep defaults.
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level, got %q", cfg.Logging.Level)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	t.Setenv("TOOLREC_PORT", "7777")
	t.Setenv("TOOLREC_CONFIDENCE_THRESHOLD", "0.8")
	t.Setenv("TOOLREC_ADAPTER_TIMEOUT", "2s")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != "7777" {
		t.Errorf("expected port 7777 from env, got %q", cfg.Server.Port)
	}
	if cfg.Fusion.ConfidenceThreshold != 0.8 {
		t.Errorf("expected threshold 0.8 from env, got %v", cfg.Fusion.ConfidenceThreshold)
	}
	if cfg.Fusion.AdapterTimeout != 2*time.Second {
		t.Errorf("expected adapter timeout 2s from env, got %v", cfg.Fusion.AdapterTimeout)
	}
}

func TestValidateRejectsBadWeightSum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toolrec.yaml")
	data := `
fusion:
  scoring_weights:
    graph: 0.5
    vector: 0.7
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected error for weights summing to 1.2")
	}
}

func TestValidateAcceptsWeightSumWithinTolerance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toolrec.yaml")
	data := `
fusion:
  scoring_weights:
    graph: 0.34
    vector: 0.34
    generative: 0.34
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(path); err != nil {
		t.Fatalf("1.02 is within tolerance, got %v", err)
	}
}

func TestValidateRejectsBadThreshold(t *testing.T) {
	t.Setenv("TOOLREC_CONFIDENCE_THRESHOLD", "1.5")
	if _, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for threshold > 1")
	}
}

func TestValidateRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toolrec.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected parse error")
	}
}
