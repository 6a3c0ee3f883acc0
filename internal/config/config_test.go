package config

import (
	"testing"
	"time"

	"github.com/kirillkom/claim-assessor/internal/core/signals"
)

func TestLoadIncludesAssessmentDefaults(t *testing.T) {
	for _, key := range []string{"MIN_PHOTOS", "CAUSALITY_OVERLAP", "THIRD_PARTY_BRANCH", "CATALOG_VERSION", "REDIS_ADDR", "OLLAMA_URL"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.ThirdPartyBranch != "retain" {
		t.Fatalf("expected default third-party branch retain, got %q", cfg.ThirdPartyBranch)
	}
	if cfg.CatalogVersion != "latest" {
		t.Fatalf("expected default catalog version latest, got %q", cfg.CatalogVersion)
	}
	if cfg.RedisAddr != "" || cfg.OllamaURL != "" {
		t.Fatalf("expected cache and notes writer disabled by default")
	}
	if cfg.Thresholds() != signals.DefaultThresholds() {
		t.Fatalf("expected default thresholds, got %+v", cfg.Thresholds())
	}
}

func TestLoadParsesThresholdOverrides(t *testing.T) {
	t.Setenv("MIN_PHOTOS", "4")
	t.Setenv("CAUSALITY_OVERLAP", "0.6")
	t.Setenv("GPS_DRIFT_KM", "25.5")
	t.Setenv("THIRD_PARTY_BRANCH", "exclude")

	cfg := Load()
	th := cfg.Thresholds()
	if th.MinPhotos != 4 {
		t.Fatalf("expected min photos 4, got %d", th.MinPhotos)
	}
	if th.CausalityOverlap != 0.6 {
		t.Fatalf("expected overlap 0.6, got %v", th.CausalityOverlap)
	}
	if th.GPSDriftKm != 25.5 {
		t.Fatalf("expected gps drift 25.5, got %v", th.GPSDriftKm)
	}
	if cfg.ThirdPartyBranch != "exclude" {
		t.Fatalf("expected third-party branch override, got %q", cfg.ThirdPartyBranch)
	}
}

func TestLoadFallsBackOnMalformedValues(t *testing.T) {
	t.Setenv("MIN_PHOTOS", "six")
	t.Setenv("CAUSALITY_OVERLAP", "1.7")
	t.Setenv("BREAKER_ENABLED", "maybe")

	cfg := Load()
	if cfg.MinPhotos != 6 {
		t.Fatalf("expected fallback min photos 6, got %d", cfg.MinPhotos)
	}
	if cfg.Thresholds().CausalityOverlap != 0.5 {
		t.Fatalf("expected out-of-range overlap normalized to 0.5, got %v", cfg.Thresholds().CausalityOverlap)
	}
	if !cfg.BreakerEnabled {
		t.Fatalf("expected breaker enabled fallback")
	}
}

func TestResilienceConfig(t *testing.T) {
	t.Setenv("RETRY_MAX_ATTEMPTS", "5")
	t.Setenv("RETRY_INITIAL_BACKOFF_MS", "20")
	t.Setenv("RETRY_MAX_BACKOFF_MS", "80")
	t.Setenv("BREAKER_ENABLED", "false")

	rc := Load().Resilience()
	if rc.RetryMaxAttempts != 5 || rc.RetryInitialBackoff != 20*time.Millisecond || rc.RetryMaxBackoff != 80*time.Millisecond {
		t.Fatalf("unexpected retry config: %+v", rc)
	}
	if rc.BreakerEnabled {
		t.Fatalf("expected breaker disabled")
	}
}
