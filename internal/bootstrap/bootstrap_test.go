package bootstrap

import (
	"context"
	"testing"

	"github.com/kirillkom/claim-assessor/internal/config"
	"github.com/kirillkom/claim-assessor/internal/core/domain"
	"github.com/kirillkom/claim-assessor/internal/core/domain/domaintest"
)

func TestEngineUsesEmbeddedCatalogByDefault(t *testing.T) {
	cfg := config.Config{CatalogVersion: "latest", ThirdPartyBranch: "retain"}
	engine, loader, store, err := Engine(cfg, nil, nil)
	if err != nil {
		t.Fatalf("Engine() error = %v", err)
	}
	versions, err := loader.Versions()
	if err != nil || len(versions) == 0 {
		t.Fatalf("expected embedded versions, got %v %v", versions, err)
	}
	if store.Current().Version() != versions[0] {
		t.Fatalf("expected latest version %s, got %s", versions[0], store.Current().Version())
	}

	a, err := engine.Assess(context.Background(), domaintest.CleanRearCollision())
	if err != nil {
		t.Fatalf("Assess() error = %v", err)
	}
	if a.Eligibility != domain.EligibilityApproved {
		t.Fatalf("expected Approved, got %s", a.Eligibility)
	}
}

func TestEngineRejectsUnknownBranch(t *testing.T) {
	cfg := config.Config{CatalogVersion: "latest", ThirdPartyBranch: "sometimes"}
	if _, _, _, err := Engine(cfg, nil, nil); err == nil {
		t.Fatalf("expected error for unknown third-party branch")
	}
}

func TestEngineRejectsUnknownCatalogVersion(t *testing.T) {
	cfg := config.Config{CatalogVersion: "9.9.9"}
	_, _, _, err := Engine(cfg, nil, nil)
	if !domain.IsKind(err, domain.ErrInvalidCatalog) {
		t.Fatalf("expected ErrInvalidCatalog, got %v", err)
	}
}
