package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/claim-assessor/internal/core/domain"
	"github.com/kirillkom/claim-assessor/internal/core/ports"
	"github.com/kirillkom/claim-assessor/internal/core/signals"
)

// AssessmentEngine runs the stage pipeline for one FNOL.
type AssessmentEngine interface {
	Assess(ctx context.Context, fnol domain.FNOL) (*domain.ClaimAssessment, error)
	Fingerprint(fnol domain.FNOL) (string, error)
	Reference(fnol domain.FNOL) (string, error)
	CatalogVersion() string
}

type AssessClaimUseCase struct {
	engine   AssessmentEngine
	repo     ports.AssessmentRepository
	history  ports.ClaimHistoryReader
	cache    ports.AssessmentCache
	queue    ports.MessageQueue
	observer ports.AssessmentObserver
	logger   *slog.Logger
	now      func() time.Time
}

type AssessOption func(*AssessClaimUseCase)

// WithClaimHistory enriches FNOLs that arrive without claim history.
func WithClaimHistory(history ports.ClaimHistoryReader) AssessOption {
	return func(uc *AssessClaimUseCase) { uc.history = history }
}

func WithCache(cache ports.AssessmentCache) AssessOption {
	return func(uc *AssessClaimUseCase) { uc.cache = cache }
}

// WithPublisher publishes every completed assessment.
func WithPublisher(queue ports.MessageQueue) AssessOption {
	return func(uc *AssessClaimUseCase) { uc.queue = queue }
}

func WithObserver(observer ports.AssessmentObserver) AssessOption {
	return func(uc *AssessClaimUseCase) { uc.observer = observer }
}

func WithLogger(logger *slog.Logger) AssessOption {
	return func(uc *AssessClaimUseCase) {
		if logger != nil {
			uc.logger = logger
		}
	}
}

func NewAssessClaimUseCase(engine AssessmentEngine, repo ports.AssessmentRepository, opts ...AssessOption) *AssessClaimUseCase {
	uc := &AssessClaimUseCase{
		engine: engine,
		repo:   repo,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Assess enriches, evaluates, stores and publishes one FNOL. A repeated
// submission under the same catalog version is answered from the cache.
//
// The reference and the cache key come from the FNOL as submitted, before
// history enrichment, so a resubmission keeps its reference and never counts
// its own stored record as a prior claim.
func (uc *AssessClaimUseCase) Assess(ctx context.Context, fnol domain.FNOL) (*domain.ClaimAssessment, error) {
	started := uc.now()

	fingerprint, err := uc.engine.Fingerprint(fnol)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(fnol.ClaimID) == "" {
		reference, err := uc.engine.Reference(fnol)
		if err != nil {
			return nil, err
		}
		fnol.ClaimID = reference
	}

	if cached, ok := uc.lookupCache(ctx, cacheKey(uc.engine.CatalogVersion(), fingerprint)); ok {
		if uc.observer != nil {
			uc.observer.ObserveCacheHit()
		}
		return cached, nil
	}

	fnol = uc.enrichHistory(ctx, fnol)

	result, err := uc.engine.Assess(ctx, fnol)
	if err != nil {
		return nil, fmt.Errorf("assess claim: %w", err)
	}

	if err := uc.repo.Save(ctx, recordFor(fnol, result, uc.now())); err != nil {
		return nil, fmt.Errorf("save assessment: %w", err)
	}

	// The run may have pinned a newer catalog than the lookup saw.
	if uc.cache != nil {
		if err := uc.cache.Put(ctx, cacheKey(result.CatalogVersion, fingerprint), result); err != nil {
			uc.logger.Warn("assessment_cache_put_failed", "claim_reference_id", result.ClaimReferenceID, "error", err)
		}
	}
	if uc.queue != nil {
		if err := uc.queue.PublishAssessmentCompleted(ctx, result); err != nil {
			uc.logger.Warn("assessment_publish_failed", "claim_reference_id", result.ClaimReferenceID, "error", err)
		}
	}
	if uc.observer != nil {
		uc.observer.ObserveAssessment(result, uc.now().Sub(started))
	}

	uc.logger.Info("claim_assessed",
		"claim_reference_id", result.ClaimReferenceID,
		"eligibility", result.Eligibility,
		"fraud_risk_level", result.FraudRiskLevel,
		"catalog_version", result.CatalogVersion,
		"straight_through", result.StraightThrough,
	)
	return result, nil
}

func (uc *AssessClaimUseCase) GetByReference(ctx context.Context, reference string) (*domain.ClaimAssessment, error) {
	a, err := uc.repo.GetByReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("get assessment %s: %w", reference, err)
	}
	return a, nil
}

// enrichHistory fills claim history from storage when the FNOL carries none.
// Lookup failures are logged and the FNOL is assessed as submitted.
func (uc *AssessClaimUseCase) enrichHistory(ctx context.Context, fnol domain.FNOL) domain.FNOL {
	if uc.history == nil || len(fnol.ClaimHistory) > 0 {
		return fnol
	}
	if fnol.Vehicle.VIN == "" && fnol.Vehicle.RegistrationNumber == "" {
		return fnol
	}
	prior, err := uc.history.ListPriorClaims(ctx, fnol.Vehicle.VIN, fnol.Vehicle.RegistrationNumber)
	if err != nil {
		uc.logger.Warn("claim_history_lookup_failed", "claim_id", fnol.ClaimID, "error", err)
		return fnol
	}
	kept := make([]domain.PriorClaim, 0, len(prior))
	for _, p := range prior {
		if p.ClaimReferenceID != "" && p.ClaimReferenceID == fnol.ClaimID {
			continue
		}
		kept = append(kept, p)
	}
	fnol.ClaimHistory = kept
	return fnol
}

func cacheKey(catalogVersion, fingerprint string) string {
	return catalogVersion + ":" + fingerprint
}

func (uc *AssessClaimUseCase) lookupCache(ctx context.Context, key string) (*domain.ClaimAssessment, bool) {
	if uc.cache == nil {
		return nil, false
	}
	cached, ok, err := uc.cache.Get(ctx, key)
	if err != nil {
		uc.logger.Warn("assessment_cache_get_failed", "key", key, "error", err)
		return nil, false
	}
	return cached, ok && cached != nil
}

// recordFor keeps the vehicle keys and damaged parts so later FNOLs on the
// same vehicle can be checked for repeat claims.
func recordFor(fnol domain.FNOL, a *domain.ClaimAssessment, now time.Time) domain.AssessmentRecord {
	normalized := domain.NormalizeFNOL(fnol)
	parts := make([]string, 0, len(normalized.CVResults.DamagedParts))
	for _, p := range normalized.CVResults.DamagedParts {
		parts = append(parts, signals.CanonicalPart(p.PartName))
	}
	odometer := normalized.CVResults.OdometerOCR
	if odometer == nil {
		odometer = normalized.Vehicle.Odometer
	}
	return domain.AssessmentRecord{
		Assessment:         *a,
		VIN:                normalized.Vehicle.VIN,
		RegistrationNumber: normalized.Vehicle.RegistrationNumber,
		IncidentDate:       normalized.Incident.Date,
		Parts:              parts,
		Odometer:           odometer,
		CreatedAt:          now.UTC(),
	}
}
