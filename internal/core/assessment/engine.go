// Package assessment runs the stage pipeline for one FNOL and assembles the
// claim assessment.
package assessment

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/claim-assessor/internal/core/catalog"
	"github.com/kirillkom/claim-assessor/internal/core/decision"
	"github.com/kirillkom/claim-assessor/internal/core/domain"
	"github.com/kirillkom/claim-assessor/internal/core/stages"
)

const tracerName = "github.com/kirillkom/claim-assessor/internal/core/assessment"

type Engine struct {
	store     *catalog.Store
	stages    []stages.Stage
	assembler *Assembler
	tracer    trace.Tracer
	logger    *slog.Logger
}

func NewEngine(store *catalog.Store, pipeline []stages.Stage, assembler *Assembler, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:     store,
		stages:    pipeline,
		assembler: assembler,
		tracer:    otel.Tracer(tracerName),
		logger:    logger,
	}
}

// CatalogVersion reports the version new runs will pin.
func (e *Engine) CatalogVersion() string {
	return e.store.Current().Version()
}

// Fingerprint returns the fingerprint Assess would record for raw.
func (e *Engine) Fingerprint(raw domain.FNOL) (string, error) {
	fnol := domain.NormalizeFNOL(raw)
	fp, err := Fingerprint(&fnol)
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "fingerprint fnol", err)
	}
	return fp, nil
}

// Reference returns the claim reference Assess would assign to raw.
func (e *Engine) Reference(raw domain.FNOL) (string, error) {
	fnol := domain.NormalizeFNOL(raw)
	fp, err := e.Fingerprint(raw)
	if err != nil {
		return "", err
	}
	return ReferenceFor(&fnol, fp), nil
}

// Assess evaluates one FNOL. The catalog is pinned at entry; stages fan out
// and the aggregation waits for all of them. If ctx ends before assembly the
// partial results are dropped and ctx.Err() is returned.
func (e *Engine) Assess(ctx context.Context, raw domain.FNOL) (*domain.ClaimAssessment, error) {
	pinned := e.store.Current()
	fnol := domain.NormalizeFNOL(raw)

	ctx, span := e.tracer.Start(ctx, "assessment.assess",
		trace.WithAttributes(attribute.String("catalog.version", pinned.Version())),
	)
	defer span.End()

	fingerprint, err := Fingerprint(&fnol)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fingerprint")
		return nil, domain.WrapError(domain.ErrInvalidInput, "fingerprint fnol", err)
	}

	results, err := e.runStages(ctx, &fnol, pinned)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stages")
		return nil, err
	}

	agg := decision.Aggregate(results)
	audit := decision.BuildAuditLog(results)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := e.assembler.Assemble(ctx, AssembleInput{
		FNOL:           &fnol,
		Fingerprint:    fingerprint,
		CatalogVersion: pinned.Version(),
		Stages:         results,
		Aggregation:    agg,
		AuditLog:       audit,
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("claim.reference", out.ClaimReferenceID),
		attribute.String("claim.eligibility", string(out.Eligibility)),
		attribute.String("claim.fraud_risk", string(out.FraudRiskLevel)),
		attribute.String("claim.precedence_rule", agg.Rule),
	)
	e.logger.Debug("assessment_completed",
		"claim_reference_id", out.ClaimReferenceID,
		"eligibility", out.Eligibility,
		"precedence_rule", agg.Rule,
		"catalog_version", out.CatalogVersion,
	)
	return &out, nil
}

// runStages fans out one goroutine per stage. Each writes only its own slot,
// so the result order is the declaration order whatever the scheduling.
func (e *Engine) runStages(ctx context.Context, fnol *domain.FNOL, pinned *catalog.Catalog) ([]domain.StageResult, error) {
	results := make([]domain.StageResult, len(e.stages))
	g, gctx := errgroup.WithContext(ctx)
	for i, stage := range e.stages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.evaluateStage(stage, fnol, pinned)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// evaluateStage turns a stage panic into a Flagged outcome so the claim is
// routed to review rather than lost.
func (e *Engine) evaluateStage(stage stages.Stage, fnol *domain.FNOL, pinned *catalog.Catalog) (result domain.StageResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("stage_panic", "stage", stage.Name(), "panic", fmt.Sprint(r))
			result = domain.StageResult{
				Stage:     stage.Name(),
				Category:  stage.Category(),
				Signals:   domain.Signals{},
				Triggered: []domain.RuleOutcome{{
					RuleID:   "internal.stage_failure." + string(stage.Category()),
					Category: stage.Category(),
					Seq:      -1,
					Effect:   domain.EffectFlagged,
					Note:     fmt.Sprintf("Stage %s failed: %v", stage.Name(), r),
					Followup: fmt.Sprintf("Manually complete the %s checks", stage.Name()),
				}},
			}
		}
	}()
	return stage.Evaluate(fnol, pinned.ForCategory(stage.Category()))
}
