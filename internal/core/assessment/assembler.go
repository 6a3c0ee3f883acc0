package assessment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/claim-assessor/internal/core/decision"
	"github.com/kirillkom/claim-assessor/internal/core/domain"
	"github.com/kirillkom/claim-assessor/internal/core/ports"
	"github.com/kirillkom/claim-assessor/internal/core/signals"
)

// AssembleInput is everything the assembler needs for one run.
type AssembleInput struct {
	FNOL           *domain.FNOL
	Fingerprint    string
	CatalogVersion string
	Stages         []domain.StageResult
	Aggregation    decision.Aggregation
	AuditLog       []domain.AuditEntry
}

// Assembler builds the output and fails closed: an assessment that breaks
// its invariants is downgraded to Review with a synthetic audit entry.
type Assembler struct {
	notes  ports.NotesWriter
	schema *OutputSchema
	logger *slog.Logger
}

func NewAssembler(notes ports.NotesWriter, schema *OutputSchema, logger *slog.Logger) *Assembler {
	if notes == nil {
		notes = TemplateNotesWriter{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{notes: notes, schema: schema, logger: logger}
}

func (a *Assembler) Assemble(ctx context.Context, in AssembleInput) domain.ClaimAssessment {
	agg := in.Aggregation
	out := domain.ClaimAssessment{
		ClaimReferenceID:   ReferenceFor(in.FNOL, in.Fingerprint),
		Eligibility:        agg.Eligibility,
		EligibilityReason:  agg.Reason,
		CoverageApplicable: append([]domain.CoverageLabel{}, agg.Coverage...),
		ExcludedReasons:    append([]string{}, agg.ExcludedReasons...),
		RequiredFollowups:  append([]string{}, agg.Followups...),
		FraudRiskLevel:     agg.Risk.Level,
		FraudFlags:         append([]string{}, agg.Risk.Flags...),
		DamageSummary:      DamageSummaryFor(in.FNOL, in.Stages),
		Recommendation:     domain.Recommendation{Action: agg.Action},
		AuditLog:           append([]domain.AuditEntry{}, in.AuditLog...),
		CatalogVersion:     in.CatalogVersion,
		Fingerprint:        in.Fingerprint,
	}

	violations := CheckInvariants(&out)
	if len(violations) > 0 {
		failClosed(&out, violations)
	}
	out.Recommendation.NotesForHandler = a.writeNotes(ctx, &out, in.FNOL)

	if a.schema != nil {
		if err := a.schema.Validate(&out); err != nil {
			a.logger.Error("assessment_schema_violation",
				"claim_reference_id", out.ClaimReferenceID,
				"error", err,
			)
			failClosed(&out, []string{"output schema: " + err.Error()})
			out.Recommendation.NotesForHandler = TemplateNotes(brief(&out, in.FNOL))
		}
	}
	out.StraightThrough = out.Eligibility == domain.EligibilityApproved &&
		out.FraudRiskLevel == domain.RiskLow &&
		len(out.RequiredFollowups) == 0
	return out
}

func (a *Assembler) writeNotes(ctx context.Context, out *domain.ClaimAssessment, fnol *domain.FNOL) string {
	b := brief(out, fnol)
	notes, err := a.notes.WriteNotes(ctx, b)
	if err != nil || strings.TrimSpace(notes) == "" {
		if err != nil {
			a.logger.Warn("handler_notes_fallback",
				"claim_reference_id", out.ClaimReferenceID,
				"error", err,
			)
		}
		return TemplateNotes(b)
	}
	return strings.TrimSpace(notes)
}

func brief(out *domain.ClaimAssessment, fnol *domain.FNOL) domain.HandlerBrief {
	return domain.HandlerBrief{
		ClaimReferenceID:  out.ClaimReferenceID,
		Eligibility:       out.Eligibility,
		EligibilityReason: out.EligibilityReason,
		Coverage:          out.CoverageApplicable,
		ExcludedReasons:   out.ExcludedReasons,
		Followups:         out.RequiredFollowups,
		FraudRiskLevel:    out.FraudRiskLevel,
		FraudFlags:        out.FraudFlags,
		Damage:            out.DamageSummary,
		IncidentType:      fnol.Incident.Type,
		Description:       fnol.Incident.Description,
	}
}

// CheckInvariants lists every consistency rule the assessment breaks.
func CheckInvariants(a *domain.ClaimAssessment) []string {
	var violations []string
	if strings.TrimSpace(a.ClaimReferenceID) == "" {
		violations = append(violations, "claim reference is empty")
	}
	if strings.TrimSpace(a.EligibilityReason) == "" {
		violations = append(violations, "eligibility reason is empty")
	}
	if len(a.CoverageApplicable) == 0 {
		violations = append(violations, "coverage list is empty")
	}
	if a.Recommendation.Action != domain.ActionFor(a.Eligibility) {
		violations = append(violations, fmt.Sprintf("action %s does not match eligibility %s", a.Recommendation.Action, a.Eligibility))
	}

	switch a.Eligibility {
	case domain.EligibilityRejected:
		if len(a.ExcludedReasons) == 0 {
			violations = append(violations, "Rejected without excluded reasons")
		}
		if !hasEffect(a.AuditLog, domain.EffectRejected) {
			violations = append(violations, "Rejected without a Rejected audit entry")
		}
	case domain.EligibilityReview:
		if len(a.RequiredFollowups) == 0 && !hasEffect(a.AuditLog, domain.EffectFlagged) {
			violations = append(violations, "Review without follow-ups or a Flagged audit entry")
		}
	case domain.EligibilityApproved:
	default:
		violations = append(violations, fmt.Sprintf("unknown eligibility %q", a.Eligibility))
	}
	return violations
}

// failClosed downgrades to Review and records why. The result always
// satisfies the Review invariant through the synthetic Flagged entry.
func failClosed(a *domain.ClaimAssessment, violations []string) {
	note := "Assessment failed consistency checks: " + strings.Join(violations, "; ")
	a.Eligibility = domain.EligibilityReview
	a.Recommendation.Action = domain.ActionEscalate
	a.EligibilityReason = note
	if strings.TrimSpace(a.ClaimReferenceID) == "" {
		a.ClaimReferenceID = "CLM-UNREFERENCED"
	}
	if len(a.CoverageApplicable) == 0 {
		a.CoverageApplicable = []domain.CoverageLabel{domain.CoverNone}
	}
	a.RequiredFollowups = append(a.RequiredFollowups, "Manually verify this assessment; automated consistency checks failed")
	a.AuditLog = append(a.AuditLog, domain.AuditEntry{
		RuleID:         domain.InvariantViolationRuleID,
		DecisionEffect: domain.EffectFlagged,
		Note:           note,
	})
	a.StraightThrough = false
}

func hasEffect(log []domain.AuditEntry, effect domain.Effect) bool {
	for _, e := range log {
		if e.DecisionEffect == effect {
			return true
		}
	}
	return false
}

// DamageSummaryFor reports the effective impact area, the worst severity and
// the damaged parts in input order.
func DamageSummaryFor(fnol *domain.FNOL, stages []domain.StageResult) domain.DamageSummary {
	summary := domain.DamageSummary{
		MainImpactArea: effectiveImpact(fnol, stages),
		Severity:       domain.SeverityUnknown,
		Parts:          make([]domain.DamagePart, 0, len(fnol.CVResults.DamagedParts)),
	}
	worst := -1
	for _, part := range fnol.CVResults.DamagedParts {
		summary.Parts = append(summary.Parts, domain.DamagePart{
			PartName: part.PartName,
			Severity: part.Severity,
		})
		if rank := part.Severity.Rank(); rank > worst && part.Severity != domain.SeverityUnknown {
			worst = rank
			summary.Severity = part.Severity
		}
	}
	return summary
}

func effectiveImpact(fnol *domain.FNOL, stages []domain.StageResult) domain.ImpactPoint {
	for _, s := range stages {
		if s.Category != domain.CategoryCausality {
			continue
		}
		if v, ok := s.Signals["effective_impact"].(string); ok && v != "" {
			return domain.ImpactPoint(v)
		}
	}
	return signals.Causality(fnol, signals.DefaultThresholds()).EffectiveImpact
}
