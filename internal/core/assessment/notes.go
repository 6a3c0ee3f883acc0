package assessment

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/claim-assessor/internal/core/domain"
)

// TemplateNotesWriter phrases handler notes from the brief alone. Output is a
// pure function of the brief.
type TemplateNotesWriter struct{}

func (TemplateNotesWriter) WriteNotes(_ context.Context, brief domain.HandlerBrief) (string, error) {
	return TemplateNotes(brief), nil
}

func TemplateNotes(brief domain.HandlerBrief) string {
	var b strings.Builder

	switch brief.Eligibility {
	case domain.EligibilityApproved:
		fmt.Fprintf(&b, "Claim %s can proceed.", brief.ClaimReferenceID)
	case domain.EligibilityRejected:
		fmt.Fprintf(&b, "Claim %s should be rejected.", brief.ClaimReferenceID)
	default:
		fmt.Fprintf(&b, "Claim %s needs handler review.", brief.ClaimReferenceID)
	}
	fmt.Fprintf(&b, " %s.", strings.TrimSuffix(brief.EligibilityReason, "."))

	if len(brief.Coverage) > 0 {
		labels := make([]string, 0, len(brief.Coverage))
		for _, label := range brief.Coverage {
			labels = append(labels, string(label))
		}
		fmt.Fprintf(&b, " Coverage: %s.", strings.Join(labels, ", "))
	}
	if n := len(brief.ExcludedReasons); n > 0 {
		fmt.Fprintf(&b, " Exclusions: %d.", n)
	}
	if n := len(brief.Followups); n > 0 {
		fmt.Fprintf(&b, " Open follow-ups: %d.", n)
	}
	fmt.Fprintf(&b, " Fraud risk: %s", brief.FraudRiskLevel)
	if n := len(brief.FraudFlags); n > 0 {
		fmt.Fprintf(&b, " (%d indicator(s))", n)
	}
	b.WriteString(".")

	if brief.Damage.Severity == domain.SeveritySevere || brief.Damage.Severity == domain.SeverityTotalLoss {
		fmt.Fprintf(&b, " %s damage: assign a field assessor before settlement.", brief.Damage.Severity)
	}
	return b.String()
}
