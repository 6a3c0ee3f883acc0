package ollama

import (
	"fmt"
	"strings"

	"github.com/kirillkom/claim-assessor/internal/core/domain"
)

const maxDescriptionSnippet = 1500

func buildNotesPrompt(brief domain.HandlerBrief) string {
	description := brief.Description
	if len(description) > maxDescriptionSnippet {
		description = description[:maxDescriptionSnippet]
	}

	coverage := make([]string, 0, len(brief.Coverage))
	for _, label := range brief.Coverage {
		coverage = append(coverage, string(label))
	}

	var b strings.Builder
	b.WriteString(`You write short notes for a motor insurance claims handler.
Summarize the assessment below in at most four plain sentences.
Do not change the decision, the coverage or the risk level. Do not invent facts.
No markdown, no lists.

`)
	fmt.Fprintf(&b, "Claim: %s\n", brief.ClaimReferenceID)
	fmt.Fprintf(&b, "Decision: %s (%s)\n", brief.Eligibility, brief.EligibilityReason)
	fmt.Fprintf(&b, "Coverage: %s\n", strings.Join(coverage, ", "))
	fmt.Fprintf(&b, "Fraud risk: %s\n", brief.FraudRiskLevel)
	fmt.Fprintf(&b, "Damage: %s impact, %s severity, %d part(s)\n",
		brief.Damage.MainImpactArea, brief.Damage.Severity, len(brief.Damage.Parts))
	fmt.Fprintf(&b, "Incident type: %s\n", brief.IncidentType)
	writeList(&b, "Exclusions", brief.ExcludedReasons)
	writeList(&b, "Follow-ups", brief.Followups)
	writeList(&b, "Fraud indicators", brief.FraudFlags)
	fmt.Fprintf(&b, "\nClaimant description:\n%s\n", description)
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}
