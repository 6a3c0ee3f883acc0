package decision

import (
	"fmt"

	"github.com/kirillkom/claim-assessor/internal/core/domain"
)

// Verdict is the outcome of the first precedence rule that matched.
type Verdict struct {
	Eligibility domain.Eligibility
	Reason      string
	Rule        string
}

// PrecedenceRule inspects the folded outcomes and either decides or passes.
type PrecedenceRule struct {
	Name  string
	Match func(f Folded) (Verdict, bool)
}

// Precedence is evaluated in order; the first match wins. Only a critical
// exclusion outranks Review, so ambiguity never resolves to an automatic
// approval or an automatic rejection.
var Precedence = []PrecedenceRule{
	{Name: "critical_exclusion", Match: criticalExclusion},
	{Name: "review_on_ambiguity", Match: reviewOnAmbiguity},
	{Name: "no_coverage_remaining", Match: noCoverageRemaining},
	{Name: "default_approve", Match: defaultApprove},
}

func decide(f Folded) Verdict {
	for _, rule := range Precedence {
		if v, ok := rule.Match(f); ok {
			v.Rule = rule.Name
			return v
		}
	}
	// unreachable while default_approve is last
	return Verdict{Eligibility: domain.EligibilityReview, Reason: "No precedence rule matched", Rule: "fallback"}
}

func criticalExclusion(f Folded) (Verdict, bool) {
	for _, o := range f.Outcomes {
		if o.Critical && o.Effect == domain.EffectRejected {
			return Verdict{
				Eligibility: domain.EligibilityRejected,
				Reason:      fmt.Sprintf("Critical exclusion (%s): %s", o.RuleID, o.Note),
			}, true
		}
	}
	return Verdict{}, false
}

func noCoverageRemaining(f Folded) (Verdict, bool) {
	if !f.coverageEmpty() {
		return Verdict{}, false
	}
	for _, o := range f.Outcomes {
		if o.Effect == domain.EffectRejected {
			return Verdict{
				Eligibility: domain.EligibilityRejected,
				Reason:      fmt.Sprintf("No coverage remains after exclusions (%s): %s", o.RuleID, o.Note),
			}, true
		}
	}
	return Verdict{}, false
}

func reviewOnAmbiguity(f Folded) (Verdict, bool) {
	flagged := 0
	first := ""
	for _, o := range f.Outcomes {
		if o.Effect == domain.EffectFlagged {
			if flagged == 0 {
				first = o.Note
			}
			flagged++
		}
	}
	switch {
	case flagged == 1:
		return Verdict{Eligibility: domain.EligibilityReview, Reason: "Needs review: " + first}, true
	case flagged > 1:
		return Verdict{
			Eligibility: domain.EligibilityReview,
			Reason:      fmt.Sprintf("Needs review: %s (and %d more)", first, flagged-1),
		}, true
	case f.coverageEmpty() && !f.anyRejected():
		return Verdict{Eligibility: domain.EligibilityReview, Reason: "No applicable coverage could be established"}, true
	default:
		return Verdict{}, false
	}
}

func defaultApprove(Folded) (Verdict, bool) {
	return Verdict{
		Eligibility: domain.EligibilityApproved,
		Reason:      "All checks passed",
	}, true
}
