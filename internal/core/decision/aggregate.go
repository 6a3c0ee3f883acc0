// Package decision folds stage results into a single verdict, the fraud risk
// level and the audit log. Everything here is a pure function of its input
// and independent of the order in which stages finished.
package decision

import (
	"sort"

	"github.com/kirillkom/claim-assessor/internal/core/domain"
)

const coverageFollowup = "Confirm applicable coverage for the reported incident"

// Folded is the flattened, deterministically ordered view of all stage
// outcomes plus the coverage left after exclusions.
type Folded struct {
	Outcomes []domain.RuleOutcome
	Coverage []domain.CoverageLabel
}

func (f Folded) coverageEmpty() bool {
	return len(f.Coverage) == 0
}

func (f Folded) anyRejected() bool {
	for _, o := range f.Outcomes {
		if o.Effect == domain.EffectRejected {
			return true
		}
	}
	return false
}

type Aggregation struct {
	Eligibility     domain.Eligibility
	Reason          string
	Rule            string
	Coverage        []domain.CoverageLabel
	ExcludedReasons []string
	Followups       []string
	Action          domain.Action
	Risk            RiskAssessment
}

// Aggregate combines the stage results into the final verdict.
func Aggregate(results []domain.StageResult) Aggregation {
	folded := Fold(results)
	verdict := decide(folded)

	agg := Aggregation{
		Eligibility:     verdict.Eligibility,
		Reason:          verdict.Reason,
		Rule:            verdict.Rule,
		Coverage:        folded.Coverage,
		ExcludedReasons: excludedReasons(folded.Outcomes),
		Followups:       followups(folded.Outcomes),
		Action:          domain.ActionFor(verdict.Eligibility),
		Risk:            AssessRisk(results),
	}
	if len(agg.Coverage) == 0 {
		agg.Coverage = []domain.CoverageLabel{domain.CoverNone}
	}
	if agg.Eligibility == domain.EligibilityReview && len(agg.Followups) == 0 {
		agg.Followups = []string{coverageFollowup}
	}
	return agg
}

// Fold orders outcomes by stage declaration order then catalog order and
// computes coverage: every granted label minus every label a Rejected outcome
// excludes, in canonical label order.
func Fold(results []domain.StageResult) Folded {
	var outcomes []domain.RuleOutcome
	for _, r := range results {
		outcomes = append(outcomes, r.Triggered...)
	}
	sortOutcomes(outcomes)

	granted := make(map[domain.CoverageLabel]bool)
	excluded := make(map[domain.CoverageLabel]bool)
	for _, o := range outcomes {
		if o.Effect == domain.EffectRejected {
			for _, label := range o.Excludes {
				excluded[label] = true
			}
			continue
		}
		for _, label := range o.Grants {
			granted[label] = true
		}
	}

	var coverage []domain.CoverageLabel
	for _, label := range domain.CoverageLabels {
		if granted[label] && !excluded[label] {
			coverage = append(coverage, label)
		}
	}
	return Folded{Outcomes: outcomes, Coverage: coverage}
}

func sortOutcomes(outcomes []domain.RuleOutcome) {
	sort.SliceStable(outcomes, func(i, j int) bool {
		oi, oj := outcomes[i].Category.Order(), outcomes[j].Category.Order()
		if oi != oj {
			return oi < oj
		}
		if outcomes[i].Seq != outcomes[j].Seq {
			return outcomes[i].Seq < outcomes[j].Seq
		}
		return outcomes[i].RuleID < outcomes[j].RuleID
	})
}

// bySeq returns a copy in pure catalog order.
func bySeq(outcomes []domain.RuleOutcome) []domain.RuleOutcome {
	out := append([]domain.RuleOutcome(nil), outcomes...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Seq != out[j].Seq {
			return out[i].Seq < out[j].Seq
		}
		return out[i].RuleID < out[j].RuleID
	})
	return out
}

// excludedReasons collects Rejected notes, one per rule id, in catalog order.
func excludedReasons(outcomes []domain.RuleOutcome) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, o := range bySeq(outcomes) {
		if o.Effect != domain.EffectRejected || seen[o.RuleID] {
			continue
		}
		seen[o.RuleID] = true
		out = append(out, o.Note)
	}
	return out
}

// followups collects Flagged follow-up texts, deduplicated, in catalog order.
func followups(outcomes []domain.RuleOutcome) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, o := range bySeq(outcomes) {
		if o.Effect != domain.EffectFlagged || o.Followup == "" || seen[o.Followup] {
			continue
		}
		seen[o.Followup] = true
		out = append(out, o.Followup)
	}
	return out
}
