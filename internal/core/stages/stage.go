// Package stages holds the seven independent stage evaluators. A stage reads
// only the FNOL and its own catalog subset; it never sees another stage's
// result.
package stages

import (
	"github.com/kirillkom/claim-assessor/internal/core/catalog"
	"github.com/kirillkom/claim-assessor/internal/core/domain"
	"github.com/kirillkom/claim-assessor/internal/core/signals"
)

type Stage interface {
	Name() domain.StageName
	Category() domain.Category
	Evaluate(fnol *domain.FNOL, rules []*catalog.Rule) domain.StageResult
}

// Pipeline returns the stages in declaration order.
func Pipeline(th signals.Thresholds, branch ThirdPartyBranch) []Stage {
	th = th.Normalize()
	if branch == nil {
		branch = RetainThirdParty{}
	}
	return []Stage{
		PolicyStage{},
		IncidentStage{Thresholds: th},
		DriverStage{Branch: branch},
		CausalityStage{Thresholds: th},
		EvidenceStage{Thresholds: th},
		LiabilityStage{},
		FraudStage{Thresholds: th},
	}
}

// run evaluates rules of the stage category in catalog order. Rules of any
// other category are ignored.
func run(name domain.StageName, category domain.Category, fnol *domain.FNOL, facts signals.Facts, rules []*catalog.Rule) domain.StageResult {
	in := catalog.NewInput(fnol, facts)
	result := domain.StageResult{
		Stage:     name,
		Category:  category,
		Signals:   domain.Signals(facts.Section(category)),
		Triggered: []domain.RuleOutcome{},
	}
	for _, rule := range rules {
		if rule.Category != category {
			continue
		}
		if r := rule.Evaluate(in); r.Triggered {
			result.Triggered = append(result.Triggered, r.Outcome)
		}
	}
	return result
}
