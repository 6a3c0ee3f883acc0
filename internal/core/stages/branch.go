package stages

import (
	"fmt"
	"strings"

	"github.com/kirillkom/claim-assessor/internal/core/domain"
)

// ThirdPartyBranch decides whether a critical driver exclusion also removes
// third-party liability cover. Insurers differ here, so it is configuration.
type ThirdPartyBranch interface {
	Name() string
	Apply(outcome domain.RuleOutcome) domain.RuleOutcome
}

// RetainThirdParty leaves third-party liability untouched.
type RetainThirdParty struct{}

func (RetainThirdParty) Name() string { return "retain" }

func (RetainThirdParty) Apply(outcome domain.RuleOutcome) domain.RuleOutcome {
	return outcome
}

// ExcludeThirdParty extends the exclusion to third-party liability.
type ExcludeThirdParty struct{}

func (ExcludeThirdParty) Name() string { return "exclude" }

func (ExcludeThirdParty) Apply(outcome domain.RuleOutcome) domain.RuleOutcome {
	for _, label := range outcome.Excludes {
		if label == domain.CoverThirdParty {
			return outcome
		}
	}
	excludes := make([]domain.CoverageLabel, 0, len(outcome.Excludes)+1)
	for _, label := range domain.CoverageLabels {
		if label == domain.CoverThirdParty || containsLabel(outcome.Excludes, label) {
			excludes = append(excludes, label)
		}
	}
	outcome.Excludes = excludes
	return outcome
}

func ParseThirdPartyBranch(raw string) (ThirdPartyBranch, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "retain":
		return RetainThirdParty{}, nil
	case "exclude":
		return ExcludeThirdParty{}, nil
	default:
		return nil, fmt.Errorf("unknown third-party branch %q", raw)
	}
}

func containsLabel(labels []domain.CoverageLabel, label domain.CoverageLabel) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}
