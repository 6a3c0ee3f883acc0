package decision

import "github.com/kirillkom/claim-assessor/internal/core/domain"

type RiskAssessment struct {
	Level    domain.RiskLevel
	Flags    []string
	Strong   int
	Moderate int
	Weak     int
	Critical bool
}

// AssessRisk applies the fraud risk policy:
//   - High when any critical exclusion is present or at least two strong,
//     non-metadata indicators fired.
//   - Low when nothing fired above weak and at most one weak signal fired.
//   - Medium otherwise.
//
// Metadata-only signals are always weak, so on their own they cannot lift
// the level above Medium.
func AssessRisk(results []domain.StageResult) RiskAssessment {
	var outcomes []domain.RuleOutcome
	for _, r := range results {
		outcomes = append(outcomes, r.Triggered...)
	}
	sortOutcomes(outcomes)

	risk := RiskAssessment{Flags: []string{}}
	for _, o := range outcomes {
		if o.Critical && o.Effect == domain.EffectRejected {
			risk.Critical = true
		}
		if o.Category != domain.CategoryFraud {
			continue
		}
		risk.Flags = append(risk.Flags, o.Note)
		switch {
		case o.MetadataOnly:
			risk.Weak++
		case o.Strength == domain.StrengthStrong:
			risk.Strong++
		case o.Strength == domain.StrengthModerate:
			risk.Moderate++
		default:
			risk.Weak++
		}
	}

	switch {
	case risk.Critical || risk.Strong >= 2:
		risk.Level = domain.RiskHigh
	case risk.Strong == 0 && risk.Moderate == 0 && risk.Weak <= 1:
		risk.Level = domain.RiskLow
	default:
		risk.Level = domain.RiskMedium
	}
	return risk
}
