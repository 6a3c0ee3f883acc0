package signals

import "github.com/kirillkom/claim-assessor/internal/core/domain"

type LiabilityFacts struct {
	ThirdPartyKnown    bool
	ThirdPartyInvolved bool
	ThirdPartyInjury   bool
	CoverageKnown      bool
	CoversThirdParty   bool
	PoliceReport       bool
}

func Liability(f *domain.FNOL) LiabilityFacts {
	facts := LiabilityFacts{
		ThirdPartyKnown:  f.Incident.ThirdPartyInvolved != nil,
		ThirdPartyInjury: f.Incident.ThirdPartyInjury,
		CoverageKnown:    f.Policy.CoverageType != domain.CoverageUnknown,
		PoliceReport:     f.Documents.PoliceReportPresent,
	}
	if facts.ThirdPartyKnown {
		facts.ThirdPartyInvolved = *f.Incident.ThirdPartyInvolved
	}
	facts.CoversThirdParty = containsLabel(CoveredLabels(f.Policy.CoverageType, f.Policy.Addons), domain.CoverThirdParty)
	return facts
}

func (l LiabilityFacts) Map() map[string]any {
	return map[string]any{
		"third_party_known":    l.ThirdPartyKnown,
		"third_party_involved": l.ThirdPartyInvolved,
		"third_party_injury":   l.ThirdPartyInjury,
		"coverage_known":       l.CoverageKnown,
		"covers_third_party":   l.CoversThirdParty,
		"police_report":        l.PoliceReport,
	}
}
