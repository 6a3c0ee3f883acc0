package signals

import "github.com/kirillkom/claim-assessor/internal/core/domain"

type IncidentFacts struct {
	DateMissing         bool
	DateUnparsable      bool
	LocationMissing     bool
	DescriptionMissing  bool
	ImpactPoint         domain.ImpactPoint
	ImpactKnown         bool
	NarrativeWords      int
	NarrativeImpact     domain.ImpactPoint
	NarrativeSufficient bool
	Intent              domain.Finding
}

func Incident(f *domain.FNOL, th Thresholds) IncidentFacts {
	in := f.Incident
	facts := IncidentFacts{
		DateMissing:         in.Date == "",
		LocationMissing:     in.Location == "",
		DescriptionMissing:  in.Description == "",
		ImpactPoint:         in.ImpactPoint,
		ImpactKnown:         in.ImpactPoint != domain.ImpactUnknown,
		NarrativeWords:      WordCount(in.Description),
		NarrativeImpact:     InferImpact(in.Description),
		NarrativeSufficient: NarrativeSufficient(in.Description, th.NarrativeMinWords),
		Intent:              in.IntentionalDamage,
	}
	if !facts.DateMissing {
		_, ok := ParseDate(in.Date)
		facts.DateUnparsable = !ok
	}
	return facts
}

func (i IncidentFacts) Map() map[string]any {
	return map[string]any{
		"date_missing":         i.DateMissing,
		"date_unparsable":      i.DateUnparsable,
		"location_missing":     i.LocationMissing,
		"description_missing":  i.DescriptionMissing,
		"impact_point":         string(i.ImpactPoint),
		"impact_known":         i.ImpactKnown,
		"narrative_words":      i.NarrativeWords,
		"narrative_impact":     string(i.NarrativeImpact),
		"narrative_sufficient": i.NarrativeSufficient,
		"intent":               string(i.Intent),
	}
}
