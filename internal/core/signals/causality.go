package signals

import "github.com/kirillkom/claim-assessor/internal/core/domain"

type CausalityFacts struct {
	ReportedImpact  domain.ImpactPoint
	NarrativeImpact domain.ImpactPoint
	EffectiveImpact domain.ImpactPoint
	Determined      bool
	Expected        []string
	Detected        []string
	Matched         []string
	Unmatched       []string
	Overlap         float64
	Threshold       float64
	Consistent      bool
	GlassIncident   bool
	NonGlassParts   []string
}

// Causality compares detected damage against the parts expected for the
// reported impact. When the impact field is Unknown the narrative is used.
// Overlap is the share of detected parts that the impact explains.
func Causality(f *domain.FNOL, th Thresholds) CausalityFacts {
	facts := CausalityFacts{
		ReportedImpact:  f.Incident.ImpactPoint,
		NarrativeImpact: InferImpact(f.Incident.Description),
		Threshold:       th.CausalityOverlap,
		GlassIncident:   f.Incident.Type == domain.IncidentGlassOnly,
		Overlap:         1,
		Consistent:      true,
	}
	facts.EffectiveImpact = facts.ReportedImpact
	if facts.EffectiveImpact == domain.ImpactUnknown {
		facts.EffectiveImpact = facts.NarrativeImpact
	}
	facts.Determined = facts.EffectiveImpact != domain.ImpactUnknown
	facts.Expected = ExpectedParts(facts.EffectiveImpact)

	for _, part := range f.CVResults.DamagedParts {
		facts.Detected = append(facts.Detected, part.PartName)
		if facts.GlassIncident && !IsGlassPart(part.PartName) {
			facts.NonGlassParts = append(facts.NonGlassParts, part.PartName)
		}
		if !facts.Determined {
			continue
		}
		if MatchesImpact(part.PartName, facts.EffectiveImpact) {
			facts.Matched = append(facts.Matched, part.PartName)
		} else {
			facts.Unmatched = append(facts.Unmatched, part.PartName)
		}
	}

	if facts.Determined && len(facts.Detected) > 0 {
		facts.Overlap = float64(len(facts.Matched)) / float64(len(facts.Detected))
		facts.Consistent = facts.Overlap >= th.CausalityOverlap
	}
	return facts
}

// Inconsistent reports a determinable impact whose damage pattern falls below
// the overlap threshold.
func (c CausalityFacts) Inconsistent() bool {
	return c.Determined && len(c.Detected) > 0 && !c.Consistent
}

func (c CausalityFacts) Map() map[string]any {
	return map[string]any{
		"reported_impact":  string(c.ReportedImpact),
		"narrative_impact": string(c.NarrativeImpact),
		"effective_impact": string(c.EffectiveImpact),
		"determined":       c.Determined,
		"expected_parts":   stringsOrEmpty(c.Expected),
		"detected_parts":   stringsOrEmpty(c.Detected),
		"matched_parts":    stringsOrEmpty(c.Matched),
		"unmatched_parts":  stringsOrEmpty(c.Unmatched),
		"overlap":          c.Overlap,
		"overlap_pct":      int(c.Overlap*100 + 0.5),
		"threshold":        c.Threshold,
		"consistent":       c.Consistent,
		"glass_incident":   c.GlassIncident,
		"non_glass_parts":  stringsOrEmpty(c.NonGlassParts),
	}
}

func stringsOrEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
