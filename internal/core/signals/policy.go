package signals

import (
	"strings"

	"github.com/kirillkom/claim-assessor/internal/core/domain"
)

// coverageByType lists the perils each coverage type pays for.
var coverageByType = map[domain.CoverageType][]domain.CoverageLabel{
	domain.CoverageComprehensive: {domain.CoverOwnDamage, domain.CoverThirdParty, domain.CoverFire, domain.CoverTheft, domain.CoverGlass},
	domain.CoverageOwnDamage:     {domain.CoverOwnDamage, domain.CoverFire, domain.CoverTheft},
	domain.CoverageThirdParty:    {domain.CoverThirdParty},
	domain.CoverageFireTheft:     {domain.CoverFire, domain.CoverTheft},
	domain.CoverageGlass:         {domain.CoverGlass},
}

// addonCoverage extends the base coverage for recognised add-ons.
var addonCoverage = map[string]domain.CoverageLabel{
	"glasscover":      domain.CoverGlass,
	"glass":           domain.CoverGlass,
	"windshieldcover": domain.CoverGlass,
	"theftcover":      domain.CoverTheft,
	"firecover":       domain.CoverFire,
}

type PolicyFacts struct {
	Status        domain.PolicyStatus
	StatusKnown   bool
	Active        bool
	CoverageType  domain.CoverageType
	CoverageKnown bool
	IncidentDate  string
	StartDate     string
	EndDate       string
	DatesComplete bool
	DatesParsed   bool
	InPeriod      bool
	Covered       []domain.CoverageLabel
	Relevant      []domain.CoverageLabel
	Granted       []domain.CoverageLabel
	Uncovered     []domain.CoverageLabel
}

func Policy(f *domain.FNOL) PolicyFacts {
	p := f.Policy
	facts := PolicyFacts{
		Status:        p.Status,
		StatusKnown:   p.Status != domain.PolicyUnknown,
		Active:        p.Status == domain.PolicyActive,
		CoverageType:  p.CoverageType,
		CoverageKnown: p.CoverageType != domain.CoverageUnknown,
		IncidentDate:  f.Incident.Date,
		StartDate:     p.StartDate,
		EndDate:       p.EndDate,
	}

	facts.DatesComplete = f.Incident.Date != "" && p.StartDate != "" && p.EndDate != ""
	incident, okIncident := ParseDate(f.Incident.Date)
	start, okStart := ParseDate(p.StartDate)
	end, okEnd := ParseDate(p.EndDate)
	facts.DatesParsed = okIncident && okStart && okEnd
	if facts.DatesParsed {
		facts.InPeriod = !incident.Before(start) && !incident.After(end)
	}

	facts.Covered = CoveredLabels(p.CoverageType, p.Addons)
	facts.Relevant = IncidentLabels(f.Incident.Type)
	if facts.CoverageKnown {
		for _, label := range facts.Relevant {
			if containsLabel(facts.Covered, label) {
				facts.Granted = append(facts.Granted, label)
			} else {
				facts.Uncovered = append(facts.Uncovered, label)
			}
		}
	}
	return facts
}

// CoveredLabels resolves a coverage type plus add-ons into covered perils, in
// canonical label order.
func CoveredLabels(coverage domain.CoverageType, addons []string) []domain.CoverageLabel {
	set := make(map[domain.CoverageLabel]bool)
	for _, label := range coverageByType[coverage] {
		set[label] = true
	}
	for _, addon := range addons {
		if label, ok := addonCoverage[foldKey(addon)]; ok {
			set[label] = true
		}
	}
	out := make([]domain.CoverageLabel, 0, len(set))
	for _, label := range domain.CoverageLabels {
		if set[label] {
			out = append(out, label)
		}
	}
	return out
}

// IncidentLabels maps an incident cause onto the first-party peril it claims
// against. Third-party liability is classified by the liability stage.
func IncidentLabels(t domain.IncidentType) []domain.CoverageLabel {
	switch t {
	case domain.IncidentFire:
		return []domain.CoverageLabel{domain.CoverFire}
	case domain.IncidentTheft:
		return []domain.CoverageLabel{domain.CoverTheft}
	case domain.IncidentGlassOnly:
		return []domain.CoverageLabel{domain.CoverGlass}
	default:
		return []domain.CoverageLabel{domain.CoverOwnDamage}
	}
}

func (p PolicyFacts) Map() map[string]any {
	return map[string]any{
		"status":         string(p.Status),
		"status_known":   p.StatusKnown,
		"active":         p.Active,
		"coverage_type":  string(p.CoverageType),
		"coverage_known": p.CoverageKnown,
		"incident_date":  p.IncidentDate,
		"start_date":     p.StartDate,
		"end_date":       p.EndDate,
		"dates_complete": p.DatesComplete,
		"dates_parsed":   p.DatesParsed,
		"in_period":      p.InPeriod,
		"covered":        labelStrings(p.Covered),
		"relevant":       labelStrings(p.Relevant),
		"granted":        labelStrings(p.Granted),
		"uncovered":      labelStrings(p.Uncovered),
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

func labelStrings(labels []domain.CoverageLabel) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		out = append(out, string(l))
	}
	return out
}

func foldKey(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
