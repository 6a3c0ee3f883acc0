package signals

import "github.com/kirillkom/claim-assessor/internal/core/domain"

// Facts carries the derived facts available to rule predicates. A stage fills
// only its own section; predicates of other categories see nil.
type Facts struct {
	Policy    *PolicyFacts
	Incident  *IncidentFacts
	Driver    *DriverFacts
	Causality *CausalityFacts
	Evidence  *EvidenceFacts
	Liability *LiabilityFacts
	Fraud     *FraudFacts
}

// Derive computes every section for f.
func Derive(f *domain.FNOL, th Thresholds) Facts {
	th = th.Normalize()
	policy := Policy(f)
	incident := Incident(f, th)
	driver := Driver(f)
	causality := Causality(f, th)
	evidence := Evidence(f, th)
	liability := Liability(f)
	fraud := Fraud(f, th)
	return Facts{
		Policy:    &policy,
		Incident:  &incident,
		Driver:    &driver,
		Causality: &causality,
		Evidence:  &evidence,
		Liability: &liability,
		Fraud:     &fraud,
	}
}

// Section returns the flattened facts of one category, or an empty map.
func (f Facts) Section(category domain.Category) map[string]any {
	switch {
	case category == domain.CategoryPolicy && f.Policy != nil:
		return f.Policy.Map()
	case category == domain.CategoryIncident && f.Incident != nil:
		return f.Incident.Map()
	case category == domain.CategoryDriver && f.Driver != nil:
		return f.Driver.Map()
	case category == domain.CategoryCausality && f.Causality != nil:
		return f.Causality.Map()
	case category == domain.CategoryEvidence && f.Evidence != nil:
		return f.Evidence.Map()
	case category == domain.CategoryLiability && f.Liability != nil:
		return f.Liability.Map()
	case category == domain.CategoryFraud && f.Fraud != nil:
		return f.Fraud.Map()
	default:
		return map[string]any{}
	}
}

// Map nests every available section under its category name.
func (f Facts) Map() map[string]any {
	out := make(map[string]any, len(domain.Categories))
	for _, category := range domain.Categories {
		out[string(category)] = f.Section(category)
	}
	return out
}
