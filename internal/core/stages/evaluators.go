package stages

import (
	"github.com/kirillkom/claim-assessor/internal/core/catalog"
	"github.com/kirillkom/claim-assessor/internal/core/domain"
	"github.com/kirillkom/claim-assessor/internal/core/signals"
)

// PolicyStage checks status, validity window and coverage/cause alignment.
type PolicyStage struct{}

func (PolicyStage) Name() domain.StageName    { return domain.StagePolicy }
func (PolicyStage) Category() domain.Category { return domain.CategoryPolicy }

func (s PolicyStage) Evaluate(fnol *domain.FNOL, rules []*catalog.Rule) domain.StageResult {
	facts := signals.Policy(fnol)
	return run(s.Name(), s.Category(), fnol, signals.Facts{Policy: &facts}, rules)
}

// IncidentStage checks that the minimum incident data is present.
type IncidentStage struct {
	Thresholds signals.Thresholds
}

func (IncidentStage) Name() domain.StageName    { return domain.StageIncident }
func (IncidentStage) Category() domain.Category { return domain.CategoryIncident }

func (s IncidentStage) Evaluate(fnol *domain.FNOL, rules []*catalog.Rule) domain.StageResult {
	facts := signals.Incident(fnol, s.Thresholds.Normalize())
	return run(s.Name(), s.Category(), fnol, signals.Facts{Incident: &facts}, rules)
}

// DriverStage checks licence, intoxication and usage. Critical outcomes are
// passed through the configured third-party branch.
type DriverStage struct {
	Branch ThirdPartyBranch
}

func (DriverStage) Name() domain.StageName    { return domain.StageDriver }
func (DriverStage) Category() domain.Category { return domain.CategoryDriver }

func (s DriverStage) Evaluate(fnol *domain.FNOL, rules []*catalog.Rule) domain.StageResult {
	facts := signals.Driver(fnol)
	result := run(s.Name(), s.Category(), fnol, signals.Facts{Driver: &facts}, rules)

	branch := s.Branch
	if branch == nil {
		branch = RetainThirdParty{}
	}
	for i, outcome := range result.Triggered {
		if outcome.Critical && outcome.Effect == domain.EffectRejected {
			result.Triggered[i] = branch.Apply(outcome)
		}
	}
	result.Signals["third_party_branch"] = branch.Name()
	return result
}

// CausalityStage compares detected damage with the expected parts of the
// impact point.
type CausalityStage struct {
	Thresholds signals.Thresholds
}

func (CausalityStage) Name() domain.StageName    { return domain.StageCausality }
func (CausalityStage) Category() domain.Category { return domain.CategoryCausality }

func (s CausalityStage) Evaluate(fnol *domain.FNOL, rules []*catalog.Rule) domain.StageResult {
	facts := signals.Causality(fnol, s.Thresholds.Normalize())
	return run(s.Name(), s.Category(), fnol, signals.Facts{Causality: &facts}, rules)
}

// EvidenceStage itemizes missing evidence, one outcome per item.
type EvidenceStage struct {
	Thresholds signals.Thresholds
}

func (EvidenceStage) Name() domain.StageName    { return domain.StageEvidence }
func (EvidenceStage) Category() domain.Category { return domain.CategoryEvidence }

func (s EvidenceStage) Evaluate(fnol *domain.FNOL, rules []*catalog.Rule) domain.StageResult {
	facts := signals.Evidence(fnol, s.Thresholds.Normalize())
	return run(s.Name(), s.Category(), fnol, signals.Facts{Evidence: &facts}, rules)
}

// LiabilityStage classifies the third-party branch. It never rejects.
type LiabilityStage struct{}

func (LiabilityStage) Name() domain.StageName    { return domain.StageLiability }
func (LiabilityStage) Category() domain.Category { return domain.CategoryLiability }

func (s LiabilityStage) Evaluate(fnol *domain.FNOL, rules []*catalog.Rule) domain.StageResult {
	facts := signals.Liability(fnol)
	result := run(s.Name(), s.Category(), fnol, signals.Facts{Liability: &facts}, rules)
	for i, outcome := range result.Triggered {
		if outcome.Effect == domain.EffectRejected {
			outcome.Effect = domain.EffectFlagged
			outcome.Critical = false
			outcome.Excludes = nil
			if outcome.Followup == "" {
				outcome.Followup = "Review liability classification: " + outcome.Note
			}
			result.Triggered[i] = outcome
		}
	}
	return result
}

// FraudStage scores fraud indicators. Shared causality and evidence signals
// are recomputed from the FNOL, not read from the other stages.
type FraudStage struct {
	Thresholds signals.Thresholds
}

func (FraudStage) Name() domain.StageName    { return domain.StageFraud }
func (FraudStage) Category() domain.Category { return domain.CategoryFraud }

func (s FraudStage) Evaluate(fnol *domain.FNOL, rules []*catalog.Rule) domain.StageResult {
	facts := signals.Fraud(fnol, s.Thresholds.Normalize())
	return run(s.Name(), s.Category(), fnol, signals.Facts{Fraud: &facts}, rules)
}
