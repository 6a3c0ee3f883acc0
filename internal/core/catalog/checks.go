package catalog

import (
	"fmt"

	"github.com/kirillkom/claim-assessor/internal/core/domain"
	"github.com/kirillkom/claim-assessor/internal/core/signals"
)

type checkFunc func(in *Input) (Verdict, error)

type checkSpec struct {
	category domain.Category
	fn       checkFunc
}

// checks is the fixed registry of built-in predicates. A catalog rule naming
// a check outside this registry, or one registered for another category,
// fails to load.
var checks = map[string]checkSpec{
	"policy_status_inactive":              {domain.CategoryPolicy, policyCheck(func(p *signals.PolicyFacts) Verdict { return when(p.StatusKnown && !p.Active) })},
	"policy_outside_period":               {domain.CategoryPolicy, policyCheck(func(p *signals.PolicyFacts) Verdict { return when(p.DatesParsed && !p.InPeriod) })},
	"policy_status_unverified":            {domain.CategoryPolicy, policyCheck(func(p *signals.PolicyFacts) Verdict { return when(!p.StatusKnown) })},
	"policy_period_unverified":            {domain.CategoryPolicy, policyCheck(func(p *signals.PolicyFacts) Verdict { return when(!p.DatesParsed) })},
	"policy_coverage_unknown":             {domain.CategoryPolicy, policyCheck(func(p *signals.PolicyFacts) Verdict { return when(!p.CoverageKnown) })},
	"policy_coverage_scope":               {domain.CategoryPolicy, policyCheck(coverageScope)},
	"policy_cause_not_covered":            {domain.CategoryPolicy, policyCheck(causeNotCovered)},
	"incident_date_missing":               {domain.CategoryIncident, incidentCheck(func(i *signals.IncidentFacts) Verdict { return when(i.DateMissing) })},
	"incident_date_unparsable":            {domain.CategoryIncident, incidentCheck(func(i *signals.IncidentFacts) Verdict { return when(i.DateUnparsable) })},
	"incident_location_missing":           {domain.CategoryIncident, incidentCheck(func(i *signals.IncidentFacts) Verdict { return when(i.LocationMissing) })},
	"incident_narrative_missing":          {domain.CategoryIncident, incidentCheck(func(i *signals.IncidentFacts) Verdict { return when(i.DescriptionMissing) })},
	"incident_impact_undetermined":        {domain.CategoryIncident, incidentCheck(func(i *signals.IncidentFacts) Verdict { return when(!i.ImpactKnown && !i.DescriptionMissing && !i.NarrativeSufficient) })},
	"incident_intent_confirmed":           {domain.CategoryIncident, incidentCheck(func(i *signals.IncidentFacts) Verdict { return when(i.Intent == domain.FindingConfirmed) })},
	"incident_intent_suspected":           {domain.CategoryIncident, incidentCheck(func(i *signals.IncidentFacts) Verdict { return when(i.Intent == domain.FindingSuspected) })},
	"driver_license_invalid":              {domain.CategoryDriver, driverCheck(func(d *signals.DriverFacts) Verdict { return when(d.LicenseStatus == domain.LicenseInvalid || d.LicenseStatus == domain.LicenseSuspended) })},
	"driver_license_expired":              {domain.CategoryDriver, driverCheck(func(d *signals.DriverFacts) Verdict { return when(d.LicenseStatus == domain.LicenseExpired || d.ExpiredAtLoss) })},
	"driver_intoxication_confirmed":       {domain.CategoryDriver, driverCheck(func(d *signals.DriverFacts) Verdict { return when(d.Intoxication == domain.FindingConfirmed) })},
	"driver_usage_mismatch":               {domain.CategoryDriver, driverCheck(func(d *signals.DriverFacts) Verdict { return when(d.UsageMismatch) })},
	"driver_license_unverified":           {domain.CategoryDriver, driverCheck(func(d *signals.DriverFacts) Verdict { return when(d.LicenseStatus == domain.LicenseUnknown && !d.LicenseDocument && !d.ExpiredAtLoss) })},
	"driver_intoxication_suspected":       {domain.CategoryDriver, driverCheck(func(d *signals.DriverFacts) Verdict { return when(d.Intoxication == domain.FindingSuspected) })},
	"causality_inconsistent":              {domain.CategoryCausality, causalityCheck(func(c *signals.CausalityFacts) Verdict { return when(c.Inconsistent()) })},
	"causality_damage_beyond_glass":       {domain.CategoryCausality, causalityCheck(func(c *signals.CausalityFacts) Verdict { return when(c.GlassIncident && len(c.NonGlassParts) > 0) })},
	"causality_consistent":                {domain.CategoryCausality, causalityCheck(func(c *signals.CausalityFacts) Verdict { return when(c.Determined && len(c.Detected) > 0 && c.Consistent) })},
	"evidence_photos_insufficient":        {domain.CategoryEvidence, evidenceCheck(func(e *signals.EvidenceFacts) Verdict { return when(e.Shortfall > 0) })},
	"evidence_overall_view_missing":       {domain.CategoryEvidence, evidenceCheck(func(e *signals.EvidenceFacts) Verdict { return when(!e.HasOverall) })},
	"evidence_closeup_missing":            {domain.CategoryEvidence, evidenceCheck(func(e *signals.EvidenceFacts) Verdict { return when(!e.HasCloseUp) })},
	"evidence_estimate_missing":           {domain.CategoryEvidence, evidenceCheck(func(e *signals.EvidenceFacts) Verdict { return when(e.Repairable && !e.EstimatePresent) })},
	"evidence_police_report_missing":      {domain.CategoryEvidence, evidenceCheck(func(e *signals.EvidenceFacts) Verdict { return when(e.PoliceRequired && !e.PolicePresent) })},
	"evidence_plate_unreadable":           {domain.CategoryEvidence, evidenceCheck(func(e *signals.EvidenceFacts) Verdict { return when(!e.PlateLegible) })},
	"evidence_damage_not_shown":           {domain.CategoryEvidence, evidenceCheck(func(e *signals.EvidenceFacts) Verdict { return when(e.DamageExpected && !e.DamageDetected) })},
	"liability_third_party_covered":       {domain.CategoryLiability, liabilityCheck(func(l *signals.LiabilityFacts) Verdict { return when(l.ThirdPartyInvolved && l.CoversThirdParty) })},
	"liability_third_party_uncovered":     {domain.CategoryLiability, liabilityCheck(func(l *signals.LiabilityFacts) Verdict { return when(l.ThirdPartyInvolved && l.CoverageKnown && !l.CoversThirdParty) })},
	"liability_police_report_recommended": {domain.CategoryLiability, liabilityCheck(func(l *signals.LiabilityFacts) Verdict { return when(l.ThirdPartyInvolved && !l.PoliceReport) })},
	"liability_third_party_unknown":       {domain.CategoryLiability, liabilityCheck(func(l *signals.LiabilityFacts) Verdict { return when(!l.ThirdPartyKnown) })},
	"liability_own_damage_branch":         {domain.CategoryLiability, liabilityCheck(func(l *signals.LiabilityFacts) Verdict { return when(l.ThirdPartyKnown && !l.ThirdPartyInvolved) })},
	"fraud_causality_inconsistent":        {domain.CategoryFraud, fraudCheck(func(f *signals.FraudFacts) Verdict { return when(f.Causality.Inconsistent()) })},
	"fraud_narrative_mismatch":            {domain.CategoryFraud, fraudCheck(func(f *signals.FraudFacts) Verdict { return when(f.NarrativeMismatch) })},
	"fraud_cv_inconsistent":               {domain.CategoryFraud, fraudCheck(func(f *signals.FraudFacts) Verdict { return when(f.CVInconsistent) })},
	"fraud_preexisting_damage":            {domain.CategoryFraud, fraudCheck(func(f *signals.FraudFacts) Verdict { return when(len(f.Preexisting) > 0) })},
	"fraud_repeat_part_claim":             {domain.CategoryFraud, fraudCheck(func(f *signals.FraudFacts) Verdict { return when(len(f.RepeatParts) > 0) })},
	"fraud_inflated_estimate":             {domain.CategoryFraud, fraudCheck(func(f *signals.FraudFacts) Verdict { return when(f.EstimateInflated) })},
	"fraud_identity_mismatch":             {domain.CategoryFraud, fraudCheck(func(f *signals.FraudFacts) Verdict { return when(f.PlateMismatch || f.VINMismatch) })},
	"fraud_odometer_rollback":             {domain.CategoryFraud, fraudCheck(func(f *signals.FraudFacts) Verdict { return when(f.OdometerRollback) })},
	"fraud_evidence_shortfall":            {domain.CategoryFraud, fraudCheck(func(f *signals.FraudFacts) Verdict { return when(f.Evidence.Shortfalls() > 0) })},
	"fraud_exif_stripped":                 {domain.CategoryFraud, fraudCheck(func(f *signals.FraudFacts) Verdict { return when(f.StrippedCaptures > 0) })},
	"fraud_capture_drift":                 {domain.CategoryFraud, fraudCheck(func(f *signals.FraudFacts) Verdict { return when(f.CaptureDrift) })},
	"fraud_gps_drift":                     {domain.CategoryFraud, fraudCheck(func(f *signals.FraudFacts) Verdict { return when(f.GPSDrift) })},
}

// CheckNames lists the registered built-in checks for one category.
func CheckNames(category domain.Category) []string {
	var out []string
	for name, spec := range checks {
		if spec.category == category {
			out = append(out, name)
		}
	}
	return sortStrings(out)
}

func when(triggered bool) Verdict {
	return Verdict{Triggered: triggered}
}

func coverageScope(p *signals.PolicyFacts) Verdict {
	if !p.CoverageKnown || len(p.Granted) == 0 {
		return Verdict{}
	}
	return Verdict{
		Triggered: true,
		Grants:    p.Granted,
		Params:    map[string]any{"labels": labelNames(p.Granted)},
	}
}

func causeNotCovered(p *signals.PolicyFacts) Verdict {
	if !p.CoverageKnown || len(p.Uncovered) == 0 {
		return Verdict{}
	}
	return Verdict{
		Triggered: true,
		Excludes:  p.Uncovered,
		Params:    map[string]any{"labels": labelNames(p.Uncovered)},
	}
}

func labelNames(labels []domain.CoverageLabel) []string {
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		out = append(out, string(label))
	}
	return out
}

func missingSection(category domain.Category) error {
	return fmt.Errorf("%s facts are not available", category)
}

func policyCheck(fn func(*signals.PolicyFacts) Verdict) checkFunc {
	return func(in *Input) (Verdict, error) {
		if in.Facts.Policy == nil {
			return Verdict{}, missingSection(domain.CategoryPolicy)
		}
		return fn(in.Facts.Policy), nil
	}
}

func incidentCheck(fn func(*signals.IncidentFacts) Verdict) checkFunc {
	return func(in *Input) (Verdict, error) {
		if in.Facts.Incident == nil {
			return Verdict{}, missingSection(domain.CategoryIncident)
		}
		return fn(in.Facts.Incident), nil
	}
}

func driverCheck(fn func(*signals.DriverFacts) Verdict) checkFunc {
	return func(in *Input) (Verdict, error) {
		if in.Facts.Driver == nil {
			return Verdict{}, missingSection(domain.CategoryDriver)
		}
		return fn(in.Facts.Driver), nil
	}
}

func causalityCheck(fn func(*signals.CausalityFacts) Verdict) checkFunc {
	return func(in *Input) (Verdict, error) {
		if in.Facts.Causality == nil {
			return Verdict{}, missingSection(domain.CategoryCausality)
		}
		return fn(in.Facts.Causality), nil
	}
}

func evidenceCheck(fn func(*signals.EvidenceFacts) Verdict) checkFunc {
	return func(in *Input) (Verdict, error) {
		if in.Facts.Evidence == nil {
			return Verdict{}, missingSection(domain.CategoryEvidence)
		}
		return fn(in.Facts.Evidence), nil
	}
}

func liabilityCheck(fn func(*signals.LiabilityFacts) Verdict) checkFunc {
	return func(in *Input) (Verdict, error) {
		if in.Facts.Liability == nil {
			return Verdict{}, missingSection(domain.CategoryLiability)
		}
		return fn(in.Facts.Liability), nil
	}
}

func fraudCheck(fn func(*signals.FraudFacts) Verdict) checkFunc {
	return func(in *Input) (Verdict, error) {
		if in.Facts.Fraud == nil {
			return Verdict{}, missingSection(domain.CategoryFraud)
		}
		return fn(in.Facts.Fraud), nil
	}
}
