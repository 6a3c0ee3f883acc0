package signals

import (
	"math"
	"sort"
	"strings"

	"github.com/kirillkom/claim-assessor/internal/core/domain"
)

// severityBaseline is the typical repair cost of one part per severity, in
// the policy currency. Estimates are compared against the sum over parts.
var severityBaseline = map[domain.Severity]float64{
	domain.SeverityMinor:     400,
	domain.SeverityModerate:  1500,
	domain.SeveritySevere:    4000,
	domain.SeverityTotalLoss: 12000,
	domain.SeverityUnknown:   1000,
}

type FraudFacts struct {
	Causality         CausalityFacts
	Evidence          EvidenceFacts
	NarrativeMismatch bool
	CVInconsistent    bool
	Preexisting       []string
	RepeatParts       []string
	RepeatClaims      []string
	EstimateRatio     float64
	EstimateInflated  bool
	PlateMismatch     bool
	VINMismatch       bool
	OdometerRollback  bool
	StrippedCaptures  int
	CaptureDriftHours float64
	CaptureDrift      bool
	GPSDriftKm        float64
	GPSDrift          bool
}

// Fraud derives fraud indicators. Causality and evidence facts are recomputed
// from the FNOL through the same functions their stages use, so the fraud
// stage never reads another stage's output.
func Fraud(f *domain.FNOL, th Thresholds) FraudFacts {
	facts := FraudFacts{
		Causality:      Causality(f, th),
		Evidence:       Evidence(f, th),
		CVInconsistent: f.CVResults.ConsistencyWithIncident == domain.ConsistencyInconsistent,
		Preexisting:    append([]string(nil), f.CVResults.PreexistingDamageSignals...),
	}

	reported := f.Incident.ImpactPoint
	narrative := facts.Causality.NarrativeImpact
	facts.NarrativeMismatch = isDirectional(reported) && isDirectional(narrative) && reported != narrative

	facts.RepeatParts, facts.RepeatClaims = repeatedParts(f, th.RepeatClaimWindowDays)
	facts.EstimateRatio = estimateRatio(f)
	facts.EstimateInflated = facts.EstimateRatio > th.EstimateRatioLimit

	if ocr := f.CVResults.LicensePlateOCR; ocr != nil && f.Vehicle.RegistrationNumber != "" {
		facts.PlateMismatch = alnumUpper(*ocr) != alnumUpper(f.Vehicle.RegistrationNumber)
	}
	if ocr := f.CVResults.VINOCR; ocr != nil && f.Vehicle.VIN != "" {
		facts.VINMismatch = alnumUpper(*ocr) != alnumUpper(f.Vehicle.VIN)
	}
	facts.OdometerRollback = odometerRollback(f)

	moment, momentOK := incidentMoment(f.Incident.Date, f.Incident.Time)
	for _, capture := range f.CVResults.Captures {
		if !capture.ExifPresent {
			facts.StrippedCaptures++
		}
		if momentOK {
			if at, ok := ParseTimestamp(capture.CapturedAt); ok {
				drift := math.Abs(at.Sub(moment).Hours())
				facts.CaptureDriftHours = math.Max(facts.CaptureDriftHours, drift)
			}
		}
		if coords := f.Incident.Coordinates; coords != nil && capture.Lat != nil && capture.Lon != nil {
			km := HaversineKm(coords.Lat, coords.Lon, *capture.Lat, *capture.Lon)
			facts.GPSDriftKm = math.Max(facts.GPSDriftKm, km)
		}
	}
	facts.CaptureDrift = facts.CaptureDriftHours > th.CaptureDriftHours
	facts.GPSDrift = facts.GPSDriftKm > th.GPSDriftKm
	return facts
}

func (fr FraudFacts) Map() map[string]any {
	return map[string]any{
		"causality_inconsistent": fr.Causality.Inconsistent(),
		"overlap_pct":            int(fr.Causality.Overlap*100 + 0.5),
		"reported_impact":        string(fr.Causality.ReportedImpact),
		"narrative_impact":       string(fr.Causality.NarrativeImpact),
		"effective_impact":       string(fr.Causality.EffectiveImpact),
		"evidence_shortfalls":    fr.Evidence.Shortfalls(),
		"evidence_missing":       stringsOrEmpty(fr.Evidence.Missing),
		"narrative_mismatch":     fr.NarrativeMismatch,
		"cv_inconsistent":        fr.CVInconsistent,
		"preexisting":            stringsOrEmpty(fr.Preexisting),
		"repeat_parts":           stringsOrEmpty(fr.RepeatParts),
		"repeat_claims":          stringsOrEmpty(fr.RepeatClaims),
		"estimate_ratio":         math.Round(fr.EstimateRatio*100) / 100,
		"estimate_inflated":      fr.EstimateInflated,
		"plate_mismatch":         fr.PlateMismatch,
		"vin_mismatch":           fr.VINMismatch,
		"odometer_rollback":      fr.OdometerRollback,
		"stripped_captures":      fr.StrippedCaptures,
		"capture_drift_hours":    math.Round(fr.CaptureDriftHours*10) / 10,
		"capture_drift":          fr.CaptureDrift,
		"gps_drift_km":           math.Round(fr.GPSDriftKm*10) / 10,
		"gps_drift":              fr.GPSDrift,
	}
}

func isDirectional(impact domain.ImpactPoint) bool {
	switch impact {
	case domain.ImpactFront, domain.ImpactRear, domain.ImpactLeft, domain.ImpactRight:
		return true
	default:
		return false
	}
}

// repeatedParts finds damaged parts already claimed within the window before
// the incident. Results are sorted for stable output.
func repeatedParts(f *domain.FNOL, windowDays int) ([]string, []string) {
	incident, ok := ParseDate(f.Incident.Date)
	if !ok || len(f.ClaimHistory) == 0 {
		return nil, nil
	}

	current := make(map[string]bool, len(f.CVResults.DamagedParts))
	for _, part := range f.CVResults.DamagedParts {
		current[CanonicalPart(part.PartName)] = true
	}

	parts := make(map[string]bool)
	claims := make(map[string]bool)
	for _, prior := range f.ClaimHistory {
		priorDate, ok := ParseDate(prior.IncidentDate)
		if !ok || priorDate.After(incident) {
			continue
		}
		if incident.Sub(priorDate).Hours() > float64(windowDays)*24 {
			continue
		}
		for _, name := range prior.Parts {
			canonical := CanonicalPart(name)
			if canonical != "" && current[canonical] {
				parts[canonical] = true
				claims[prior.ClaimReferenceID] = true
			}
		}
	}
	return sortedKeys(parts), sortedKeys(claims)
}

func estimateRatio(f *domain.FNOL) float64 {
	amount := f.Documents.EstimateAmount
	if amount == nil || *amount <= 0 || len(f.CVResults.DamagedParts) == 0 {
		return 0
	}
	baseline := 0.0
	for _, part := range f.CVResults.DamagedParts {
		baseline += severityBaseline[part.Severity]
	}
	if baseline <= 0 {
		return 0
	}
	return *amount / baseline
}

func odometerRollback(f *domain.FNOL) bool {
	reading := f.CVResults.OdometerOCR
	if reading == nil {
		reading = f.Vehicle.Odometer
	}
	if reading == nil {
		return false
	}
	for _, prior := range f.ClaimHistory {
		if prior.Odometer != nil && *reading < *prior.Odometer {
			return true
		}
	}
	return false
}

func alnumUpper(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
