package domain

import (
	"strings"
)

// NormalizeFNOL returns a deep copy of f with every enumerated field mapped
// onto its canonical value. Unrecognized text becomes the Unknown/Other member
// so evaluators stay total. f itself is never modified.
func NormalizeFNOL(f FNOL) FNOL {
	out := f
	out.ClaimID = strings.TrimSpace(f.ClaimID)

	out.Vehicle.VIN = strings.TrimSpace(f.Vehicle.VIN)
	out.Vehicle.RegistrationNumber = strings.TrimSpace(f.Vehicle.RegistrationNumber)
	out.Vehicle.Year = copyPtr(f.Vehicle.Year)
	out.Vehicle.Odometer = copyPtr(f.Vehicle.Odometer)

	out.Policy.Status = ParsePolicyStatus(string(f.Policy.Status))
	out.Policy.CoverageType = ParseCoverageType(string(f.Policy.CoverageType))
	out.Policy.Usage = ParseVehicleUse(string(f.Policy.Usage))
	out.Policy.StartDate = strings.TrimSpace(f.Policy.StartDate)
	out.Policy.EndDate = strings.TrimSpace(f.Policy.EndDate)
	out.Policy.Addons = make([]string, 0, len(f.Policy.Addons))
	for _, addon := range f.Policy.Addons {
		if addon = strings.TrimSpace(addon); addon != "" {
			out.Policy.Addons = append(out.Policy.Addons, addon)
		}
	}

	out.Driver.LicenseStatus = ParseLicenseStatus(string(f.Driver.LicenseStatus))
	out.Driver.LicenseExpiry = strings.TrimSpace(f.Driver.LicenseExpiry)
	out.Driver.Intoxication = ParseFinding(string(f.Driver.Intoxication))
	out.Driver.VehicleUse = ParseVehicleUse(string(f.Driver.VehicleUse))

	out.Incident.Date = strings.TrimSpace(f.Incident.Date)
	out.Incident.Time = strings.TrimSpace(f.Incident.Time)
	out.Incident.Location = strings.TrimSpace(f.Incident.Location)
	out.Incident.Description = strings.TrimSpace(f.Incident.Description)
	out.Incident.ImpactPoint = ParseImpactPoint(string(f.Incident.ImpactPoint))
	out.Incident.Type = ParseIncidentType(string(f.Incident.Type))
	out.Incident.IntentionalDamage = ParseFinding(string(f.Incident.IntentionalDamage))
	out.Incident.ThirdPartyInvolved = copyPtr(f.Incident.ThirdPartyInvolved)
	if f.Incident.Coordinates != nil {
		coords := *f.Incident.Coordinates
		out.Incident.Coordinates = &coords
	}

	if out.Documents.PhotosCount < 0 {
		out.Documents.PhotosCount = 0
	}
	out.Documents.EstimateAmount = copyPtr(f.Documents.EstimateAmount)

	out.CVResults.DamagedParts = make([]DamagedPart, 0, len(f.CVResults.DamagedParts))
	for _, part := range f.CVResults.DamagedParts {
		part.PartName = strings.TrimSpace(part.PartName)
		if part.PartName == "" {
			continue
		}
		part.Severity = ParseSeverity(string(part.Severity))
		if part.AreaRatio < 0 {
			part.AreaRatio = 0
		}
		out.CVResults.DamagedParts = append(out.CVResults.DamagedParts, part)
	}
	out.CVResults.LicensePlateOCR = trimmedOCR(f.CVResults.LicensePlateOCR)
	out.CVResults.VINOCR = trimmedOCR(f.CVResults.VINOCR)
	out.CVResults.OdometerOCR = copyPtr(f.CVResults.OdometerOCR)
	out.CVResults.ConsistencyWithIncident = ParseConsistency(string(f.CVResults.ConsistencyWithIncident))
	out.CVResults.PreexistingDamageSignals = make([]string, 0, len(f.CVResults.PreexistingDamageSignals))
	for _, signal := range f.CVResults.PreexistingDamageSignals {
		if signal = strings.TrimSpace(signal); signal != "" {
			out.CVResults.PreexistingDamageSignals = append(out.CVResults.PreexistingDamageSignals, signal)
		}
	}
	out.CVResults.Captures = make([]Capture, 0, len(f.CVResults.Captures))
	for _, capture := range f.CVResults.Captures {
		capture.View = ParseCaptureView(string(capture.View))
		capture.CapturedAt = strings.TrimSpace(capture.CapturedAt)
		capture.Lat = copyPtr(capture.Lat)
		capture.Lon = copyPtr(capture.Lon)
		out.CVResults.Captures = append(out.CVResults.Captures, capture)
	}

	out.ClaimHistory = make([]PriorClaim, 0, len(f.ClaimHistory))
	for _, prior := range f.ClaimHistory {
		prior.Parts = append([]string(nil), prior.Parts...)
		prior.Odometer = copyPtr(prior.Odometer)
		out.ClaimHistory = append(out.ClaimHistory, prior)
	}
	return out
}

func ParseImpactPoint(raw string) ImpactPoint {
	switch key(raw) {
	case "front", "frontal":
		return ImpactFront
	case "rear", "back":
		return ImpactRear
	case "left", "leftside", "lh":
		return ImpactLeft
	case "right", "rightside", "rh":
		return ImpactRight
	case "multiple", "multi", "several":
		return ImpactMultiple
	default:
		return ImpactUnknown
	}
}

func ParseIncidentType(raw string) IncidentType {
	switch key(raw) {
	case "collision", "accident", "crash":
		return IncidentCollision
	case "fire":
		return IncidentFire
	case "theft", "stolen":
		return IncidentTheft
	case "glassonly", "glass", "windshield", "windscreen":
		return IncidentGlassOnly
	case "vandalism":
		return IncidentVandalism
	case "flood", "water":
		return IncidentFlood
	default:
		return IncidentOther
	}
}

func ParseCoverageType(raw string) CoverageType {
	switch key(raw) {
	case "comp", "comprehensive":
		return CoverageComprehensive
	case "od", "owndamage":
		return CoverageOwnDamage
	case "tpl", "thirdparty", "thirdpartyliability":
		return CoverageThirdParty
	case "ft", "firetheft", "fireandtheft":
		return CoverageFireTheft
	case "gc", "glass", "glasscover":
		return CoverageGlass
	default:
		return CoverageUnknown
	}
}

func ParsePolicyStatus(raw string) PolicyStatus {
	switch key(raw) {
	case "active", "inforce":
		return PolicyActive
	case "expired":
		return PolicyExpired
	case "lapsed":
		return PolicyLapsed
	case "cancelled", "canceled", "terminated":
		return PolicyCancelled
	case "suspended":
		return PolicySuspended
	default:
		return PolicyUnknown
	}
}

func ParseVehicleUse(raw string) VehicleUse {
	switch key(raw) {
	case "private", "personal":
		return UsePrivate
	case "commercial", "business":
		return UseCommercial
	case "rideshare", "ridehailing", "taxi":
		return UseRideshare
	default:
		return UseUnknown
	}
}

func ParseLicenseStatus(raw string) LicenseStatus {
	switch key(raw) {
	case "valid":
		return LicenseValid
	case "expired":
		return LicenseExpired
	case "invalid", "revoked":
		return LicenseInvalid
	case "suspended":
		return LicenseSuspended
	default:
		return LicenseUnknown
	}
}

func ParseFinding(raw string) Finding {
	switch key(raw) {
	case "none", "no", "negative":
		return FindingNone
	case "suspected", "possible":
		return FindingSuspected
	case "confirmed", "yes", "positive":
		return FindingConfirmed
	default:
		return FindingUnknown
	}
}

func ParseSeverity(raw string) Severity {
	switch key(raw) {
	case "minor", "low":
		return SeverityMinor
	case "moderate", "medium":
		return SeverityModerate
	case "severe", "high":
		return SeveritySevere
	case "totalloss", "total":
		return SeverityTotalLoss
	default:
		return SeverityUnknown
	}
}

func ParseCaptureView(raw string) CaptureView {
	switch key(raw) {
	case "overall", "wide", "full":
		return ViewOverall
	case "closeup", "close", "detail":
		return ViewCloseUp
	case "plate", "licenseplate":
		return ViewPlate
	default:
		return ViewUnknown
	}
}

func ParseConsistency(raw string) Consistency {
	switch key(raw) {
	case "consistent":
		return ConsistencyConsistent
	case "inconsistent":
		return ConsistencyInconsistent
	default:
		return ConsistencyUnknown
	}
}

// key folds case and drops separators so "Glass Only", "glass_only" and
// "GLASS-ONLY" compare equal.
func key(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func trimmedOCR(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	return &s
}

func copyPtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
