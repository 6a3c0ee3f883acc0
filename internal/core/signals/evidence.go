package signals

import "github.com/kirillkom/claim-assessor/internal/core/domain"

type EvidenceFacts struct {
	Photos          int
	MinPhotos       int
	Shortfall       int
	HasOverall      bool
	HasCloseUp      bool
	DistinctParts   int
	Repairable      bool
	EstimatePresent bool
	PoliceRequired  bool
	PolicePresent   bool
	PlateLegible    bool
	DamageExpected  bool
	DamageDetected  bool
	Missing         []string
}

// Evidence checks the evidence inventory. View coverage is inferred from CV
// part coverage as well as capture labels, so an unlabelled photo set still
// counts when the detector saw the whole vehicle or a large damage region.
func Evidence(f *domain.FNOL, th Thresholds) EvidenceFacts {
	docs := f.Documents
	cv := f.CVResults
	facts := EvidenceFacts{
		Photos:          docs.PhotosCount,
		MinPhotos:       th.MinPhotos,
		EstimatePresent: docs.EstimatePresent,
		PolicePresent:   docs.PoliceReportPresent,
		PlateLegible:    cv.LicensePlateOCR != nil,
		DamageExpected:  f.Incident.Type != domain.IncidentTheft,
		DamageDetected:  len(cv.DamagedParts) > 0,
	}
	if facts.Photos < th.MinPhotos {
		facts.Shortfall = th.MinPhotos - facts.Photos
	}

	distinct := make(map[string]bool)
	for _, part := range cv.DamagedParts {
		distinct[CanonicalPart(part.PartName)] = true
		if part.AreaRatio >= th.CloseUpAreaRatio {
			facts.HasCloseUp = true
		}
		if part.Severity != domain.SeverityTotalLoss {
			facts.Repairable = true
		}
	}
	facts.DistinctParts = len(distinct)
	if facts.DistinctParts >= th.OverallViewMinParts {
		facts.HasOverall = true
	}
	for _, capture := range cv.Captures {
		switch capture.View {
		case domain.ViewOverall:
			facts.HasOverall = true
		case domain.ViewCloseUp:
			facts.HasCloseUp = true
		}
	}

	facts.PoliceRequired = f.Incident.Type == domain.IncidentTheft || f.Incident.ThirdPartyInjury

	if facts.Shortfall > 0 {
		facts.Missing = append(facts.Missing, "photos")
	}
	if !facts.HasOverall {
		facts.Missing = append(facts.Missing, "overall_view")
	}
	if !facts.HasCloseUp {
		facts.Missing = append(facts.Missing, "closeup")
	}
	if facts.Repairable && !facts.EstimatePresent {
		facts.Missing = append(facts.Missing, "estimate")
	}
	if facts.PoliceRequired && !facts.PolicePresent {
		facts.Missing = append(facts.Missing, "police_report")
	}
	if !facts.PlateLegible {
		facts.Missing = append(facts.Missing, "legible_plate")
	}
	if facts.DamageExpected && !facts.DamageDetected {
		facts.Missing = append(facts.Missing, "damage_images")
	}
	return facts
}

// Shortfalls counts missing evidence items.
func (e EvidenceFacts) Shortfalls() int {
	return len(e.Missing)
}

func (e EvidenceFacts) Map() map[string]any {
	return map[string]any{
		"photos":           e.Photos,
		"min_photos":       e.MinPhotos,
		"shortfall":        e.Shortfall,
		"has_overall":      e.HasOverall,
		"has_closeup":      e.HasCloseUp,
		"distinct_parts":   e.DistinctParts,
		"repairable":       e.Repairable,
		"estimate_present": e.EstimatePresent,
		"police_required":  e.PoliceRequired,
		"police_present":   e.PolicePresent,
		"plate_legible":    e.PlateLegible,
		"damage_expected":  e.DamageExpected,
		"damage_detected":  e.DamageDetected,
		"missing":          stringsOrEmpty(e.Missing),
	}
}
