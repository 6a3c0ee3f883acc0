// Package signals derives the facts each assessment stage reasons about.
// Every function here is pure: the same FNOL and thresholds always yield the
// same facts, and the FNOL is never modified.
package signals

// Thresholds are the numeric judgement calls used by the stage evaluators.
type Thresholds struct {
	MinPhotos             int
	CausalityOverlap      float64
	NarrativeMinWords     int
	CloseUpAreaRatio      float64
	OverallViewMinParts   int
	CaptureDriftHours     float64
	GPSDriftKm            float64
	RepeatClaimWindowDays int
	EstimateRatioLimit    float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MinPhotos:             6,
		CausalityOverlap:      0.5,
		NarrativeMinWords:     8,
		CloseUpAreaRatio:      0.15,
		OverallViewMinParts:   3,
		CaptureDriftHours:     72,
		GPSDriftKm:            50,
		RepeatClaimWindowDays: 180,
		EstimateRatioLimit:    2.0,
	}
}

// Normalize replaces zero or out-of-range values with defaults.
func (t Thresholds) Normalize() Thresholds {
	out := t
	def := DefaultThresholds()

	if out.MinPhotos <= 0 {
		out.MinPhotos = def.MinPhotos
	}
	if out.CausalityOverlap <= 0 || out.CausalityOverlap > 1 {
		out.CausalityOverlap = def.CausalityOverlap
	}
	if out.NarrativeMinWords <= 0 {
		out.NarrativeMinWords = def.NarrativeMinWords
	}
	if out.CloseUpAreaRatio <= 0 || out.CloseUpAreaRatio > 1 {
		out.CloseUpAreaRatio = def.CloseUpAreaRatio
	}
	if out.OverallViewMinParts <= 0 {
		out.OverallViewMinParts = def.OverallViewMinParts
	}
	if out.CaptureDriftHours <= 0 {
		out.CaptureDriftHours = def.CaptureDriftHours
	}
	if out.GPSDriftKm <= 0 {
		out.GPSDriftKm = def.GPSDriftKm
	}
	if out.RepeatClaimWindowDays <= 0 {
		out.RepeatClaimWindowDays = def.RepeatClaimWindowDays
	}
	if out.EstimateRatioLimit <= 1 {
		out.EstimateRatioLimit = def.EstimateRatioLimit
	}
	return out
}
