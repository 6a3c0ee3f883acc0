package domain

type Effect string

const (
	EffectApproved Effect = "Approved"
	EffectRejected Effect = "Rejected"
	EffectFlagged  Effect = "Flagged"
	EffectNoEffect Effect = "NoEffect"
)

func (e Effect) Valid() bool {
	switch e {
	case EffectApproved, EffectRejected, EffectFlagged, EffectNoEffect:
		return true
	default:
		return false
	}
}

type Category string

const (
	CategoryPolicy    Category = "policy"
	CategoryIncident  Category = "incident"
	CategoryDriver    Category = "driver"
	CategoryCausality Category = "causality"
	CategoryEvidence  Category = "evidence"
	CategoryLiability Category = "liability"
	CategoryFraud     Category = "fraud"
)

// Categories lists rule categories in stage declaration order.
var Categories = []Category{
	CategoryPolicy,
	CategoryIncident,
	CategoryDriver,
	CategoryCausality,
	CategoryEvidence,
	CategoryLiability,
	CategoryFraud,
}

func (c Category) Valid() bool {
	return c.Order() >= 0
}

// Order is the stage declaration index of the category, or -1.
func (c Category) Order() int {
	for i, known := range Categories {
		if known == c {
			return i
		}
	}
	return -1
}

type Strength string

const (
	StrengthNone     Strength = ""
	StrengthWeak     Strength = "weak"
	StrengthModerate Strength = "moderate"
	StrengthStrong   Strength = "strong"
)

func (s Strength) Valid() bool {
	switch s {
	case StrengthNone, StrengthWeak, StrengthModerate, StrengthStrong:
		return true
	default:
		return false
	}
}

type CoverageLabel string

const (
	CoverOwnDamage  CoverageLabel = "OwnDamage"
	CoverThirdParty CoverageLabel = "ThirdPartyLiability"
	CoverFire       CoverageLabel = "Fire"
	CoverTheft      CoverageLabel = "Theft"
	CoverGlass      CoverageLabel = "Glass"
	CoverNone       CoverageLabel = "None"
)

// CoverageLabels is the canonical output order of coverage labels.
var CoverageLabels = []CoverageLabel{
	CoverOwnDamage,
	CoverThirdParty,
	CoverFire,
	CoverTheft,
	CoverGlass,
}

func (l CoverageLabel) Valid() bool {
	if l == CoverNone {
		return true
	}
	for _, known := range CoverageLabels {
		if known == l {
			return true
		}
	}
	return false
}

// RuleOutcome is one triggered rule together with the attributes the
// aggregator needs, so no downstream step re-derives them from the catalog.
type RuleOutcome struct {
	RuleID       string          `json:"rule_id"`
	Category     Category        `json:"category"`
	Seq          int             `json:"seq"`
	Effect       Effect          `json:"effect"`
	Note         string          `json:"note"`
	Followup     string          `json:"followup,omitempty"`
	Critical     bool            `json:"critical,omitempty"`
	Grants       []CoverageLabel `json:"grants,omitempty"`
	Excludes     []CoverageLabel `json:"excludes,omitempty"`
	Strength     Strength        `json:"strength,omitempty"`
	MetadataOnly bool            `json:"metadata_only,omitempty"`
}

// Signals are stage-local derived values keyed by name.
type Signals map[string]any

type StageName string

const (
	StagePolicy    StageName = "policy_applicability"
	StageIncident  StageName = "incident_legitimacy"
	StageDriver    StageName = "driver_legality"
	StageCausality StageName = "causality"
	StageEvidence  StageName = "evidence_sufficiency"
	StageLiability StageName = "liability_reference"
	StageFraud     StageName = "fraud_scoring"
)

// StageResult is the immutable output of one stage evaluator.
type StageResult struct {
	Stage     StageName     `json:"stage"`
	Category  Category      `json:"category"`
	Signals   Signals       `json:"signals"`
	Triggered []RuleOutcome `json:"triggered_rules"`
}

// CatalogInfo describes a loaded rule catalog for operators.
type CatalogInfo struct {
	Version     string     `json:"version"`
	Description string     `json:"description"`
	Available   []string   `json:"available_versions,omitempty"`
	Rules       []RuleInfo `json:"rules"`
}

type RuleInfo struct {
	ID           string          `json:"id"`
	Category     Category        `json:"category"`
	Effect       Effect          `json:"effect"`
	Kind         string          `json:"kind"`
	Source       string          `json:"source"`
	Critical     bool            `json:"critical,omitempty"`
	Grants       []CoverageLabel `json:"grants,omitempty"`
	Excludes     []CoverageLabel `json:"excludes,omitempty"`
	Strength     Strength        `json:"strength,omitempty"`
	MetadataOnly bool            `json:"metadata_only,omitempty"`
	Description  string          `json:"description,omitempty"`
}
