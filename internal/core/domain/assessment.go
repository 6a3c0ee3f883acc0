package domain

import "time"

type Eligibility string

const (
	EligibilityApproved Eligibility = "Approved"
	EligibilityRejected Eligibility = "Rejected"
	EligibilityReview   Eligibility = "Review"
)

type Action string

const (
	ActionProceed  Action = "Proceed_With_Claim"
	ActionReject   Action = "Reject_Claim"
	ActionEscalate Action = "Escalate_To_Human"
)

// ActionFor maps an eligibility verdict onto its recommended action.
func ActionFor(e Eligibility) Action {
	switch e {
	case EligibilityApproved:
		return ActionProceed
	case EligibilityRejected:
		return ActionReject
	default:
		return ActionEscalate
	}
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// InvariantViolationRuleID marks the synthetic audit entry added when an
// assessment fails its consistency checks.
const InvariantViolationRuleID = "internal.invariant_violation"

type ClaimAssessment struct {
	ClaimReferenceID   string          `json:"claim_reference_id"`
	Eligibility        Eligibility     `json:"eligibility"`
	EligibilityReason  string          `json:"eligibility_reason"`
	CoverageApplicable []CoverageLabel `json:"coverage_applicable"`
	ExcludedReasons    []string        `json:"excluded_reasons"`
	RequiredFollowups  []string        `json:"required_followups"`
	FraudRiskLevel     RiskLevel       `json:"fraud_risk_level"`
	FraudFlags         []string        `json:"fraud_flags"`
	DamageSummary      DamageSummary   `json:"damage_summary"`
	Recommendation     Recommendation  `json:"recommendation"`
	AuditLog           []AuditEntry    `json:"audit_log"`
	CatalogVersion     string          `json:"catalog_version"`
	StraightThrough    bool            `json:"straight_through"`
	Fingerprint        string          `json:"fingerprint"`
}

type DamageSummary struct {
	MainImpactArea ImpactPoint  `json:"main_impact_area"`
	Severity       Severity     `json:"severity"`
	Parts          []DamagePart `json:"parts"`
}

type DamagePart struct {
	PartName string   `json:"part_name"`
	Severity Severity `json:"severity"`
}

type Recommendation struct {
	Action          Action `json:"action"`
	NotesForHandler string `json:"notes_for_handler"`
}

type AuditEntry struct {
	RuleID         string `json:"rule_id"`
	DecisionEffect Effect `json:"decision_effect"`
	Note           string `json:"note"`
}

// AssessmentRecord is a stored assessment plus the vehicle keys used to look
// up claim history for later FNOLs.
type AssessmentRecord struct {
	Assessment         ClaimAssessment
	VIN                string
	RegistrationNumber string
	IncidentDate       string
	Parts              []string
	Odometer           *float64
	CreatedAt          time.Time
}

// HandlerBrief is the structured input for handler notes.
type HandlerBrief struct {
	ClaimReferenceID  string
	Eligibility       Eligibility
	EligibilityReason string
	Coverage          []CoverageLabel
	ExcludedReasons   []string
	Followups         []string
	FraudRiskLevel    RiskLevel
	FraudFlags        []string
	Damage            DamageSummary
	IncidentType      IncidentType
	Description       string
}
