package domain

type ImpactPoint string

const (
	ImpactFront    ImpactPoint = "Front"
	ImpactRear     ImpactPoint = "Rear"
	ImpactLeft     ImpactPoint = "Left"
	ImpactRight    ImpactPoint = "Right"
	ImpactMultiple ImpactPoint = "Multiple"
	ImpactUnknown  ImpactPoint = "Unknown"
)

type IncidentType string

const (
	IncidentCollision IncidentType = "Collision"
	IncidentFire      IncidentType = "Fire"
	IncidentTheft     IncidentType = "Theft"
	IncidentGlassOnly IncidentType = "GlassOnly"
	IncidentVandalism IncidentType = "Vandalism"
	IncidentFlood     IncidentType = "Flood"
	IncidentOther     IncidentType = "Other"
)

type CoverageType string

const (
	CoverageComprehensive CoverageType = "COMP"
	CoverageOwnDamage     CoverageType = "OD"
	CoverageThirdParty    CoverageType = "TPL"
	CoverageFireTheft     CoverageType = "FT"
	CoverageGlass         CoverageType = "GC"
	CoverageUnknown       CoverageType = "Unknown"
)

type PolicyStatus string

const (
	PolicyActive    PolicyStatus = "Active"
	PolicyExpired   PolicyStatus = "Expired"
	PolicyLapsed    PolicyStatus = "Lapsed"
	PolicyCancelled PolicyStatus = "Cancelled"
	PolicySuspended PolicyStatus = "Suspended"
	PolicyUnknown   PolicyStatus = "Unknown"
)

// VehicleUse is shared by the policy's declared usage and the driver's actual use.
type VehicleUse string

const (
	UsePrivate    VehicleUse = "Private"
	UseCommercial VehicleUse = "Commercial"
	UseRideshare  VehicleUse = "Rideshare"
	UseUnknown    VehicleUse = "Unknown"
)

type LicenseStatus string

const (
	LicenseValid     LicenseStatus = "Valid"
	LicenseExpired   LicenseStatus = "Expired"
	LicenseInvalid   LicenseStatus = "Invalid"
	LicenseSuspended LicenseStatus = "Suspended"
	LicenseUnknown   LicenseStatus = "Unknown"
)

// Finding grades a condition reported by an investigator or upstream system.
type Finding string

const (
	FindingNone      Finding = "None"
	FindingSuspected Finding = "Suspected"
	FindingConfirmed Finding = "Confirmed"
	FindingUnknown   Finding = "Unknown"
)

type Severity string

const (
	SeverityMinor     Severity = "Minor"
	SeverityModerate  Severity = "Moderate"
	SeveritySevere    Severity = "Severe"
	SeverityTotalLoss Severity = "TotalLoss"
	SeverityUnknown   Severity = "Unknown"
)

// Rank orders severities; unknown ranks lowest.
func (s Severity) Rank() int {
	switch s {
	case SeverityMinor:
		return 1
	case SeverityModerate:
		return 2
	case SeveritySevere:
		return 3
	case SeverityTotalLoss:
		return 4
	default:
		return 0
	}
}

type CaptureView string

const (
	ViewOverall CaptureView = "Overall"
	ViewCloseUp CaptureView = "CloseUp"
	ViewPlate   CaptureView = "Plate"
	ViewUnknown CaptureView = "Unknown"
)

type Consistency string

const (
	ConsistencyConsistent   Consistency = "consistent"
	ConsistencyInconsistent Consistency = "inconsistent"
	ConsistencyUnknown      Consistency = "unknown"
)

// FNOL is the normalized first notice of loss consumed by one assessment run.
type FNOL struct {
	ClaimID      string       `json:"claim_id"`
	Source       string       `json:"source"`
	Workshop     Workshop     `json:"workshop"`
	Vehicle      Vehicle      `json:"vehicle"`
	Policy       Policy       `json:"policy"`
	Driver       Driver       `json:"driver"`
	Incident     Incident     `json:"incident"`
	Documents    Documents    `json:"documents"`
	CVResults    CVResults    `json:"cv_results"`
	ClaimHistory []PriorClaim `json:"claim_history"`
}

type Workshop struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Vehicle struct {
	VIN                string   `json:"vin"`
	RegistrationNumber string   `json:"registration_number"`
	Make               string   `json:"make"`
	Model              string   `json:"model"`
	Year               *int     `json:"year"`
	Odometer           *float64 `json:"odometer"`
}

type Policy struct {
	PolicyID     string       `json:"policy_id"`
	Status       PolicyStatus `json:"status"`
	CoverageType CoverageType `json:"coverage_type"`
	Addons       []string     `json:"addons"`
	Usage        VehicleUse   `json:"usage"`
	StartDate    string       `json:"start_date"`
	EndDate      string       `json:"end_date"`
}

type Driver struct {
	LicenseStatus LicenseStatus `json:"license_status"`
	LicenseExpiry string        `json:"license_expiry"`
	Intoxication  Finding       `json:"intoxication"`
	VehicleUse    VehicleUse    `json:"vehicle_use"`
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type Incident struct {
	Date               string       `json:"date"`
	Time               string       `json:"time"`
	Location           string       `json:"location"`
	Coordinates        *Coordinates `json:"coordinates"`
	ImpactPoint        ImpactPoint  `json:"impact_point"`
	Type               IncidentType `json:"type"`
	Description        string       `json:"description"`
	ThirdPartyInvolved *bool        `json:"third_party_involved"`
	ThirdPartyInjury   bool         `json:"third_party_injury"`
	IntentionalDamage  Finding      `json:"intentional_damage"`
}

type Documents struct {
	PoliceReportPresent bool     `json:"police_report_present"`
	DLPresent           bool     `json:"dl_present"`
	RCPresent           bool     `json:"rc_present"`
	PhotosCount         int      `json:"photos_count"`
	EstimatePresent     bool     `json:"estimate_present"`
	EstimateAmount      *float64 `json:"estimate_amount"`
}

type DamagedPart struct {
	PartName   string   `json:"part_name"`
	DamageType string   `json:"damage_type"`
	Severity   Severity `json:"severity"`
	AreaRatio  float64  `json:"area_ratio"`
}

type Capture struct {
	ImageID     string      `json:"image_id"`
	View        CaptureView `json:"view"`
	ExifPresent bool        `json:"exif_present"`
	CapturedAt  string      `json:"captured_at"`
	Lat         *float64    `json:"lat"`
	Lon         *float64    `json:"lon"`
}

type CVResults struct {
	DamagedParts             []DamagedPart `json:"damaged_parts"`
	LicensePlateOCR          *string       `json:"license_plate_ocr"`
	VINOCR                   *string       `json:"vin_ocr"`
	OdometerOCR              *float64      `json:"odometer_ocr"`
	ConsistencyWithIncident  Consistency   `json:"consistency_with_incident"`
	PreexistingDamageSignals []string      `json:"preexisting_damage_signals"`
	Captures                 []Capture     `json:"captures"`
}

// PriorClaim is an earlier claim on the same vehicle.
type PriorClaim struct {
	ClaimReferenceID string   `json:"claim_reference_id"`
	IncidentDate     string   `json:"incident_date"`
	Parts            []string `json:"parts"`
	Odometer         *float64 `json:"odometer"`
}
