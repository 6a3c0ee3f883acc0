// Package domaintest provides FNOL fixtures shared by tests.
package domaintest

import "github.com/kirillkom/claim-assessor/internal/core/domain"

func ptr[T any](v T) *T { return &v }

// CleanRearCollision is a complete own-damage claim that passes every check:
// active comprehensive policy, rear impact matching the detected damage,
// eight photos with overall and close-up views, estimate attached and no
// third party.
func CleanRearCollision() domain.FNOL {
	return domain.FNOL{
		ClaimID: "CLM-A-0001",
		Source:  "email",
		Workshop: domain.Workshop{
			ID:    "WS-17",
			Name:  "Northside Auto Body",
			Email: "claims@northside.example",
			Phone: "+1-555-0100",
		},
		Vehicle: domain.Vehicle{
			VIN:                "MA3EWDE1S00123456",
			RegistrationNumber: "KA01AB1234",
			Make:               "Maruti",
			Model:              "Swift",
			Year:               ptr(2021),
			Odometer:           ptr(42000.0),
		},
		Policy: domain.Policy{
			PolicyID:     "POL-1001",
			Status:       domain.PolicyActive,
			CoverageType: domain.CoverageComprehensive,
			Addons:       []string{},
			Usage:        domain.UsePrivate,
			StartDate:    "2024-01-01",
			EndDate:      "2024-12-31",
		},
		Driver: domain.Driver{
			LicenseStatus: domain.LicenseValid,
			LicenseExpiry: "2030-01-01",
			Intoxication:  domain.FindingNone,
			VehicleUse:    domain.UsePrivate,
		},
		Incident: domain.Incident{
			Date:               "2024-06-15",
			Time:               "18:30",
			Location:           "MG Road, Bengaluru",
			Coordinates:        &domain.Coordinates{Lat: 12.9756, Lon: 77.6050},
			ImpactPoint:        domain.ImpactRear,
			Type:               domain.IncidentCollision,
			Description:        "I was reversing out of a parking bay and backed into a concrete post, damaging the rear bumper and the trunk lid.",
			ThirdPartyInvolved: ptr(false),
			IntentionalDamage:  domain.FindingNone,
		},
		Documents: domain.Documents{
			DLPresent:       true,
			RCPresent:       true,
			PhotosCount:     8,
			EstimatePresent: true,
			EstimateAmount:  ptr(1800.0),
		},
		CVResults: domain.CVResults{
			DamagedParts: []domain.DamagedPart{
				{PartName: "rear bumper", DamageType: "dent", Severity: domain.SeverityModerate, AreaRatio: 0.22},
				{PartName: "trunk lid", DamageType: "scratch", Severity: domain.SeverityMinor, AreaRatio: 0.08},
			},
			LicensePlateOCR:          ptr("KA01AB1234"),
			OdometerOCR:              ptr(42010.0),
			ConsistencyWithIncident:  domain.ConsistencyConsistent,
			PreexistingDamageSignals: []string{},
			Captures: []domain.Capture{
				{ImageID: "img-1", View: domain.ViewOverall, ExifPresent: true, CapturedAt: "2024-06-15T18:45:00", Lat: ptr(12.9757), Lon: ptr(77.6051)},
				{ImageID: "img-2", View: domain.ViewCloseUp, ExifPresent: true, CapturedAt: "2024-06-15T18:46:00", Lat: ptr(12.9757), Lon: ptr(77.6051)},
				{ImageID: "img-3", View: domain.ViewPlate, ExifPresent: true, CapturedAt: "2024-06-15T18:47:00", Lat: ptr(12.9757), Lon: ptr(77.6051)},
			},
		},
		ClaimHistory: []domain.PriorClaim{},
	}
}

// ExpiredPolicy is CleanRearCollision under an expired policy.
func ExpiredPolicy() domain.FNOL {
	f := CleanRearCollision()
	f.ClaimID = "CLM-B-0002"
	f.Policy.Status = domain.PolicyExpired
	return f
}

// RearNarrativeFrontDamage reports a rear impact while the images show only
// front damage.
func RearNarrativeFrontDamage() domain.FNOL {
	f := CleanRearCollision()
	f.ClaimID = "CLM-C-0003"
	f.Incident.Description = "I was stopped at a traffic light when another car rear-ended me and pushed my car forward."
	f.Incident.ThirdPartyInvolved = ptr(true)
	f.Documents.PoliceReportPresent = true
	f.Documents.EstimateAmount = ptr(1400.0)
	f.CVResults.DamagedParts = []domain.DamagedPart{
		{PartName: "front bumper", DamageType: "crack", Severity: domain.SeverityModerate, AreaRatio: 0.3},
	}
	return f
}

// FewPhotos has three photos and no close-up view.
func FewPhotos() domain.FNOL {
	f := CleanRearCollision()
	f.ClaimID = "CLM-D-0004"
	f.Documents.PhotosCount = 3
	for i := range f.CVResults.DamagedParts {
		f.CVResults.DamagedParts[i].AreaRatio = 0.05
	}
	f.CVResults.Captures = []domain.Capture{f.CVResults.Captures[0]}
	return f
}

// IntoxicatedDriver has confirmed intoxication and a third party involved.
func IntoxicatedDriver() domain.FNOL {
	f := CleanRearCollision()
	f.ClaimID = "CLM-E-0005"
	f.Driver.Intoxication = domain.FindingConfirmed
	f.Incident.ThirdPartyInvolved = ptr(true)
	f.Documents.PoliceReportPresent = true
	return f
}
