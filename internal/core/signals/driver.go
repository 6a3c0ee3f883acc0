package signals

import "github.com/kirillkom/claim-assessor/internal/core/domain"

type DriverFacts struct {
	LicenseStatus   domain.LicenseStatus
	LicenseExpiry   string
	ExpiredAtLoss   bool
	Intoxication    domain.Finding
	PolicyUsage     domain.VehicleUse
	VehicleUse      domain.VehicleUse
	UsageMismatch   bool
	LicenseDocument bool
}

func Driver(f *domain.FNOL) DriverFacts {
	d := f.Driver
	facts := DriverFacts{
		LicenseStatus:   d.LicenseStatus,
		LicenseExpiry:   d.LicenseExpiry,
		Intoxication:    d.Intoxication,
		PolicyUsage:     f.Policy.Usage,
		VehicleUse:      d.VehicleUse,
		LicenseDocument: f.Documents.DLPresent,
	}

	if expiry, ok := ParseDate(d.LicenseExpiry); ok {
		if incident, ok := ParseDate(f.Incident.Date); ok {
			facts.ExpiredAtLoss = expiry.Before(incident)
		}
	}
	facts.UsageMismatch = f.Policy.Usage == domain.UsePrivate &&
		(d.VehicleUse == domain.UseCommercial || d.VehicleUse == domain.UseRideshare)
	return facts
}

func (d DriverFacts) Map() map[string]any {
	return map[string]any{
		"license_status":   string(d.LicenseStatus),
		"license_expiry":   d.LicenseExpiry,
		"expired_at_loss":  d.ExpiredAtLoss,
		"intoxication":     string(d.Intoxication),
		"policy_usage":     string(d.PolicyUsage),
		"vehicle_use":      string(d.VehicleUse),
		"usage_mismatch":   d.UsageMismatch,
		"license_document": d.LicenseDocument,
	}
}
