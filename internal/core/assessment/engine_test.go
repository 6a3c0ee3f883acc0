package assessment

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/claim-assessor/internal/core/catalog"
	"github.com/kirillkom/claim-assessor/internal/core/domain"
	"github.com/kirillkom/claim-assessor/internal/core/domain/domaintest"
	"github.com/kirillkom/claim-assessor/internal/core/signals"
	"github.com/kirillkom/claim-assessor/internal/core/stages"
)

func newTestEngine(t *testing.T, branch stages.ThirdPartyBranch) *Engine {
	t.Helper()
	l, err := catalog.NewEmbeddedLoader()
	require.NoError(t, err)
	cat, err := l.Load(catalog.LatestVersion)
	require.NoError(t, err)
	store, err := catalog.NewStore(cat)
	require.NoError(t, err)
	schema, err := NewOutputSchema()
	require.NoError(t, err)
	return NewEngine(store, stages.Pipeline(signals.DefaultThresholds(), branch), NewAssembler(nil, schema, nil), nil)
}

func sameJSON(a, b *domain.ClaimAssessment) bool {
	left, err := json.Marshal(a)
	if err != nil {
		return false
	}
	right, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(left, right)
}

func auditIDs(a *domain.ClaimAssessment) []string {
	ids := make([]string, 0, len(a.AuditLog))
	for _, e := range a.AuditLog {
		ids = append(ids, e.RuleID)
	}
	return ids
}

func TestAssessScenarios(t *testing.T) {
	engine := newTestEngine(t, nil)

	tests := []struct {
		name  string
		fnol  domain.FNOL
		check func(t *testing.T, a *domain.ClaimAssessment)
	}{
		{
			name: "clean rear collision is approved straight through",
			fnol: domaintest.CleanRearCollision(),
			check: func(t *testing.T, a *domain.ClaimAssessment) {
				require.Equal(t, domain.EligibilityApproved, a.Eligibility)
				require.Equal(t, "All checks passed", a.EligibilityReason)
				require.Equal(t, []domain.CoverageLabel{domain.CoverOwnDamage}, a.CoverageApplicable)
				require.Equal(t, domain.RiskLow, a.FraudRiskLevel)
				require.Equal(t, domain.ActionProceed, a.Recommendation.Action)
				require.Empty(t, a.RequiredFollowups)
				require.Empty(t, a.ExcludedReasons)
				require.True(t, a.StraightThrough)
				require.Equal(t, domain.ImpactRear, a.DamageSummary.MainImpactArea)
				require.Equal(t, domain.SeverityModerate, a.DamageSummary.Severity)
				require.Equal(t, "rear bumper", a.DamageSummary.Parts[0].PartName)
			},
		},
		{
			name: "expired policy is rejected by critical exclusion",
			fnol: domaintest.ExpiredPolicy(),
			check: func(t *testing.T, a *domain.ClaimAssessment) {
				require.Equal(t, domain.EligibilityRejected, a.Eligibility)
				require.Equal(t, domain.ActionReject, a.Recommendation.Action)
				require.True(t, strings.HasPrefix(a.EligibilityReason, "Critical exclusion (policy.status_inactive)"), a.EligibilityReason)
				require.Equal(t, []domain.CoverageLabel{domain.CoverNone}, a.CoverageApplicable)
				require.Equal(t, []string{"Policy status is Expired at the incident date"}, a.ExcludedReasons)
				require.Equal(t, domain.RiskHigh, a.FraudRiskLevel)
				require.Contains(t, auditIDs(a), "policy.status_inactive")
				require.False(t, a.StraightThrough)
			},
		},
		{
			name: "rear narrative with front damage needs review",
			fnol: domaintest.RearNarrativeFrontDamage(),
			check: func(t *testing.T, a *domain.ClaimAssessment) {
				require.Equal(t, domain.EligibilityReview, a.Eligibility)
				require.Equal(t, domain.ActionEscalate, a.Recommendation.Action)
				require.Equal(t, domain.RiskMedium, a.FraudRiskLevel)
				require.Len(t, a.FraudFlags, 1)
				require.Contains(t, a.FraudFlags[0], "Narrative-vs-damage inconsistency")
				require.Equal(t, []domain.CoverageLabel{domain.CoverOwnDamage, domain.CoverThirdParty}, a.CoverageApplicable)
				require.Equal(t, []string{
					"causality.inconsistent",
					"liability.third_party_applicable",
					"fraud.causality_inconsistency",
				}, auditIDs(a))
			},
		},
		{
			name: "too few photos requests more evidence",
			fnol: domaintest.FewPhotos(),
			check: func(t *testing.T, a *domain.ClaimAssessment) {
				require.Equal(t, domain.EligibilityReview, a.Eligibility)
				require.Equal(t, []string{
					"Insufficient images: provide 3 more photo(s) (received 3, minimum 6)",
					"Provide a close-up photo of the damaged area",
				}, a.RequiredFollowups)
				require.Equal(t, domain.RiskLow, a.FraudRiskLevel)
				require.Equal(t, []string{"evidence.insufficient_photos", "evidence.missing_closeup"}, auditIDs(a))
				require.False(t, a.StraightThrough)
			},
		},
		{
			name: "intoxicated driver keeps third-party liability",
			fnol: domaintest.IntoxicatedDriver(),
			check: func(t *testing.T, a *domain.ClaimAssessment) {
				require.Equal(t, domain.EligibilityRejected, a.Eligibility)
				require.Equal(t, []domain.CoverageLabel{domain.CoverThirdParty}, a.CoverageApplicable)
				require.Equal(t, []string{"Driver intoxication confirmed at the time of the incident"}, a.ExcludedReasons)
				require.Equal(t, domain.RiskHigh, a.FraudRiskLevel)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, err := engine.Assess(context.Background(), tc.fnol)
			require.NoError(t, err)
			require.Empty(t, CheckInvariants(a))
			require.NotContains(t, auditIDs(a), domain.InvariantViolationRuleID)
			require.Equal(t, tc.fnol.ClaimID, a.ClaimReferenceID)
			require.Equal(t, "1.0.0", a.CatalogVersion)
			require.Len(t, a.Fingerprint, 64)
			require.NotEmpty(t, a.Recommendation.NotesForHandler)
			tc.check(t, a)
		})
	}
}

func TestAssessPhotoShortfallOutranksPartialExclusion(t *testing.T) {
	engine := newTestEngine(t, nil)
	fnol := domaintest.CleanRearCollision()
	fnol.Policy.CoverageType = domain.CoverageThirdParty
	fnol.Documents.PhotosCount = 3

	a, err := engine.Assess(context.Background(), fnol)
	require.NoError(t, err)
	require.Equal(t, domain.EligibilityReview, a.Eligibility)
	require.Equal(t, domain.ActionEscalate, a.Recommendation.Action)
	require.NotEmpty(t, a.ExcludedReasons)
	require.Contains(t, a.RequiredFollowups, "Insufficient images: provide 3 more photo(s) (received 3, minimum 6)")
	require.Empty(t, CheckInvariants(a))
}

func TestAssessIsByteIdenticalAcrossCatalogReload(t *testing.T) {
	loader, err := catalog.NewEmbeddedLoader()
	require.NoError(t, err)
	initial, err := loader.Load(catalog.LatestVersion)
	require.NoError(t, err)
	store, err := catalog.NewStore(initial)
	require.NoError(t, err)
	schema, err := NewOutputSchema()
	require.NoError(t, err)
	engine := NewEngine(store, stages.Pipeline(signals.DefaultThresholds(), nil), NewAssembler(nil, schema, nil), nil)

	fnol := domaintest.RearNarrativeFrontDamage()
	before, err := engine.Assess(context.Background(), fnol)
	require.NoError(t, err)

	reloaded, err := loader.Load(initial.Version())
	require.NoError(t, err)
	previous, err := store.Swap(reloaded)
	require.NoError(t, err)
	require.Same(t, initial, previous)

	after, err := engine.Assess(context.Background(), fnol)
	require.NoError(t, err)
	require.Equal(t, initial.Version(), after.CatalogVersion)
	require.True(t, sameJSON(before, after))
}

func TestAssessExcludeBranchRemovesThirdParty(t *testing.T) {
	engine := newTestEngine(t, stages.ExcludeThirdParty{})

	a, err := engine.Assess(context.Background(), domaintest.IntoxicatedDriver())
	require.NoError(t, err)
	require.Equal(t, domain.EligibilityRejected, a.Eligibility)
	require.Equal(t, []domain.CoverageLabel{domain.CoverNone}, a.CoverageApplicable)
}

func TestAssessMetadataSignalsAloneNeverEscalate(t *testing.T) {
	engine := newTestEngine(t, nil)
	fnol := domaintest.CleanRearCollision()
	for i := range fnol.CVResults.Captures {
		fnol.CVResults.Captures[i].ExifPresent = false
		fnol.CVResults.Captures[i].CapturedAt = "2024-06-25T10:00:00"
		lat, lon := 28.6139, 77.2090
		fnol.CVResults.Captures[i].Lat = &lat
		fnol.CVResults.Captures[i].Lon = &lon
	}

	a, err := engine.Assess(context.Background(), fnol)
	require.NoError(t, err)
	require.Equal(t, domain.EligibilityApproved, a.Eligibility)
	require.Equal(t, domain.RiskMedium, a.FraudRiskLevel)
	require.Len(t, a.FraudFlags, 3)
	require.Empty(t, a.AuditLog)
	require.False(t, a.StraightThrough)
}

func TestAssessDoesNotModifyInput(t *testing.T) {
	engine := newTestEngine(t, nil)
	fnol := domaintest.FewPhotos()
	fnol.Policy.Status = " active "
	before := domaintest.FewPhotos()
	before.Policy.Status = " active "

	_, err := engine.Assess(context.Background(), fnol)
	require.NoError(t, err)
	require.Equal(t, before, fnol)
}

func TestAssessDerivesReferenceWithoutClaimID(t *testing.T) {
	engine := newTestEngine(t, nil)
	fnol := domaintest.CleanRearCollision()
	fnol.ClaimID = ""

	a, err := engine.Assess(context.Background(), fnol)
	require.NoError(t, err)
	require.Equal(t, "CLM-"+strings.ToUpper(a.Fingerprint[:12]), a.ClaimReferenceID)

	ref, err := engine.Reference(fnol)
	require.NoError(t, err)
	require.Equal(t, a.ClaimReferenceID, ref)
}

func TestAssessHonoursCancelledContext(t *testing.T) {
	engine := newTestEngine(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a, err := engine.Assess(ctx, domaintest.CleanRearCollision())
	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, a)
}

type panickingStage struct{ stages.PolicyStage }

func (panickingStage) Evaluate(*domain.FNOL, []*catalog.Rule) domain.StageResult {
	panic("boom")
}

func TestStagePanicRoutesToReview(t *testing.T) {
	base := newTestEngine(t, nil)
	pipeline := stages.Pipeline(signals.DefaultThresholds(), nil)
	pipeline[0] = panickingStage{}
	engine := NewEngine(base.store, pipeline, base.assembler, nil)

	a, err := engine.Assess(context.Background(), domaintest.CleanRearCollision())
	require.NoError(t, err)
	require.Equal(t, domain.EligibilityReview, a.Eligibility)
	require.Contains(t, auditIDs(a), "internal.stage_failure.policy")
	require.Empty(t, CheckInvariants(a))
}

var (
	propStatuses = []domain.PolicyStatus{domain.PolicyActive, domain.PolicyExpired, domain.PolicyLapsed, domain.PolicyUnknown}
	propLicenses = []domain.LicenseStatus{domain.LicenseValid, domain.LicenseExpired, domain.LicenseSuspended, domain.LicenseUnknown}
	propFindings = []domain.Finding{domain.FindingNone, domain.FindingSuspected, domain.FindingConfirmed}
	propImpacts  = []domain.ImpactPoint{domain.ImpactFront, domain.ImpactRear, domain.ImpactLeft, domain.ImpactRight, domain.ImpactUnknown}
	propCoverage = []domain.CoverageType{domain.CoverageComprehensive, domain.CoverageOwnDamage, domain.CoverageThirdParty, domain.CoverageUnknown}
)

type claimKnobs struct {
	status, license, intox, impact, coverage, thirdParty, photos int
	withEXIF                                                     bool
}

func (k claimKnobs) fnol() domain.FNOL {
	f := domaintest.CleanRearCollision()
	f.Policy.Status = propStatuses[k.status]
	f.Policy.CoverageType = propCoverage[k.coverage]
	f.Driver.LicenseStatus = propLicenses[k.license]
	f.Driver.Intoxication = propFindings[k.intox]
	f.Incident.ImpactPoint = propImpacts[k.impact]
	f.Documents.PhotosCount = k.photos
	switch k.thirdParty {
	case 0:
		f.Incident.ThirdPartyInvolved = nil
	case 1:
		no := false
		f.Incident.ThirdPartyInvolved = &no
	default:
		yes := true
		f.Incident.ThirdPartyInvolved = &yes
	}
	for i := range f.CVResults.Captures {
		f.CVResults.Captures[i].ExifPresent = k.withEXIF
	}
	return f
}

func knobGens() []gopter.Gen {
	return []gopter.Gen{
		gen.IntRange(0, len(propStatuses)-1),
		gen.IntRange(0, len(propLicenses)-1),
		gen.IntRange(0, len(propFindings)-1),
		gen.IntRange(0, len(propImpacts)-1),
		gen.IntRange(0, len(propCoverage)-1),
		gen.IntRange(0, 2),
		gen.IntRange(0, 10),
		gen.Bool(),
	}
}

func knobs(status, license, intox, impact, coverage, thirdParty, photos int, withEXIF bool) claimKnobs {
	return claimKnobs{
		status:     status,
		license:    license,
		intox:      intox,
		impact:     impact,
		coverage:   coverage,
		thirdParty: thirdParty,
		photos:     photos,
		withEXIF:   withEXIF,
	}
}

func TestAssessmentProperties(t *testing.T) {
	engine := newTestEngine(t, nil)
	ctx := context.Background()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 150
	properties := gopter.NewProperties(parameters)

	properties.Property("same input yields byte-identical output", prop.ForAll(
		func(status, license, intox, impact, coverage, thirdParty, photos int, withEXIF bool) bool {
			fnol := knobs(status, license, intox, impact, coverage, thirdParty, photos, withEXIF).fnol()
			first, err1 := engine.Assess(ctx, fnol)
			second, err2 := engine.Assess(ctx, fnol)
			if err1 != nil || err2 != nil {
				return false
			}
			return sameJSON(first, second)
		},
		knobGens()...,
	))

	properties.Property("every assessment satisfies its invariants", prop.ForAll(
		func(status, license, intox, impact, coverage, thirdParty, photos int, withEXIF bool) bool {
			a, err := engine.Assess(ctx, knobs(status, license, intox, impact, coverage, thirdParty, photos, withEXIF).fnol())
			if err != nil {
				return false
			}
			for _, e := range a.AuditLog {
				if e.DecisionEffect == domain.EffectNoEffect || e.RuleID == domain.InvariantViolationRuleID {
					return false
				}
			}
			return len(CheckInvariants(a)) == 0 && len(a.CoverageApplicable) > 0
		},
		knobGens()...,
	))

	properties.Property("an inactive policy is always rejected", prop.ForAll(
		func(status, license, intox, impact, coverage, thirdParty, photos int, withEXIF bool) bool {
			k := knobs(status, license, intox, impact, coverage, thirdParty, photos, withEXIF)
			k.status = 1
			a, err := engine.Assess(ctx, k.fnol())
			return err == nil &&
				a.Eligibility == domain.EligibilityRejected &&
				a.CoverageApplicable[0] == domain.CoverNone &&
				a.FraudRiskLevel == domain.RiskHigh
		},
		knobGens()...,
	))

	properties.Property("too few photos go to a human unless a critical rule fired", prop.ForAll(
		func(status, license, intox, impact, coverage, thirdParty, photos int, withEXIF bool) bool {
			k := knobs(status, license, intox, impact, coverage, thirdParty, photos%6, withEXIF)
			a, err := engine.Assess(ctx, k.fnol())
			if err != nil || a.Eligibility == domain.EligibilityApproved {
				return false
			}
			if a.Eligibility == domain.EligibilityRejected && !strings.HasPrefix(a.EligibilityReason, "Critical exclusion") {
				return false
			}
			for _, f := range a.RequiredFollowups {
				if strings.HasPrefix(f, "Insufficient images") {
					return true
				}
			}
			return false
		},
		knobGens()...,
	))

	properties.Property("approval implies no open follow-ups", prop.ForAll(
		func(status, license, intox, impact, coverage, thirdParty, photos int, withEXIF bool) bool {
			a, err := engine.Assess(ctx, knobs(status, license, intox, impact, coverage, thirdParty, photos, withEXIF).fnol())
			if err != nil {
				return false
			}
			if a.Eligibility != domain.EligibilityApproved {
				return true
			}
			return len(a.RequiredFollowups) == 0 && a.CoverageApplicable[0] != domain.CoverNone
		},
		knobGens()...,
	))

	properties.TestingRun(t)
}
