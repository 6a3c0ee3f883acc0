package decision

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kirillkom/claim-assessor/internal/core/domain"
)

func stage(category domain.Category, outcomes ...domain.RuleOutcome) domain.StageResult {
	for i := range outcomes {
		outcomes[i].Category = category
	}
	return domain.StageResult{Category: category, Signals: domain.Signals{}, Triggered: outcomes}
}

func grant(id string, seq int, labels ...domain.CoverageLabel) domain.RuleOutcome {
	return domain.RuleOutcome{RuleID: id, Seq: seq, Effect: domain.EffectNoEffect, Note: id, Grants: labels}
}

func flagged(id string, seq int, followup string) domain.RuleOutcome {
	return domain.RuleOutcome{RuleID: id, Seq: seq, Effect: domain.EffectFlagged, Note: id + " note", Followup: followup}
}

func rejected(id string, seq int, critical bool, excludes ...domain.CoverageLabel) domain.RuleOutcome {
	return domain.RuleOutcome{RuleID: id, Seq: seq, Effect: domain.EffectRejected, Note: id + " note", Critical: critical, Excludes: excludes}
}

func fraud(id string, seq int, strength domain.Strength, metadataOnly bool) domain.RuleOutcome {
	effect := domain.EffectFlagged
	if strength == domain.StrengthWeak {
		effect = domain.EffectNoEffect
	}
	return domain.RuleOutcome{
		RuleID:       id,
		Seq:          seq,
		Effect:       effect,
		Note:         id + " note",
		Followup:     id + " followup",
		Strength:     strength,
		MetadataOnly: metadataOnly,
	}
}

func TestCriticalExclusionOutranksFlags(t *testing.T) {
	agg := Aggregate([]domain.StageResult{
		stage(domain.CategoryPolicy, grant("policy.scope", 1, domain.CoverOwnDamage)),
		stage(domain.CategoryDriver, rejected("driver.intox", 10, true, domain.CoverOwnDamage)),
		stage(domain.CategoryEvidence, flagged("evidence.photos", 20, "more photos"), flagged("evidence.closeup", 21, "close-up")),
	})

	require.Equal(t, domain.EligibilityRejected, agg.Eligibility)
	require.Equal(t, domain.ActionReject, agg.Action)
	require.Equal(t, "critical_exclusion", agg.Rule)
	require.Equal(t, []string{"driver.intox note"}, agg.ExcludedReasons)
	require.Equal(t, []domain.CoverageLabel{domain.CoverNone}, agg.Coverage)
	require.Equal(t, []string{"more photos", "close-up"}, agg.Followups)
}

func TestNoCoverageRemainingRejects(t *testing.T) {
	agg := Aggregate([]domain.StageResult{
		stage(domain.CategoryPolicy, rejected("policy.cause", 6, false, domain.CoverFire)),
	})
	require.Equal(t, domain.EligibilityRejected, agg.Eligibility)
	require.Equal(t, "no_coverage_remaining", agg.Rule)
	require.Equal(t, []string{"policy.cause note"}, agg.ExcludedReasons)
}

func TestFlagsOutrankNonCriticalRejection(t *testing.T) {
	agg := Aggregate([]domain.StageResult{
		stage(domain.CategoryPolicy, rejected("policy.cause", 6, false, domain.CoverFire)),
		stage(domain.CategoryEvidence, flagged("evidence.photos", 20, "more photos")),
	})
	require.Equal(t, domain.EligibilityReview, agg.Eligibility)
	require.Equal(t, domain.ActionEscalate, agg.Action)
	require.Equal(t, "review_on_ambiguity", agg.Rule)
	require.Equal(t, []string{"policy.cause note"}, agg.ExcludedReasons)
	require.Equal(t, []string{"more photos"}, agg.Followups)
	require.Equal(t, []domain.CoverageLabel{domain.CoverNone}, agg.Coverage)
}

func TestPartialExclusionKeepsRemainingCoverage(t *testing.T) {
	agg := Aggregate([]domain.StageResult{
		stage(domain.CategoryPolicy, grant("policy.scope", 5, domain.CoverOwnDamage)),
		stage(domain.CategoryLiability, domain.RuleOutcome{
			RuleID: "liability.tp", Seq: 30, Effect: domain.EffectApproved, Note: "tp", Grants: []domain.CoverageLabel{domain.CoverThirdParty},
		}),
		stage(domain.CategoryDriver, rejected("driver.usage", 12, false, domain.CoverOwnDamage)),
	})
	require.Equal(t, []domain.CoverageLabel{domain.CoverThirdParty}, agg.Coverage)
	require.Equal(t, domain.EligibilityApproved, agg.Eligibility)
	require.Equal(t, []string{"driver.usage note"}, agg.ExcludedReasons)
}

func TestReviewOutranksApproval(t *testing.T) {
	agg := Aggregate([]domain.StageResult{
		stage(domain.CategoryPolicy, grant("policy.scope", 1, domain.CoverOwnDamage)),
		stage(domain.CategoryCausality, flagged("causality.inconsistent", 15, "reconcile")),
	})
	require.Equal(t, domain.EligibilityReview, agg.Eligibility)
	require.Equal(t, domain.ActionEscalate, agg.Action)
	require.Equal(t, "review_on_ambiguity", agg.Rule)
	require.Equal(t, []domain.CoverageLabel{domain.CoverOwnDamage}, agg.Coverage)
}

func TestReviewWithoutCoverageAddsFollowup(t *testing.T) {
	agg := Aggregate([]domain.StageResult{stage(domain.CategoryPolicy)})
	require.Equal(t, domain.EligibilityReview, agg.Eligibility)
	require.Equal(t, []string{coverageFollowup}, agg.Followups)
	require.Equal(t, []domain.CoverageLabel{domain.CoverNone}, agg.Coverage)
}

func TestDefaultApprove(t *testing.T) {
	agg := Aggregate([]domain.StageResult{
		stage(domain.CategoryPolicy, grant("policy.scope", 1, domain.CoverOwnDamage)),
	})
	require.Equal(t, domain.EligibilityApproved, agg.Eligibility)
	require.Equal(t, domain.ActionProceed, agg.Action)
	require.Equal(t, "default_approve", agg.Rule)
	require.Empty(t, agg.Followups)
	require.Empty(t, agg.ExcludedReasons)
}

func TestPrecedenceRulesAreIndependent(t *testing.T) {
	critical := Folded{Outcomes: []domain.RuleOutcome{rejected("x", 1, true)}}
	_, ok := criticalExclusion(critical)
	require.True(t, ok)
	_, ok = criticalExclusion(Folded{Outcomes: []domain.RuleOutcome{rejected("x", 1, false)}})
	require.False(t, ok)

	_, ok = noCoverageRemaining(Folded{
		Outcomes: []domain.RuleOutcome{rejected("x", 1, false)},
		Coverage: []domain.CoverageLabel{domain.CoverGlass},
	})
	require.False(t, ok)

	_, ok = reviewOnAmbiguity(Folded{
		Outcomes: []domain.RuleOutcome{flagged("f", 1, "x")},
		Coverage: []domain.CoverageLabel{domain.CoverGlass},
	})
	require.True(t, ok)
	_, ok = reviewOnAmbiguity(Folded{Outcomes: []domain.RuleOutcome{rejected("x", 1, false)}})
	require.False(t, ok)
	require.Equal(t, "review_on_ambiguity", Precedence[1].Name)

	v, ok := defaultApprove(Folded{})
	require.True(t, ok)
	require.Equal(t, domain.EligibilityApproved, v.Eligibility)
	require.Equal(t, "default_approve", Precedence[len(Precedence)-1].Name)
}

func TestExcludedReasonsDedupByRuleInCatalogOrder(t *testing.T) {
	agg := Aggregate([]domain.StageResult{
		stage(domain.CategoryDriver, rejected("driver.b", 9, true, domain.CoverOwnDamage)),
		stage(domain.CategoryPolicy, rejected("policy.a", 2, true), rejected("policy.a", 2, true)),
	})
	require.Equal(t, []string{"policy.a note", "driver.b note"}, agg.ExcludedReasons)
}

func TestFollowupsDedupByText(t *testing.T) {
	agg := Aggregate([]domain.StageResult{
		stage(domain.CategoryEvidence, flagged("evidence.a", 20, "same"), flagged("evidence.b", 21, "other")),
		stage(domain.CategoryIncident, flagged("incident.a", 8, "same")),
	})
	require.Equal(t, []string{"same", "other"}, agg.Followups)
}

func TestAssessRisk(t *testing.T) {
	tests := []struct {
		name    string
		results []domain.StageResult
		want    domain.RiskLevel
	}{
		{name: "nothing", want: domain.RiskLow},
		{
			name:    "single weak",
			results: []domain.StageResult{stage(domain.CategoryFraud, fraud("w", 1, domain.StrengthWeak, false))},
			want:    domain.RiskLow,
		},
		{
			name: "all metadata signals",
			results: []domain.StageResult{stage(domain.CategoryFraud,
				fraud("exif", 1, domain.StrengthWeak, true),
				fraud("drift", 2, domain.StrengthWeak, true),
				fraud("gps", 3, domain.StrengthWeak, true),
			)},
			want: domain.RiskMedium,
		},
		{
			name: "metadata mislabelled strong stays weak",
			results: []domain.StageResult{stage(domain.CategoryFraud,
				fraud("exif", 1, domain.StrengthStrong, true),
				fraud("gps", 2, domain.StrengthStrong, true),
			)},
			want: domain.RiskMedium,
		},
		{
			name:    "one moderate",
			results: []domain.StageResult{stage(domain.CategoryFraud, fraud("m", 1, domain.StrengthModerate, false))},
			want:    domain.RiskMedium,
		},
		{
			name:    "one strong",
			results: []domain.StageResult{stage(domain.CategoryFraud, fraud("s", 1, domain.StrengthStrong, false))},
			want:    domain.RiskMedium,
		},
		{
			name: "two strong",
			results: []domain.StageResult{stage(domain.CategoryFraud,
				fraud("s1", 1, domain.StrengthStrong, false),
				fraud("s2", 2, domain.StrengthStrong, false),
			)},
			want: domain.RiskHigh,
		},
		{
			name:    "critical exclusion",
			results: []domain.StageResult{stage(domain.CategoryPolicy, rejected("policy.inactive", 1, true))},
			want:    domain.RiskHigh,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, AssessRisk(tc.results).Level)
		})
	}
}

func TestFraudFlagsFollowCatalogOrder(t *testing.T) {
	risk := AssessRisk([]domain.StageResult{stage(domain.CategoryFraud,
		fraud("b", 41, domain.StrengthStrong, false),
		fraud("a", 40, domain.StrengthModerate, false),
	)})
	require.Equal(t, []string{"a note", "b note"}, risk.Flags)
}

func TestBuildAuditLogOrderAndFilter(t *testing.T) {
	results := []domain.StageResult{
		stage(domain.CategoryFraud, fraud("fraud.x", 40, domain.StrengthModerate, false), fraud("fraud.weak", 41, domain.StrengthWeak, true)),
		stage(domain.CategoryEvidence, flagged("evidence.b", 21, "b"), flagged("evidence.a", 20, "a")),
		stage(domain.CategoryPolicy, grant("policy.scope", 1, domain.CoverOwnDamage), rejected("policy.cause", 2, false, domain.CoverFire)),
	}
	log := BuildAuditLog(results)

	ids := make([]string, 0, len(log))
	for _, e := range log {
		ids = append(ids, e.RuleID)
	}
	require.Equal(t, []string{"policy.cause", "evidence.a", "evidence.b", "fraud.x"}, ids)
	require.Equal(t, domain.EffectRejected, log[0].DecisionEffect)
}

func TestAuditLogIndependentOfStageOrder(t *testing.T) {
	a := stage(domain.CategoryPolicy, rejected("policy.cause", 2, false, domain.CoverFire))
	b := stage(domain.CategoryEvidence, flagged("evidence.a", 20, "a"))
	c := stage(domain.CategoryFraud, fraud("fraud.x", 40, domain.StrengthModerate, false))

	require.Equal(t,
		BuildAuditLog([]domain.StageResult{a, b, c}),
		BuildAuditLog([]domain.StageResult{c, a, b}),
	)
	require.Equal(t,
		Aggregate([]domain.StageResult{a, b, c}),
		Aggregate([]domain.StageResult{b, c, a}),
	)
}
