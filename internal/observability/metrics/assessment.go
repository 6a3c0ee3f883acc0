package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/claim-assessor/internal/core/domain"
)

// AssessmentMetrics records claim outcomes and the health of outbound
// dependencies.
type AssessmentMetrics struct {
	service string

	assessmentsTotal   *prometheus.CounterVec
	assessmentDuration *prometheus.HistogramVec
	fraudFlags         *prometheus.HistogramVec
	cacheHitsTotal     *prometheus.CounterVec
	ruleTriggersTotal  *prometheus.CounterVec
	failClosedTotal    *prometheus.CounterVec
	retriesTotal       *prometheus.CounterVec
	breakerState       *prometheus.GaugeVec
}

func NewAssessmentMetrics(service string, registerer prometheus.Registerer) *AssessmentMetrics {
	assessmentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assessment",
			Name:      "total",
			Help:      "Total claim assessments by eligibility and fraud risk.",
		},
		[]string{"service", "eligibility", "fraud_risk", "catalog_version"},
	)
	assessmentDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "assessment",
			Name:      "duration_seconds",
			Help:      "Claim assessment duration in seconds, storage included.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"service"},
	)
	fraudFlags := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "assessment",
			Name:      "fraud_flags",
			Help:      "Distribution of fraud indicators per assessment.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8},
		},
		[]string{"service"},
	)
	cacheHitsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assessment",
			Name:      "cache_hits_total",
			Help:      "Total repeated submissions answered from the cache.",
		},
		[]string{"service"},
	)
	ruleTriggersTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assessment",
			Name:      "rule_triggers_total",
			Help:      "Total audited rule triggers by rule id and effect.",
		},
		[]string{"service", "rule_id", "effect"},
	)
	failClosedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assessment",
			Name:      "fail_closed_total",
			Help:      "Total assessments downgraded to review by a consistency check.",
		},
		[]string{"service"},
	)
	retriesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "retries_total",
			Help:      "Total retried calls to outbound dependencies.",
		},
		[]string{"service", "operation"},
	)
	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state per operation: 0 closed, 1 half-open, 2 open.",
		},
		[]string{"service", "operation"},
	)

	registerer.MustRegister(assessmentsTotal, assessmentDuration, fraudFlags, cacheHitsTotal, ruleTriggersTotal, failClosedTotal, retriesTotal, breakerState)

	return &AssessmentMetrics{
		service:            service,
		assessmentsTotal:   assessmentsTotal,
		assessmentDuration: assessmentDuration,
		fraudFlags:         fraudFlags,
		cacheHitsTotal:     cacheHitsTotal,
		ruleTriggersTotal:  ruleTriggersTotal,
		failClosedTotal:    failClosedTotal,
		retriesTotal:       retriesTotal,
		breakerState:       breakerState,
	}
}

func (m *AssessmentMetrics) ObserveAssessment(a *domain.ClaimAssessment, duration time.Duration) {
	if a == nil {
		return
	}
	m.assessmentsTotal.WithLabelValues(m.service, string(a.Eligibility), string(a.FraudRiskLevel), a.CatalogVersion).Inc()
	m.assessmentDuration.WithLabelValues(m.service).Observe(duration.Seconds())
	m.fraudFlags.WithLabelValues(m.service).Observe(float64(len(a.FraudFlags)))

	failedClosed := false
	for _, entry := range a.AuditLog {
		if entry.RuleID == domain.InvariantViolationRuleID {
			failedClosed = true
			continue
		}
		m.ruleTriggersTotal.WithLabelValues(m.service, entry.RuleID, string(entry.DecisionEffect)).Inc()
	}
	if failedClosed {
		m.failClosedTotal.WithLabelValues(m.service).Inc()
	}
}

func (m *AssessmentMetrics) ObserveCacheHit() {
	m.cacheHitsTotal.WithLabelValues(m.service).Inc()
}

func (m *AssessmentMetrics) ObserveRetry(operation string, _ int) {
	m.retriesTotal.WithLabelValues(m.service, operation).Inc()
}

func (m *AssessmentMetrics) ObserveBreakerState(operation string, _, to gobreaker.State) {
	var value float64
	switch to {
	case gobreaker.StateHalfOpen:
		value = 1
	case gobreaker.StateOpen:
		value = 2
	}
	m.breakerState.WithLabelValues(m.service, operation).Set(value)
}
