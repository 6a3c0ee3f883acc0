package ports

import (
	"context"
	"time"

	"github.com/kirillkom/claim-assessor/internal/core/domain"
)

// AssessmentRepository persists assessments and reads them back by reference.
type AssessmentRepository interface {
	Save(ctx context.Context, record domain.AssessmentRecord) error
	GetByReference(ctx context.Context, reference string) (*domain.ClaimAssessment, error)
}

// ClaimHistoryReader lists earlier claims on the same vehicle.
type ClaimHistoryReader interface {
	ListPriorClaims(ctx context.Context, vin, registrationNumber string) ([]domain.PriorClaim, error)
}

// AssessmentCache short-circuits repeated submissions of the same FNOL.
type AssessmentCache interface {
	Get(ctx context.Context, key string) (*domain.ClaimAssessment, bool, error)
	Put(ctx context.Context, key string, assessment *domain.ClaimAssessment) error
}

// MessageQueue consumes submitted FNOLs and publishes completed assessments.
type MessageQueue interface {
	PublishAssessmentCompleted(ctx context.Context, assessment *domain.ClaimAssessment) error
	SubscribeFNOLSubmitted(ctx context.Context, handler func(context.Context, domain.FNOL) error) error
}

// NotesWriter phrases the handler notes for an assessment.
type NotesWriter interface {
	WriteNotes(ctx context.Context, brief domain.HandlerBrief) (string, error)
}

// AssessmentObserver records assessment outcomes for monitoring.
type AssessmentObserver interface {
	ObserveAssessment(assessment *domain.ClaimAssessment, duration time.Duration)
	ObserveCacheHit()
}

// FNOLSubmitter hands an FNOL to the asynchronous worker pool.
type FNOLSubmitter interface {
	PublishFNOLSubmitted(ctx context.Context, fnol domain.FNOL) error
}
