package ports

import (
	"context"

	"github.com/kirillkom/claim-assessor/internal/core/domain"
)

// ClaimAssessor is the inbound contract for assessing one FNOL record.
type ClaimAssessor interface {
	Assess(ctx context.Context, fnol domain.FNOL) (*domain.ClaimAssessment, error)
}

// AssessmentReader is the inbound read model for stored assessments.
type AssessmentReader interface {
	GetByReference(ctx context.Context, reference string) (*domain.ClaimAssessment, error)
}

// CatalogManager exposes the active rule catalog and reloads it.
type CatalogManager interface {
	Describe() domain.CatalogInfo
	Reload(version string) (domain.CatalogInfo, error)
}
