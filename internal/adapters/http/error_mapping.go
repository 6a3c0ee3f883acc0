package httpadapter

import (
	"context"
	"errors"
	"net/http"

	"github.com/kirillkom/claim-assessor/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrAssessmentNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrInvalidCatalog):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
