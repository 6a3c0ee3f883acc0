package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCatalog     = errors.New("invalid rule catalog")
	ErrTemporary          = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// CatalogError reports every problem found while loading one catalog version.
// It is fatal at startup and never surfaced per claim.
type CatalogError struct {
	Version string
	Issues  []string
}

func (e *CatalogError) Error() string {
	if e == nil {
		return "catalog error"
	}
	version := e.Version
	if version == "" {
		version = "unknown"
	}
	return fmt.Sprintf("catalog %s: %s", version, strings.Join(e.Issues, "; "))
}

func (e *CatalogError) Unwrap() error {
	return ErrInvalidCatalog
}
