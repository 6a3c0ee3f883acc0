package usecase

import (
	"log/slog"

	"github.com/kirillkom/claim-assessor/internal/core/catalog"
	"github.com/kirillkom/claim-assessor/internal/core/domain"
)

// CatalogUseCase describes the active rule catalog and swaps in another
// version. Runs already in flight keep the catalog they pinned.
type CatalogUseCase struct {
	loader *catalog.Loader
	store  *catalog.Store
	logger *slog.Logger
}

func NewCatalogUseCase(loader *catalog.Loader, store *catalog.Store, logger *slog.Logger) *CatalogUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogUseCase{loader: loader, store: store, logger: logger}
}

func (uc *CatalogUseCase) Describe() domain.CatalogInfo {
	info := uc.store.Current().Info()
	if versions, err := uc.loader.Versions(); err == nil {
		info.Available = versions
	}
	return info
}

// Reload compiles the requested version (a semver constraint, or "latest")
// and makes it current. On error the current catalog stays in place.
func (uc *CatalogUseCase) Reload(version string) (domain.CatalogInfo, error) {
	next, err := uc.loader.Load(version)
	if err != nil {
		return domain.CatalogInfo{}, err
	}
	previous, err := uc.store.Swap(next)
	if err != nil {
		return domain.CatalogInfo{}, err
	}
	uc.logger.Info("catalog_reloaded",
		"previous_version", previous.Version(),
		"version", next.Version(),
		"rules", len(next.Rules()),
	)
	return uc.Describe(), nil
}
