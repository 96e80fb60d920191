package providers

import (
	"github.com/samber/do/v2"

	"github.com/tillpoint/tillpoint-server/internal/catalog"
	"github.com/tillpoint/tillpoint-server/internal/config"
	"github.com/tillpoint/tillpoint-server/internal/hierarchy"
	"github.com/tillpoint/tillpoint-server/internal/logger"
)

// ProvideCatalog provides the product catalog: the configured file, or the
// built-in catalog when none is set.
func ProvideCatalog(i do.Injector) (*catalog.Catalog, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Catalog.Path == "" {
		return catalog.Default(), nil
	}

	c, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	log.Debug("Catalog loaded", "path", cfg.Catalog.Path, "entries", c.Len())
	return c, nil
}

// ProvideHierarchyService builds the hierarchy table from the catalog.
func ProvideHierarchyService(i do.Injector) (*hierarchy.Service, error) {
	c := do.MustInvoke[*catalog.Catalog](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := hierarchy.NewServiceFromCatalog(c)
	if unreachable := svc.Table().UnreachableAliases(); len(unreachable) > 0 {
		log.Debug("Hierarchy table has unreachable aliases", "count", len(unreachable))
	}
	return svc, nil
}
