// Package di provides dependency injection configuration for the tillpoint tools.
package di

import (
	"github.com/samber/do/v2"

	"github.com/tillpoint/tillpoint-server/internal/catalog"
	"github.com/tillpoint/tillpoint-server/internal/config"
	"github.com/tillpoint/tillpoint-server/internal/di/providers"
	"github.com/tillpoint/tillpoint-server/internal/hierarchy"
	"github.com/tillpoint/tillpoint-server/internal/integrity"
	"github.com/tillpoint/tillpoint-server/internal/logger"
	"github.com/tillpoint/tillpoint-server/internal/migration"
)

// NewContainer creates and configures the DI container with all providers.
// args are the command-line arguments, without the program name.
func NewContainer(args []string) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ConfigProvider(args))
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)

	// Catalog layer
	do.Provide(injector, providers.ProvideCatalog)
	do.Provide(injector, providers.ProvideHierarchyService)

	// Migration layer
	do.Provide(injector, providers.ProvideMigrationLock)
	do.Provide(injector, providers.ProvideProductNameMigration)
	do.Provide(injector, providers.ProvideHierarchyMigration)

	// Checks
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideIntegrityChecker)

	return injector
}

// Bootstrap initializes all services.
// This triggers lazy initialization so configuration, catalog and store
// errors surface before any command runs.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*catalog.Catalog](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*hierarchy.Service](injector)

	_ = do.MustInvoke[*migration.ProductNameMigrationService](injector)
	_ = do.MustInvoke[*migration.HierarchyMigrationService](injector)
	_ = do.MustInvoke[*integrity.Checker](injector)

	return nil
}
