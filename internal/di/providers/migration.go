package providers

import (
	"sync"

	"github.com/samber/do/v2"

	"github.com/tillpoint/tillpoint-server/internal/backup"
	"github.com/tillpoint/tillpoint-server/internal/config"
	"github.com/tillpoint/tillpoint-server/internal/hierarchy"
	"github.com/tillpoint/tillpoint-server/internal/integrity"
	"github.com/tillpoint/tillpoint-server/internal/logger"
	"github.com/tillpoint/tillpoint-server/internal/migration"
	"github.com/tillpoint/tillpoint-server/internal/validation"
)

// MigrationLock is shared by every migration service so runs and restores
// never interleave.
type MigrationLock struct {
	*sync.Mutex
}

// ProvideMigrationLock provides the shared migration lock.
func ProvideMigrationLock(do.Injector) (*MigrationLock, error) {
	return &MigrationLock{Mutex: &sync.Mutex{}}, nil
}

func migrationOptions(cfg *config.Config) (backup.Options, migration.Options) {
	return backup.Options{Retention: cfg.Migration.BackupRetention},
		migration.Options{AutoRestore: cfg.Migration.AutoRestore}
}

// ProvideProductNameMigration provides the product-name migration service.
func ProvideProductNameMigration(i do.Injector) (*migration.ProductNameMigrationService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	kv := do.MustInvoke[*StoreHandle](i)
	lock := do.MustInvoke[*MigrationLock](i)

	backupOpts, opts := migrationOptions(cfg)
	return migration.NewProductNameMigrationService(kv, backupOpts, opts, lock.Mutex, log.Logger), nil
}

// ProvideHierarchyMigration provides the hierarchy enrichment migration service.
func ProvideHierarchyMigration(i do.Injector) (*migration.HierarchyMigrationService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	kv := do.MustInvoke[*StoreHandle](i)
	lock := do.MustInvoke[*MigrationLock](i)
	svc := do.MustInvoke[*hierarchy.Service](i)

	backupOpts, opts := migrationOptions(cfg)
	return migration.NewHierarchyMigrationService(kv, svc, backupOpts, opts, lock.Mutex, log.Logger), nil
}

// ProvideValidator provides the struct validator.
func ProvideValidator(do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideIntegrityChecker provides the post-migration integrity checker.
func ProvideIntegrityChecker(i do.Injector) (*integrity.Checker, error) {
	cfg := do.MustInvoke[*config.Config](i)
	svc := do.MustInvoke[*hierarchy.Service](i)
	v := do.MustInvoke[*validation.Validator](i)

	return integrity.NewChecker(svc, v, integrity.Options{PriceTolerance: cfg.Migration.PriceTolerance}), nil
}
