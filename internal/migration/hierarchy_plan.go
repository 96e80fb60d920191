package migration

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tillpoint/tillpoint-server/internal/backup"
	"github.com/tillpoint/tillpoint-server/internal/domain"
	"github.com/tillpoint/tillpoint-server/internal/hierarchy"
	"github.com/tillpoint/tillpoint-server/internal/logger"
	"github.com/tillpoint/tillpoint-server/internal/store"
)

// HierarchyTargetVersion is the version at which every cart and order item
// carries its hierarchy.
const HierarchyTargetVersion = "1.0.0"

// HierarchyPlan stamps category, product type, type and display name onto
// cart and order items.
func HierarchyPlan(svc *hierarchy.Service) Plan {
	return Plan{
		Name:          "hierarchy",
		TargetVersion: HierarchyTargetVersion,
		BaseVersion:   "0.0.0",
		Slot:          backup.HierarchySlot,
		Steps: []Step{
			recordStep(store.KeyCart, cartHierarchy(svc)),
			recordStep(store.KeyOrders, orderHierarchy(svc)),
		},
	}
}

var (
	cartHierarchyKeys  = []string{"productName", "product", "size", "type", "categoryName", "productTypeName", "displayName"}
	orderHierarchyKeys = []string{"productName", "type", "categoryName", "productTypeName"}
)

// cartHierarchy counts cart items changed.
func cartHierarchy(svc *hierarchy.Service) recordFunc {
	return func(i int, r Record) (int, error) {
		var item domain.CartItem
		if err := r.decode(&item, cartHierarchyKeys...); err != nil {
			return 0, fmt.Errorf("cart[%d]: %w", i, err)
		}
		m := svc.MigrateCartItem(item)
		changed := r.setNonEmpty("categoryName", m.CategoryName)
		changed = r.setNonEmpty("productTypeName", m.ProductTypeName) || changed
		changed = r.setNonEmpty("type", m.Type) || changed
		changed = r.setNonEmpty("displayName", m.DisplayName) || changed
		if changed {
			return 1, nil
		}
		return 0, nil
	}
}

// orderHierarchy counts orders with at least one item changed.
func orderHierarchy(svc *hierarchy.Service) recordFunc {
	return func(i int, r Record) (int, error) {
		items, ok := r["items"]
		if !ok {
			return 0, nil
		}
		out, _, changed, err := rewriteArray(items, func(k int, ir Record) (int, error) {
			var item domain.OrderItem
			if err := ir.decode(&item, orderHierarchyKeys...); err != nil {
				return 0, fmt.Errorf("items[%d]: %w", k, err)
			}
			m := svc.MigrateOrderItem(item)
			changed := ir.setNonEmpty("categoryName", m.CategoryName)
			changed = ir.setNonEmpty("productTypeName", m.ProductTypeName) || changed
			changed = ir.setNonEmpty("type", m.Type) || changed
			if changed {
				return 1, nil
			}
			return 0, nil
		})
		if err != nil {
			return 0, fmt.Errorf("orders[%d]: %w", i, err)
		}
		if changed == 0 {
			return 0, nil
		}
		r["items"] = out
		return 1, nil
	}
}

// HierarchyMigrationService enriches stored cart and order items with their
// product hierarchy.
type HierarchyMigrationService struct {
	runner *Runner
	logger *slog.Logger
}

// NewHierarchyMigrationService creates the service.
func NewHierarchyMigrationService(kv store.KV, svc *hierarchy.Service, backupOpts backup.Options, opts Options, lock *sync.Mutex, log *slog.Logger) *HierarchyMigrationService {
	log = logger.OrDiscard(log)
	backups := backup.NewService(kv, backup.HierarchySlot, backupOpts, log)
	return &HierarchyMigrationService{
		runner: NewRunner(kv, backups, HierarchyPlan(svc), opts, lock, log),
		logger: log,
	}
}

// PerformHierarchyMigration migrates the store to HierarchyTargetVersion.
func (s *HierarchyMigrationService) PerformHierarchyMigration(ctx context.Context) *Result {
	return s.runner.Run(ctx)
}

// NeedsMigration reports whether the store is below the target version.
func (s *HierarchyMigrationService) NeedsMigration(ctx context.Context) (bool, error) {
	return s.runner.NeedsMigration(ctx)
}

// GetCurrentVersion returns the persisted version.
func (s *HierarchyMigrationService) GetCurrentVersion(ctx context.Context) (string, error) {
	return s.runner.CurrentVersion(ctx)
}

// RestoreFromBackup restores the latest hierarchy backup, returning false
// when there is none.
func (s *HierarchyMigrationService) RestoreFromBackup(ctx context.Context) bool {
	b, err := s.runner.RestoreLatest(ctx)
	if err != nil {
		s.logger.Warn("restore from backup failed", "error", err)
		return false
	}
	s.logger.Info("restored from backup", "backup_id", b.ID, "version", b.Version)
	return true
}

// ListBackups lists hierarchy backups, newest first.
func (s *HierarchyMigrationService) ListBackups(ctx context.Context) ([]backup.Info, error) {
	return s.runner.ListBackups(ctx)
}
