package migration

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tillpoint/tillpoint-server/internal/backup"
	"github.com/tillpoint/tillpoint-server/internal/logger"
	"github.com/tillpoint/tillpoint-server/internal/naming"
	"github.com/tillpoint/tillpoint-server/internal/store"
)

// ProductNameTargetVersion is the version at which every stored name uses
// short codes.
const ProductNameTargetVersion = "2.0.0"

// ProductNamePlan renames legacy product names in products, orders and cart.
func ProductNamePlan() Plan {
	return Plan{
		Name:          "product-names",
		TargetVersion: ProductNameTargetVersion,
		Slot:          backup.ProductNameSlot,
		Steps: []Step{
			recordStep(store.KeyProducts, renameProduct),
			recordStep(store.KeyOrders, renameOrderItems),
			recordStep(store.KeyCart, renameCartItem),
		},
	}
}

// ValidationReport is the outcome of a post-migration scan. Parse failures
// are errors and make the report invalid; names still in legacy form are
// only warnings.
type ValidationReport struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// CollectionStats summarises one collection.
type CollectionStats struct {
	Key         string `json:"key"`
	Present     bool   `json:"present"`
	Records     int    `json:"records"`
	LegacyNames int    `json:"legacyNames"`
	Error       string `json:"error,omitempty"`
}

// Statistics describes the store's migration state.
type Statistics struct {
	CurrentVersion string            `json:"currentVersion"`
	TargetVersion  string            `json:"targetVersion"`
	NeedsMigration bool              `json:"needsMigration"`
	Collections    []CollectionStats `json:"collections"`
	NameTable      naming.Stats      `json:"nameTable"`
	Backups        int               `json:"backups"`
}

// ProductNameMigrationService renames legacy product names across the
// persisted collections.
type ProductNameMigrationService struct {
	kv     store.KV
	runner *Runner
	logger *slog.Logger
}

// NewProductNameMigrationService creates the service. Services passed the
// same lock never run or restore concurrently.
func NewProductNameMigrationService(kv store.KV, backupOpts backup.Options, opts Options, lock *sync.Mutex, log *slog.Logger) *ProductNameMigrationService {
	log = logger.OrDiscard(log)
	backups := backup.NewService(kv, backup.ProductNameSlot, backupOpts, log)
	return &ProductNameMigrationService{
		kv:     kv,
		runner: NewRunner(kv, backups, ProductNamePlan(), opts, lock, log),
		logger: log,
	}
}

// PerformProductNameMigration migrates the store to ProductNameTargetVersion.
func (s *ProductNameMigrationService) PerformProductNameMigration(ctx context.Context) *Result {
	return s.runner.Run(ctx)
}

// GetCurrentVersion returns the persisted version, or DefaultVersion.
func (s *ProductNameMigrationService) GetCurrentVersion(ctx context.Context) (string, error) {
	return s.runner.CurrentVersion(ctx)
}

// NeedsMigration reports whether the store is below the target version.
func (s *ProductNameMigrationService) NeedsMigration(ctx context.Context) (bool, error) {
	return s.runner.NeedsMigration(ctx)
}

// RestoreFromBackup restores the latest backup. It returns false, writing
// nothing, when there is no backup or it cannot be decoded.
func (s *ProductNameMigrationService) RestoreFromBackup(ctx context.Context) bool {
	b, err := s.runner.RestoreLatest(ctx)
	if err != nil {
		s.logger.Warn("restore from backup failed", "error", err)
		return false
	}
	s.logger.Info("restored from backup", "backup_id", b.ID, "version", b.Version)
	return true
}

// RestoreBackup restores a specific backup from the history.
func (s *ProductNameMigrationService) RestoreBackup(ctx context.Context, backupID string) error {
	_, err := s.runner.RestoreByID(ctx, backupID)
	return err
}

// ListBackups lists available backups, newest first.
func (s *ProductNameMigrationService) ListBackups(ctx context.Context) ([]backup.Info, error) {
	return s.runner.ListBackups(ctx)
}

// ValidateProductNameMigration scans products, orders and cart for names
// still in legacy form.
func (s *ProductNameMigrationService) ValidateProductNameMigration(ctx context.Context) ValidationReport {
	report := ValidationReport{IsValid: true, Errors: []string{}, Warnings: []string{}}
	for _, sc := range scanCollections(ctx, s.kv) {
		if sc.err != nil {
			report.IsValid = false
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", sc.key, sc.err))
			continue
		}
		report.Warnings = append(report.Warnings, sc.findings...)
	}
	return report
}

// GetMigrationStatistics reports versions, per-collection counts, the name
// table's health and the number of stored backups.
func (s *ProductNameMigrationService) GetMigrationStatistics(ctx context.Context) (*Statistics, error) {
	current, err := s.runner.CurrentVersion(ctx)
	if err != nil {
		return nil, err
	}

	st := &Statistics{
		CurrentVersion: current,
		TargetVersion:  ProductNameTargetVersion,
		NeedsMigration: CompareVersions(current, ProductNameTargetVersion) < 0,
		NameTable:      naming.Statistics(),
	}

	for _, sc := range scanCollections(ctx, s.kv) {
		cs := CollectionStats{
			Key:         sc.key,
			Present:     sc.present,
			Records:     sc.records,
			LegacyNames: len(sc.findings),
		}
		if sc.err != nil {
			cs.Error = sc.err.Error()
		}
		st.Collections = append(st.Collections, cs)
	}

	infos, err := s.runner.ListBackups(ctx)
	if err != nil {
		s.logger.Warn("listing backups failed", "error", err)
	}
	st.Backups = len(infos)

	return st, nil
}

type collectionScan struct {
	key      string
	present  bool
	records  int
	findings []string
	err      error
}

// scanCollections reports every name still in legacy form, by location.
// Members other than the names are not read.
func scanCollections(ctx context.Context, kv store.KV) []collectionScan {
	return []collectionScan{
		scan(ctx, kv, store.KeyProducts, func(i int, r Record) []string {
			if name, ok := r.String("name"); ok && naming.IsValidOldProductName(name) {
				return []string{fmt.Sprintf("products[%d]: legacy name %q", i, name)}
			}
			return nil
		}),
		scan(ctx, kv, store.KeyOrders, func(i int, r Record) []string {
			var items []Record
			if raw, ok := r["items"]; !ok || json.Unmarshal(raw, &items) != nil {
				return nil
			}
			var out []string
			for k, item := range items {
				if name, ok := item.String("productName"); ok && naming.IsValidOldProductName(name) {
					out = append(out, fmt.Sprintf("orders[%d].items[%d]: legacy name %q", i, k, name))
				}
			}
			return out
		}),
		scan(ctx, kv, store.KeyCart, func(i int, r Record) []string {
			var out []string
			for _, key := range []string{"productName", "product"} {
				if name, ok := r.String(key); ok && naming.IsValidOldProductName(name) {
					out = append(out, fmt.Sprintf("cart[%d].%s: legacy name %q", i, key, name))
				}
			}
			return out
		}),
	}
}

func scan(ctx context.Context, kv store.KV, key string, find func(int, Record) []string) collectionScan {
	sc := collectionScan{key: key}

	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		sc.err = err
		return sc
	}
	if !ok {
		return sc
	}
	sc.present = true

	var records []Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		sc.err = fmt.Errorf("parse: %w", err)
		return sc
	}
	sc.records = len(records)
	for i, r := range records {
		sc.findings = append(sc.findings, find(i, r)...)
	}
	return sc
}
