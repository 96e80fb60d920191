package main

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/tillpoint/tillpoint-server/internal/backup"
	"github.com/tillpoint/tillpoint-server/internal/di/providers"
	"github.com/tillpoint/tillpoint-server/internal/hierarchy"
	"github.com/tillpoint/tillpoint-server/internal/integrity"
	"github.com/tillpoint/tillpoint-server/internal/migration"
	"github.com/tillpoint/tillpoint-server/internal/report"
	"github.com/tillpoint/tillpoint-server/internal/store"
)

type command func(ctx context.Context, e *env) error

//nolint:gochecknoglobals // Command table
var commands = map[string]command{
	"migrate":           runMigrate,
	"migrate-hierarchy": runMigrateHierarchy,
	"validate":          runValidate,
	"check":             runCheck,
	"restore":           runRestore,
	"backups":           runBackups,
	"stats":             runStats,
	"report":            runReport,
	"seed":              runSeed,
}

func resultError(res *migration.Result) error {
	if res.Success {
		return nil
	}
	return fmt.Errorf("%s migration failed with %d error(s)", res.Plan, len(res.Errors))
}

func runMigrate(ctx context.Context, e *env) error {
	svc := do.MustInvoke[*migration.ProductNameMigrationService](e.injector)
	res := svc.PerformProductNameMigration(ctx)
	if err := e.print(res); err != nil {
		return err
	}
	return resultError(res)
}

func runMigrateHierarchy(ctx context.Context, e *env) error {
	svc := do.MustInvoke[*migration.HierarchyMigrationService](e.injector)
	res := svc.PerformHierarchyMigration(ctx)
	if err := e.print(res); err != nil {
		return err
	}
	return resultError(res)
}

func runValidate(ctx context.Context, e *env) error {
	svc := do.MustInvoke[*migration.ProductNameMigrationService](e.injector)
	rep := svc.ValidateProductNameMigration(ctx)
	if err := e.print(rep); err != nil {
		return err
	}
	if !rep.IsValid {
		return fmt.Errorf("validation found %d error(s)", len(rep.Errors))
	}
	return nil
}

func runCheck(ctx context.Context, e *env) error {
	checker := do.MustInvoke[*integrity.Checker](e.injector)
	kv := do.MustInvoke[*providers.StoreHandle](e.injector)

	rep := checker.CheckStore(ctx, kv)
	if err := e.print(rep); err != nil {
		return err
	}
	if !rep.IsValid {
		return fmt.Errorf("integrity check found %d error(s)", len(rep.Errors))
	}
	return nil
}

func runRestore(ctx context.Context, e *env) error {
	svc := do.MustInvoke[*migration.ProductNameMigrationService](e.injector)

	switch len(e.args) {
	case 0:
		if !svc.RestoreFromBackup(ctx) {
			return backup.ErrBackupNotFound
		}
		return e.print(map[string]any{"restored": true})
	case 1:
		if err := svc.RestoreBackup(ctx, e.args[0]); err != nil {
			return err
		}
		return e.print(map[string]any{"restored": true, "backupId": e.args[0]})
	default:
		return errUsage
	}
}

func runBackups(ctx context.Context, e *env) error {
	names := do.MustInvoke[*migration.ProductNameMigrationService](e.injector)
	tree := do.MustInvoke[*migration.HierarchyMigrationService](e.injector)

	nameBackups, err := names.ListBackups(ctx)
	if err != nil {
		return err
	}
	treeBackups, err := tree.ListBackups(ctx)
	if err != nil {
		return err
	}
	return e.print(map[string][]backup.Info{
		"productNames": nameBackups,
		"hierarchy":    treeBackups,
	})
}

type statsOutput struct {
	ProductNames       *migration.Statistics   `json:"productNames"`
	HierarchyVersion   string                  `json:"hierarchyVersion"`
	HierarchyNeeded    bool                    `json:"hierarchyMigrationNeeded"`
	UnreachableAliases []hierarchy.AliasStatus `json:"unreachableAliases"`
	Store              store.Summary           `json:"store"`
}

func runStats(ctx context.Context, e *env) error {
	names := do.MustInvoke[*migration.ProductNameMigrationService](e.injector)
	tree := do.MustInvoke[*migration.HierarchyMigrationService](e.injector)
	svc := do.MustInvoke[*hierarchy.Service](e.injector)

	st, err := names.GetMigrationStatistics(ctx)
	if err != nil {
		return err
	}
	version, err := tree.GetCurrentVersion(ctx)
	if err != nil {
		return err
	}
	needed, err := tree.NeedsMigration(ctx)
	if err != nil {
		return err
	}
	summary, err := store.Summarize(ctx, do.MustInvoke[*providers.StoreHandle](e.injector).KV)
	if err != nil {
		return err
	}

	return e.print(statsOutput{
		ProductNames:       st,
		HierarchyVersion:   version,
		HierarchyNeeded:    needed,
		UnreachableAliases: svc.Table().UnreachableAliases(),
		Store:              summary,
	})
}

func runReport(ctx context.Context, e *env) error {
	if len(e.args) != 1 {
		return errUsage
	}

	names := do.MustInvoke[*migration.ProductNameMigrationService](e.injector)
	checker := do.MustInvoke[*integrity.Checker](e.injector)
	kv := do.MustInvoke[*providers.StoreHandle](e.injector)

	st, err := names.GetMigrationStatistics(ctx)
	if err != nil {
		return err
	}
	validation := names.ValidateProductNameMigration(ctx)

	if err := report.Write(e.args[0], st, &validation, checker.CheckStore(ctx, kv)); err != nil {
		return err
	}
	return e.print(map[string]string{"report": e.args[0]})
}
