package migration

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tillpoint/tillpoint-server/internal/backup"
	domainerrors "github.com/tillpoint/tillpoint-server/internal/errors"
	"github.com/tillpoint/tillpoint-server/internal/id"
	"github.com/tillpoint/tillpoint-server/internal/logger"
	"github.com/tillpoint/tillpoint-server/internal/store"
)

// Step rewrites one collection. Migrate receives the stored value and
// returns the value to store, how many records it saw, and how many of
// them it changed. When changed is 0 nothing is written back.
type Step struct {
	Key     string
	Migrate func(raw string) (out string, records, changed int, err error)
}

// Plan is a versioned set of steps.
type Plan struct {
	Name          string
	TargetVersion string
	// BaseVersion is assumed when no version is persisted. Empty means
	// DefaultVersion.
	BaseVersion string
	Slot        backup.Slot
	Steps       []Step
}

// Options configures a Runner.
type Options struct {
	// AutoRestore restores the pre-run backup after a critical failure.
	AutoRestore bool
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{AutoRestore: true}
}

// CollectionReport is the outcome of one step.
type CollectionReport struct {
	Key      string        `json:"key"`
	Present  bool          `json:"present"`
	Records  int           `json:"records"`
	Changed  int           `json:"changed"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Result is the outcome of a run.
type Result struct {
	RunID       string             `json:"runId"`
	Plan        string             `json:"plan"`
	Success     bool               `json:"success"`
	Skipped     bool               `json:"skipped"`
	FromVersion string             `json:"fromVersion"`
	ToVersion   string             `json:"toVersion"`
	BackupID    string             `json:"backupId,omitempty"`
	Collections []CollectionReport `json:"collections,omitempty"`
	Errors      []string           `json:"errors,omitempty"`
	Critical    bool               `json:"critical"`
	Restored    bool               `json:"restored"`
	Duration    time.Duration      `json:"duration"`
	Log         []LogEntry         `json:"log"`
}

// Runner executes a Plan against a store. Runners sharing a lock never
// interleave a version check, backup, mutation, commit, or restore.
type Runner struct {
	kv      store.KV
	backups *backup.Service
	plan    Plan
	opts    Options
	lock    *sync.Mutex
	logger  *slog.Logger
	now     func() time.Time
}

// NewRunner creates a Runner. A nil lock gives the runner a lock of its own.
func NewRunner(kv store.KV, backups *backup.Service, plan Plan, opts Options, lock *sync.Mutex, log *slog.Logger) *Runner {
	if lock == nil {
		lock = &sync.Mutex{}
	}
	return &Runner{
		kv:      kv,
		backups: backups,
		plan:    plan,
		opts:    opts,
		lock:    lock,
		logger:  logger.OrDiscard(log).With("plan", plan.Name),
		now:     time.Now,
	}
}

// Plan returns the plan the runner executes.
func (r *Runner) Plan() Plan {
	return r.plan
}

// CurrentVersion returns the persisted version, or the plan's base version.
func (r *Runner) CurrentVersion(ctx context.Context) (string, error) {
	v, ok, err := r.kv.Get(ctx, r.plan.Slot.VersionKey)
	if err != nil {
		return "", err
	}
	if ok && v != "" {
		return v, nil
	}
	if r.plan.BaseVersion != "" {
		return r.plan.BaseVersion, nil
	}
	return DefaultVersion, nil
}

// NeedsMigration reports whether the persisted version is below the target.
func (r *Runner) NeedsMigration(ctx context.Context) (bool, error) {
	current, err := r.CurrentVersion(ctx)
	if err != nil {
		return false, err
	}
	return CompareVersions(current, r.plan.TargetVersion) < 0, nil
}

// Run migrates the store to the plan's target version:
//
//  1. a store already at or above the target is left alone
//  2. a backup is taken; if that fails nothing else happens
//  3. every step runs, and a failing step does not stop the others
//  4. the version advances only when no step failed
//  5. a failure outside the steps restores the backup when AutoRestore is set
//
// Cancelling ctx stops a run only before the backup is taken. From then on
// the run finishes, and so does any restore it triggers.
func (r *Runner) Run(ctx context.Context) *Result {
	r.lock.Lock()
	defer r.lock.Unlock()

	start := r.now()
	res := &Result{Plan: r.plan.Name, ToVersion: r.plan.TargetVersion}

	runID, err := id.Generate(id.PrefixRun)
	if err != nil {
		runID = "run-unknown"
	}
	res.RunID = runID

	j := newJournal(r.logger.With("run_id", runID), r.now)
	defer func() {
		res.Duration = r.now().Sub(start)
		res.Log = j.entries
	}()

	current, err := r.CurrentVersion(ctx)
	if err != nil {
		j.error("reading version failed", "error", err)
		res.Errors = append(res.Errors, fmt.Sprintf("read version: %v", err))
		return res
	}
	res.FromVersion = current

	if CompareVersions(current, r.plan.TargetVersion) >= 0 {
		j.info("already migrated", "version", current, "target", r.plan.TargetVersion)
		res.Success = true
		res.Skipped = true
		return res
	}

	j.info("starting migration", "from", current, "to", r.plan.TargetVersion)

	b, err := r.backups.Create(ctx, current)
	if err != nil {
		j.error("backup failed, aborting", "error", err)
		res.Errors = append(res.Errors, fmt.Sprintf("create backup: %v", err))
		return res
	}
	res.BackupID = b.ID
	j.info("backup created", "backup_id", b.ID)

	ctx = context.WithoutCancel(ctx)

	if err := r.apply(ctx, j, res); err != nil {
		r.critical(ctx, j, res, b, err)
		return res
	}

	if len(res.Errors) > 0 {
		j.warn("migration incomplete, version not advanced", "errors", len(res.Errors), "version", current)
		return res
	}

	if err := r.kv.Set(ctx, r.plan.Slot.VersionKey, r.plan.TargetVersion); err != nil {
		r.critical(ctx, j, res, b, domainerrors.Critical(err, "commit version"))
		return res
	}

	res.Success = true
	j.info("migration complete", "version", r.plan.TargetVersion)
	return res
}

// apply runs every step, collecting step failures in res.Errors. It returns
// an error only for a failure no step could contain.
func (r *Runner) apply(ctx context.Context, j *journal, res *Result) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = domainerrors.Critical(fmt.Errorf("panic: %v", p), "migration step panicked")
		}
	}()

	for _, step := range r.plan.Steps {
		report := r.runStep(ctx, step)
		res.Collections = append(res.Collections, report)

		if report.Error != "" {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %s", step.Key, report.Error))
			j.error("collection failed", "collection", step.Key, "error", report.Error)
			continue
		}
		j.info("collection migrated",
			"collection", step.Key,
			"present", report.Present,
			"records", report.Records,
			"changed", report.Changed,
			"duration", report.Duration)
	}
	return nil
}

func (r *Runner) runStep(ctx context.Context, step Step) (report CollectionReport) {
	start := r.now()
	report.Key = step.Key
	defer func() { report.Duration = r.now().Sub(start) }()

	raw, ok, err := r.kv.Get(ctx, step.Key)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	if !ok {
		return report
	}
	report.Present = true

	out, records, changed, err := step.Migrate(raw)
	report.Records = records
	if err != nil {
		report.Error = err.Error()
		return report
	}
	if changed == 0 {
		return report
	}

	if err := r.kv.Set(ctx, step.Key, out); err != nil {
		report.Error = err.Error()
		return report
	}
	report.Changed = changed
	return report
}

func (r *Runner) critical(ctx context.Context, j *journal, res *Result, b *backup.Backup, cause error) {
	res.Critical = true
	res.Success = false
	res.Errors = append(res.Errors, cause.Error())
	j.error("critical migration failure", "error", cause)

	if !r.opts.AutoRestore {
		j.warn("automatic restore disabled", "backup_id", b.ID)
		return
	}

	if err := r.backups.Restore(ctx, b); err != nil {
		j.error("automatic restore failed", "backup_id", b.ID, "error", err)
		res.Errors = append(res.Errors, fmt.Sprintf("restore: %v", err))
		return
	}
	res.Restored = true
	j.info("automatic restore succeeded", "backup_id", b.ID)
}

// RestoreLatest restores the most recent backup of the plan's slot under
// the runner's lock.
func (r *Runner) RestoreLatest(ctx context.Context) (*backup.Backup, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.backups.RestoreLatest(ctx)
}

// RestoreByID restores a specific backup under the runner's lock.
func (r *Runner) RestoreByID(ctx context.Context, backupID string) (*backup.Backup, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.backups.RestoreByID(ctx, backupID)
}

// ListBackups lists the plan's backups, newest first.
func (r *Runner) ListBackups(ctx context.Context) ([]backup.Info, error) {
	return r.backups.List(ctx)
}
