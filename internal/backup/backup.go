package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	domainerrors "github.com/tillpoint/tillpoint-server/internal/errors"
	"github.com/tillpoint/tillpoint-server/internal/id"
	"github.com/tillpoint/tillpoint-server/internal/logger"
	"github.com/tillpoint/tillpoint-server/internal/store"
)

// Service manages backup creation and listing for one migration slot.
type Service struct {
	kv     store.KV
	slot   Slot
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a Service.
func NewService(kv store.KV, slot Slot, opts Options, log *slog.Logger) *Service {
	return &Service{
		kv:     kv,
		slot:   slot,
		opts:   opts.normalized(),
		logger: logger.OrDiscard(log),
		now:    time.Now,
	}
}

// Slot returns the keys the service reads and writes.
func (s *Service) Slot() Slot {
	return s.slot
}

// Create snapshots the four collections, tags the snapshot with version, and
// stores it both as the latest backup and at the end of the history. The
// history is pruned to the configured retention.
func (s *Service) Create(ctx context.Context, version string) (*Backup, error) {
	var data Data
	for _, key := range store.Collections() {
		v, ok, err := s.kv.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", key, err)
		}
		if ok {
			*data.field(key) = &v
		}
	}

	backupID, err := id.Generate(id.PrefixBackup)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate backup id")
	}

	b := &Backup{
		ID:        backupID,
		Timestamp: s.now().UTC(),
		Version:   version,
		Data:      data,
	}

	encoded, err := json.Marshal(b)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "encode backup")
	}
	if err := s.kv.Set(ctx, s.slot.BackupKey, string(encoded)); err != nil {
		return nil, fmt.Errorf("store backup: %w", err)
	}

	history, err := s.history(ctx)
	if err != nil {
		s.logger.Warn("discarding unreadable backup history", "key", s.slot.HistoryKey(), "error", err)
		history = nil
	}
	history = append(history, *b)
	if excess := len(history) - s.opts.Retention; excess > 0 {
		history = history[excess:]
	}
	if err := s.writeHistory(ctx, history); err != nil {
		return nil, err
	}

	s.logger.Info("backup created",
		"id", b.ID,
		"version", b.Version,
		"collections", b.Data.Present(),
		"size", b.Data.Size(),
		"history", len(history))

	return b, nil
}

// Latest returns the backup in the latest slot.
func (s *Service) Latest(ctx context.Context) (*Backup, error) {
	raw, ok, err := s.kv.Get(ctx, s.slot.BackupKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domainerrors.NotFoundf("no backup in %s", s.slot.BackupKey)
	}

	var b Backup
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptedBackup, err)
	}
	return &b, nil
}

// Get returns a backup by ID from the history or the latest slot.
func (s *Service) Get(ctx context.Context, backupID string) (*Backup, error) {
	history, err := s.history(ctx)
	if err != nil {
		return nil, err
	}
	for i := range history {
		if history[i].ID == backupID {
			return &history[i], nil
		}
	}

	latest, err := s.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if latest.ID != backupID {
		return nil, domainerrors.NotFoundf("backup %s not found", backupID)
	}
	return latest, nil
}

// List returns all available backups, newest first.
func (s *Service) List(ctx context.Context) ([]Info, error) {
	history, err := s.history(ctx)
	if err != nil {
		return nil, err
	}

	latest, err := s.Latest(ctx)
	switch {
	case err == nil:
		if !slices.ContainsFunc(history, func(b Backup) bool { return b.ID == latest.ID }) {
			history = append(history, *latest)
		}
	case domainerrors.Is(err, ErrBackupNotFound), domainerrors.Is(err, ErrCorruptedBackup):
		latest = nil
	default:
		return nil, err
	}

	infos := make([]Info, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		info := history[i].info()
		info.Latest = latest != nil && info.ID == latest.ID
		infos = append(infos, info)
	}
	return infos, nil
}

func (s *Service) history(ctx context.Context) ([]Backup, error) {
	raw, ok, err := s.kv.Get(ctx, s.slot.HistoryKey())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var history []Backup
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		return nil, fmt.Errorf("%w: history: %v", ErrCorruptedBackup, err)
	}
	return history, nil
}

func (s *Service) writeHistory(ctx context.Context, history []Backup) error {
	encoded, err := json.Marshal(history)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "encode backup history")
	}
	if err := s.kv.Set(ctx, s.slot.HistoryKey(), string(encoded)); err != nil {
		return fmt.Errorf("store backup history: %w", err)
	}
	return nil
}
