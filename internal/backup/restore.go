package backup

import (
	"context"
	"fmt"

	"github.com/tillpoint/tillpoint-server/internal/store"
)

// Restore overwrites the four collections and the slot's version with the
// contents of b. Collections that were absent when b was taken are removed.
func (s *Service) Restore(ctx context.Context, b *Backup) error {
	s.logger.Info("starting restore", "id", b.ID, "version", b.Version)

	for _, key := range store.Collections() {
		value := *b.Data.field(key)
		if value == nil {
			if err := s.kv.Remove(ctx, key); err != nil {
				return fmt.Errorf("restore %s: %w", key, err)
			}
			continue
		}
		if err := s.kv.Set(ctx, key, *value); err != nil {
			return fmt.Errorf("restore %s: %w", key, err)
		}
	}

	if b.Version == "" {
		if err := s.kv.Remove(ctx, s.slot.VersionKey); err != nil {
			return fmt.Errorf("restore version: %w", err)
		}
	} else if err := s.kv.Set(ctx, s.slot.VersionKey, b.Version); err != nil {
		return fmt.Errorf("restore version: %w", err)
	}

	s.logger.Info("restore complete", "id", b.ID, "collections", b.Data.Present())
	return nil
}

// RestoreLatest restores the backup in the latest slot. Nothing is written
// when the slot is empty or cannot be decoded.
func (s *Service) RestoreLatest(ctx context.Context) (*Backup, error) {
	b, err := s.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Restore(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// RestoreByID restores a specific backup from the history.
func (s *Service) RestoreByID(ctx context.Context, backupID string) (*Backup, error) {
	b, err := s.Get(ctx, backupID)
	if err != nil {
		return nil, err
	}
	if err := s.Restore(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}
