// Package backup snapshots the persisted collections before a migration
// mutates them and restores them afterwards.
package backup

import (
	"errors"

	domainerrors "github.com/tillpoint/tillpoint-server/internal/errors"
)

var (
	// ErrBackupNotFound indicates the requested backup does not exist.
	// Any not-found error from this package matches it.
	ErrBackupNotFound = domainerrors.NotFound("backup not found")

	// ErrCorruptedBackup indicates a stored backup could not be decoded.
	ErrCorruptedBackup = errors.New("backup could not be decoded")
)
