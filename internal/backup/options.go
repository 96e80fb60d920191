package backup

import (
	"github.com/tillpoint/tillpoint-server/internal/store"
)

// DefaultRetention is how many backups the history keeps by default.
const DefaultRetention = 5

// Slot names the keys one migration keeps its backups and version under.
// The history list lives at BackupKey + "s".
type Slot struct {
	BackupKey  string
	VersionKey string
}

// HistoryKey returns the key of the appendable backup list.
func (s Slot) HistoryKey() string {
	return s.BackupKey + "s"
}

// Slots of the two independently versioned migrations.
var (
	ProductNameSlot = Slot{BackupKey: store.KeyProductNameBackup, VersionKey: store.KeyProductNameVersion}
	HierarchySlot   = Slot{BackupKey: store.KeyHierarchyBackup, VersionKey: store.KeyHierarchyVersion}
)

// Options configures a backup Service.
type Options struct {
	Retention int // Backups kept in the history, at least 1
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{Retention: DefaultRetention}
}

func (o Options) normalized() Options {
	if o.Retention < 1 {
		o.Retention = DefaultRetention
	}
	return o
}
