package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/tillpoint/tillpoint-server/internal/config"
	"github.com/tillpoint/tillpoint-server/internal/logger"
	"github.com/tillpoint/tillpoint-server/internal/store"
	"github.com/tillpoint/tillpoint-server/internal/store/sqlite"
)

type closableKV interface {
	store.KV
	Close() error
}

// StoreHandle wraps the configured key-value store with shutdown capability.
type StoreHandle struct {
	store.KV
	close func() error
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.close()
}

// ProvideStore opens the store selected by the configured backend.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	var (
		kv  closableKV
		err error
	)
	switch cfg.Store.Backend {
	case config.BackendBadger:
		kv, err = store.New(cfg.Store.Path, log.Logger)
	case config.BackendSQLite:
		kv, err = sqlite.Open(cfg.Store.Path, log.Logger)
	case config.BackendMemory:
		kv = store.NewMemory(nil)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	if err != nil {
		return nil, err
	}

	log.Debug("Store opened", "backend", cfg.Store.Backend, "path", cfg.Store.Path)

	return &StoreHandle{KV: kv, close: kv.Close}, nil
}
