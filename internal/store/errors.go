package store

import (
	domainerrors "github.com/tillpoint/tillpoint-server/internal/errors"
)

// ErrClosed is the cause of every error returned by a closed store.
var ErrClosed = domainerrors.New("store is closed")

func readErr(key string, err error) error {
	return domainerrors.Storagef(err, "read %q", key)
}

func writeErr(key string, err error) error {
	return domainerrors.Storagef(err, "write %q", key)
}

func removeErr(key string, err error) error {
	return domainerrors.Storagef(err, "remove %q", key)
}
