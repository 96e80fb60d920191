package store

import (
	"context"
	"time"
)

// Lister is implemented by stores that can enumerate their keys.
type Lister interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Timestamper is implemented by stores that record when each key was last
// written.
type Timestamper interface {
	UpdatedAt(ctx context.Context, key string) (time.Time, bool, error)
}

// Summary is what a store can tell about its own contents. Fields for a
// capability the store lacks are left empty.
type Summary struct {
	Keys      []string             `json:"keys,omitempty"`
	UpdatedAt map[string]time.Time `json:"updatedAt,omitempty"`
}

// Summarize lists kv's keys and the last write time of each collection.
func Summarize(ctx context.Context, kv KV) (Summary, error) {
	var s Summary

	if l, ok := kv.(Lister); ok {
		keys, err := l.Keys(ctx, "")
		if err != nil {
			return s, err
		}
		s.Keys = keys
	}

	if ts, ok := kv.(Timestamper); ok {
		for _, key := range Collections() {
			at, found, err := ts.UpdatedAt(ctx, key)
			if err != nil {
				return s, err
			}
			if !found {
				continue
			}
			if s.UpdatedAt == nil {
				s.UpdatedAt = make(map[string]time.Time)
			}
			s.UpdatedAt[key] = at
		}
	}

	return s, nil
}
