package migration

import (
	"context"
	"log/slog"
	"time"
)

// LogEntry is one line of a run's log, kept so callers can show what
// happened without scraping the process log.
type LogEntry struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// journal writes to the logger and records every entry.
type journal struct {
	logger  *slog.Logger
	entries []LogEntry
	now     func() time.Time
}

func newJournal(logger *slog.Logger, now func() time.Time) *journal {
	return &journal{logger: logger, now: now}
}

func (j *journal) info(msg string, args ...any)  { j.log(slog.LevelInfo, msg, args...) }
func (j *journal) warn(msg string, args ...any)  { j.log(slog.LevelWarn, msg, args...) }
func (j *journal) error(msg string, args ...any) { j.log(slog.LevelError, msg, args...) }

func (j *journal) log(level slog.Level, msg string, args ...any) {
	j.logger.Log(context.Background(), level, msg, args...)

	entry := LogEntry{Time: j.now(), Level: level.String(), Message: msg}
	if len(args) > 0 {
		entry.Fields = make(map[string]any, len(args)/2)
		r := slog.NewRecord(entry.Time, level, msg, 0)
		r.Add(args...)
		r.Attrs(func(a slog.Attr) bool {
			entry.Fields[a.Key] = a.Value.Any()
			return true
		})
	}
	j.entries = append(j.entries, entry)
}
