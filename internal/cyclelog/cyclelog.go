// Package cyclelog is the append-only history of completed cycles, scoped to
// the active session identity. Read paths never fail: missing history reads
// as empty and corrupt rows are skipped. Write failures are logged and returned so the caller
// can surface them, but they are never fatal and are never retried.
package cyclelog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"timerless/internal/cycle"
	"timerless/internal/storage"
)

// Identity resolves the active session token.
type Identity interface {
	Current(ctx context.Context) (string, error)
}

type Log struct {
	store storage.Storage
	ids   Identity
	now   func() time.Time
}

func New(store storage.Storage, ids Identity) *Log {
	return &Log{store: store, ids: ids, now: time.Now}
}

// Append adds a completed record to the end of the active session's log.
func (l *Log) Append(ctx context.Context, rec cycle.Record) error {
	if !rec.Complete() {
		return cycle.ErrIncomplete
	}
	sid, err := l.ids.Current(ctx)
	if err != nil {
		log.Printf("Error resolving session for cycle append: %v", err)
		return err
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode cycle: %w", err)
	}
	if _, err := l.store.AppendCycle(ctx, sid, l.now(), payload); err != nil {
		log.Printf("Error saving cycle for session %s: %v", sid, err)
		return err
	}
	log.Printf("Cycle committed: session=%s work=%s", sid, rec.Work.Actual().Round(time.Second))
	return nil
}

// ReadAll returns the active session's records in commit order. Rows that
// cannot be decoded or are incomplete are logged and skipped.
func (l *Log) ReadAll(ctx context.Context) []cycle.Record {
	sid, err := l.ids.Current(ctx)
	if err != nil {
		log.Printf("Warning: cannot resolve session, reading empty history: %v", err)
		return []cycle.Record{}
	}
	rows, err := l.store.GetCycles(ctx, sid)
	if err != nil {
		log.Printf("Warning: cannot read cycle history for session %s: %v", sid, err)
		return []cycle.Record{}
	}

	records := make([]cycle.Record, 0, len(rows))
	for _, row := range rows {
		var rec cycle.Record
		if err := json.Unmarshal(row.Payload, &rec); err != nil {
			log.Printf("Warning: skipping corrupt cycle for session %s (row %d): %v", sid, row.ID, err)
			continue
		}
		if !rec.Complete() {
			log.Printf("Warning: skipping incomplete cycle for session %s (row %d)", sid, row.ID)
			continue
		}
		records = append(records, rec)
	}
	return records
}

// Clear empties the active session's log only.
func (l *Log) Clear(ctx context.Context) error {
	sid, err := l.ids.Current(ctx)
	if err != nil {
		return err
	}
	return l.store.ClearCycles(ctx, sid)
}

func (l *Log) SaveCheckpoint(ctx context.Context, cp cycle.Checkpoint) error {
	sid, err := l.ids.Current(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	return l.store.SaveCheckpoint(ctx, sid, payload)
}

// LoadCheckpoint returns the saved reconstructor state for the active
// session. A missing or unreadable checkpoint reports false.
func (l *Log) LoadCheckpoint(ctx context.Context) (cycle.Checkpoint, bool) {
	sid, err := l.ids.Current(ctx)
	if err != nil {
		log.Printf("Warning: cannot resolve session for checkpoint: %v", err)
		return cycle.Checkpoint{}, false
	}
	payload, ok, err := l.store.GetCheckpoint(ctx, sid)
	if err != nil {
		log.Printf("Warning: cannot read checkpoint for session %s: %v", sid, err)
		return cycle.Checkpoint{}, false
	}
	if !ok {
		return cycle.Checkpoint{}, false
	}
	var cp cycle.Checkpoint
	if err := json.Unmarshal(payload, &cp); err != nil {
		log.Printf("Warning: corrupt checkpoint for session %s: %v", sid, err)
		return cycle.Checkpoint{}, false
	}
	return cp, true
}

func (l *Log) ClearCheckpoint(ctx context.Context) error {
	sid, err := l.ids.Current(ctx)
	if err != nil {
		return err
	}
	return l.store.ClearCheckpoint(ctx, sid)
}

func (l *Log) Notes(ctx context.Context) (string, error) {
	sid, err := l.ids.Current(ctx)
	if err != nil {
		return "", err
	}
	return l.store.GetNotes(ctx, sid)
}

func (l *Log) SaveNotes(ctx context.Context, body string) error {
	sid, err := l.ids.Current(ctx)
	if err != nil {
		return err
	}
	return l.store.SaveNotes(ctx, sid, body)
}

func (l *Log) ClearNotes(ctx context.Context) error {
	sid, err := l.ids.Current(ctx)
	if err != nil {
		return err
	}
	return l.store.ClearNotes(ctx, sid)
}
