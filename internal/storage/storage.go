package storage

import (
	"context"
	"time"
)

// CycleRow is one persisted cycle record in its serialized form.
type CycleRow struct {
	ID          int64
	SessionID   string
	CommittedAt time.Time
	Payload     []byte
}

type Storage interface {
	Init(ctx context.Context) error

	// Key/value settings (the active session token lives here).
	GetValue(ctx context.Context, key string) (string, bool, error)
	SetValue(ctx context.Context, key, value string) error

	AppendCycle(ctx context.Context, sessionID string, committedAt time.Time, payload []byte) (int64, error)
	GetCycles(ctx context.Context, sessionID string) ([]CycleRow, error)
	ClearCycles(ctx context.Context, sessionID string) error

	GetNotes(ctx context.Context, sessionID string) (string, error)
	SaveNotes(ctx context.Context, sessionID, body string) error
	ClearNotes(ctx context.Context, sessionID string) error

	GetCheckpoint(ctx context.Context, sessionID string) ([]byte, bool, error)
	SaveCheckpoint(ctx context.Context, sessionID string, payload []byte) error
	ClearCheckpoint(ctx context.Context, sessionID string) error

	// WipeAll removes every locally keyed row: cycles, notes, checkpoints and settings.
	WipeAll(ctx context.Context) error

	Close() error
}
