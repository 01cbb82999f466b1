package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"timerless/internal/storage"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

func NewSQLiteStore(dbPath string) storage.Storage {
	return &SQLiteStore{dbPath: dbPath}
}

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS cycles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	committed_at DATETIME NOT NULL,
	payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cycles_session ON cycles (session_id, id);
CREATE TABLE IF NOT EXISTS notes (
	session_id TEXT PRIMARY KEY,
	body TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS checkpoints (
	session_id TEXT PRIMARY KEY,
	payload TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);
`

func (s *SQLiteStore) Init(ctx context.Context) error {
	dir := filepath.Dir(s.dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create db directory %s: %w", dir, err)
	}

	log.Printf("Initializing SQLite database at: %s", s.dbPath)
	db, err := sql.Open("sqlite3", s.dbPath+"?_journal=WAL&_timeout=5000&_fk=true")
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	s.db = db

	// SQLite is best with a single writer connection
	s.db.SetMaxOpenConns(1)
	s.db.SetMaxIdleConns(1)
	s.db.SetConnMaxLifetime(time.Minute * 5)

	if err := s.db.PingContext(ctx); err != nil {
		s.db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, createTablesSQL); err != nil {
		s.db.Close()
		return fmt.Errorf("failed to create tables: %w", err)
	}
	log.Println("Database initialized successfully.")
	return nil
}

func (s *SQLiteStore) GetValue(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) SetValue(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) AppendCycle(ctx context.Context, sessionID string, committedAt time.Time, payload []byte) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO cycles (session_id, committed_at, payload) VALUES (?, ?, ?)`,
		sessionID, committedAt, string(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to insert cycle: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) GetCycles(ctx context.Context, sessionID string) ([]storage.CycleRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, committed_at, payload FROM cycles
		 WHERE session_id = ? ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycles: %w", err)
	}
	defer rows.Close()

	var out []storage.CycleRow
	for rows.Next() {
		var r storage.CycleRow
		var payload string
		if err := rows.Scan(&r.ID, &r.SessionID, &r.CommittedAt, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan cycle row: %w", err)
		}
		r.Payload = []byte(payload)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cycle rows: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) ClearCycles(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cycles WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to clear cycles: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetNotes(ctx context.Context, sessionID string) (string, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM notes WHERE session_id = ?`, sessionID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read notes: %w", err)
	}
	return body, nil
}

func (s *SQLiteStore) SaveNotes(ctx context.Context, sessionID, body string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (session_id, body, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		sessionID, body, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save notes: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ClearNotes(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to clear notes: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetCheckpoint(ctx context.Context, sessionID string) ([]byte, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM checkpoints WHERE session_id = ?`, sessionID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	return []byte(payload), true, nil
}

func (s *SQLiteStore) SaveCheckpoint(ctx context.Context, sessionID string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO checkpoints (session_id, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		sessionID, string(payload), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ClearCheckpoint(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to clear checkpoint: %w", err)
	}
	return nil
}

func (s *SQLiteStore) WipeAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin wipe: %w", err)
	}
	for _, table := range []string{"cycles", "notes", "checkpoints", "kv"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to wipe %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit wipe: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		log.Println("Closing database connection.")
		return s.db.Close()
	}
	return nil
}
