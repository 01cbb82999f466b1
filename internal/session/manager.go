package session

import (
	"context"
	"fmt"
	"log"

	"timerless/internal/storage"
)

// ActiveKey is the settings key holding the active session token.
const ActiveKey = "session_id"

// Manager owns the rotating session identity that partitions local history.
type Manager struct {
	store storage.Storage
	gen   Generator
}

func NewManager(store storage.Storage, gen Generator) *Manager {
	if gen == nil {
		gen = UUIDv7Generator{}
	}
	return &Manager{store: store, gen: gen}
}

// Current returns the active token, creating and persisting one on first use.
func (m *Manager) Current(ctx context.Context) (string, error) {
	token, ok, err := m.store.GetValue(ctx, ActiveKey)
	if err != nil {
		return "", fmt.Errorf("failed to read session token: %w", err)
	}
	if ok && token != "" {
		return token, nil
	}

	token = m.gen.Generate()
	if err := m.store.SetValue(ctx, ActiveKey, token); err != nil {
		return "", fmt.Errorf("failed to persist session token: %w", err)
	}
	log.Printf("Created session %s", token)
	return token, nil
}

// Rotate makes a fresh token active and empties its cycle log and checkpoint.
// History recorded under the previous token stays in storage but is no
// longer reachable through Current.
func (m *Manager) Rotate(ctx context.Context) (string, error) {
	token := m.gen.Generate()
	if err := m.store.SetValue(ctx, ActiveKey, token); err != nil {
		return "", fmt.Errorf("failed to persist session token: %w", err)
	}
	if err := m.store.ClearCycles(ctx, token); err != nil {
		return token, fmt.Errorf("failed to clear cycle log for session %s: %w", token, err)
	}
	if err := m.store.ClearCheckpoint(ctx, token); err != nil {
		return token, fmt.Errorf("failed to clear checkpoint for session %s: %w", token, err)
	}
	log.Printf("Rotated to session %s", token)
	return token, nil
}

// ClearAll wipes every locally keyed row, notes included, then rotates.
func (m *Manager) ClearAll(ctx context.Context) (string, error) {
	if err := m.store.WipeAll(ctx); err != nil {
		return "", fmt.Errorf("failed to clear local data: %w", err)
	}
	return m.Rotate(ctx)
}

// Static is an Identity pinned to a known token. It never creates or rotates
// sessions, so read-only callers cannot change the stored identity.
type Static string

func (s Static) Current(context.Context) (string, error) {
	return string(s), nil
}
