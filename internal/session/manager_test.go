package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqlitestore "timerless/internal/storage/sqlite"
)

func newManager(t *testing.T, gen Generator) *Manager {
	t.Helper()
	store := sqlitestore.NewSQLiteStore(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() { store.Close() })
	return NewManager(store, gen)
}

func TestUUIDv7Generator(t *testing.T) {
	token := UUIDv7Generator{}.Generate()
	parsed, err := uuid.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.NotEqual(t, token, UUIDv7Generator{}.Generate())
}

func TestFixedGeneratorExhaustion(t *testing.T) {
	gen := NewFixedGenerator("a")
	assert.Equal(t, "a", gen.Generate())
	assert.Panics(t, func() { gen.Generate() })
}

func TestCurrentCreatesOnce(t *testing.T) {
	m := newManager(t, NewFixedGenerator("s1", "s2"))
	ctx := context.Background()

	tok, err := m.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s1", tok)

	tok, err = m.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s1", tok)
}

func TestRotateChangesCurrent(t *testing.T) {
	m := newManager(t, NewFixedGenerator("s1", "s2", "s3"))
	ctx := context.Background()

	_, err := m.Current(ctx)
	require.NoError(t, err)

	rotated, err := m.Rotate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s2", rotated)

	cur, err := m.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s2", cur)

	cleared, err := m.ClearAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s3", cleared)
}

func TestDefaultGeneratorIsUUIDv7(t *testing.T) {
	m := newManager(t, nil)
	tok, err := m.Current(context.Background())
	require.NoError(t, err)
	_, err = uuid.Parse(tok)
	assert.NoError(t, err)
}
