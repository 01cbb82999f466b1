package cyclelog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timerless/internal/cycle"
	"timerless/internal/event"
	"timerless/internal/session"
	"timerless/internal/storage"
	sqlitestore "timerless/internal/storage/sqlite"
)

var t0 = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func setup(t *testing.T, tokens ...string) (*Log, *session.Manager, storage.Storage) {
	t.Helper()
	store := sqlitestore.NewSQLiteStore(filepath.Join(t.TempDir(), "cycles.db"))
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() { store.Close() })

	ids := session.NewManager(store, session.NewFixedGenerator(tokens...))
	return New(store, ids), ids, store
}

func record(workSecs int) cycle.Record {
	end := t0.Add(time.Duration(workSecs) * time.Second)
	return cycle.Record{Work: cycle.Span{Start: t0, End: &end}}
}

func TestAppendAndReadAll(t *testing.T) {
	l, _, _ := setup(t, "s1")
	ctx := context.Background()

	assert.Empty(t, l.ReadAll(ctx))

	brkEnd := t0.Add(1800 * time.Second)
	withBreak := record(1500)
	withBreak.Break = &cycle.BreakSpan{
		Span: cycle.Span{Start: t0.Add(1500 * time.Second), End: &brkEnd},
		Kind: event.BreakLong,
	}
	require.NoError(t, l.Append(ctx, withBreak))
	require.NoError(t, l.Append(ctx, record(1400)))

	got := l.ReadAll(ctx)
	require.Len(t, got, 2)
	assert.Equal(t, 1500*time.Second, got[0].Work.Actual())
	require.NotNil(t, got[0].Break)
	assert.Equal(t, event.BreakLong, got[0].Break.Kind)
	assert.Equal(t, 300*time.Second, got[0].Break.Actual())
	assert.Equal(t, 1400*time.Second, got[1].Work.Actual())
	assert.Nil(t, got[1].Break)
}

func TestAppendAcceptsOpenBreak(t *testing.T) {
	l, _, _ := setup(t, "s1")
	ctx := context.Background()

	rec := record(1500)
	rec.Break = &cycle.BreakSpan{Span: cycle.Span{Start: t0.Add(1500 * time.Second)}}
	require.NoError(t, l.Append(ctx, rec))

	got := l.ReadAll(ctx)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Break)
	assert.Nil(t, got[0].Break.End)
}

func TestAppendRejectsIncomplete(t *testing.T) {
	l, _, _ := setup(t, "s1")
	err := l.Append(context.Background(), cycle.Record{Work: cycle.Span{Start: t0}})
	assert.ErrorIs(t, err, cycle.ErrIncomplete)
	assert.Empty(t, l.ReadAll(context.Background()))
}

func TestCorruptRowIsSkipped(t *testing.T) {
	l, ids, store := setup(t, "s1")
	ctx := context.Background()
	require.NoError(t, l.Append(ctx, record(100)))

	sid, err := ids.Current(ctx)
	require.NoError(t, err)
	_, err = store.AppendCycle(ctx, sid, time.Now(), []byte(`{"work": {"start_ts": `))
	require.NoError(t, err)

	got := l.ReadAll(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, 100*time.Second, got[0].Work.Actual())
}

func TestAppendAfterCorruptRowStaysVisible(t *testing.T) {
	l, ids, store := setup(t, "s1")
	ctx := context.Background()
	sid, err := ids.Current(ctx)
	require.NoError(t, err)
	_, err = store.AppendCycle(ctx, sid, time.Now(), []byte("garbage"))
	require.NoError(t, err)
	assert.Empty(t, l.ReadAll(ctx))

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Append(ctx, record(100*(i+1))))
	}
	got := l.ReadAll(ctx)
	require.Len(t, got, 3)
	assert.Equal(t, 300*time.Second, got[2].Work.Actual())
}

func TestIncompleteStoredRecordIsSkipped(t *testing.T) {
	l, ids, store := setup(t, "s1")
	ctx := context.Background()
	sid, err := ids.Current(ctx)
	require.NoError(t, err)
	_, err = store.AppendCycle(ctx, sid, time.Now(), []byte(`{"work": {"start_ts": "2026-10-19T09:00:00Z", "end_ts": null}}`))
	require.NoError(t, err)
	assert.Empty(t, l.ReadAll(ctx))

	require.NoError(t, l.Append(ctx, record(200)))
	assert.Len(t, l.ReadAll(ctx), 1)
}

type failingStore struct {
	storage.Storage
}

var errQuota = errors.New("disk quota exceeded")

func (f failingStore) AppendCycle(context.Context, string, time.Time, []byte) (int64, error) {
	return 0, errQuota
}

func (f failingStore) GetCycles(context.Context, string) ([]storage.CycleRow, error) {
	return nil, errQuota
}

func TestWriteFailureIsReturnedNotFatal(t *testing.T) {
	_, ids, store := setup(t, "s1")
	l := New(failingStore{store}, ids)
	ctx := context.Background()

	err := l.Append(ctx, record(100))
	assert.ErrorIs(t, err, errQuota)
	assert.Empty(t, l.ReadAll(ctx))
}

func TestRotateEmptiesLogForNewIdentity(t *testing.T) {
	l, ids, _ := setup(t, "s1", "s2")
	ctx := context.Background()

	require.NoError(t, l.Append(ctx, record(100)))
	require.NoError(t, l.SaveNotes(ctx, "keep me"))
	require.Len(t, l.ReadAll(ctx), 1)

	token, err := ids.Rotate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s2", token)
	assert.Empty(t, l.ReadAll(ctx))

	notes, err := l.Notes(ctx)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestClearAllWipesEverything(t *testing.T) {
	l, ids, store := setup(t, "s1", "s2")
	ctx := context.Background()

	require.NoError(t, l.Append(ctx, record(100)))
	require.NoError(t, l.SaveNotes(ctx, "secret"))

	token, err := ids.ClearAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s2", token)

	rows, err := store.GetCycles(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, rows)
	notes, err := store.GetNotes(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestClearOnlyTouchesActiveIdentity(t *testing.T) {
	l, ids, store := setup(t, "s1", "s2")
	ctx := context.Background()

	require.NoError(t, l.Append(ctx, record(100)))
	_, err := ids.Rotate(ctx)
	require.NoError(t, err)
	require.NoError(t, l.Append(ctx, record(200)))

	require.NoError(t, l.Clear(ctx))
	assert.Empty(t, l.ReadAll(ctx))

	rows, err := store.GetCycles(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestCheckpointRoundTrip(t *testing.T) {
	l, _, _ := setup(t, "s1")
	ctx := context.Background()

	_, ok := l.LoadCheckpoint(ctx)
	assert.False(t, ok)

	cp := cycle.Checkpoint{
		HasPrev:     true,
		PrevPhase:   event.PhaseWork,
		PrevRunning: true,
		Open:        &cycle.Record{Work: cycle.Span{Start: t0}},
	}
	require.NoError(t, l.SaveCheckpoint(ctx, cp))

	got, ok := l.LoadCheckpoint(ctx)
	require.True(t, ok)
	assert.Equal(t, event.PhaseWork, got.PrevPhase)
	require.NotNil(t, got.Open)
	assert.True(t, got.Open.Work.Start.Equal(t0))

	require.NoError(t, l.ClearCheckpoint(ctx))
	_, ok = l.LoadCheckpoint(ctx)
	assert.False(t, ok)
}

func TestSessionCurrentIsStable(t *testing.T) {
	_, ids, _ := setup(t, "s1", "s2")
	ctx := context.Background()

	first, err := ids.Current(ctx)
	require.NoError(t, err)
	second, err := ids.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s1", first)
	assert.Equal(t, first, second)
}
