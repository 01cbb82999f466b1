package cycle

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timerless/internal/event"
)

var t0 = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func at(sec int) time.Time {
	return t0.Add(time.Duration(sec) * time.Second)
}

func snap(phase event.Phase, running bool, remaining ...int) event.Snapshot {
	s := event.Snapshot{Phase: phase, Running: running}
	if len(remaining) > 0 {
		r := remaining[0]
		s.SecondsRemaining = &r
	}
	return s
}

type poll struct {
	sec  int
	snap event.Snapshot
}

// feed threads the polls through Step and returns the final state and every commit.
func feed(t *testing.T, st State, polls []poll) (State, []Record) {
	t.Helper()
	var commits []Record
	for _, p := range polls {
		var c *Record
		st, c = Step(st, p.snap, at(p.sec))
		if c != nil {
			require.True(t, c.Complete(), "committed an incomplete record at t=%d", p.sec)
			commits = append(commits, *c)
		}
	}
	return st, commits
}

func TestClassifyPriority(t *testing.T) {
	work := snap(event.PhaseWork, true)
	pausedWork := snap(event.PhaseWork, false)
	brk := snap(event.PhaseBreak, true)
	pausedBreak := snap(event.PhaseBreak, false)
	idle := snap(event.PhaseIdle, false)

	cases := []struct {
		name string
		prev *event.Snapshot
		cur  event.Snapshot
		want Transition
	}{
		{"first poll in work", nil, work, StartWork},
		{"first poll paused work", nil, pausedWork, None},
		{"idle to work", &idle, work, StartWork},
		{"break to work", &brk, work, StartWork},
		{"idle to paused work", &idle, pausedWork, None},
		{"work to break", &work, brk, WorkToBreak},
		{"work to paused break", &work, pausedBreak, None},
		{"paused work to break", &pausedWork, brk, WorkToBreak},
		{"work to idle", &work, idle, WorkToIdle},
		{"paused work to idle", &pausedWork, idle, WorkToIdle},
		{"break to idle", &brk, idle, BreakToIdle},
		{"pause in work", &work, pausedWork, None},
		{"resume in work", &pausedWork, work, None},
		{"break to break", &brk, pausedBreak, None},
		{"idle to idle", &idle, idle, None},
		{"first poll in break", nil, brk, None},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.prev, tc.cur))
		})
	}
}

func TestWorkBreakIdleCommitsOneCycle(t *testing.T) {
	brk := snap(event.PhaseBreak, true, 300)
	brk.LastEvent = &event.Event{Name: event.BreakStarted, Kind: event.BreakShort}

	st, commits := feed(t, State{}, []poll{
		{0, snap(event.PhaseIdle, false, 1500)},
		{0, snap(event.PhaseWork, true, 1500)},
		{700, snap(event.PhaseWork, true, 800)},
		{1500, brk},
		{1800, snap(event.PhaseIdle, false, 1500)},
	})

	require.Len(t, commits, 1)
	rec := commits[0]
	assert.Equal(t, at(0), rec.Work.Start)
	require.NotNil(t, rec.Work.End)
	assert.Equal(t, at(1500), *rec.Work.End)
	require.NotNil(t, rec.Work.ConfigSeconds)
	assert.Equal(t, 1500, *rec.Work.ConfigSeconds)

	require.NotNil(t, rec.Break)
	assert.Equal(t, at(1500), rec.Break.Start)
	require.NotNil(t, rec.Break.End)
	assert.Equal(t, at(1800), *rec.Break.End)
	assert.Equal(t, 300, *rec.Break.ConfigSeconds)
	assert.Equal(t, event.BreakShort, rec.Break.Kind)
	assert.Equal(t, 1500*time.Second, rec.Work.Actual())
	assert.Equal(t, 300*time.Second, rec.Break.Actual())

	assert.Nil(t, st.Open)
}

func TestWorkBreakWorkCommitsFirstPairAndOpensNewWork(t *testing.T) {
	st, commits := feed(t, State{}, []poll{
		{0, snap(event.PhaseWork, true, 1500)},
		{1500, snap(event.PhaseBreak, true, 300)},
		{1800, snap(event.PhaseWork, true, 1500)},
	})

	require.Len(t, commits, 1)
	assert.Equal(t, at(0), commits[0].Work.Start)
	assert.Equal(t, at(1500), *commits[0].Work.End)
	require.NotNil(t, commits[0].Break)
	assert.Equal(t, at(1800), *commits[0].Break.End)
	assert.Equal(t, event.BreakUnknown, commits[0].Break.Kind)

	require.NotNil(t, st.Open)
	assert.Equal(t, at(1800), st.Open.Work.Start)
	assert.Nil(t, st.Open.Work.End)
	assert.Nil(t, st.Open.Break)
}

func TestPauseAndResumeInsideWorkIsNoOp(t *testing.T) {
	st, commits := feed(t, State{}, []poll{
		{0, snap(event.PhaseWork, true, 1500)},
	})
	before := st.Checkpoint()

	st, commits = feed(t, st, []poll{
		{60, snap(event.PhaseWork, false, 1440)},
		{120, snap(event.PhaseWork, false, 1440)},
		{180, snap(event.PhaseWork, true, 1440)},
	})
	assert.Empty(t, commits)
	require.NotNil(t, st.Open)
	assert.Equal(t, before.Open, st.Checkpoint().Open)
	assert.Equal(t, at(0), st.Open.Work.Start)
	assert.Nil(t, st.Open.Work.End)
}

func TestPausedIntervalCountsTowardsSpan(t *testing.T) {
	_, commits := feed(t, State{}, []poll{
		{0, snap(event.PhaseWork, true, 1500)},
		{600, snap(event.PhaseWork, false, 900)},
		{1200, snap(event.PhaseWork, true, 900)},
		{2100, snap(event.PhaseBreak, true, 300)},
		{2400, snap(event.PhaseIdle, false)},
	})
	require.Len(t, commits, 1)
	assert.Equal(t, 2100*time.Second, commits[0].Work.Actual())
}

func TestResetFromPausedWorkClosesWork(t *testing.T) {
	st, commits := feed(t, State{}, []poll{
		{0, snap(event.PhaseWork, true, 1500)},
		{900, snap(event.PhaseWork, false, 600)},
		{1000, snap(event.PhaseIdle, false, 1500)},
	})
	require.Len(t, commits, 1)
	assert.Equal(t, at(1000), *commits[0].Work.End)
	assert.Nil(t, commits[0].Break)
	assert.Nil(t, st.Open)
}

func TestWorkToBreakWithoutOpenSynthesizesWork(t *testing.T) {
	prev := snap(event.PhaseWork, true, 10)
	st := State{Prev: &prev}

	st, c := Step(st, snap(event.PhaseBreak, true, 300), at(50))
	assert.Nil(t, c)
	require.NotNil(t, st.Open)
	assert.Equal(t, at(50), st.Open.Work.Start)
	assert.Equal(t, at(50), *st.Open.Work.End)
	assert.Nil(t, st.Open.Work.ConfigSeconds)
	require.NotNil(t, st.Open.Break)
	assert.Equal(t, at(50), st.Open.Break.Start)
}

func TestWorkToIdleWithoutOpenSynthesizesAndCommits(t *testing.T) {
	prev := snap(event.PhaseWork, false)
	st, c := Step(State{Prev: &prev}, snap(event.PhaseIdle, false), at(90))
	require.NotNil(t, c)
	assert.Equal(t, at(90), c.Work.Start)
	assert.Equal(t, at(90), *c.Work.End)
	assert.Equal(t, time.Duration(0), c.Work.Actual())
	assert.Nil(t, st.Open)
}

func TestBreakToIdleWithoutOpenDoesNothing(t *testing.T) {
	prev := snap(event.PhaseBreak, true)
	st, c := Step(State{Prev: &prev}, snap(event.PhaseIdle, false), at(10))
	assert.Nil(t, c)
	assert.Nil(t, st.Open)
}

func TestStartWorkDiscardsOpenWithoutPendingBreak(t *testing.T) {
	// A dangling open work span (no break) is replaced, not committed.
	end := at(100)
	open := &Record{Work: Span{Start: at(0), End: &end}}
	prev := snap(event.PhaseIdle, false)

	st, c := Step(State{Prev: &prev, Open: open}, snap(event.PhaseWork, true, 1500), at(200))
	assert.Nil(t, c)
	require.NotNil(t, st.Open)
	assert.Equal(t, at(200), st.Open.Work.Start)
}

func TestReplayingSnapshotNeverDoubleCommits(t *testing.T) {
	sequences := map[string][]poll{
		"work to idle": {
			{0, snap(event.PhaseWork, true, 1500)},
			{1000, snap(event.PhaseIdle, false)},
		},
		"break to idle": {
			{0, snap(event.PhaseWork, true, 1500)},
			{1500, snap(event.PhaseBreak, true, 300)},
			{1800, snap(event.PhaseIdle, false)},
		},
		"break to work": {
			{0, snap(event.PhaseWork, true, 1500)},
			{1500, snap(event.PhaseBreak, true, 300)},
			{1800, snap(event.PhaseWork, true, 1500)},
		},
	}

	for name, polls := range sequences {
		t.Run(name, func(t *testing.T) {
			st, commits := feed(t, State{}, polls)
			require.Len(t, commits, 1)

			last := polls[len(polls)-1]
			_, replayed := feed(t, st, []poll{{last.sec + 1, last.snap}, {last.sec + 2, last.snap}})
			assert.Empty(t, replayed)
		})
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	open := &Record{Work: Span{Start: at(0)}}
	prev := snap(event.PhaseWork, true)

	next, _ := Reduce(open, &prev, snap(event.PhaseBreak, true, 300), at(1500))
	assert.Nil(t, open.Work.End)
	assert.Nil(t, open.Break)
	require.NotNil(t, next)
	assert.NotNil(t, next.Work.End)
}

func TestSnapshotPointersAreNotAliased(t *testing.T) {
	remaining := 1500
	cur := event.Snapshot{Phase: event.PhaseWork, Running: true, SecondsRemaining: &remaining}
	st, _ := Step(State{}, cur, at(0))
	remaining = 1

	assert.Equal(t, 1500, *st.Open.Work.ConfigSeconds)
	assert.Equal(t, 1500, *st.Prev.SecondsRemaining)
}

func TestCommittedRecordsAreAlwaysComplete(t *testing.T) {
	phases := []event.Snapshot{
		snap(event.PhaseIdle, false),
		snap(event.PhaseWork, true, 1500),
		snap(event.PhaseWork, false, 1200),
		snap(event.PhaseBreak, true, 300),
		snap(event.PhaseBreak, false, 200),
	}

	// Every sequence of length four over the phase alphabet.
	var walk func(st State, depth, sec int)
	walk = func(st State, depth, sec int) {
		if depth == 4 {
			return
		}
		for _, s := range phases {
			next, c := Step(st, s, at(sec))
			if c != nil {
				require.True(t, c.Complete())
				require.NotNil(t, c.Work.End)
			}
			walk(next, depth+1, sec+60)
		}
	}
	walk(State{}, 0, 0)
}

func TestCheckpointRoundTripKeepsTrueStart(t *testing.T) {
	st, _ := feed(t, State{}, []poll{
		{0, snap(event.PhaseWork, true, 1500)},
		{300, snap(event.PhaseWork, true, 1200)},
	})

	raw, err := json.Marshal(st.Checkpoint())
	require.NoError(t, err)

	var cp Checkpoint
	require.NoError(t, json.Unmarshal(raw, &cp))
	restored := cp.Restore()
	require.NotNil(t, restored.Prev)
	assert.Equal(t, event.PhaseWork, restored.Prev.Phase)

	// The restarted loop sees work still running: no new span is opened.
	_, commits := feed(t, restored, []poll{
		{600, snap(event.PhaseWork, true, 900)},
		{1500, snap(event.PhaseIdle, false)},
	})
	require.Len(t, commits, 1)
	assert.True(t, commits[0].Work.Start.Equal(at(0)))
	assert.Equal(t, 1500*time.Second, commits[0].Work.Actual())
}

func TestRestartWithoutCheckpointUndercounts(t *testing.T) {
	// Without a checkpoint the first poll after a restart opens a fresh span.
	_, commits := feed(t, State{}, []poll{
		{600, snap(event.PhaseWork, true, 900)},
		{1500, snap(event.PhaseIdle, false)},
	})
	require.Len(t, commits, 1)
	assert.Equal(t, 900*time.Second, commits[0].Work.Actual())
}

func TestCheckpointEqual(t *testing.T) {
	st, _ := feed(t, State{}, []poll{{0, snap(event.PhaseWork, true, 1500)}})
	same, _ := Step(st, snap(event.PhaseWork, true, 1400), at(100))
	assert.True(t, st.Checkpoint().Equal(same.Checkpoint()))

	paused, _ := Step(st, snap(event.PhaseWork, false, 1400), at(100))
	assert.False(t, st.Checkpoint().Equal(paused.Checkpoint()))
}

func TestSpanDurations(t *testing.T) {
	end := at(-10)
	neg := -5
	s := Span{Start: at(0), End: &end, ConfigSeconds: &neg}
	assert.Equal(t, time.Duration(0), s.Actual())
	assert.Equal(t, time.Duration(0), s.Configured())

	open := Span{Start: at(0)}
	assert.False(t, open.Closed())
	assert.Equal(t, time.Duration(0), open.Actual())
}

func TestTransitionString(t *testing.T) {
	assert.Equal(t, "work_to_break", WorkToBreak.String())
	assert.Equal(t, "none", None.String())
}
