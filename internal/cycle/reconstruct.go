package cycle

import (
	"reflect"
	"time"

	"timerless/internal/event"
)

// Transition is the boundary detected between two consecutive snapshots.
type Transition int

const (
	None Transition = iota
	StartWork
	WorkToBreak
	WorkToIdle
	BreakToIdle
)

func (t Transition) String() string {
	switch t {
	case StartWork:
		return "start_work"
	case WorkToBreak:
		return "work_to_break"
	case WorkToIdle:
		return "work_to_idle"
	case BreakToIdle:
		return "break_to_idle"
	}
	return "none"
}

// Classify matches a (prev, cur) pair against the transition table.
// Rules are checked in priority order and the first match wins. A nil prev
// (first poll, or after a restart) is neither work nor break.
//
// Only the current running flag is consulted: pausing or resuming inside a
// phase never matches, while leaving a paused phase still closes its span.
func Classify(prev *event.Snapshot, cur event.Snapshot) Transition {
	var prevPhase event.Phase
	if prev != nil {
		prevPhase = prev.Phase
	}

	switch {
	case cur.Phase == event.PhaseWork && cur.Running && prevPhase != event.PhaseWork:
		return StartWork
	case prevPhase == event.PhaseWork && cur.Phase == event.PhaseBreak && cur.Running:
		return WorkToBreak
	case prevPhase == event.PhaseWork && cur.Phase == event.PhaseIdle:
		return WorkToIdle
	case prevPhase == event.PhaseBreak && cur.Phase == event.PhaseIdle:
		return BreakToIdle
	}
	return None
}

// Reduce applies one (prev, cur) pair to the open cycle and returns the new
// open cycle together with the record to commit, if one completed. The
// input record is never modified.
func Reduce(open *Record, prev *event.Snapshot, cur event.Snapshot, now time.Time) (next *Record, committed *Record) {
	if open != nil {
		c := open.clone()
		open = &c
	}

	switch Classify(prev, cur) {
	case StartWork:
		if open != nil && open.openBreak() {
			open.Break.End = timePtr(now)
			if open.Complete() {
				committed = open
			}
		}
		return &Record{Work: Span{Start: now, ConfigSeconds: copyInt(cur.SecondsRemaining)}}, committed

	case WorkToBreak:
		if open == nil {
			open = &Record{Work: Span{Start: now}}
		}
		if open.Work.End == nil {
			open.Work.End = timePtr(now)
		}
		kind := event.BreakUnknown
		if cur.LastEvent != nil && cur.LastEvent.Name == event.BreakStarted {
			kind = cur.LastEvent.Kind
		}
		open.Break = &BreakSpan{
			Span: Span{Start: now, ConfigSeconds: copyInt(cur.SecondsRemaining)},
			Kind: kind,
		}
		return open, nil

	case WorkToIdle:
		if open == nil {
			open = &Record{Work: Span{Start: now}}
		}
		if open.Work.End == nil {
			open.Work.End = timePtr(now)
		}
		if open.Complete() {
			return nil, open
		}
		return open, nil

	case BreakToIdle:
		if open == nil {
			return nil, nil
		}
		if open.openBreak() {
			open.Break.End = timePtr(now)
		}
		if open.Complete() {
			return nil, open
		}
		return open, nil
	}

	return open, nil
}

// State is everything the reconstructor carries between polls. The host
// loop owns a single State and threads it through Step.
type State struct {
	Prev *event.Snapshot
	Open *Record
}

// Step consumes the next snapshot. The previous snapshot is taken from the
// state itself, so feeding the same snapshot twice evaluates the second call
// as an unchanged phase and can never commit the same cycle again.
func Step(st State, cur event.Snapshot, now time.Time) (State, *Record) {
	open, committed := Reduce(st.Open, st.Prev, cur, now)
	cur.SecondsRemaining = copyInt(cur.SecondsRemaining)
	return State{Prev: &cur, Open: open}, committed
}

// Checkpoint is the persistable form of State. Only the phase and running
// flag of the previous snapshot matter for classification.
type Checkpoint struct {
	HasPrev     bool        `json:"has_prev"`
	PrevPhase   event.Phase `json:"prev_phase,omitempty"`
	PrevRunning bool        `json:"prev_running"`
	Open        *Record     `json:"open,omitempty"`
}

func (st State) Checkpoint() Checkpoint {
	c := Checkpoint{}
	if st.Prev != nil {
		c.HasPrev = true
		c.PrevPhase = st.Prev.Phase
		c.PrevRunning = st.Prev.Running
	}
	if st.Open != nil {
		open := st.Open.clone()
		c.Open = &open
	}
	return c
}

// Restore rebuilds a State from a checkpoint.
func (c Checkpoint) Restore() State {
	st := State{}
	if c.HasPrev {
		st.Prev = &event.Snapshot{Phase: c.PrevPhase, Running: c.PrevRunning}
	}
	if c.Open != nil {
		open := c.Open.clone()
		st.Open = &open
	}
	return st
}

func (c Checkpoint) Equal(other Checkpoint) bool {
	return reflect.DeepEqual(c, other)
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
