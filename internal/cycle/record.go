package cycle

import (
	"errors"
	"time"

	"timerless/internal/event"
)

// ErrIncomplete is returned when a record without a closed work span is committed.
var ErrIncomplete = errors.New("cycle record has no closed work span")

// Span is a wall-clock interval between two phase boundaries.
// End is nil while the span is open. ConfigSeconds is nil when the
// configured length was unknown at open time.
type Span struct {
	Start         time.Time  `json:"start_ts"`
	End           *time.Time `json:"end_ts"`
	ConfigSeconds *int       `json:"config_seconds"`
}

// Closed reports whether both ends of the span are known.
func (s Span) Closed() bool {
	return !s.Start.IsZero() && s.End != nil
}

// Actual returns the measured length, clamped at zero. Open spans measure zero.
func (s Span) Actual() time.Duration {
	if !s.Closed() {
		return 0
	}
	d := s.End.Sub(s.Start)
	if d < 0 {
		return 0
	}
	return d
}

// Configured returns the configured length, clamped at zero.
func (s Span) Configured() time.Duration {
	if s.ConfigSeconds == nil || *s.ConfigSeconds < 0 {
		return 0
	}
	return time.Duration(*s.ConfigSeconds) * time.Second
}

type BreakSpan struct {
	Span
	Kind event.BreakKind `json:"kind,omitempty"`
}

// Record is one work span and the break that followed it, if any.
type Record struct {
	Work  Span       `json:"work"`
	Break *BreakSpan `json:"break,omitempty"`
}

// Complete reports whether the record may be persisted: the work span
// must be closed. The break is optional and may still be open.
func (r Record) Complete() bool {
	return r.Work.Closed()
}

func (r Record) openBreak() bool {
	return r.Break != nil && r.Break.End == nil
}

func (r Record) clone() Record {
	c := Record{Work: r.Work.clone()}
	if r.Break != nil {
		b := BreakSpan{Span: r.Break.Span.clone(), Kind: r.Break.Kind}
		c.Break = &b
	}
	return c
}

func (s Span) clone() Span {
	c := Span{Start: s.Start}
	if s.End != nil {
		end := *s.End
		c.End = &end
	}
	if s.ConfigSeconds != nil {
		cfg := *s.ConfigSeconds
		c.ConfigSeconds = &cfg
	}
	return c
}
