package export

import (
	"fmt"
	"time"

	"timerless/internal/cycle"
	"timerless/internal/event"
)

// CycleSummary is one committed cycle reduced to configured vs actual lengths.
type CycleSummary struct {
	Index     int       `json:"index" yaml:"index"`
	WorkStart time.Time `json:"work_start" yaml:"work_start"`

	WorkConfigured time.Duration `json:"-" yaml:"-"`
	WorkActual     time.Duration `json:"-" yaml:"-"`

	HasBreak        bool            `json:"has_break" yaml:"has_break"`
	BreakKind       event.BreakKind `json:"break_kind,omitempty" yaml:"break_kind,omitempty"`
	BreakOpen       bool            `json:"break_open,omitempty" yaml:"break_open,omitempty"`
	BreakConfigured time.Duration   `json:"-" yaml:"-"`
	BreakActual     time.Duration   `json:"-" yaml:"-"`

	WorkConfiguredSeconds  int `json:"work_configured_seconds" yaml:"work_configured_seconds"`
	WorkActualSeconds      int `json:"work_actual_seconds" yaml:"work_actual_seconds"`
	BreakConfiguredSeconds int `json:"break_configured_seconds" yaml:"break_configured_seconds"`
	BreakActualSeconds     int `json:"break_actual_seconds" yaml:"break_actual_seconds"`
}

// Summary aggregates a cycle log. Totals only include closed spans.
type Summary struct {
	Sessions   int            `json:"sessions" yaml:"sessions"`
	TotalWork  time.Duration  `json:"-" yaml:"-"`
	TotalBreak time.Duration  `json:"-" yaml:"-"`
	Cycles     []CycleSummary `json:"cycles" yaml:"cycles"`

	TotalWorkSeconds  int `json:"total_work_seconds" yaml:"total_work_seconds"`
	TotalBreakSeconds int `json:"total_break_seconds" yaml:"total_break_seconds"`
}

// Summarize reduces the log in commit order; cycles are numbered from 1.
func Summarize(records []cycle.Record) Summary {
	s := Summary{Sessions: len(records), Cycles: make([]CycleSummary, 0, len(records))}
	for i, rec := range records {
		cs := CycleSummary{
			Index:          i + 1,
			WorkStart:      rec.Work.Start,
			WorkConfigured: rec.Work.Configured(),
			WorkActual:     rec.Work.Actual(),
		}
		if rec.Break != nil {
			cs.HasBreak = true
			cs.BreakKind = rec.Break.Kind
			cs.BreakOpen = !rec.Break.Closed()
			cs.BreakConfigured = rec.Break.Configured()
			cs.BreakActual = rec.Break.Actual()
		}
		cs.WorkConfiguredSeconds = seconds(cs.WorkConfigured)
		cs.WorkActualSeconds = seconds(cs.WorkActual)
		cs.BreakConfiguredSeconds = seconds(cs.BreakConfigured)
		cs.BreakActualSeconds = seconds(cs.BreakActual)

		s.TotalWork += cs.WorkActual
		s.TotalBreak += cs.BreakActual
		s.Cycles = append(s.Cycles, cs)
	}
	s.TotalWorkSeconds = seconds(s.TotalWork)
	s.TotalBreakSeconds = seconds(s.TotalBreak)
	return s
}

func seconds(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}

// FormatSeconds renders a duration as MM:SS, or H:MM:SS from one hour up.
// Fractions of a second are dropped and negative values render as zero.
func FormatSeconds(d time.Duration) string {
	s := seconds(d)
	h := s / 3600
	m := (s % 3600) / 60
	r := s % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, r)
	}
	return fmt.Sprintf("%02d:%02d", m, r)
}
