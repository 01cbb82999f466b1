package event

import (
	"errors"
	"fmt"
)

// Phase is the coarse mode reported by the timer service.
type Phase string

const (
	PhaseIdle  Phase = "idle"
	PhaseWork  Phase = "work"
	PhaseBreak Phase = "break"
)

// ErrUnknownPhase is returned when a snapshot carries a phase outside the known set.
var ErrUnknownPhase = errors.New("unknown phase")

func ParsePhase(s string) (Phase, error) {
	switch Phase(s) {
	case PhaseIdle, PhaseWork, PhaseBreak:
		return Phase(s), nil
	case "":
		return PhaseIdle, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPhase, s)
}

// BreakKind tells short and long breaks apart. The zero value means unknown.
type BreakKind string

const (
	BreakUnknown BreakKind = ""
	BreakShort   BreakKind = "short"
	BreakLong    BreakKind = "long"
)

func parseBreakKind(s string) BreakKind {
	switch BreakKind(s) {
	case BreakShort, BreakLong:
		return BreakKind(s)
	}
	return BreakUnknown
}

// Name identifies a transition event emitted by the timer service.
type Name string

const (
	WorkStarted    Name = "work_started"
	WorkCompleted  Name = "work_completed"
	WorkZero       Name = "work_zero"
	BreakStarted   Name = "break_started"
	BreakZero      Name = "break_zero"
	BreakEnded     Name = "break_ended"
	Paused         Name = "paused"
	Resumed        Name = "resumed"
	Stopped        Name = "stopped"
	WorkReset      Name = "work_reset"
	SessionCleared Name = "session_cleared"
)

var knownNames = map[Name]struct{}{
	WorkStarted: {}, WorkCompleted: {}, WorkZero: {}, BreakStarted: {}, BreakZero: {},
	BreakEnded: {}, Paused: {}, Resumed: {}, Stopped: {}, WorkReset: {}, SessionCleared: {},
}

// Event is the last transition the timer service reported.
// Payload fields are only populated for the variant that carries them.
type Event struct {
	Name Name `json:"name"`
	// BreakStarted
	Kind BreakKind `json:"kind,omitempty"`
	// WorkCompleted
	OvertimeSeconds *int `json:"overtime_seconds,omitempty"`
}

// Snapshot is one polled observation of the remote timer.
type Snapshot struct {
	Phase            Phase  `json:"phase"`
	Running          bool   `json:"running"`
	SecondsRemaining *int   `json:"seconds_remaining,omitempty"`
	Formatted        string `json:"formatted"`
	Completed        int    `json:"pomodoros_completed"`
	ZeroNotified     bool   `json:"zero_notified"`
	LastEvent        *Event `json:"last_event,omitempty"`
}

// TimerConfig mirrors the durations the timer service is configured with.
type TimerConfig struct {
	WorkMinutes       float64 `json:"pomodoro_minutes" yaml:"work_minutes"`
	ShortBreakMinutes float64 `json:"short_break_minutes" yaml:"short_break_minutes"`
	LongBreakMinutes  float64 `json:"long_break_minutes" yaml:"long_break_minutes"`
	LongBreakInterval int     `json:"pomodoro_threshold" yaml:"long_break_interval"`
}

func (c TimerConfig) Validate() error {
	if c.WorkMinutes <= 0 {
		return fmt.Errorf("work minutes must be positive, got %v", c.WorkMinutes)
	}
	if c.ShortBreakMinutes <= 0 {
		return fmt.Errorf("short break minutes must be positive, got %v", c.ShortBreakMinutes)
	}
	if c.LongBreakMinutes <= 0 {
		return fmt.Errorf("long break minutes must be positive, got %v", c.LongBreakMinutes)
	}
	if c.LongBreakInterval <= 0 {
		return fmt.Errorf("long break interval must be positive, got %d", c.LongBreakInterval)
	}
	return nil
}

// FormatClock renders seconds as [-]MM:SS; negative values are overtime.
func FormatClock(seconds int) string {
	sign := ""
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	return fmt.Sprintf("%s%02d:%02d", sign, seconds/60, seconds%60)
}
