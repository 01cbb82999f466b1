package app

import (
	"timerless/internal/event"
)

const (
	MsgUnreachable = "unable to reach server. check if backend runs."
	MsgSaveFailed  = "failed to save session history."
)

// EventMessage is the status line shown for the timer's last event.
// Events without a message return "".
func EventMessage(e *event.Event) string {
	if e == nil {
		return ""
	}
	switch e.Name {
	case event.WorkStarted:
		return "work started. stay focused!"
	case event.Paused:
		return "timer paused."
	case event.Resumed:
		return "timer resumed."
	case event.WorkZero:
		return "work hit 00:00. you can take a break."
	case event.WorkCompleted:
		return "work completed. overtime: " + formatOvertime(e.OvertimeSeconds)
	case event.BreakStarted:
		if e.Kind == event.BreakLong {
			return "long break started."
		}
		return "short break started."
	case event.BreakEnded:
		return "break ended. ready for the next sprint?"
	case event.Stopped:
		return "timer stopped."
	case event.WorkReset:
		return "work reset to full duration."
	case event.SessionCleared:
		return "session cleared. counters reset."
	}
	return ""
}

func formatOvertime(sec *int) string {
	if sec == nil || *sec < 0 {
		return "00:00"
	}
	return event.FormatClock(*sec)
}
