package event

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
)

// wireSnapshot is the /api/state document as the timer service sends it.
type wireSnapshot struct {
	Phase            string          `json:"phase"`
	Running          bool            `json:"running"`
	SecondsRemaining json.RawMessage `json:"seconds_remaining"`
	Formatted        string          `json:"formatted"`
	Completed        int             `json:"pomodoros_completed"`
	ZeroNotified     bool            `json:"zero_notified"`
	LastEvent        *wireEvent      `json:"last_event"`
}

type wireEvent struct {
	Name *string        `json:"name"`
	Data map[string]any `json:"data"`
}

// Decode validates a raw state document and converts it into a Snapshot.
// Only an unparseable document or an unknown phase is an error; loosely
// typed fields degrade to their unknown value.
func Decode(raw []byte) (Snapshot, error) {
	var w wireSnapshot
	if err := json.Unmarshal(raw, &w); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	phase, err := ParsePhase(w.Phase)
	if err != nil {
		return Snapshot{}, err
	}

	s := Snapshot{
		Phase:            phase,
		Running:          w.Running,
		SecondsRemaining: decodeInt(w.SecondsRemaining),
		Formatted:        w.Formatted,
		Completed:        w.Completed,
		ZeroNotified:     w.ZeroNotified,
		LastEvent:        decodeEvent(w.LastEvent),
	}
	if s.Formatted == "" && s.SecondsRemaining != nil {
		s.Formatted = FormatClock(*s.SecondsRemaining)
	}
	return s, nil
}

func decodeInt(raw json.RawMessage) *int {
	if len(raw) == 0 {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil
	}
	return toInt(f)
}

// toInt truncates f toward zero. NaN and values outside the int32 range are
// unknown.
func toInt(f float64) *int {
	if math.IsNaN(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return nil
	}
	v := int(f)
	return &v
}

func decodeEvent(w *wireEvent) *Event {
	if w == nil || w.Name == nil || *w.Name == "" {
		return nil
	}
	name := Name(*w.Name)
	if _, ok := knownNames[name]; !ok {
		log.Printf("Warning: ignoring unknown timer event %q", name)
		return nil
	}

	e := &Event{Name: name}
	switch name {
	case BreakStarted:
		if kind, ok := w.Data["kind"].(string); ok {
			e.Kind = parseBreakKind(kind)
		}
	case WorkCompleted:
		if v, ok := w.Data["overtime_seconds"].(float64); ok {
			e.OvertimeSeconds = toInt(v)
		}
	}
	return e
}
