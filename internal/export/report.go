package export

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"timerless/internal/cycle"
	"timerless/internal/event"
)

type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown export format %q (use markdown, json or yaml)", s)
}

func (f Format) Ext() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	}
	return "md"
}

// Report is everything an export is rendered from. Live and Config are
// optional; GeneratedAt only feeds the header and the file name.
type Report struct {
	GeneratedAt time.Time
	Live        *event.Snapshot
	Config      *event.TimerConfig
	Cycles      []cycle.Record
	Notes       string
}

// Render produces the report in the requested format.
func Render(r Report, f Format) ([]byte, error) {
	switch f {
	case FormatMarkdown:
		return []byte(RenderMarkdown(r)), nil
	case FormatJSON:
		out, err := json.MarshalIndent(r.document(), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode json export: %w", err)
		}
		return append(out, '\n'), nil
	case FormatYAML:
		out, err := yaml.Marshal(r.document())
		if err != nil {
			return nil, fmt.Errorf("failed to encode yaml export: %w", err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown export format %q", f)
}

// RenderMarkdown renders the human-readable report.
func RenderMarkdown(r Report) string {
	var lines []string
	add := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}

	add("# timerless notes - %s", r.GeneratedAt.Format("2006-01-02 15:04"))
	add("")

	live := event.Snapshot{}
	phase := "unknown"
	if r.Live != nil {
		live = *r.Live
		phase = string(live.Phase)
	}
	formatted := live.Formatted
	if formatted == "" {
		formatted = "00:00"
	}
	add("- Phase: %s", phase)
	add("- Running: %s", yesNo(live.Running))
	add("- Time remaining: %s", formatted)
	add("- Sessions completed: %d", live.Completed)
	if r.Config != nil {
		add("- Config: work %sm, short %sm, long %sm, threshold %d",
			minutes(r.Config.WorkMinutes), minutes(r.Config.ShortBreakMinutes),
			minutes(r.Config.LongBreakMinutes), r.Config.LongBreakInterval)
	}
	add("")

	sum := Summarize(r.Cycles)
	if sum.Sessions > 0 {
		add("## Sessions")
		for _, c := range sum.Cycles {
			add("### Session %d", c.Index)
			add("- Work: configured %s, actual %s", FormatSeconds(c.WorkConfigured), FormatSeconds(c.WorkActual))
			if c.BreakConfigured > 0 || c.BreakActual > 0 {
				line := fmt.Sprintf("- Break: configured %s, actual %s", FormatSeconds(c.BreakConfigured), FormatSeconds(c.BreakActual))
				if c.BreakKind != event.BreakUnknown {
					line += fmt.Sprintf(" (%s)", c.BreakKind)
				}
				if c.BreakOpen {
					line += " [open]"
				}
				lines = append(lines, line)
			} else {
				add("- Break: (none)")
			}
			add("")
		}
		add("## Overall")
		add("- Sessions: %d", sum.Sessions)
		add("- Total work: %s", FormatSeconds(sum.TotalWork))
		add("- Total break: %s", FormatSeconds(sum.TotalBreak))
		add("")
	}

	add("## Notes")
	add("")
	if strings.TrimSpace(r.Notes) != "" {
		lines = append(lines, r.Notes)
	} else {
		add("(no notes yet)")
	}
	return strings.Join(lines, "\n") + "\n"
}

type liveDocument struct {
	Phase     event.Phase `json:"phase" yaml:"phase"`
	Running   bool        `json:"running" yaml:"running"`
	Remaining string      `json:"time_remaining" yaml:"time_remaining"`
	Completed int         `json:"sessions_completed" yaml:"sessions_completed"`
}

type document struct {
	GeneratedAt time.Time          `json:"generated_at" yaml:"generated_at"`
	Live        *liveDocument      `json:"live,omitempty" yaml:"live,omitempty"`
	Config      *event.TimerConfig `json:"config,omitempty" yaml:"config,omitempty"`
	Summary     Summary            `json:"summary" yaml:"summary"`
	Notes       string             `json:"notes" yaml:"notes"`
}

func (r Report) document() document {
	d := document{
		GeneratedAt: r.GeneratedAt,
		Config:      r.Config,
		Summary:     Summarize(r.Cycles),
		Notes:       r.Notes,
	}
	if r.Live != nil {
		d.Live = &liveDocument{
			Phase:     r.Live.Phase,
			Running:   r.Live.Running,
			Remaining: r.Live.Formatted,
			Completed: r.Live.Completed,
		}
	}
	return d
}

// FileName derives the export file name from the export timestamp.
func FileName(at time.Time, f Format) string {
	return fmt.Sprintf("timerless-notes-%s.%s", at.Format("20060102-1504"), f.Ext())
}

// Save writes the export into dir and returns the written path.
func Save(fs afero.Fs, dir, name string, content []byte) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := fs.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create export directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := afero.WriteFile(fs, path, content, 0644); err != nil {
		return "", fmt.Errorf("failed to write export %s: %w", path, err)
	}
	return path, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func minutes(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
