package ipc

import (
	"errors"
	"time"

	"timerless/internal/cycle"
	"timerless/internal/event"
)

// ErrDaemonUnavailable is returned by clients when nothing listens on the socket.
var ErrDaemonUnavailable = errors.New("timerless daemon is not running")

// Command represents a command sent over the socket
type Command struct {
	Name string      `json:"name"`
	Args interface{} `json:"args,omitempty"`
}

// Response represents a response sent back over the socket
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// --- Command Names ---

const (
	CmdPing      = "ping"
	CmdGetStatus = "get_status"

	CmdStartWork    = "start_work"
	CmdRequestBreak = "request_break"
	CmdPause        = "pause"
	CmdResume       = "resume"
	CmdToggle       = "toggle" // pause when running, resume otherwise
	CmdStop         = "stop"
	CmdReset        = "reset"
	CmdClear        = "clear" // clears the remote session and rotates the local one

	CmdGetConfig = "get_config"
	CmdSetConfig = "set_config"

	CmdGetSession = "get_session"
	CmdNewSession = "new_session"
	CmdClearAll   = "clear_all"

	CmdGetNotes   = "get_notes"
	CmdSaveNotes  = "save_notes"
	CmdClearNotes = "clear_notes"

	CmdGetCycles = "get_cycles"
	CmdExport    = "export"
)

// --- Command Argument Structs ---

type SetConfigArgs struct {
	Config event.TimerConfig `json:"config"`
}

type SaveNotesArgs struct {
	Body string `json:"body"`
}

type ExportArgs struct {
	Format string `json:"format"` // markdown, json or yaml
}

// --- Response Data ---

type StatusData struct {
	SessionID string          `json:"session_id"`
	Reachable bool            `json:"reachable"`
	Message   string          `json:"message,omitempty"`
	Live      *event.Snapshot `json:"live,omitempty"`
	Open      *cycle.Record   `json:"open,omitempty"`
	Committed int             `json:"committed"`
	LastPoll  time.Time       `json:"last_poll"`
}

type SessionData struct {
	SessionID string `json:"session_id"`
}

type NotesData struct {
	Body string `json:"body"`
}

type CyclesData struct {
	SessionID string         `json:"session_id"`
	Cycles    []cycle.Record `json:"cycles"`
}

type ExportData struct {
	FileName string `json:"file_name"`
	Content  string `json:"content"`
}
