package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"time"

	"timerless/internal/event"
	"timerless/internal/export"
	"timerless/internal/ipc"
)

// setupSocket checks for existing socket and creates the listener
func (a *App) setupSocket() error {
	if _, err := os.Stat(a.socketPath); err == nil {
		conn, err := net.DialTimeout("unix", a.socketPath, 1*time.Second)
		if err == nil {
			conn.Close()
			return fmt.Errorf("socket %s already active, another instance might be running", a.socketPath)
		}
		log.Printf("Stale socket file found at %s, removing.", a.socketPath)
		if err := os.Remove(a.socketPath); err != nil {
			return fmt.Errorf("failed to remove stale socket file %s: %w", a.socketPath, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("error checking socket file %s: %w", a.socketPath, err)
	}

	addr, err := net.ResolveUnixAddr("unix", a.socketPath)
	if err != nil {
		return fmt.Errorf("failed to resolve unix addr %s: %w", a.socketPath, err)
	}
	listener, err := net.ListenUnix("unix", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on socket %s: %w", a.socketPath, err)
	}
	if err := os.Chmod(a.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set permissions on socket %s: %w", a.socketPath, err)
	}

	a.listener = listener
	log.Printf("Listening for commands on %s", a.socketPath)
	return nil
}

// listenForCommands accepts connections and handles them
func (a *App) listenForCommands() {
	defer log.Println("Socket command listener stopped.")

	if a.listener == nil {
		log.Println("Error: Socket listener not initialized.")
		return
	}

	for {
		conn, err := a.listener.AcceptUnix()
		if err != nil {
			select {
			case <-a.ctx.Done():
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				log.Printf("Listener closed unexpectedly, stopping.")
				return
			}
			log.Printf("Failed to accept connection: %v", err)
			time.Sleep(100 * time.Millisecond)
			continue
		}
		a.wg.Go(func() { a.handleConnection(conn) })
	}
}

// handleConnection reads one command, processes it and sends the response
func (a *App) handleConnection(conn *net.UnixConn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	var cmd ipc.Command
	if err := decoder.Decode(&cmd); err != nil {
		if err != io.EOF {
			log.Printf("Failed to decode command: %v", err)
		}
		_ = encoder.Encode(ipc.Response{Success: false, Message: "Failed to decode command: " + err.Error()})
		return
	}

	conn.SetReadDeadline(time.Time{})
	log.Printf("Received command: %s", cmd.Name)

	response := a.processCommand(cmd)

	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := encoder.Encode(response); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

// processCommand routes the command to the correct handler
func (a *App) processCommand(cmd ipc.Command) ipc.Response {
	switch cmd.Name {
	case ipc.CmdPing:
		return ipc.Response{Success: true, Message: "pong"}

	case ipc.CmdGetStatus:
		return ipc.Response{Success: true, Data: a.currentStatus()}

	case ipc.CmdStartWork:
		return a.control(cmd.Name, a.remote.StartWork)
	case ipc.CmdRequestBreak:
		return a.control(cmd.Name, a.remote.RequestBreak)
	case ipc.CmdPause:
		return a.control(cmd.Name, a.remote.Pause)
	case ipc.CmdResume:
		return a.control(cmd.Name, a.remote.Resume)
	case ipc.CmdStop:
		return a.control(cmd.Name, a.remote.Stop)
	case ipc.CmdReset:
		return a.control(cmd.Name, a.remote.Reset)
	case ipc.CmdToggle:
		live := a.liveSnapshot()
		switch {
		case live == nil:
			return ipc.Response{Success: false, Message: "No timer state yet, try again after the next poll"}
		case live.Running:
			return a.control(ipc.CmdPause, a.remote.Pause)
		case live.Phase == event.PhaseWork || live.Phase == event.PhaseBreak:
			return a.control(ipc.CmdResume, a.remote.Resume)
		}
		return ipc.Response{Success: false, Message: "Timer is idle, nothing to pause or resume"}

	case ipc.CmdClear:
		return a.submit(a.clearSession)

	case ipc.CmdGetConfig:
		ctx, cancel := context.WithTimeout(a.ctx, a.cfg.RequestTimeout())
		defer cancel()
		cfg, err := a.remote.Config(ctx)
		if err != nil {
			return ipc.Response{Success: false, Message: MsgUnreachable}
		}
		return ipc.Response{Success: true, Data: cfg}

	case ipc.CmdSetConfig:
		var args ipc.SetConfigArgs
		if err := ipc.DecodeData(cmd.Args, &args); err != nil {
			return ipc.Response{Success: false, Message: fmt.Sprintf("Invalid args for %s: %v", cmd.Name, err)}
		}
		if err := args.Config.Validate(); err != nil {
			return ipc.Response{Success: false, Message: "failed to save settings. check values. (" + err.Error() + ")"}
		}
		return a.submit(func(ctx context.Context) ipc.Response {
			if err := a.remote.SetConfig(ctx, args.Config); err != nil {
				log.Printf("Warning: set config failed: %v", err)
				return ipc.Response{Success: false, Message: "failed to save settings. check values."}
			}
			a.tick(ctx)
			return ipc.Response{Success: true, Message: "settings saved. ready to start."}
		})

	case ipc.CmdGetSession:
		return a.submit(func(ctx context.Context) ipc.Response {
			sid, err := a.sessions.Current(ctx)
			if err != nil {
				return ipc.Response{Success: false, Message: err.Error()}
			}
			return ipc.Response{Success: true, Data: ipc.SessionData{SessionID: sid}}
		})

	case ipc.CmdNewSession:
		return a.submit(func(ctx context.Context) ipc.Response {
			sid, err := a.sessions.Rotate(ctx)
			if err != nil {
				log.Printf("Error rotating session: %v", err)
				return ipc.Response{Success: false, Message: "failed to start a new session."}
			}
			a.resetLocal(sid)
			return ipc.Response{Success: true, Message: "new session started.", Data: ipc.SessionData{SessionID: sid}}
		})

	case ipc.CmdClearAll:
		return a.submit(func(ctx context.Context) ipc.Response {
			sid, err := a.sessions.ClearAll(ctx)
			if err != nil {
				log.Printf("Error clearing local data: %v", err)
				return ipc.Response{Success: false, Message: "failed to clear local data."}
			}
			a.resetLocal(sid)
			return ipc.Response{Success: true, Message: "local notes data cleared.", Data: ipc.SessionData{SessionID: sid}}
		})

	case ipc.CmdGetNotes:
		return a.submit(func(ctx context.Context) ipc.Response {
			body, err := a.history.Notes(ctx)
			if err != nil {
				return ipc.Response{Success: false, Message: err.Error()}
			}
			return ipc.Response{Success: true, Data: ipc.NotesData{Body: body}}
		})

	case ipc.CmdSaveNotes:
		var args ipc.SaveNotesArgs
		if err := ipc.DecodeData(cmd.Args, &args); err != nil {
			return ipc.Response{Success: false, Message: fmt.Sprintf("Invalid args for %s: %v", cmd.Name, err)}
		}
		return a.submit(func(ctx context.Context) ipc.Response {
			if err := a.history.SaveNotes(ctx, args.Body); err != nil {
				return ipc.Response{Success: false, Message: err.Error()}
			}
			return ipc.Response{Success: true, Message: "notes saved."}
		})

	case ipc.CmdClearNotes:
		return a.submit(func(ctx context.Context) ipc.Response {
			if err := a.history.ClearNotes(ctx); err != nil {
				return ipc.Response{Success: false, Message: err.Error()}
			}
			return ipc.Response{Success: true, Message: "notes cleared."}
		})

	case ipc.CmdGetCycles:
		return a.submit(func(ctx context.Context) ipc.Response {
			sid, err := a.sessions.Current(ctx)
			if err != nil {
				return ipc.Response{Success: false, Message: err.Error()}
			}
			return ipc.Response{Success: true, Data: ipc.CyclesData{SessionID: sid, Cycles: a.history.ReadAll(ctx)}}
		})

	case ipc.CmdExport:
		var args ipc.ExportArgs
		if err := ipc.DecodeData(cmd.Args, &args); err != nil {
			return ipc.Response{Success: false, Message: fmt.Sprintf("Invalid args for %s: %v", cmd.Name, err)}
		}
		format, err := export.ParseFormat(args.Format)
		if err != nil {
			return ipc.Response{Success: false, Message: err.Error()}
		}
		return a.submit(func(ctx context.Context) ipc.Response {
			return a.exportReport(ctx, format)
		})

	default:
		return ipc.Response{Success: false, Message: fmt.Sprintf("Unknown command: %s", cmd.Name)}
	}
}

// control forwards a timer action and polls right away so the status
// reflects it.
func (a *App) control(name string, action func(ctx context.Context) error) ipc.Response {
	return a.submit(func(ctx context.Context) ipc.Response {
		if err := action(ctx); err != nil {
			log.Printf("Warning: %s failed: %v", name, err)
			return ipc.Response{Success: false, Message: MsgUnreachable}
		}
		a.tick(ctx)
		return ipc.Response{Success: true, Message: a.currentStatus().Message}
	})
}

// clearSession clears the remote timer, rotates the local session and drops
// the open cycle.
func (a *App) clearSession(ctx context.Context) ipc.Response {
	if err := a.remote.Clear(ctx); err != nil {
		log.Printf("Warning: clear failed: %v", err)
		return ipc.Response{Success: false, Message: MsgUnreachable}
	}
	sid, err := a.sessions.Rotate(ctx)
	if err != nil {
		log.Printf("Error rotating session: %v", err)
		return ipc.Response{Success: false, Message: MsgSaveFailed}
	}
	a.resetLocal(sid)
	a.tick(ctx)
	return ipc.Response{
		Success: true,
		Message: a.currentStatus().Message,
		Data:    ipc.SessionData{SessionID: sid},
	}
}

func (a *App) exportReport(ctx context.Context, format export.Format) ipc.Response {
	at := a.now()
	report := export.Report{
		GeneratedAt: at,
		Live:        a.liveSnapshot(),
		Cycles:      a.history.ReadAll(ctx),
	}
	if cfg, err := a.remote.Config(ctx); err == nil {
		report.Config = &cfg
	} else {
		log.Printf("Warning: exporting without timer config: %v", err)
	}
	notes, err := a.history.Notes(ctx)
	if err != nil {
		log.Printf("Warning: exporting without notes: %v", err)
	}
	report.Notes = notes

	content, err := export.Render(report, format)
	if err != nil {
		return ipc.Response{Success: false, Message: err.Error()}
	}
	return ipc.Response{
		Success: true,
		Message: fmt.Sprintf("%s exported.", format),
		Data:    ipc.ExportData{FileName: export.FileName(at, format), Content: string(content)},
	}
}
