package app

import (
	"context"
	"log"
	"time"

	"timerless/internal/cycle"
	"timerless/internal/event"
	"timerless/internal/ipc"
)

const submitTimeout = 15 * time.Second

type request struct {
	fn   func(ctx context.Context) ipc.Response
	done chan ipc.Response
}

// pollLoop is the only goroutine that touches the reconstructor state. It
// polls on every tick and runs queued requests in between, so a poll and a
// mutation never overlap.
func (a *App) pollLoop(ctx context.Context) {
	defer log.Println("Poll loop stopped.")

	a.restore(ctx)

	ticker := time.NewTicker(a.cfg.PollInterval())
	defer ticker.Stop()

	a.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.tick(ctx)
		case d := <-a.intervals:
			ticker.Reset(d)
			log.Printf("Poll interval set to %s", d)
		case req := <-a.requests:
			req.done <- req.fn(ctx)
		}
	}
}

// submit runs fn on the poll loop and waits for its response.
func (a *App) submit(fn func(ctx context.Context) ipc.Response) ipc.Response {
	req := request{fn: fn, done: make(chan ipc.Response, 1)}
	select {
	case a.requests <- req:
	case <-a.ctx.Done():
		return ipc.Response{Success: false, Message: "Daemon is shutting down"}
	case <-time.After(submitTimeout):
		return ipc.Response{Success: false, Message: "Timeout waiting for the poll loop"}
	}
	select {
	case resp := <-req.done:
		return resp
	case <-a.ctx.Done():
		return ipc.Response{Success: false, Message: "Daemon is shutting down"}
	}
}

// restore resolves the active session and, when enabled, picks up the open
// cycle from the last checkpoint.
func (a *App) restore(ctx context.Context) {
	sid, err := a.sessions.Current(ctx)
	if err != nil {
		log.Printf("Warning: cannot resolve session: %v", err)
	}
	a.committed = len(a.history.ReadAll(ctx))

	if a.cfg.ResumeOpenCycle {
		if cp, ok := a.history.LoadCheckpoint(ctx); ok {
			a.state = cp.Restore()
			a.checkpoint = &cp
			if cp.Open != nil {
				log.Printf("Resumed open cycle: work started %s ago", formatDuration(a.now().Sub(cp.Open.Work.Start)))
			}
		}
	}

	a.updateStatus(func(s *ipc.StatusData) {
		s.SessionID = sid
		s.Committed = a.committed
		s.Open = a.state.Checkpoint().Open
	})
	log.Printf("Session %s: %d committed cycles", sid, a.committed)
}

// tick polls once and feeds the snapshot through the reconstructor.
// A failed poll leaves the state untouched; the next tick is the retry.
func (a *App) tick(ctx context.Context) {
	snap, err := a.remote.Snapshot(ctx)
	now := a.now()
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Printf("Warning: poll failed: %v", err)
		a.updateStatus(func(s *ipc.StatusData) {
			s.Reachable = false
			s.Message = MsgUnreachable
			s.LastPoll = now
		})
		return
	}

	next, rec := cycle.Step(a.state, snap, now)
	a.state = next

	msg := EventMessage(snap.LastEvent)
	if rec != nil {
		if err := a.history.Append(ctx, *rec); err != nil {
			msg = MsgSaveFailed
		} else {
			a.committed++
		}
	}
	a.saveCheckpoint(ctx)

	a.updateStatus(func(s *ipc.StatusData) {
		s.Reachable = true
		if msg != "" {
			s.Message = msg
		}
		s.Live = &snap
		s.Open = a.state.Checkpoint().Open
		s.Committed = a.committed
		s.LastPoll = now
	})
}

func (a *App) saveCheckpoint(ctx context.Context) {
	if !a.cfg.ResumeOpenCycle {
		return
	}
	cp := a.state.Checkpoint()
	if a.checkpoint != nil && a.checkpoint.Equal(cp) {
		return
	}
	if err := a.history.SaveCheckpoint(ctx, cp); err != nil {
		log.Printf("Warning: failed to save checkpoint: %v", err)
		return
	}
	a.checkpoint = &cp
}

// resetLocal drops the reconstructor state after the session identity
// changed. It must run on the poll loop.
func (a *App) resetLocal(sid string) {
	a.state = cycle.State{}
	a.checkpoint = nil
	a.committed = 0
	a.updateStatus(func(s *ipc.StatusData) {
		s.SessionID = sid
		s.Open = nil
		s.Committed = 0
	})
}

func (a *App) updateStatus(fn func(s *ipc.StatusData)) {
	a.statusMutex.Lock()
	defer a.statusMutex.Unlock()
	fn(&a.status)
}

func (a *App) currentStatus() ipc.StatusData {
	a.statusMutex.RLock()
	defer a.statusMutex.RUnlock()
	s := a.status
	if s.Live != nil {
		live := *s.Live
		s.Live = &live
	}
	return s
}

func (a *App) liveSnapshot() *event.Snapshot {
	return a.currentStatus().Live
}
