package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"

	"timerless/internal/export"
	"timerless/internal/ipc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the live timer state and the open cycle",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := fetchStatus()
		if err != nil {
			return err
		}
		fmt.Print(formatStatus(st, time.Now()))
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live view of the timer state (q to quit)",
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		return runWatch(interval)
	},
}

func fetchStatus() (ipc.StatusData, error) {
	resp, err := send(ipc.Command{Name: ipc.CmdGetStatus})
	if err != nil {
		return ipc.StatusData{}, err
	}
	var st ipc.StatusData
	if err := ipc.DecodeData(resp.Data, &st); err != nil {
		return ipc.StatusData{}, err
	}
	return st, nil
}

func formatStatus(st ipc.StatusData, now time.Time) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	if st.Live == nil {
		line("phase:     unknown (no successful poll yet)")
	} else {
		remaining := st.Live.Formatted
		if remaining == "" {
			remaining = "00:00"
		}
		running := "paused"
		if st.Live.Running {
			running = "running"
		}
		line("phase:     %s (%s)", st.Live.Phase, running)
		line("remaining: %s", remaining)
		line("sessions:  %d", st.Live.Completed)
	}
	if !st.Reachable && !st.LastPoll.IsZero() {
		line("server:    unreachable")
	}
	if st.Message != "" {
		line("message:   %s", st.Message)
	}

	if st.Open != nil {
		elapsed := now.Sub(st.Open.Work.Start)
		if st.Open.Work.End != nil {
			elapsed = st.Open.Work.Actual()
		}
		line("open work: since %s (%s)", st.Open.Work.Start.Local().Format("15:04:05"), export.FormatSeconds(elapsed))
		if st.Open.Break != nil {
			line("on break:  since %s", st.Open.Break.Start.Local().Format("15:04:05"))
		}
	}
	line("session:   %s (%d cycles logged)", st.SessionID, st.Committed)
	return b.String()
}

func runWatch(interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}

	ui := tview.NewApplication()
	view := tview.NewTextView()
	view.SetBorder(true).SetTitle(" timerless (q to quit) ")

	ui.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
			ui.Stop()
			return nil
		}
		return ev
	})

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			text := ""
			if st, err := fetchStatus(); err != nil {
				text = "error: " + err.Error()
			} else {
				text = formatStatus(st, time.Now())
			}
			ui.QueueUpdateDraw(func() { view.SetText(text) })

			select {
			case <-done:
				return
			case <-ticker.C:
			}
		}
	}()

	err := ui.SetRoot(view, true).Run()
	close(done)
	return err
}

func init() {
	watchCmd.Flags().Duration("interval", time.Second, "Refresh interval")
}
