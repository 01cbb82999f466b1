package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"timerless/internal/cycle"
	"timerless/internal/export"
	"timerless/internal/ipc"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage the local session identity",
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendAndPrint(ipc.Command{Name: ipc.CmdGetSession})
	},
}

var sessionNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a new, empty local session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendAndPrint(ipc.Command{Name: ipc.CmdNewSession})
	},
}

var sessionClearAllCmd = &cobra.Command{
	Use:   "clear-all",
	Short: "Delete all local cycles, notes and sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return errors.New("refusing to delete all local data without --yes")
		}
		return sendAndPrint(ipc.Command{Name: ipc.CmdClearAll})
	},
}

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Show or edit the notes of the active session",
}

var notesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the notes",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := send(ipc.Command{Name: ipc.CmdGetNotes})
		if err != nil {
			return err
		}
		var notes ipc.NotesData
		if err := ipc.DecodeData(resp.Data, &notes); err != nil {
			return err
		}
		if strings.TrimSpace(notes.Body) == "" {
			fmt.Println("(no notes yet)")
			return nil
		}
		fmt.Println(notes.Body)
		return nil
	},
}

var notesSetCmd = &cobra.Command{
	Use:   "set [text|-]",
	Short: "Replace the notes; '-' reads them from stdin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := args[0]
		if body == "-" {
			raw, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read notes from stdin: %w", err)
			}
			body = string(raw)
		}
		return sendAndPrint(ipc.Command{Name: ipc.CmdSaveNotes, Args: ipc.SaveNotesArgs{Body: body}})
	},
}

var notesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the notes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendAndPrint(ipc.Command{Name: ipc.CmdClearNotes})
	},
}

var cyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "List the committed cycles of the active session",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := send(ipc.Command{Name: ipc.CmdGetCycles})
		if err != nil {
			return err
		}
		var data ipc.CyclesData
		if err := ipc.DecodeData(resp.Data, &data); err != nil {
			return err
		}
		fmt.Printf("session %s\n", data.SessionID)
		return writeCycles(os.Stdout, data.Cycles)
	},
}

func writeCycles(out io.Writer, records []cycle.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(out, "no cycles logged yet")
		return err
	}
	sum := export.Summarize(records)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSTARTED\tWORK\tBREAK\tKIND")
	for _, c := range sum.Cycles {
		brk, kind := "-", "-"
		if c.HasBreak {
			brk = export.FormatSeconds(c.BreakActual)
			if c.BreakOpen {
				brk += " (open)"
			}
			if c.BreakKind != "" {
				kind = string(c.BreakKind)
			}
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", c.Index, c.WorkStart.Local().Format("2006-01-02 15:04"),
			export.FormatSeconds(c.WorkActual), brk, kind)
	}
	fmt.Fprintf(w, "total\t\t%s\t%s\t\n", export.FormatSeconds(sum.TotalWork), export.FormatSeconds(sum.TotalBreak))
	return w.Flush()
}

func init() {
	sessionClearAllCmd.Flags().Bool("yes", false, "Confirm deleting all local data")
	sessionCmd.AddCommand(sessionShowCmd, sessionNewCmd, sessionClearAllCmd)
	notesCmd.AddCommand(notesShowCmd, notesSetCmd, notesClearCmd)
}
