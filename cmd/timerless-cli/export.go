package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"timerless/internal/cyclelog"
	"timerless/internal/export"
	"timerless/internal/ipc"
	"timerless/internal/session"
	"timerless/internal/storage"

	sqlitestore "timerless/internal/storage/sqlite"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the session timeline and notes",
	Long: `Export the committed cycles of the active session, the live timer state and the
session notes. The file is named from the export time, e.g. timerless-notes-20261019-1631.md.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		formatName, _ := flags.GetString("format")
		dir, _ := flags.GetString("dir")
		toStdout, _ := flags.GetBool("stdout")
		preview, _ := flags.GetBool("preview")
		offline, _ := flags.GetBool("offline")

		format, err := export.ParseFormat(formatName)
		if err != nil {
			return err
		}
		if dir == "" {
			dir = cfg.ExportDir
		}

		var name string
		var content []byte
		if offline {
			name, content, err = exportOffline(format)
		} else {
			name, content, err = exportOnline(format)
		}
		if err != nil {
			return err
		}

		switch {
		case preview && format == export.FormatMarkdown:
			fmt.Println(export.Preview(string(content), 0))
		case toStdout || preview:
			os.Stdout.Write(content)
		}
		if toStdout {
			return nil
		}

		path, err := export.Save(afero.NewOsFs(), dir, name, content)
		if err != nil {
			return err
		}
		fmt.Printf("%s exported to %s\n", format, path)
		return nil
	},
}

func exportOnline(format export.Format) (string, []byte, error) {
	resp, err := send(ipc.Command{Name: ipc.CmdExport, Args: ipc.ExportArgs{Format: string(format)}})
	if err != nil {
		return "", nil, err
	}
	var data ipc.ExportData
	if err := ipc.DecodeData(resp.Data, &data); err != nil {
		return "", nil, err
	}
	return data.FileName, []byte(data.Content), nil
}

// exportOffline reads the cycle log straight from the database. There is no
// live timer state or timer config without the daemon.
func exportOffline(format export.Format) (string, []byte, error) {
	if _, err := os.Stat(cfg.DatabasePath); err != nil {
		return "", nil, fmt.Errorf("database not found at %s, check --db or database_path: %w", cfg.DatabasePath, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store := sqlitestore.NewSQLiteStore(cfg.DatabasePath)
	if err := store.Init(ctx); err != nil {
		return "", nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	at := time.Now()
	report, err := offlineReport(ctx, store, at)
	if err != nil {
		return "", nil, err
	}
	content, err := export.Render(report, format)
	if err != nil {
		return "", nil, err
	}
	return export.FileName(at, format), content, nil
}

// offlineReport reads the stored session without creating one. A database
// that never had a session exports an empty report.
func offlineReport(ctx context.Context, store storage.Storage, at time.Time) (export.Report, error) {
	report := export.Report{GeneratedAt: at}
	sid, ok, err := store.GetValue(ctx, session.ActiveKey)
	if err != nil {
		return report, fmt.Errorf("failed to read session: %w", err)
	}
	if !ok || sid == "" {
		return report, nil
	}

	history := cyclelog.New(store, session.Static(sid))
	notes, err := history.Notes(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to read notes: %w", err)
	}
	report.Cycles = history.ReadAll(ctx)
	report.Notes = notes
	return report, nil
}

func init() {
	exportCmd.Flags().StringP("format", "f", "markdown", "Export format: markdown, json or yaml")
	exportCmd.Flags().StringP("dir", "o", "", "Output directory (default: export_dir from config)")
	exportCmd.Flags().Bool("stdout", false, "Print the export instead of writing a file")
	exportCmd.Flags().Bool("preview", false, "Also render the export in the terminal")
	exportCmd.Flags().Bool("offline", false, "Read the local database directly instead of asking the daemon")
}
