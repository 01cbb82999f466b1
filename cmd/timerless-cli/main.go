package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"timerless/internal/config"
	"timerless/internal/ipc"
)

var (
	configPath string
	socketPath string
	dbPath     string
	verbose    bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "timerless-cli",
	Short: "CLI tool to interact with the timerless daemon",
	Long: `A command-line interface to drive the remote pomodoro timer, inspect the
reconstructed work/break cycles and export them, via the timerless daemon's Unix socket.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !verbose {
			log.SetOutput(io.Discard)
		}
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
		if socketPath != "" {
			cfg.SocketPath = socketPath
		}
		if dbPath != "" {
			cfg.DatabasePath = dbPath
		}
		return nil
	},
}

// send delivers a command and turns a daemon-side failure into an error.
func send(cmd ipc.Command) (ipc.Response, error) {
	resp, err := ipc.Send(cfg.SocketPath, cmd, 30*time.Second)
	if err != nil {
		if errors.Is(err, ipc.ErrDaemonUnavailable) {
			return resp, fmt.Errorf("%w\nIs the timerless daemon running?", err)
		}
		return resp, err
	}
	if !resp.Success {
		return resp, errors.New(resp.Message)
	}
	return resp, nil
}

// sendAndPrint sends a command and prints the message and any data.
func sendAndPrint(cmd ipc.Command) error {
	resp, err := send(cmd)
	if err != nil {
		return err
	}
	if resp.Message != "" {
		fmt.Println(resp.Message)
	}
	if resp.Data != nil {
		pretty, err := json.MarshalIndent(resp.Data, "", "  ")
		if err != nil {
			fmt.Println("Data (raw):", resp.Data)
			return nil
		}
		fmt.Println(string(pretty))
	}
	return nil
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check if the timerless daemon is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendAndPrint(ipc.Command{Name: ipc.CmdPing})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "", "Daemon socket path (default: from config)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path for offline commands (default: from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show log output")

	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(timerCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(notesCmd)
	rootCmd.AddCommand(cyclesCmd)
	rootCmd.AddCommand(exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
