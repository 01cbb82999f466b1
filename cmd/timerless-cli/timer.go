package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"timerless/internal/event"
	"timerless/internal/ipc"
)

var timerCmd = &cobra.Command{
	Use:   "timer",
	Short: "Control the remote timer",
}

func timerAction(use, short, name string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendAndPrint(ipc.Command{Name: name})
		},
	}
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the timer durations",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the timer durations",
	RunE: func(cmd *cobra.Command, args []string) error {
		tc, err := fetchTimerConfig()
		if err != nil {
			return err
		}
		fmt.Printf("work:        %vm\n", tc.WorkMinutes)
		fmt.Printf("short break: %vm\n", tc.ShortBreakMinutes)
		fmt.Printf("long break:  %vm\n", tc.LongBreakMinutes)
		fmt.Printf("long break every %d sessions\n", tc.LongBreakInterval)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change timer durations; unset flags keep their current value",
	RunE: func(cmd *cobra.Command, args []string) error {
		tc, err := fetchTimerConfig()
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("work") {
			tc.WorkMinutes, _ = flags.GetFloat64("work")
		}
		if flags.Changed("short") {
			tc.ShortBreakMinutes, _ = flags.GetFloat64("short")
		}
		if flags.Changed("long") {
			tc.LongBreakMinutes, _ = flags.GetFloat64("long")
		}
		if flags.Changed("threshold") {
			tc.LongBreakInterval, _ = flags.GetInt("threshold")
		}
		if err := tc.Validate(); err != nil {
			return err
		}
		return sendAndPrint(ipc.Command{Name: ipc.CmdSetConfig, Args: ipc.SetConfigArgs{Config: tc}})
	},
}

func fetchTimerConfig() (event.TimerConfig, error) {
	resp, err := send(ipc.Command{Name: ipc.CmdGetConfig})
	if err != nil {
		return event.TimerConfig{}, err
	}
	var tc event.TimerConfig
	if err := ipc.DecodeData(resp.Data, &tc); err != nil {
		return event.TimerConfig{}, err
	}
	return tc, nil
}

func init() {
	timerCmd.AddCommand(
		timerAction("start", "Start a work span", ipc.CmdStartWork),
		timerAction("break", "Request a break", ipc.CmdRequestBreak),
		timerAction("pause", "Pause the timer", ipc.CmdPause),
		timerAction("resume", "Resume the timer", ipc.CmdResume),
		timerAction("toggle", "Pause when running, resume otherwise", ipc.CmdToggle),
		timerAction("stop", "Stop the timer", ipc.CmdStop),
		timerAction("reset", "Reset work to its full duration", ipc.CmdReset),
		timerAction("clear", "Clear the timer session and start a new local session", ipc.CmdClear),
	)

	configSetCmd.Flags().Float64("work", 0, "Work minutes")
	configSetCmd.Flags().Float64("short", 0, "Short break minutes")
	configSetCmd.Flags().Float64("long", 0, "Long break minutes")
	configSetCmd.Flags().Int("threshold", 0, "Work sessions before a long break")
	configCmd.AddCommand(configShowCmd, configSetCmd)
}
