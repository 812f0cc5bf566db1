package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// monitorCmd flips the persisted monitor state
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Turn monitoring on or off",
	Long: `Turn monitoring on or off.

Subcommands:
  start   - Enable monitoring
  stop    - Disable monitoring
  status  - Show monitor state`,
}

var monitorStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Enable monitoring",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setMonitoring(cmd, true)
	},
}

var monitorStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Disable monitoring",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setMonitoring(cmd, false)
	},
}

var monitorStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show monitor state",
	Args:  cobra.NoArgs,
	RunE:  runMonitorStatus,
}

func init() {
	monitorCmd.AddCommand(monitorStartCmd)
	monitorCmd.AddCommand(monitorStopCmd)
	monitorCmd.AddCommand(monitorStatusCmd)
}

func setMonitoring(cmd *cobra.Command, enabled bool) error {
	return withApp(cmd.Context(), func(a *app) error {
		if err := a.settings.SetMonitoring(enabled); err != nil {
			return err
		}
		state := "stopped"
		if enabled {
			state = "started"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Monitoring %s.\n", state)
		return nil
	})
}

func runMonitorStatus(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		rules := a.rules.Snapshot()
		snap := a.settings.Snapshot()
		out := cmd.OutOrStdout()

		state := "off"
		if snap.Monitoring {
			state = "on"
		}
		fmt.Fprintf(out, "Monitoring:    %s\n", state)
		fmt.Fprintf(out, "Rules:         %d enabled of %d\n", rules.EnabledCount(), len(rules))
		fmt.Fprintf(out, "Logged codes:  %d\n", a.audit.Len())
		if snap.Action.AutoPasteEnabled {
			fmt.Fprintf(out, "Auto-paste:    after %gs (submit: %v)\n", snap.Action.DelaySeconds, snap.Action.AutoSubmitAfterPaste)
		} else {
			fmt.Fprintln(out, "Auto-paste:    off")
		}
		if latest, ok := a.audit.Latest(); ok {
			fmt.Fprintf(out, "Latest code:   %s (%s)\n", latest.MatchedText, latest.Timestamp.Format("2006-01-02 15:04:05"))
		}
		return nil
	})
}
