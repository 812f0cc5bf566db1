package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// settingsCmd reads and writes user preferences
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read and write preferences",
	Long: `Read and write preferences stored in settings.toml in the state directory.

Keys:
  monitoring-enabled       Scan new messages (bool)
  autopaste-enabled        Paste the code into the focused app (bool)
  autopaste-delay          Seconds before pasting, 0.1 to 3.0 (number)
  autopaste-autoenter      Press return after pasting (bool)
  show-notification        Post a notification for each code (bool)
  launch-at-login-enabled  Start at login (bool)
  show-menubar-icon        Show the menu bar icon (bool)
  show-window-hotkey       Hotkey for the main window (text)`,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every setting",
	Args:  cobra.NoArgs,
	RunE:  runSettingsList,
}

func init() {
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsListCmd)
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		v, err := a.settings.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
		return nil
	})
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		if err := a.settings.Set(args[0], args[1]); err != nil {
			return err
		}
		v, _ := a.settings.Get(args[0])
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], v)
		return nil
	})
}

func runSettingsList(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, s := range a.settings.List() {
			fmt.Fprintf(tw, "%s\t%s\n", s.Key, s.Value)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n(%s)\n", a.settings.Path())
		return nil
	})
}
