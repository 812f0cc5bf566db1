package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/devricklin/automessage/internal/infra/desktop"
)

// logCmd reads the extracted code log
var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show or clear extracted codes",
	Long: `Show or clear extracted codes.

Subcommands:
  list   - List codes, newest first
  clear  - Delete every entry
  copy   - Copy an entry's code back to the clipboard`,
}

var logListCmd = &cobra.Command{
	Use:   "list",
	Short: "List codes, newest first",
	Args:  cobra.NoArgs,
	RunE:  runLogList,
}

var logClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every entry",
	Args:  cobra.NoArgs,
	RunE:  runLogClear,
}

var logCopyCmd = &cobra.Command{
	Use:   "copy <id>",
	Short: "Copy an entry's code (or full message) to the clipboard",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogCopy,
}

// Flags
var (
	logLimit   int
	logMessage bool
)

func init() {
	logListCmd.Flags().IntVarP(&logLimit, "limit", "n", 20, "Maximum entries to show (0 for all)")
	logCopyCmd.Flags().BoolVar(&logMessage, "message", false, "Copy the full message instead of the code")

	logCmd.AddCommand(logListCmd)
	logCmd.AddCommand(logClearCmd)
	logCmd.AddCommand(logCopyCmd)
}

func runLogList(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		entries := a.audit.List(logLimit)
		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No codes logged.")
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tCODE\tRULE\tMESSAGE\tID")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.MatchedText,
				e.RuleName,
				preview(e.SourceMessageText, 40),
				e.ID,
			)
		}
		return tw.Flush()
	})
}

func runLogClear(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		n := a.audit.Len()
		if err := a.audit.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d entries.\n", n)
		return nil
	})
}

func runLogCopy(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		entry, err := a.audit.Get(args[0])
		if err != nil {
			return err
		}

		text, what := entry.MatchedText, "code"
		if logMessage {
			text, what = entry.SourceMessageText, "message"
		}
		if err := desktop.NewClipboard().SetString(text); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Copied %s to clipboard.\n", what)
		return nil
	})
}

// preview flattens text to one line of at most n runes
func preview(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n-1]) + "…"
}
