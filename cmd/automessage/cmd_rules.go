package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/devricklin/automessage/internal/biz/domain"
	"github.com/devricklin/automessage/internal/biz/usecase"
	"github.com/devricklin/automessage/internal/conf"
)

// rulesCmd manages extraction rules
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage code extraction rules",
	Long: `Rules are tried in order; the first enabled rule whose pattern matches a
message wins. A rule can be addressed by id or by its 1-based position.

Subcommands:
  list     - List rules in match order
  add      - Append a rule
  edit     - Change a rule
  remove   - Delete a rule
  enable   - Enable a rule
  disable  - Disable a rule
  move     - Change a rule's position
  test     - Try a pattern against sample text
  export   - Write rules as YAML
  import   - Replace rules from YAML`,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules in match order",
	Args:  cobra.NoArgs,
	RunE:  runRulesList,
}

var rulesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Append a rule",
	Args:  cobra.NoArgs,
	RunE:  runRulesAdd,
}

var rulesEditCmd = &cobra.Command{
	Use:   "edit <rule>",
	Short: "Change a rule",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesEdit,
}

var rulesRemoveCmd = &cobra.Command{
	Use:   "remove <rule>",
	Short: "Delete a rule",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesRemove,
}

var rulesEnableCmd = &cobra.Command{
	Use:   "enable <rule>",
	Short: "Enable a rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRuleEnabled(cmd, args[0], true)
	},
}

var rulesDisableCmd = &cobra.Command{
	Use:   "disable <rule>",
	Short: "Disable a rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRuleEnabled(cmd, args[0], false)
	},
}

var rulesMoveCmd = &cobra.Command{
	Use:   "move <rule> <position>",
	Short: "Move a rule to a 1-based position",
	Args:  cobra.ExactArgs(2),
	RunE:  runRulesMove,
}

var rulesTestCmd = &cobra.Command{
	Use:   "test <pattern> <text>",
	Short: "Try a pattern against sample text",
	Args:  cobra.ExactArgs(2),
	RunE:  runRulesTest,
}

var rulesExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write rules as YAML to a file or stdout",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRulesExport,
}

var rulesImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace all rules with the rules in a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesImport,
}

// Flags
var (
	ruleName        string
	rulePattern     string
	ruleDescription string
	ruleDisabled    bool
)

func init() {
	rulesAddCmd.Flags().StringVar(&ruleName, "name", "", "Rule name")
	rulesAddCmd.Flags().StringVar(&rulePattern, "pattern", "", "Pattern (lookaround and inline flags supported)")
	rulesAddCmd.Flags().StringVar(&ruleDescription, "description", "", "Free-form description")
	rulesAddCmd.Flags().BoolVar(&ruleDisabled, "disabled", false, "Add the rule disabled")
	_ = rulesAddCmd.MarkFlagRequired("pattern")

	rulesEditCmd.Flags().StringVar(&ruleName, "name", "", "New name")
	rulesEditCmd.Flags().StringVar(&rulePattern, "pattern", "", "New pattern")
	rulesEditCmd.Flags().StringVar(&ruleDescription, "description", "", "New description")

	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesAddCmd)
	rulesCmd.AddCommand(rulesEditCmd)
	rulesCmd.AddCommand(rulesRemoveCmd)
	rulesCmd.AddCommand(rulesEnableCmd)
	rulesCmd.AddCommand(rulesDisableCmd)
	rulesCmd.AddCommand(rulesMoveCmd)
	rulesCmd.AddCommand(rulesTestCmd)
	rulesCmd.AddCommand(rulesExportCmd)
	rulesCmd.AddCommand(rulesImportCmd)
}

// resolveRule finds a rule by id or 1-based position
func resolveRule(rules domain.RuleSet, ref string) (domain.Rule, error) {
	if i := rules.IndexOf(ref); i >= 0 {
		return rules[i], nil
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(rules) {
		return rules[n-1], nil
	}
	return domain.Rule{}, fmt.Errorf("%w: %s", usecase.ErrRuleNotFound, ref)
}

func printRules(w io.Writer, rules domain.RuleSet) {
	if len(rules) == 0 {
		fmt.Fprintln(w, "No rules.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tENABLED\tNAME\tPATTERN\tID")
	for i, r := range rules {
		enabled := "no"
		if r.IsEnabled {
			enabled = "yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, enabled, r.Name, r.Pattern, r.ID)
	}
	tw.Flush()
}

func runRulesList(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		printRules(cmd.OutOrStdout(), a.rules.Snapshot())
		return nil
	})
}

func runRulesAdd(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		rule := domain.NewRule(ruleName, rulePattern, ruleDescription)
		rule.IsEnabled = !ruleDisabled

		if res := a.matcher.TestPattern(rule.Pattern, ""); res.Invalid() {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: pattern does not compile and will never match: %v\n", res.Err)
		}

		added, err := a.rules.Add(cmd.Context(), rule)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added rule %q (%s).\n", added.Name, added.ID)
		return nil
	})
}

func runRulesEdit(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		rule, err := resolveRule(a.rules.Snapshot(), args[0])
		if err != nil {
			return err
		}

		var patch usecase.RulePatch
		if cmd.Flags().Changed("name") {
			patch.Name = &ruleName
		}
		if cmd.Flags().Changed("pattern") {
			patch.Pattern = &rulePattern
			if res := a.matcher.TestPattern(rulePattern, ""); res.Invalid() {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: pattern does not compile and will never match: %v\n", res.Err)
			}
		}
		if cmd.Flags().Changed("description") {
			patch.Description = &ruleDescription
		}
		if patch == (usecase.RulePatch{}) {
			return fmt.Errorf("nothing to change: pass --name, --pattern or --description")
		}

		updated, err := a.rules.Update(cmd.Context(), rule.ID, patch)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated rule %q.\n", updated.Name)
		return nil
	})
}

func runRulesRemove(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		rule, err := resolveRule(a.rules.Snapshot(), args[0])
		if err != nil {
			return err
		}
		if err := a.rules.Remove(cmd.Context(), rule.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed rule %q.\n", rule.Name)
		return nil
	})
}

func setRuleEnabled(cmd *cobra.Command, ref string, enabled bool) error {
	return withApp(cmd.Context(), func(a *app) error {
		rule, err := resolveRule(a.rules.Snapshot(), ref)
		if err != nil {
			return err
		}
		updated, err := a.rules.SetEnabled(cmd.Context(), rule.ID, enabled)
		if err != nil {
			return err
		}
		state := "Disabled"
		if updated.IsEnabled {
			state = "Enabled"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s rule %q.\n", state, updated.Name)
		return nil
	})
}

func runRulesMove(cmd *cobra.Command, args []string) error {
	pos, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid position %q: %w", args[1], err)
	}
	return withApp(cmd.Context(), func(a *app) error {
		rule, err := resolveRule(a.rules.Snapshot(), args[0])
		if err != nil {
			return err
		}
		if err := a.rules.Move(cmd.Context(), rule.ID, pos-1); err != nil {
			return err
		}
		printRules(cmd.OutOrStdout(), a.rules.Snapshot())
		return nil
	})
}

func runRulesTest(cmd *cobra.Command, args []string) error {
	res := usecase.NewMatcher(cfg.Monitor.MatchTimeout).TestPattern(args[0], args[1])
	out := cmd.OutOrStdout()
	switch {
	case res.Invalid():
		fmt.Fprintf(out, "Invalid pattern: %v\n", res.Err)
	case res.Err != nil:
		fmt.Fprintf(out, "No match: %v\n", res.Err)
	case res.Matched:
		fmt.Fprintf(out, "Match: %q at %d\n", res.Text, res.Index)
	default:
		fmt.Fprintln(out, "No match.")
	}
	return nil
}

func runRulesExport(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app) error {
		if len(args) == 0 {
			return conf.EncodeRules(cmd.OutOrStdout(), a.rules.Snapshot())
		}

		f, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("create %s: %w", args[0], err)
		}
		if err := conf.EncodeRules(f, a.rules.Snapshot()); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", args[0], err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d rules to %s.\n", len(a.rules.Snapshot()), args[0])
		return nil
	})
}

func runRulesImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open %s: %w", args[0], err)
	}
	defer f.Close()

	rules, err := conf.DecodeRules(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}

	return withApp(cmd.Context(), func(a *app) error {
		if err := a.rules.Replace(cmd.Context(), rules); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rules.\n", len(rules))
		return nil
	})
}
