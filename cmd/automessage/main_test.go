package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devricklin/automessage/internal/biz/domain"
)

// execute runs the root command against a temporary state directory
func execute(t *testing.T, stateDir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("AUTOMESSAGE_STATE_DIR", stateDir)
	t.Setenv("AUTOMESSAGE_CHAT_DB", filepath.Join(stateDir, "missing-chat.db"))
	t.Setenv("RULES_SEED_PATH", "")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRulesCommands(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "rules", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "6-digit code")
	assert.Contains(t, out, "4-8 char alphanumeric code")

	_, err = execute(t, dir, "rules", "add", "--name", "bank", "--pattern", `[0-9]{8}`)
	require.NoError(t, err)

	_, err = execute(t, dir, "rules", "move", "3", "1")
	require.NoError(t, err)

	_, err = execute(t, dir, "rules", "disable", "2")
	require.NoError(t, err)

	out, err = execute(t, dir, "rules", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "bank")
	assert.Contains(t, lines[2], "no")
	assert.Contains(t, lines[2], "6-digit code")

	_, err = execute(t, dir, "rules", "remove", "9")
	assert.Error(t, err)
}

func TestRulesExportImport(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(t.TempDir(), "rules.yaml")

	_, err := execute(t, dir, "rules", "export", file)
	require.NoError(t, err)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "6-digit code")

	custom := "rules:\n  - name: only\n    pattern: '[0-9]{4}'\n"
	require.NoError(t, os.WriteFile(file, []byte(custom), 0644))

	out, err := execute(t, dir, "rules", "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 rules")

	out, err = execute(t, dir, "rules", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "only")
	assert.NotContains(t, out, "6-digit code")
}

func TestRulesTestCommand(t *testing.T) {
	out, err := execute(t, t.TempDir(), "rules", "test", `(?<![0-9])[0-9]{6}(?![0-9])`, "Your verification code is 482913")
	require.NoError(t, err)
	assert.Contains(t, out, `Match: "482913" at 26`)

	out, err = execute(t, t.TempDir(), "rules", "test", `(?<![0-9])[0-9]{6}(?![0-9])`, "12345")
	require.NoError(t, err)
	assert.Contains(t, out, "No match.")
}

func TestSettingsAndMonitorCommands(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, dir, "settings", "set", domain.KeyAutoPasteDelay, "9")
	require.NoError(t, err)

	out, err := execute(t, dir, "settings", "get", domain.KeyAutoPasteDelay)
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)

	_, err = execute(t, dir, "settings", "set", "no-such-key", "1")
	assert.Error(t, err)

	_, err = execute(t, dir, "monitor", "start")
	require.NoError(t, err)

	out, err = execute(t, dir, "monitor", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Monitoring:    on")
	assert.Contains(t, out, "2 enabled of 2")
}

func TestLogCommandsEmpty(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "log", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No codes logged.")

	_, err = execute(t, dir, "log", "copy", "missing")
	assert.Error(t, err)
}

func TestResolveRule(t *testing.T) {
	rules := domain.DefaultRules()

	r, err := resolveRule(rules, rules[1].ID)
	require.NoError(t, err)
	assert.Equal(t, rules[1].Name, r.Name)

	r, err = resolveRule(rules, "1")
	require.NoError(t, err)
	assert.Equal(t, rules[0].Name, r.Name)

	_, err = resolveRule(rules, "0")
	assert.Error(t, err)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b", preview("a\n  b", 10))
	assert.Equal(t, "abcd…", preview("abcdefgh", 5))
}
