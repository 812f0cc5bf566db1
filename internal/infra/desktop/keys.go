package desktop

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/devricklin/automessage/internal/biz/repo"
)

// Command runs an external program
type Command func(ctx context.Context, name string, args ...string) error

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// keystroke is one platform invocation
type keystroke struct {
	name string
	args []string
}

// Injector synthesizes paste and submit keystrokes into the focused application.
// darwin uses System Events through osascript; linux uses xdotool.
type Injector struct {
	goos   string
	run    Command
	paste  *keystroke
	submit *keystroke
}

// NewInjector creates an injector for the running platform
func NewInjector() *Injector {
	return NewInjectorFor(runtime.GOOS, runCommand)
}

// NewInjectorFor creates an injector for goos that executes through run
func NewInjectorFor(goos string, run Command) *Injector {
	inj := &Injector{goos: goos, run: run}
	switch goos {
	case "darwin":
		inj.paste = &keystroke{"osascript", []string{"-e", `tell application "System Events" to keystroke "v" using command down`}}
		inj.submit = &keystroke{"osascript", []string{"-e", `tell application "System Events" to key code 36`}}
	case "linux":
		inj.paste = &keystroke{"xdotool", []string{"key", "--clearmodifiers", "ctrl+v"}}
		inj.submit = &keystroke{"xdotool", []string{"key", "--clearmodifiers", "Return"}}
	}
	return inj
}

// Paste sends the platform paste combination
func (i *Injector) Paste(ctx context.Context) error {
	return i.send(ctx, i.paste)
}

// Submit sends the return key
func (i *Injector) Submit(ctx context.Context) error {
	return i.send(ctx, i.submit)
}

// Tool returns the external program used for injection, or "" when unsupported
func (i *Injector) Tool() string {
	if i.paste == nil {
		return ""
	}
	return i.paste.name
}

func (i *Injector) send(ctx context.Context, k *keystroke) error {
	if k == nil {
		return fmt.Errorf("%w: %s", repo.ErrInjectionUnsupported, i.goos)
	}
	return i.run(ctx, k.name, k.args...)
}

// InjectionToolAvailable reports whether the injection program is on PATH
func InjectionToolAvailable(i *Injector) (string, bool) {
	tool := i.Tool()
	if tool == "" {
		return "", false
	}
	_, err := exec.LookPath(tool)
	return tool, err == nil
}
