package service

import (
	"context"
)

// Check is the result of one permission probe
type Check struct {
	Name   string
	OK     bool
	Detail string
}

// Probe runs one check
type Probe func(ctx context.Context) Check

// Doctor reports the permission status the pipeline depends on.
// Read only; a failing check never blocks monitoring.
type Doctor struct {
	probes []Probe
}

// NewDoctor creates a doctor running probes in order
func NewDoctor(probes ...Probe) *Doctor {
	return &Doctor{probes: probes}
}

// Run executes every probe
func (d *Doctor) Run(ctx context.Context) []Check {
	checks := make([]Check, 0, len(d.probes))
	for _, p := range d.probes {
		checks = append(checks, p(ctx))
	}
	return checks
}

// Healthy reports whether every check passed
func Healthy(checks []Check) bool {
	for _, c := range checks {
		if !c.OK {
			return false
		}
	}
	return true
}

// StoreProbe checks that the message store can be opened (full disk access on macOS)
func StoreProbe(path string, open func(path string) error) Probe {
	return func(ctx context.Context) Check {
		c := Check{Name: "message store", OK: true, Detail: path}
		if err := open(path); err != nil {
			c.OK = false
			c.Detail = err.Error()
		}
		return c
	}
}

// ClipboardProbe checks that a clipboard backend exists
func ClipboardProbe(available func() bool) Probe {
	return func(ctx context.Context) Check {
		if available() {
			return Check{Name: "clipboard", OK: true, Detail: "available"}
		}
		return Check{Name: "clipboard", Detail: "no clipboard backend (install xclip, xsel or wl-clipboard)"}
	}
}

// InjectionProbe checks that the keystroke tool is installed
func InjectionProbe(lookup func() (string, bool)) Probe {
	return func(ctx context.Context) Check {
		tool, ok := lookup()
		switch {
		case tool == "":
			return Check{Name: "input injection", Detail: "unsupported on this platform"}
		case !ok:
			return Check{Name: "input injection", Detail: tool + " not found on PATH"}
		}
		return Check{Name: "input injection", OK: true, Detail: tool}
	}
}
