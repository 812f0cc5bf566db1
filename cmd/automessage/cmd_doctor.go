package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devricklin/automessage/internal/data"
	"github.com/devricklin/automessage/internal/infra/desktop"
	"github.com/devricklin/automessage/internal/service"
)

// doctorCmd checks the permissions the pipeline depends on
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check message store access, clipboard and keystroke support",
	Long: `Doctor checks that the Messages database is readable (on macOS this needs
Full Disk Access for the terminal), that a clipboard backend exists and that
the keystroke tool used for auto-paste is installed.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	injector := desktop.NewInjector()
	doctor := service.NewDoctor(
		service.StoreProbe(cfg.Store.ChatDBPath, func(path string) error {
			source, err := data.NewChatDBRepo(path, nil)
			if err != nil {
				return err
			}
			return source.Close()
		}),
		service.ClipboardProbe(desktop.ClipboardAvailable),
		service.InjectionProbe(func() (string, bool) {
			return desktop.InjectionToolAvailable(injector)
		}),
	)

	checks := doctor.Run(cmd.Context())
	out := cmd.OutOrStdout()
	for _, c := range checks {
		mark := "ok  "
		if !c.OK {
			mark = "FAIL"
		}
		fmt.Fprintf(out, "[%s] %-16s %s\n", mark, c.Name, c.Detail)
	}
	if !service.Healthy(checks) {
		return fmt.Errorf("some checks failed")
	}
	return nil
}
