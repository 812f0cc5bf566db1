// Command automessage watches incoming text messages for verification codes,
// copies each code to the clipboard and optionally pastes it into the focused app.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/devricklin/automessage/internal/conf"
)

var (
	// Global flags
	verbose bool

	// Shared across commands
	cfg    *conf.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "automessage",
	Short: "Extract verification codes from incoming messages",
	Long: `automessage polls the Messages database for new texts, matches them
against an ordered list of rules and copies the first extracted code to the
clipboard. It can also paste the code into the focused application and
press return.

Start the daemon with "automessage run", then turn monitoring on with
"automessage monitor start".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load .env file
		_ = godotenv.Load()

		cfg = conf.LoadFromEnv()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		// Initialize logger
		var err error
		logger, err = newLogger(cfg.Log.Level, verbose || cfg.Debug)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func newLogger(level string, debug bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if debug {
		lvl = zapcore.DebugLevel
	}
	config.Level = zap.NewAtomicLevelAt(lvl)
	// stdout belongs to command output and the MCP transport
	config.OutputPaths = []string{"stderr"}
	return config.Build()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(mcpCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
