// Package cli defines the cobra commands of the activetime binary.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/actionsum/activetime/internal/config"
)

var (
	version = "0.1.0" // set via ldflags at build time
	commit  = "unknown"
	date    = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "activetime",
	Short: "Desktop activity tracker",
	Long: `activetime records how long each application holds the foreground
while you are at the keyboard. Idle and locked time is never counted.

Environment Variables:
  ACTIVETIME_CONFIG            Config file path
  ACTIVETIME_DB_PATH           Database file path
  ACTIVETIME_POLL_INTERVAL     Poll interval in seconds (1-60)
  ACTIVETIME_IDLE_THRESHOLD    Idle threshold in seconds
  ACTIVETIME_SUSPEND_GAP       Sample gap treated as a suspend, in seconds
  ACTIVETIME_BROWSER_TRACKING  Resolve browser tabs (true/false)
  ACTIVETIME_PID_FILE          PID file path
  ACTIVETIME_TIMEZONE          Time zone for dates and reports
  ACTIVETIME_WEB_HOST          Web API host
  ACTIVETIME_WEB_PORT          Web API port`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if configPath != "" {
			os.Setenv("ACTIVETIME_CONFIG", configPath)
		}
	},
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig builds and validates the configuration
func loadConfig() (*config.Config, error) {
	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/activetime/config.yaml)")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(usageCmd)
	rootCmd.AddCommand(rangeCmd)
	rootCmd.AddCommand(errorsCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(categoryCmd)
	rootCmd.AddCommand(goalsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
