package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/actionsum/activetime/internal/daemon"
)

var stopTimeoutFlag time.Duration

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the tracking daemon",
	Long:  `Stop the daemon and wait for it to save the open session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		dm := daemon.New(cfg.Daemon.PIDFile, cfg.Daemon.LogFile)
		_, pid, _ := dm.IsRunning()

		if pid != 0 {
			fmt.Printf("Stopping daemon (PID: %d)...\n", pid)
		}
		if err := dm.Stop(stopTimeoutFlag); err != nil {
			if errors.Is(err, daemon.ErrNotRunning) {
				fmt.Println("Daemon is not running")
				return nil
			}
			return fmt.Errorf("failed to stop daemon: %w", err)
		}

		fmt.Println("Daemon stopped successfully")
		return nil
	},
}

func init() {
	stopCmd.Flags().DurationVar(&stopTimeoutFlag, "timeout", 15*time.Second, "How long to wait for the daemon to exit")
}
