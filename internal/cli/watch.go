package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/actionsum/activetime/internal/watch"
	"github.com/actionsum/activetime/internal/web"
)

var refreshFlag time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live view of the running daemon (requires serve)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("watch needs a terminal")
		}

		client := web.NewClient(cfg.WebAddress(), 2*time.Second)
		ctx, cancel := context.WithTimeout(cmdContext(cmd), 2*time.Second)
		defer cancel()
		if err := client.Health(ctx); err != nil {
			return fmt.Errorf("web API not reachable at %s, start the daemon with 'activetime serve': %w", cfg.WebAddress(), err)
		}

		return watch.Run(client, refreshFlag)
	},
}

func init() {
	watchCmd.Flags().DurationVar(&refreshFlag, "refresh", 2*time.Second, "Refresh interval")
}
