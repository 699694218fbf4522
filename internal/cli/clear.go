package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/actionsum/activetime/internal/web"
)

var (
	yesFlag    bool
	daemonFlag bool
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all tracking data",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if !yesFlag {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return fmt.Errorf("refusing to clear without a terminal; pass --yes")
			}
			if !confirm(os.Stdin, os.Stdout, "This will delete all tracking data. Are you sure? (yes/no): ") {
				fmt.Println("Operation cancelled")
				return nil
			}
		}

		ctx := cmdContext(cmd)
		if daemonFlag {
			if err := clearViaDaemon(ctx, cfg.WebAddress()); err != nil {
				return err
			}
			fmt.Println("Daemon data cleared successfully")
			return nil
		}

		repo, err := openRepository(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer repo.Close()

		if err := repo.ClearAll(ctx); err != nil {
			return fmt.Errorf("failed to clear database: %w", err)
		}

		fmt.Println("Database cleared successfully")
		return nil
	},
}

// clearViaDaemon asks the running daemon to clear its store, which also
// covers a daemon tracking in memory only
func clearViaDaemon(ctx context.Context, addr string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := web.NewClient(addr, 5*time.Second)
	if err := client.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear daemon data at %s: %w", addr, err)
	}
	return nil
}

func init() {
	clearCmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "Skip the confirmation prompt")
	clearCmd.Flags().BoolVar(&daemonFlag, "daemon", false, "Clear through the running daemon's web API")
}

// confirm prints prompt and reads one answer line
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
