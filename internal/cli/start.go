package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/actionsum/activetime/internal/config"
	"github.com/actionsum/activetime/internal/daemon"
)

var foregroundFlag bool

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the tracking daemon",
	Long: `Start tracking in the background. The daemon writes its PID and log
to the configured files. Use --foreground to stay attached to the terminal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startDaemon(cmd, false)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tracking daemon with the web API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return startDaemon(cmd, true)
	},
}

func init() {
	startCmd.Flags().BoolVarP(&foregroundFlag, "foreground", "f", false, "Run in the foreground")
	serveCmd.Flags().BoolVarP(&foregroundFlag, "foreground", "f", false, "Run in the foreground")
}

func startDaemon(cmd *cobra.Command, withWeb bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dm := daemon.New(cfg.Daemon.PIDFile, cfg.Daemon.LogFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if running && !daemon.IsChild() {
		return fmt.Errorf("daemon is already running (PID: %d)", pid)
	}

	if !foregroundFlag && !daemon.IsChild() {
		childArgs := []string{cmd.Name()}
		if configPath != "" {
			childArgs = append(childArgs, "--config", configPath)
		}
		pid, err := dm.Spawn(childArgs)
		if err != nil {
			return err
		}
		fmt.Printf("Daemon started successfully (PID: %d)\n", pid)
		if withWeb {
			fmt.Printf("Web API available at: http://%s\n", cfg.WebAddress())
		}
		fmt.Printf("Logs: %s\n", cfg.Daemon.LogFile)
		return nil
	}

	if daemon.IsChild() {
		restore, err := dm.RedirectLog()
		if err != nil {
			return err
		}
		defer restore()
	}

	return runDaemon(cmd.Context(), cfg, dm, withWeb)
}

func runDaemon(ctx context.Context, cfg *config.Config, dm *daemon.Daemon, withWeb bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := newEngine(ctx, cfg)
	if err != nil {
		return err
	}

	if err := dm.WritePID(); err != nil {
		eng.close()
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	defer dm.RemovePID()

	log.Println("Starting activetime daemon...")
	if withWeb {
		log.Printf("Web API available at: http://%s", cfg.WebAddress())
	}
	log.Printf("%s", cfg.String())

	if err := eng.run(ctx, withWeb); err != nil {
		return err
	}

	log.Println("Daemon stopped successfully")
	return nil
}
