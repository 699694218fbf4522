package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/actionsum/activetime/internal/config"
	"github.com/actionsum/activetime/internal/daemon"
	"github.com/actionsum/activetime/internal/models"
	"github.com/actionsum/activetime/internal/web"
	"github.com/actionsum/activetime/pkg/detector"
	"github.com/actionsum/activetime/pkg/utils"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status and the currently focused app",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmdContext(cmd), 5*time.Second)
		defer cancel()

		dm := daemon.New(cfg.Daemon.PIDFile, cfg.Daemon.LogFile)
		running, pid, err := dm.IsRunning()
		if err != nil {
			return fmt.Errorf("failed to check daemon status: %w", err)
		}

		if !running {
			fmt.Println("Status: Not running")
		} else {
			fmt.Printf("Status: Running (PID: %d)\n", pid)
			fmt.Printf("Poll Interval: %v\n", cfg.Tracker.PollInterval)
			fmt.Printf("Idle Threshold: %v\n", cfg.Tracker.IdleThreshold)
		}

		client := web.NewClient(cfg.WebAddress(), 2*time.Second)
		if status, err := client.Status(ctx); err == nil {
			printLiveStatus(status)
			return nil
		}

		printStoredToday(ctx, cfg)
		printCurrentWindow(ctx)
		return nil
	},
}

func printLiveStatus(status *web.StatusResponse) {
	st := status.Tracker
	fmt.Println()
	switch {
	case !st.Tracking:
		fmt.Println("Tracker: stopped")
	case st.CurrentlyIdle:
		fmt.Printf("Tracker: idle since %s\n", st.IdleSince.Format("15:04:05"))
	default:
		fmt.Printf("Tracker: active in %s since %s\n", st.CurrentApp, st.SessionOpenSince.Format("15:04:05"))
		if st.CurrentTitle != "" {
			fmt.Printf("  Title: %s\n", st.CurrentTitle)
		}
	}
	if status.Degraded {
		fmt.Println("Warning: database unavailable, tracking in memory only")
	}
	fmt.Printf("Sessions: %d saved, %d dropped\n", st.SessionsSaved, st.SessionsDropped)
	if st.EventsDropped > 0 {
		fmt.Printf("Events dropped: %d\n", st.EventsDropped)
	}
	fmt.Printf("Today (%s): %s", status.Date, utils.FormatDuration(status.TodaySeconds))
	if status.TopApp != "" {
		fmt.Printf(", mostly %s", status.TopApp)
	}
	fmt.Println()
}

func printStoredToday(ctx context.Context, cfg *config.Config) {
	loc, err := cfg.Location()
	if err != nil {
		return
	}
	repo, err := openRepository(ctx, cfg)
	if err != nil {
		fmt.Printf("\nCould not open database: %v\n", err)
		return
	}
	defer repo.Close()

	today := models.DateOf(time.Now().In(loc))
	usage, err := repo.QueryByDate(ctx, today)
	if err != nil {
		fmt.Printf("\nCould not read today's usage: %v\n", err)
		return
	}

	var total float64
	for _, u := range usage {
		total += u.TotalSeconds
	}
	fmt.Printf("\nToday (%s): %s recorded\n", today, utils.FormatDuration(total))
}

func printCurrentWindow(ctx context.Context) {
	det, err := detector.New()
	if err != nil {
		fmt.Printf("\nCould not detect current window: %v\n", err)
		return
	}
	defer det.Close()

	windowInfo, err := det.FocusedWindow(ctx)
	if err == nil && windowInfo != nil {
		fmt.Printf("\nCurrent Window:\n")
		fmt.Printf("  App: %s\n", windowInfo.AppName)
		fmt.Printf("  Title: %s\n", windowInfo.WindowTitle)
		fmt.Printf("  Display: %s\n", windowInfo.DisplayServer)
	}

	idleInfo, err := det.Idle(ctx)
	if err == nil && idleInfo != nil {
		fmt.Printf("\nSystem State:\n")
		fmt.Printf("  Locked: %v\n", idleInfo.IsLocked)
		fmt.Printf("  Idle Time: %ds\n", idleInfo.IdleSeconds)
	}
}

// cmdContext returns the command's context, which is nil when a command
// runs outside ExecuteContext
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
