package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/actionsum/activetime/internal/goals"
	"github.com/actionsum/activetime/internal/models"
	"github.com/actionsum/activetime/pkg/utils"
)

var goalsCmd = &cobra.Command{
	Use:   "goals",
	Short: "Check and edit the daily screen time goal and app limits",
}

var goalsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Show limits that are close to or past their value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		loc, err := cfg.Location()
		if err != nil {
			return err
		}
		path, err := cfg.GoalsPath()
		if err != nil {
			return err
		}
		m, err := goals.Load(path)
		if err != nil {
			return err
		}

		date := dateFlag
		if date == "" {
			date = models.DateOf(time.Now().In(loc))
		}

		ctx := cmdContext(cmd)
		repo, err := openRepository(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer repo.Close()

		warnings, err := goals.NewChecker(repo, m).Check(ctx, date)
		if err != nil {
			return err
		}
		if jsonFlag {
			return printJSON(warnings)
		}
		printGoals(os.Stdout, date, m.Settings(), warnings)
		return nil
	},
}

var goalsDailyCmd = &cobra.Command{
	Use:   "daily <duration>",
	Short: "Set the daily screen time limit, e.g. 6h30m",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, err := time.ParseDuration(args[0])
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", args[0], err)
		}
		return editGoals(func(m *goals.Manager) error {
			if err := m.SetDailyLimit(limit); err != nil {
				return err
			}
			fmt.Printf("Daily limit set to %s\n", utils.FormatDuration(limit.Seconds()))
			return nil
		})
	},
}

var goalsLimitCmd = &cobra.Command{
	Use:   "limit <app> <duration>",
	Short: "Set a daily time limit for one app",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, err := time.ParseDuration(args[1])
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", args[1], err)
		}
		return editGoals(func(m *goals.Manager) error {
			if err := m.SetAppLimit(args[0], limit); err != nil {
				return err
			}
			fmt.Printf("%s is limited to %s a day\n", args[0], utils.FormatDuration(limit.Seconds()))
			return nil
		})
	},
}

var goalsUnlimitCmd = &cobra.Command{
	Use:   "unlimit <app>",
	Short: "Remove an app's time limit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editGoals(func(m *goals.Manager) error {
			if !m.RemoveAppLimit(args[0]) {
				return fmt.Errorf("%s has no limit", args[0])
			}
			fmt.Printf("Removed the limit for %s\n", args[0])
			return nil
		})
	},
}

// editGoals loads the goals file, applies edit and saves it
func editGoals(edit func(*goals.Manager) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path, err := cfg.GoalsPath()
	if err != nil {
		return err
	}
	m, err := goals.Load(path)
	if err != nil {
		return err
	}
	if err := edit(m); err != nil {
		return err
	}
	if err := m.Save(); err != nil {
		return fmt.Errorf("failed to save goals: %w", err)
	}
	return nil
}

func printGoals(w io.Writer, date string, settings goals.Settings, warnings []goals.Warning) {
	fmt.Fprintf(w, "Goals for %s\n", date)
	if settings.DailyLimitEnabled && settings.DailyLimit > 0 {
		fmt.Fprintf(w, "  Daily limit: %s\n", utils.FormatDuration(settings.DailyLimit.Seconds()))
	} else {
		fmt.Fprintln(w, "  Daily limit: off")
	}
	if settings.AppLimitsEnabled {
		apps := make([]string, 0, len(settings.AppLimits))
		for app := range settings.AppLimits {
			apps = append(apps, app)
		}
		sort.Strings(apps)
		for _, app := range apps {
			fmt.Fprintf(w, "  %-20s %s\n", app, utils.FormatDuration(settings.AppLimits[app].Seconds()))
		}
	}

	if len(warnings) == 0 {
		fmt.Fprintln(w, "\nAll limits respected")
		return
	}
	fmt.Fprintln(w)
	for _, warning := range warnings {
		fmt.Fprintf(w, "[%s] %s\n", warning.Severity, warning.Message)
	}
}

func init() {
	goalsCheckCmd.Flags().StringVar(&dateFlag, "date", "", "Date to check (YYYY-MM-DD), default today")
	goalsCheckCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print warnings as JSON")
	goalsCmd.AddCommand(goalsCheckCmd)
	goalsCmd.AddCommand(goalsDailyCmd)
	goalsCmd.AddCommand(goalsLimitCmd)
	goalsCmd.AddCommand(goalsUnlimitCmd)
}
