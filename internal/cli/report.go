package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/actionsum/activetime/internal/models"
	"github.com/actionsum/activetime/internal/reporter"
	"github.com/actionsum/activetime/pkg/utils"
)

var (
	jsonFlag  bool
	dateFlag  string
	fromFlag  string
	toFlag    string
	limitFlag int
)

var reportCmd = &cobra.Command{
	Use:       "report [day|yesterday|week|month]",
	Short:     "Generate a time report",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"day", "yesterday", "week", "month"},
	RunE: func(cmd *cobra.Command, args []string) error {
		periodType := "day"
		if len(args) > 0 {
			periodType = args[0]
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		loc, err := cfg.Location()
		if err != nil {
			return err
		}

		ctx := cmdContext(cmd)
		repo, err := openRepository(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer repo.Close()

		rep := reporter.New(repo, loadCategories(cfg), loc)
		report, err := rep.GenerateReport(ctx, periodType)
		if err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}

		if jsonFlag {
			out, err := rep.FormatReportJSON(report)
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		}

		fmt.Println(rep.FormatReportText(report))
		if streak, err := rep.Streak(ctx, time.Now()); err == nil && streak > 0 {
			fmt.Printf("Productive streak: %d day(s)\n", streak)
		}
		return nil
	},
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show per-app totals for one day",
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

		usage, err := repo.QueryByDate(ctx, date)
		if err != nil {
			return err
		}
		browserUsage, err := repo.QueryBrowserByDate(ctx, date)
		if err != nil {
			return err
		}

		if jsonFlag {
			return printJSON(map[string]interface{}{
				"date":    date,
				"apps":    usage,
				"browser": browserUsage,
			})
		}

		fmt.Printf("Usage for %s\n\n", date)
		if len(usage) == 0 {
			fmt.Println("No activity recorded.")
			return nil
		}

		var total float64
		fmt.Printf("%-30s %10s %10s\n", "Application", "Time", "Sessions")
		for _, u := range usage {
			fmt.Printf("%-30s %10s %10d\n", u.AppName, utils.FormatDuration(u.TotalSeconds), u.SessionCount)
			total += u.TotalSeconds
		}
		fmt.Printf("\nTotal: %s\n", utils.FormatDuration(total))

		if len(browserUsage) > 0 {
			fmt.Printf("\nBrowser tabs:\n")
			for _, b := range browserUsage {
				label := b.TabTitle
				if b.Domain != "" {
					label = fmt.Sprintf("%s (%s)", b.TabTitle, b.Domain)
				}
				fmt.Printf("  %-12s %10s  %s\n", b.BrowserName, utils.FormatDuration(b.TotalSeconds), label)
			}
		}
		return nil
	},
}

var rangeCmd = &cobra.Command{
	Use:   "range",
	Short: "Show daily totals between two dates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := cmdContext(cmd)
		repo, err := openRepository(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer repo.Close()

		summaries, err := repo.QueryRange(ctx, fromFlag, toFlag)
		if err != nil {
			return err
		}

		if jsonFlag {
			return printJSON(summaries)
		}

		dates := make([]string, 0, len(summaries))
		for d := range summaries {
			dates = append(dates, d)
		}
		sort.Strings(dates)

		if len(dates) == 0 {
			fmt.Println("No activity recorded.")
			return nil
		}

		fmt.Printf("%-12s %10s %10s  %s\n", "Date", "Active", "Sessions", "Top app")
		for _, d := range dates {
			s := summaries[d]
			fmt.Printf("%-12s %10s %10d  %s (%s)\n", s.Date, utils.FormatDuration(s.TotalActiveSeconds),
				s.SessionCount, s.TopAppName, utils.FormatRoundedUnit(s.TopAppSeconds))
		}
		return nil
	},
}

var errorsCmd = &cobra.Command{
	Use:   "errors",
	Short: "Show recent tracker errors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := cmdContext(cmd)
		repo, err := openRepository(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer repo.Close()

		entries, err := repo.RecentErrors(ctx, limitFlag)
		if err != nil {
			return err
		}
		if jsonFlag {
			return printJSON(entries)
		}
		if len(entries) == 0 {
			fmt.Println("No errors recorded.")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%s  %-10s x%-4d %s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Source, e.Count, e.ErrorMsg)
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().BoolVar(&jsonFlag, "json", false, "Output as JSON")
	usageCmd.Flags().BoolVar(&jsonFlag, "json", false, "Output as JSON")
	rangeCmd.Flags().BoolVar(&jsonFlag, "json", false, "Output as JSON")
	errorsCmd.Flags().BoolVar(&jsonFlag, "json", false, "Output as JSON")

	usageCmd.Flags().StringVar(&dateFlag, "date", "", "Day to show (YYYY-MM-DD, default today)")

	rangeCmd.Flags().StringVar(&fromFlag, "from", "", "First day (YYYY-MM-DD)")
	rangeCmd.Flags().StringVar(&toFlag, "to", "", "Last day (YYYY-MM-DD)")
	_ = rangeCmd.MarkFlagRequired("from")
	_ = rangeCmd.MarkFlagRequired("to")

	errorsCmd.Flags().IntVar(&limitFlag, "limit", 20, "Number of entries")
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
