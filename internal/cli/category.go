package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/actionsum/activetime/internal/category"
)

var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Inspect and edit app categories used by reports",
}

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List category patterns",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path, err := cfg.CategoriesPath()
		if err != nil {
			return err
		}
		cats, err := category.Load(path)
		if err != nil {
			return err
		}

		patterns := cats.Patterns()
		for _, cat := range category.Categories() {
			list := patterns[cat]
			sort.Strings(list)
			fmt.Printf("%-14s (weight %+.1f) %s\n", cat, cat.Weight(), strings.Join(list, ", "))
		}
		return nil
	},
}

var categorySetCmd = &cobra.Command{
	Use:   "set <app> <category>",
	Short: "Assign an app name pattern to a category",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path, err := cfg.CategoriesPath()
		if err != nil {
			return err
		}
		cats, err := category.Load(path)
		if err != nil {
			return err
		}

		cat := category.Category(strings.ToLower(args[1]))
		if err := cats.Set(args[0], cat); err != nil {
			return err
		}
		if err := cats.Save(); err != nil {
			return fmt.Errorf("failed to save categories: %w", err)
		}

		fmt.Printf("%s is now %s (%s)\n", args[0], cat, path)
		return nil
	},
}

func init() {
	categoryCmd.AddCommand(categoryListCmd)
	categoryCmd.AddCommand(categorySetCmd)
}
