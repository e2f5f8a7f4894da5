package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "retailindex",
		Short:         "Score and rank retail brands from monthly foot-traffic and spend data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(importCmd())
	root.AddCommand(rankCmd())
	root.AddCommand(brandCmd())
	root.AddCommand(categoriesCmd())
	root.AddCommand(highlightsCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(runCmd())

	return root
}

func importCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load the dataset, rank brands and store a snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), file)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "dataset file (default: from config)")
	return cmd
}

type rankOpts struct {
	sortKey    string
	direction  string
	categories []string
	jsonOutput bool
	limit      int
	fromDB     bool
	all        bool
}

func rankCmd() *cobra.Command {
	var opts rankOpts

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Show the ranked brand table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRank(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.sortKey, "sort", "currentRank", "sort column (currentRank, rankChange, currentGrowth, currentHeat, currentTotal, brand_name)")
	cmd.Flags().StringVar(&opts.direction, "dir", "", "sort direction asc|desc (default: depends on column)")
	cmd.Flags().StringSliceVar(&opts.categories, "category", nil, "only show these top categories")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "output as JSON")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "max rows to show (0 = all)")
	cmd.Flags().BoolVar(&opts.fromDB, "from-db", false, "rank the brands stored by the last import instead of the dataset file")
	cmd.Flags().BoolVar(&opts.all, "all", false, "include brands without a current rank")
	return cmd
}

func brandCmd() *cobra.Command {
	var opts brandOpts

	cmd := &cobra.Command{
		Use:   "brand <name>",
		Short: "Show scores and history for one brand",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrand(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "output as JSON")
	cmd.Flags().BoolVar(&opts.fromDB, "from-db", false, "read the brand from the store instead of the dataset file")
	cmd.Flags().StringVar(&opts.scoreType, "score", "", "only show one score series (growth, heat, total)")
	return cmd
}

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the top categories present in the dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCategories()
		},
	}
}

func highlightsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "highlights",
		Short: "Show the hottest and most consistent brands",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHighlights()
		},
	}
}

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <brand>",
		Short: "Show a brand's stored rank snapshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), args[0], limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 12, "max snapshots to show")
	return cmd
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the import scheduler daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon()
		},
	}
}
