package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openquant/hindsight/internal/app"
	"github.com/openquant/hindsight/internal/backtest"
	"github.com/openquant/hindsight/internal/core"
)

var (
	scanStrategy string
	scanSymbols  []string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a batch backtest over the scan universe",
	Long: `Backtest every historical signal the strategy produced across the
universe, print per-stage statistics, and archive the report.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanStrategy, "strategy", "", "Strategy to scan (default from config)")
	scanCmd.Flags().StringSliceVar(&scanSymbols, "symbols", nil, "Symbols to scan (default from config, then all)")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	report, path, err := a.RunScan(cmd.Context(), scanStrategy, scanSymbols, a.Policy())
	if err != nil {
		if report == nil {
			return err
		}
		// Scan finished but archiving failed; still print the results.
		log.Warn("report not archived", zap.Error(err))
	}

	printReport(report, path)
	return nil
}

func printReport(report *backtest.Report, path string) {
	var ok, failed int
	for _, res := range report.PerStock {
		if res.Bundle != nil {
			ok++
		} else {
			failed++
		}
	}

	fmt.Printf("Report %s (strategy %s)\n", report.ID, report.StrategyID)
	fmt.Printf("  Stocks: %d ok, %d failed\n", ok, failed)
	fmt.Printf("  Policy: success %+.1f%%, failure %+.1f%%, horizon %dd\n\n",
		report.Policy.SuccessThreshold*100,
		report.Policy.FailureThreshold*100,
		report.Policy.HorizonDays,
	)

	stages := make([]string, 0, len(report.Aggregated))
	for stage := range report.Aggregated {
		stages = append(stages, string(stage))
	}
	sort.Strings(stages)

	fmt.Printf("%-16s %7s %9s %9s %9s %9s\n",
		"STAGE", "COUNT", "WIN RATE", "AVG FAV", "AVG ADV", "AVG PEAK")
	for _, stage := range stages {
		s := report.Aggregated[core.FormationStage(stage)]
		winRate := fmt.Sprintf("%.1f%%", s.WinRate*100)
		if s.InsufficientRes {
			winRate = "n/a"
		}
		fmt.Printf("%-16s %7d %9s %8.1f%% %8.1f%% %8.1fd\n",
			stage, s.Count, winRate,
			s.AvgMaxFavorable*100, s.AvgMaxAdverse*100, s.AvgDaysToPeak)
	}

	if path != "" {
		fmt.Printf("\nArchived: %s\n", path)
	}
}
