package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openquant/hindsight/internal/core"
	"github.com/openquant/hindsight/internal/provider"
)

var ingestSymbol string

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.csv>",
	Short: "Load daily bars from a CSV file into the bar database",
	Long: `Ingest a CSV of daily bars (date,open,high,low,close,volume) for one
symbol. Existing rows for the same dates are overwritten.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSymbol, "symbol", "", "Symbol the bars belong to (required)")
	ingestCmd.MarkFlagRequired("symbol")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	bars, err := readBarsCSV(f)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}
	if len(bars) == 0 {
		return fmt.Errorf("%s contains no bars", args[0])
	}

	p, err := provider.NewSQLite(cfg.Provider.Path)
	if err != nil {
		return err
	}
	defer p.Close()

	if err := p.SaveBars(cmd.Context(), ingestSymbol, bars); err != nil {
		return err
	}

	log.Info("bars ingested",
		zap.String("symbol", ingestSymbol),
		zap.Int("count", len(bars)),
		zap.String("db", cfg.Provider.Path))
	fmt.Printf("Ingested %d bars for %s\n", len(bars), ingestSymbol)
	return nil
}

// readBarsCSV parses date,open,high,low,close,volume rows. A header line is
// detected by a non-numeric second field and skipped.
func readBarsCSV(r io.Reader) ([]core.PriceBar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 6

	var bars []core.PriceBar
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		if line == 1 {
			if _, err := strconv.ParseFloat(rec[1], 64); err != nil {
				continue // header
			}
		}

		date, err := time.ParseInLocation("2006-01-02", rec[0], time.UTC)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad date %q: %w", line, rec[0], err)
		}
		var vals [4]float64
		for i := 0; i < 4; i++ {
			vals[i], err = strconv.ParseFloat(rec[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad price %q: %w", line, rec[i+1], err)
			}
		}
		volume, err := strconv.ParseInt(rec[5], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad volume %q: %w", line, rec[5], err)
		}

		bars = append(bars, core.PriceBar{
			Date:   date,
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: volume,
		})
	}
	return bars, nil
}
