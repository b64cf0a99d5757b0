package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/equitle/enrichment-cli/internal/enrich"
	"github.com/equitle/enrichment-cli/internal/model"
	"github.com/equitle/enrichment-cli/internal/sheet"
)

var (
	enrichIn     string
	enrichOut    string
	enrichDelay  time.Duration
	enrichLimit  int
	enrichDryRun bool
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich a company spreadsheet",
	Long:  "Reads an xlsx or CSV file, enriches every row with company data and senior contacts, and writes an enriched xlsx workbook.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		buf, err := os.ReadFile(enrichIn)
		if err != nil {
			return eris.Wrapf(err, "read %s", enrichIn)
		}

		if enrichDryRun {
			records, err := sheet.Parse(buf)
			if err != nil {
				return err
			}
			return printJSON(records)
		}

		if cmd.Flags().Changed("delay") {
			cfg.Enrichment.DelayMs = int(enrichDelay / time.Millisecond)
		}
		if cmd.Flags().Changed("limit") {
			cfg.Enrichment.ContactLimit = enrichLimit
		}

		env, err := initProvider()
		if err != nil {
			return err
		}

		// The run log is best effort here: a broken store must not block a file.
		st, err := initStore(ctx)
		if err != nil {
			zap.L().Warn("run log unavailable, continuing without it", zap.Error(err))
			st = nil
		}
		var runLog enrich.RunLog
		if st != nil {
			defer st.Close() //nolint:errcheck
			runLog = st
		}

		res, err := newEnricher(env, runLog).Run(ctx, filepath.Base(enrichIn), buf)
		if err != nil {
			return eris.Wrapf(err, "enrich %s", enrichIn)
		}

		out := enrichOut
		if out == "" {
			out = filepath.Join(filepath.Dir(enrichIn), sheet.OutputFileName(enrichIn))
		}
		if err := os.WriteFile(out, res.Output, 0o644); err != nil {
			return eris.Wrapf(err, "write %s", out)
		}

		zap.L().Info("enriched file written",
			zap.String("out", out),
			zap.String("run_id", res.RunID),
		)
		fmt.Fprintln(os.Stderr, formatSummary(res.Summary))
		return nil
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichIn, "in", "", "input spreadsheet (.xlsx, .xls or .csv)")
	enrichCmd.Flags().StringVar(&enrichOut, "out", "", "output workbook (default enriched_<input>.xlsx next to the input)")
	enrichCmd.Flags().DurationVar(&enrichDelay, "delay", time.Second, "pause between records")
	enrichCmd.Flags().IntVar(&enrichLimit, "limit", enrich.DefaultContactLimit, "contacts requested per company")
	enrichCmd.Flags().BoolVar(&enrichDryRun, "dry-run", false, "print parsed records as JSON without calling the provider")
	_ = enrichCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(enrichCmd)
}

func formatSummary(s model.BatchSummary) string {
	return fmt.Sprintf("%d records: %d success, %d partial, %d error", s.Total, s.Success, s.Partial, s.Error)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

