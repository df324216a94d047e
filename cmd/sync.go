package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/crm-funnel-cli/internal/ingest"
	"github.com/sells-group/crm-funnel-cli/internal/metrics"
	"github.com/sells-group/crm-funnel-cli/internal/model"
	"github.com/sells-group/crm-funnel-cli/internal/report"
	"github.com/sells-group/crm-funnel-cli/pkg/notion"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Ingest leads from all reachable Notion databases",
	Long: `Runs the full ingestion pipeline: lists every database the integration
can reach, normalizes each record into the lead schema, drops duplicate and
low-quality sources, and prints the resulting funnel metrics.

Examples:
  # Run and print metrics
  crm-funnel sync

  # Run, persist the snapshot, and export the dataset
  crm-funnel sync --save --csv leads.csv --xlsx leads.xlsx`,
	RunE: runSync,
}

func init() {
	f := syncCmd.Flags()
	f.Bool("save", false, "persist the snapshot to the configured store")
	f.String("csv", "", "export the lead dataset to a CSV file")
	f.String("xlsx", "", "export the lead dataset to an XLSX workbook")

	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("sync"); err != nil {
		return err
	}
	tax, err := cfg.ResolveTaxonomy()
	if err != nil {
		return err
	}

	nc := notion.NewClient(cfg.Notion.Token, notion.WithRateLimit(cfg.Notion.RateLimit))
	pipeline := ingest.New(cfg, nc)

	snap, err := pipeline.Run(ctx)
	if err != nil {
		return eris.Wrap(err, "sync")
	}

	printRunStats(snap.Stats)
	printSummary(metrics.Aggregate(snap.Leads, tax))

	save, _ := cmd.Flags().GetBool("save")
	if save {
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		runID, err := st.SaveSnapshot(ctx, snap)
		if err != nil {
			return eris.Wrap(err, "sync: save snapshot")
		}
		zap.L().Info("sync: snapshot saved", zap.String("run_id", runID))
		fmt.Printf("Snapshot saved: %s\n", runID)
	}

	return exportSnapshot(cmd, snap, tax)
}

// exportSnapshot writes the optional --csv / --xlsx outputs.
func exportSnapshot(cmd *cobra.Command, snap *model.Snapshot, tax model.Taxonomy) error {
	csvPath, _ := cmd.Flags().GetString("csv")
	xlsxPath, _ := cmd.Flags().GetString("xlsx")

	if csvPath != "" {
		f, err := os.Create(csvPath)
		if err != nil {
			return eris.Wrapf(err, "export: create %s", csvPath)
		}
		if err := report.WriteCSV(f, snap.Leads); err != nil {
			f.Close() //nolint:errcheck
			return err
		}
		if err := f.Close(); err != nil {
			return eris.Wrapf(err, "export: close %s", csvPath)
		}
		fmt.Printf("CSV written: %s (%d leads)\n", csvPath, len(snap.Leads))
	}

	if xlsxPath != "" {
		summary := metrics.Aggregate(snap.Leads, tax)
		funnel := metrics.FunnelCounts(snap.Leads, tax)
		if err := report.WriteXLSX(xlsxPath, snap.Leads, summary, funnel); err != nil {
			return err
		}
		fmt.Printf("XLSX written: %s (%d leads)\n", xlsxPath, len(snap.Leads))
	}

	return nil
}

func printRunStats(stats model.RunStats) {
	fmt.Printf("Sources: %d found, %d accepted, %d rejected, %d failed\n",
		stats.SourcesFound, stats.SourcesAccepted, stats.SourcesRejected, stats.SourcesFailed)
	fmt.Printf("Records: %d processed, %d admitted\n",
		stats.RecordsProcessed, stats.RecordsAdmitted)
}

func printSummary(s model.Summary) {
	fmt.Printf("Leads:   %d total, %d closed (%.2f%%), %d lost (%.2f%%)\n",
		s.TotalLeads, s.ClosedCount, s.ConversionRate, s.LostCount, s.LossRate)
}
