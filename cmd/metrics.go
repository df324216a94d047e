package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/crm-funnel-cli/internal/ingest"
	"github.com/sells-group/crm-funnel-cli/internal/metrics"
	"github.com/sells-group/crm-funnel-cli/internal/model"
	"github.com/sells-group/crm-funnel-cli/pkg/notion"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Print funnel and conversion metrics",
	Long: `Computes the conversion summary, funnel stages and per-owner breakdown
from the latest stored snapshot. With --refresh, runs the ingestion pipeline
instead of reading the store.`,
	RunE: runMetrics,
}

func init() {
	metricsCmd.Flags().Bool("refresh", false, "re-ingest from Notion instead of using the stored snapshot")
	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tax, err := cfg.ResolveTaxonomy()
	if err != nil {
		return err
	}

	refresh, _ := cmd.Flags().GetBool("refresh")

	var snap *model.Snapshot
	if refresh {
		if err := cfg.Validate("sync"); err != nil {
			return err
		}
		nc := notion.NewClient(cfg.Notion.Token, notion.WithRateLimit(cfg.Notion.RateLimit))
		snap, err = ingest.New(cfg, nc).Run(ctx)
		if err != nil {
			return eris.Wrap(err, "metrics: refresh")
		}
	} else {
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		snap, err = st.LatestSnapshot(ctx)
		if err != nil {
			return eris.Wrap(err, "metrics: load snapshot")
		}
		if snap == nil {
			fmt.Fprintln(os.Stderr, "No stored snapshot. Run `crm-funnel sync --save` first, or use --refresh.")
			return nil
		}
	}

	printSummary(metrics.Aggregate(snap.Leads, tax))

	contact := metrics.Contact(snap.Leads)
	fmt.Printf("Quality: %d with name, %d with phone, %d with status\n",
		contact.WithName, contact.WithPhone, contact.WithStatus)

	if funnel := metrics.FunnelCounts(snap.Leads, tax); len(funnel) > 0 {
		fmt.Println("\nFunnel:")
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, stage := range funnel {
			fmt.Fprintf(w, "  %s\t%d\n", stage.Status, stage.Count)
		}
		w.Flush() //nolint:errcheck
	}

	if owners := metrics.OwnerBreakdown(snap.Leads, tax); len(owners) > 0 {
		fmt.Println("\nBy owner:")
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "  OWNER\tLEADS\tCLOSED\tLOST\tCONV%")
		for _, o := range owners {
			fmt.Fprintf(w, "  %s\t%d\t%d\t%d\t%.2f\n",
				o.Owner, o.TotalLeads, o.ClosedCount, o.LostCount, o.ConversionRate)
		}
		w.Flush() //nolint:errcheck
	}

	return nil
}
