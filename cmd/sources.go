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
	"github.com/sells-group/crm-funnel-cli/pkg/notion"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List reachable Notion databases and their owner labels",
	Long: `Dry run of source discovery: lists every database the integration can
reach with its resolved owner label and the duplicate-owner verdict, without
fetching any records.`,
	RunE: runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("sources"); err != nil {
		return err
	}

	nc := notion.NewClient(cfg.Notion.Token, notion.WithRateLimit(cfg.Notion.RateLimit))
	client := ingest.NewSourceClient(nc, cfg.Notion.PageSize)
	quality := ingest.NewQualityFilter(cfg.Quality)

	sources, err := client.ListSources(ctx)
	if err != nil {
		return eris.Wrap(err, "sources")
	}
	if len(sources) == 0 {
		fmt.Fprintln(os.Stderr, "No sources found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tOWNER\tVERDICT")
	for _, src := range sources {
		owner := client.ResolveOwnerLabel(ctx, src)
		verdict := "ok"
		if quality.IsDuplicateOwner(owner) {
			verdict = "duplicate"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", src.ID, src.Title, owner, verdict)
	}
	return w.Flush()
}
