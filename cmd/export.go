package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the latest stored snapshot",
	Long: `Writes the lead dataset from the latest stored snapshot to CSV and/or
XLSX without contacting Notion.`,
	RunE: runExport,
}

func init() {
	f := exportCmd.Flags()
	f.String("csv", "", "CSV output path")
	f.String("xlsx", "", "XLSX output path")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	csvPath, _ := cmd.Flags().GetString("csv")
	xlsxPath, _ := cmd.Flags().GetString("xlsx")
	if csvPath == "" && xlsxPath == "" {
		return eris.New("export: nothing to do, pass --csv and/or --xlsx")
	}

	tax, err := cfg.ResolveTaxonomy()
	if err != nil {
		return err
	}

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	snap, err := st.LatestSnapshot(ctx)
	if err != nil {
		return eris.Wrap(err, "export: load snapshot")
	}
	if snap == nil {
		fmt.Fprintln(os.Stderr, "No stored snapshot. Run `crm-funnel sync --save` first.")
		return nil
	}

	return exportSnapshot(cmd, snap, tax)
}
