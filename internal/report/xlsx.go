package report

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/crm-funnel-cli/internal/model"
)

// WriteXLSX writes the lead dataset and metrics summary to an XLSX workbook:
// a "Leads" sheet mirroring the CSV layout and a "Metrics" sheet with the
// summary and funnel counts.
func WriteXLSX(path string, leads []model.Lead, summary model.Summary, funnel []model.FunnelStage) error {
	file := xlsx.NewFile()

	if err := writeLeadsSheet(file, leads); err != nil {
		return err
	}
	if err := writeMetricsSheet(file, summary, funnel); err != nil {
		return err
	}

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "report: save xlsx %s", path)
	}
	return nil
}

func writeLeadsSheet(file *xlsx.File, leads []model.Lead) error {
	sheet, err := file.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "report: add leads sheet")
	}

	extra := passthroughColumns(leads)

	header := sheet.AddRow()
	for _, col := range fixedColumns {
		header.AddCell().Value = col
	}
	for _, col := range extra {
		header.AddCell().Value = col
	}

	for _, lead := range leads {
		row := sheet.AddRow()
		for _, value := range leadRow(lead, extra) {
			row.AddCell().Value = value
		}
	}
	return nil
}

func writeMetricsSheet(file *xlsx.File, summary model.Summary, funnel []model.FunnelStage) error {
	sheet, err := file.AddSheet("Metrics")
	if err != nil {
		return eris.Wrap(err, "report: add metrics sheet")
	}

	addPair := func(label, value string) {
		row := sheet.AddRow()
		row.AddCell().Value = label
		row.AddCell().Value = value
	}

	addPair("total_leads", strconv.Itoa(summary.TotalLeads))
	addPair("closed_count", strconv.Itoa(summary.ClosedCount))
	addPair("lost_count", strconv.Itoa(summary.LostCount))
	addPair("conversion_rate", strconv.FormatFloat(summary.ConversionRate, 'f', 2, 64))
	addPair("loss_rate", strconv.FormatFloat(summary.LossRate, 'f', 2, 64))

	if len(funnel) > 0 {
		sheet.AddRow()
		header := sheet.AddRow()
		header.AddCell().Value = "status"
		header.AddCell().Value = "count"
		for _, stage := range funnel {
			row := sheet.AddRow()
			row.AddCell().Value = stage.Status
			row.AddCell().Value = strconv.Itoa(stage.Count)
		}
	}
	return nil
}
