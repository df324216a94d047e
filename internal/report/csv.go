// Package report renders the normalized lead dataset for downstream
// consumers: CSV and XLSX exports of the tabular schema plus the metrics
// summary.
package report

import (
	"encoding/csv"
	"io"
	"sort"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/crm-funnel-cli/internal/model"
)

// fixedColumns is the schema-fixed part of the lead dataset, in output order.
var fixedColumns = []string{
	"owner", "source_name", "lead_id",
	"created_at", "updated_at",
	"date", "name", "phone", "course", "status",
}

// WriteCSV writes the lead dataset as CSV: the fixed columns followed by the
// sorted union of every passthrough property seen across the corpus, so no
// original field is lost in export.
func WriteCSV(w io.Writer, leads []model.Lead) error {
	extra := passthroughColumns(leads)

	cw := csv.NewWriter(w)
	if err := cw.Write(append(append([]string{}, fixedColumns...), extra...)); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}

	for _, lead := range leads {
		row := leadRow(lead, extra)
		if err := cw.Write(row); err != nil {
			return eris.Wrapf(err, "report: write csv row for lead %s", lead.LeadID)
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush csv")
}

func leadRow(lead model.Lead, extra []string) []string {
	row := []string{
		lead.Owner, lead.SourceName, lead.LeadID,
		formatTime(lead.CreatedAt), formatTime(lead.UpdatedAt),
		lead.Date, lead.Name, lead.Phone, lead.Course, lead.Status,
	}

	props := make(map[string]string, len(lead.Properties))
	for _, pair := range lead.Properties {
		props[pair.Name] = pair.Value
	}
	for _, name := range extra {
		row = append(row, props[name])
	}
	return row
}

func passthroughColumns(leads []model.Lead) []string {
	seen := make(map[string]bool)
	for _, lead := range leads {
		for _, pair := range lead.Properties {
			seen[pair.Name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
