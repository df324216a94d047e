package model

import (
	"strings"
	"time"
)

// Source describes one upstream Notion database holding lead records.
// Fetched fresh each run; never mutated.
type Source struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ParentPageID string `json:"parent_page_id,omitempty"` // set when the database lives under a page
}

// PropertyPair preserves one original upstream field on a lead, already
// stringified. Pairs are kept in sorted field-name order so the passthrough
// is deterministic regardless of upstream map iteration.
type PropertyPair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Lead is the normalized, schema-fixed representation of one upstream record.
// Constructed once by the normalizer and immutable afterwards.
type Lead struct {
	Owner      string    `json:"owner"`
	SourceName string    `json:"source_name"`
	LeadID     string    `json:"lead_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Date       string    `json:"date"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Course     string    `json:"course"`
	Status     string    `json:"status"`

	// Properties carries every original field as prop_<name> → value.
	Properties []PropertyPair `json:"properties,omitempty"`
}

// HasContact reports whether the lead passes the admission rule: a
// non-whitespace name or phone.
func (l Lead) HasContact() bool {
	return strings.TrimSpace(l.Name) != "" || strings.TrimSpace(l.Phone) != ""
}

// RunStats counts what one pipeline run saw and kept.
type RunStats struct {
	SourcesFound     int `json:"sources_found"`
	SourcesAccepted  int `json:"sources_accepted"`
	SourcesRejected  int `json:"sources_rejected"`
	SourcesFailed    int `json:"sources_failed"`
	RecordsProcessed int `json:"records_processed"`
	RecordsAdmitted  int `json:"records_admitted"`
}

// Snapshot is the output of one pipeline run: the committed lead corpus plus
// run accounting. RunID is assigned by the store on save.
type Snapshot struct {
	RunID      string    `json:"run_id,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Leads      []Lead    `json:"leads"`
	Stats      RunStats  `json:"stats"`
}

// RunInfo is a stored run's listing row.
type RunInfo struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	TotalLeads int       `json:"total_leads"`
	Stats      RunStats  `json:"stats"`
}
