package model

// Summary is the funnel/conversion roll-up over a lead corpus. Derived,
// recomputed on every aggregation call, never persisted on its own.
type Summary struct {
	TotalLeads     int     `json:"total_leads"`
	ClosedCount    int     `json:"closed_count"`
	LostCount      int     `json:"lost_count"`
	ConversionRate float64 `json:"conversion_rate"`
	LossRate       float64 `json:"loss_rate"`

	// RevenueTotal is a placeholder until deal values are tracked upstream.
	RevenueTotal float64 `json:"revenue_total"`
}

// OwnerStats is the per-owner slice of the summary.
type OwnerStats struct {
	Owner          string  `json:"owner"`
	TotalLeads     int     `json:"total_leads"`
	ClosedCount    int     `json:"closed_count"`
	LostCount      int     `json:"lost_count"`
	ConversionRate float64 `json:"conversion_rate"`
}

// FunnelStage is one status step of the funnel, in taxonomy order.
type FunnelStage struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// StatusCount is one entry of the status distribution.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// TimelinePoint counts leads created on one day (YYYY-MM-DD).
type TimelinePoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// ContactStats summarizes field completeness across a corpus.
type ContactStats struct {
	WithName   int `json:"with_name"`
	WithPhone  int `json:"with_phone"`
	WithStatus int `json:"with_status"`
}
