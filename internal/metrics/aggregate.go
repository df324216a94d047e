// Package metrics computes funnel and conversion roll-ups over a normalized
// lead corpus. Every function here is pure: same corpus and taxonomy in,
// same numbers out.
package metrics

import (
	"math"
	"sort"
	"strings"

	"github.com/sells-group/crm-funnel-cli/internal/model"
)

// Aggregate computes the conversion summary for a lead corpus. Status
// comparison is exact membership in the taxonomy groups, never substring
// matching. Rates are percentages rounded to two decimals, 0 for an empty
// corpus.
func Aggregate(leads []model.Lead, tax model.Taxonomy) model.Summary {
	summary := model.Summary{TotalLeads: len(leads)}
	if summary.TotalLeads == 0 {
		return summary
	}

	for _, lead := range leads {
		if tax.IsConversion(lead.Status) {
			summary.ClosedCount++
		}
		if tax.IsLost(lead.Status) {
			summary.LostCount++
		}
	}

	total := float64(summary.TotalLeads)
	summary.ConversionRate = round2(float64(summary.ClosedCount) / total * 100)
	summary.LossRate = round2(float64(summary.LostCount) / total * 100)
	return summary
}

// OwnerBreakdown computes per-owner totals and conversion rates, sorted by
// owner label.
func OwnerBreakdown(leads []model.Lead, tax model.Taxonomy) []model.OwnerStats {
	byOwner := make(map[string]*model.OwnerStats)
	for _, lead := range leads {
		stats, ok := byOwner[lead.Owner]
		if !ok {
			stats = &model.OwnerStats{Owner: lead.Owner}
			byOwner[lead.Owner] = stats
		}
		stats.TotalLeads++
		if tax.IsConversion(lead.Status) {
			stats.ClosedCount++
		}
		if tax.IsLost(lead.Status) {
			stats.LostCount++
		}
	}

	result := make([]model.OwnerStats, 0, len(byOwner))
	for _, stats := range byOwner {
		if stats.TotalLeads > 0 {
			stats.ConversionRate = round2(float64(stats.ClosedCount) / float64(stats.TotalLeads) * 100)
		}
		result = append(result, *stats)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Owner < result[j].Owner })
	return result
}

// FunnelCounts returns lead counts per status in taxonomy funnel order.
// Statuses with no leads are omitted, matching the funnel rendering the
// output feeds.
func FunnelCounts(leads []model.Lead, tax model.Taxonomy) []model.FunnelStage {
	counts := countByStatus(leads)

	var stages []model.FunnelStage
	for _, status := range tax.Statuses {
		if n, ok := counts[status]; ok && n > 0 {
			stages = append(stages, model.FunnelStage{Status: status, Count: n})
		}
	}
	return stages
}

// StatusDistribution returns counts per status value, most frequent first.
// Unlike FunnelCounts it includes statuses outside the taxonomy, so
// unexpected upstream labels stay visible.
func StatusDistribution(leads []model.Lead) []model.StatusCount {
	counts := countByStatus(leads)

	result := make([]model.StatusCount, 0, len(counts))
	for status, n := range counts {
		result = append(result, model.StatusCount{Status: status, Count: n})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Status < result[j].Status
	})
	return result
}

// Timeline counts leads per creation day, ascending. Leads with a zero
// creation time are skipped.
func Timeline(leads []model.Lead) []model.TimelinePoint {
	byDay := make(map[string]int)
	for _, lead := range leads {
		if lead.CreatedAt.IsZero() {
			continue
		}
		byDay[lead.CreatedAt.UTC().Format("2006-01-02")]++
	}

	result := make([]model.TimelinePoint, 0, len(byDay))
	for day, n := range byDay {
		result = append(result, model.TimelinePoint{Date: day, Count: n})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date < result[j].Date })
	return result
}

// Contact summarizes field completeness across the corpus.
func Contact(leads []model.Lead) model.ContactStats {
	var stats model.ContactStats
	for _, lead := range leads {
		if strings.TrimSpace(lead.Name) != "" {
			stats.WithName++
		}
		if strings.TrimSpace(lead.Phone) != "" {
			stats.WithPhone++
		}
		if strings.TrimSpace(lead.Status) != "" {
			stats.WithStatus++
		}
	}
	return stats
}

func countByStatus(leads []model.Lead) map[string]int {
	counts := make(map[string]int)
	for _, lead := range leads {
		if lead.Status == "" {
			continue
		}
		counts[lead.Status]++
	}
	return counts
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
