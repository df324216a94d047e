package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/crm-funnel-cli/internal/model"
)

func testTaxonomy() model.Taxonomy {
	return model.Taxonomy{
		Statuses: []string{
			"CONVERSANDO",
			"ABORDAGEM 1",
			"NÃO TEM INTERESSE",
			"NÃO RESPONDE +",
			"AGUARDANDO PAGAMENTO",
			"VENDA",
		},
		Conversion: []string{"VENDA", "AGUARDANDO PAGAMENTO"},
		Lost:       []string{"NÃO TEM INTERESSE", "NÃO RESPONDE +"},
		InProgress: []string{"CONVERSANDO", "ABORDAGEM 1"},
	}
}

func leadsWithStatuses(statuses ...string) []model.Lead {
	leads := make([]model.Lead, len(statuses))
	for i, s := range statuses {
		leads[i] = model.Lead{Name: "lead", Status: s}
	}
	return leads
}

func TestAggregateEmptyCorpus(t *testing.T) {
	t.Parallel()

	got := Aggregate(nil, testTaxonomy())
	assert.Equal(t, model.Summary{}, got)
}

func TestAggregate(t *testing.T) {
	t.Parallel()

	leads := leadsWithStatuses(
		"VENDA",
		"AGUARDANDO PAGAMENTO",
		"NÃO TEM INTERESSE",
		"CONVERSANDO",
		"CONVERSANDO",
		"",
	)

	got := Aggregate(leads, testTaxonomy())
	assert.Equal(t, 6, got.TotalLeads)
	assert.Equal(t, 2, got.ClosedCount)
	assert.Equal(t, 1, got.LostCount)
	assert.InDelta(t, 33.33, got.ConversionRate, 0.001)
	assert.InDelta(t, 16.67, got.LossRate, 0.001)
}

func TestAggregateIdempotent(t *testing.T) {
	t.Parallel()

	leads := leadsWithStatuses("VENDA", "NÃO RESPONDE +", "ABORDAGEM 1")
	tax := testTaxonomy()

	first := Aggregate(leads, tax)
	second := Aggregate(leads, tax)
	assert.Equal(t, first, second)
}

func TestAggregateExactMembershipNotSubstring(t *testing.T) {
	t.Parallel()

	// "NÃO RESPONDE" is not in the lost group; only "NÃO RESPONDE +" is.
	leads := leadsWithStatuses("NÃO RESPONDE", "NÃO RESPONDE +")

	got := Aggregate(leads, testTaxonomy())
	assert.Equal(t, 1, got.LostCount)
}

func TestOwnerBreakdown(t *testing.T) {
	t.Parallel()

	leads := []model.Lead{
		{Owner: "CRM BRUNO", Status: "VENDA"},
		{Owner: "CRM BRUNO", Status: "CONVERSANDO"},
		{Owner: "CRM ANA", Status: "NÃO TEM INTERESSE"},
	}

	got := OwnerBreakdown(leads, testTaxonomy())
	require.Len(t, got, 2)

	// Sorted by owner label.
	assert.Equal(t, "CRM ANA", got[0].Owner)
	assert.Equal(t, 1, got[0].TotalLeads)
	assert.Equal(t, 1, got[0].LostCount)
	assert.Equal(t, 0.0, got[0].ConversionRate)

	assert.Equal(t, "CRM BRUNO", got[1].Owner)
	assert.Equal(t, 2, got[1].TotalLeads)
	assert.Equal(t, 1, got[1].ClosedCount)
	assert.InDelta(t, 50.0, got[1].ConversionRate, 0.001)
}

func TestFunnelCountsFollowsTaxonomyOrder(t *testing.T) {
	t.Parallel()

	leads := leadsWithStatuses("VENDA", "CONVERSANDO", "VENDA", "ABORDAGEM 1")

	got := FunnelCounts(leads, testTaxonomy())
	require.Len(t, got, 3)
	assert.Equal(t, model.FunnelStage{Status: "CONVERSANDO", Count: 1}, got[0])
	assert.Equal(t, model.FunnelStage{Status: "ABORDAGEM 1", Count: 1}, got[1])
	assert.Equal(t, model.FunnelStage{Status: "VENDA", Count: 2}, got[2])
}

func TestFunnelCountsOmitsUnknownStatuses(t *testing.T) {
	t.Parallel()

	leads := leadsWithStatuses("VENDA", "STATUS INVENTADO")

	got := FunnelCounts(leads, testTaxonomy())
	require.Len(t, got, 1)
	assert.Equal(t, "VENDA", got[0].Status)
}

func TestStatusDistributionIncludesUnknownStatuses(t *testing.T) {
	t.Parallel()

	leads := leadsWithStatuses("VENDA", "STATUS INVENTADO", "VENDA", "")

	got := StatusDistribution(leads)
	require.Len(t, got, 2)
	assert.Equal(t, model.StatusCount{Status: "VENDA", Count: 2}, got[0])
	assert.Equal(t, model.StatusCount{Status: "STATUS INVENTADO", Count: 1}, got[1])
}

func TestStatusDistributionTieBreaksByLabel(t *testing.T) {
	t.Parallel()

	leads := leadsWithStatuses("B", "A")

	got := StatusDistribution(leads)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Status)
	assert.Equal(t, "B", got[1].Status)
}

func TestTimeline(t *testing.T) {
	t.Parallel()

	day1 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 5, 2, 23, 30, 0, 0, time.UTC)
	leads := []model.Lead{
		{CreatedAt: day2},
		{CreatedAt: day1},
		{CreatedAt: day1.Add(4 * time.Hour)},
		{}, // zero creation time is skipped
	}

	got := Timeline(leads)
	require.Len(t, got, 2)
	assert.Equal(t, model.TimelinePoint{Date: "2024-05-01", Count: 2}, got[0])
	assert.Equal(t, model.TimelinePoint{Date: "2024-05-02", Count: 1}, got[1])
}

func TestContact(t *testing.T) {
	t.Parallel()

	leads := []model.Lead{
		{Name: "Maria", Phone: "11 9", Status: "VENDA"},
		{Name: "  ", Phone: "11 8"},
		{Name: "João"},
	}

	got := Contact(leads)
	assert.Equal(t, model.ContactStats{WithName: 2, WithPhone: 2, WithStatus: 1}, got)
}
