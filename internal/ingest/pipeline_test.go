package ingest

import (
	"context"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/crm-funnel-cli/internal/config"
)

func testPipelineConfig() *config.Config {
	return &config.Config{
		Notion:  config.NotionConfig{PageSize: 100},
		Quality: testQualityConfig(),
	}
}

func leadPage(id, name, phone string) notionapi.Page {
	props := notionapi.Properties{}
	if name != "" {
		props["Nome"] = titleProp(name)
	}
	if phone != "" {
		props["Telefone"] = &notionapi.PhoneNumberProperty{PhoneNumber: phone}
	}
	return notionapi.Page{ID: notionapi.ObjectID(id), Properties: props}
}

// Two sources: A's owner page is on the exclusion list, so A is skipped
// without fetching a single record; B has 5 records of which 4 carry contact
// info, so B commits exactly 4 leads.
func TestPipelineRunEndToEnd(t *testing.T) {
	t.Parallel()
	mc := new(mockNotion)
	ctx := context.Background()

	mc.On("Search", ctx, mock.AnythingOfType("*notionapi.SearchRequest")).
		Return(&notionapi.SearchResponse{
			Results: []notionapi.Object{
				newDatabase("db-a", "Tabela", "page-a"),
				newDatabase("db-b", "Tabela B", "page-b"),
			},
			HasMore: false,
		}, nil)

	mc.On("GetPage", ctx, "page-a").Return(&notionapi.Page{
		ID:         "page-a",
		Properties: notionapi.Properties{"title": titleProp("CRM ANA LUÍSA NEVES (1)")},
	}, nil)
	mc.On("GetPage", ctx, "page-b").Return(&notionapi.Page{
		ID:         "page-b",
		Properties: notionapi.Properties{"title": titleProp("CRM BRUNO")},
	}, nil)

	mc.On("QueryDatabase", ctx, "db-b", mock.AnythingOfType("*notionapi.DatabaseQueryRequest")).
		Return(&notionapi.DatabaseQueryResponse{
			Results: []notionapi.Page{
				leadPage("b-1", "Maria", "11 91111-1111"),
				leadPage("b-2", "João", ""),
				leadPage("b-3", "", "11 93333-3333"),
				leadPage("b-4", "Rita", ""),
				leadPage("b-5", "", ""),
			},
			HasMore: false,
		}, nil)

	p := New(testPipelineConfig(), mc)
	snap, err := p.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, snap.Stats.SourcesFound)
	assert.Equal(t, 1, snap.Stats.SourcesAccepted)
	assert.Equal(t, 1, snap.Stats.SourcesRejected)
	assert.Equal(t, 0, snap.Stats.SourcesFailed)
	assert.Equal(t, 5, snap.Stats.RecordsProcessed)
	assert.Equal(t, 4, snap.Stats.RecordsAdmitted)

	require.Len(t, snap.Leads, 4)
	for _, lead := range snap.Leads {
		assert.Equal(t, "CRM BRUNO", lead.Owner)
		assert.Equal(t, "Tabela B", lead.SourceName)
	}

	// A was excluded before any record fetch.
	mc.AssertNotCalled(t, "QueryDatabase", ctx, "db-a", mock.Anything)
}

func TestPipelineRunListFailureDegradesToEmptySnapshot(t *testing.T) {
	t.Parallel()
	mc := new(mockNotion)
	ctx := context.Background()

	mc.On("Search", ctx, mock.AnythingOfType("*notionapi.SearchRequest")).
		Return(nil, assert.AnError)

	p := New(testPipelineConfig(), mc)
	snap, err := p.Run(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Empty(t, snap.Leads)
	assert.Equal(t, 0, snap.Stats.SourcesFound)
	assert.False(t, snap.FinishedAt.IsZero())
}

func TestPipelineRunFetchFailureSkipsSource(t *testing.T) {
	t.Parallel()
	mc := new(mockNotion)
	ctx := context.Background()

	mc.On("Search", ctx, mock.AnythingOfType("*notionapi.SearchRequest")).
		Return(&notionapi.SearchResponse{
			Results: []notionapi.Object{
				newDatabase("db-a", "Tabela A", ""),
				newDatabase("db-b", "Tabela B", ""),
			},
			HasMore: false,
		}, nil)

	mc.On("QueryDatabase", ctx, "db-a", mock.AnythingOfType("*notionapi.DatabaseQueryRequest")).
		Return(nil, assert.AnError)
	mc.On("QueryDatabase", ctx, "db-b", mock.AnythingOfType("*notionapi.DatabaseQueryRequest")).
		Return(&notionapi.DatabaseQueryResponse{
			Results: []notionapi.Page{
				leadPage("b-1", "Maria", ""),
				leadPage("b-2", "João", ""),
			},
			HasMore: false,
		}, nil)

	p := New(testPipelineConfig(), mc)
	snap, err := p.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, snap.Stats.SourcesFailed)
	assert.Equal(t, 1, snap.Stats.SourcesAccepted)
	assert.Len(t, snap.Leads, 2)
}

func TestPipelineRunRejectsLowQualitySource(t *testing.T) {
	t.Parallel()
	mc := new(mockNotion)
	ctx := context.Background()

	mc.On("Search", ctx, mock.AnythingOfType("*notionapi.SearchRequest")).
		Return(&notionapi.SearchResponse{
			Results: []notionapi.Object{newDatabase("db-a", "Tabela A", "")},
			HasMore: false,
		}, nil)

	// 10 records, 2 admitted: the provisional batch is non-empty but the
	// source as a whole fails the completeness floor upstream of it, since
	// 2 of 10 raw records carry contact info.
	pages := make([]notionapi.Page, 0, 10)
	pages = append(pages,
		leadPage("a-1", "Maria", ""),
		leadPage("a-2", "", "11 92222-2222"),
	)
	for i := 3; i <= 10; i++ {
		pages = append(pages, leadPage("a-filler", "", ""))
	}
	mc.On("QueryDatabase", ctx, "db-a", mock.AnythingOfType("*notionapi.DatabaseQueryRequest")).
		Return(&notionapi.DatabaseQueryResponse{Results: pages, HasMore: false}, nil)

	p := New(testPipelineConfig(), mc)
	snap, err := p.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, snap.Stats.SourcesRejected)
	assert.Equal(t, 0, snap.Stats.SourcesAccepted)
	assert.Empty(t, snap.Leads)
	assert.Equal(t, 10, snap.Stats.RecordsProcessed)
	assert.Equal(t, 0, snap.Stats.RecordsAdmitted)
}

func TestPipelineRunCancelled(t *testing.T) {
	t.Parallel()
	mc := new(mockNotion)

	ctx, cancel := context.WithCancel(context.Background())

	mc.On("Search", ctx, mock.AnythingOfType("*notionapi.SearchRequest")).
		Return(&notionapi.SearchResponse{
			Results: []notionapi.Object{newDatabase("db-a", "Tabela A", "")},
			HasMore: false,
		}, nil).
		Run(func(mock.Arguments) { cancel() })

	p := New(testPipelineConfig(), mc)
	snap, err := p.Run(ctx)
	assert.Error(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 1, snap.Stats.SourcesFound)
}
