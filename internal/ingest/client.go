package ingest

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/crm-funnel-cli/internal/model"
	"github.com/sells-group/crm-funnel-cli/pkg/notion"
)

// defaultPageSize is the upstream maximum per query page.
const defaultPageSize = 100

// untitledSource labels a database whose title is empty upstream.
const untitledSource = "Untitled"

// SourceClient retrieves source descriptors and their record sets from
// Notion. Its methods return errors; the containment policy (degrade, never
// abort) belongs to the pipeline, so failures stay visible here.
type SourceClient struct {
	client   notion.Client
	pageSize int
}

// NewSourceClient wraps a Notion client. pageSize <= 0 selects the upstream
// maximum of 100.
func NewSourceClient(c notion.Client, pageSize int) *SourceClient {
	if pageSize <= 0 || pageSize > defaultPageSize {
		pageSize = defaultPageSize
	}
	return &SourceClient{client: c, pageSize: pageSize}
}

// ListSources returns every database the integration can reach, draining
// search pagination.
func (c *SourceClient) ListSources(ctx context.Context) ([]model.Source, error) {
	var sources []model.Source
	var cursor notionapi.Cursor

	for {
		resp, err := c.client.Search(ctx, &notionapi.SearchRequest{
			Filter: notionapi.SearchFilter{
				Property: "object",
				Value:    "database",
			},
			StartCursor: cursor,
			PageSize:    c.pageSize,
		})
		if err != nil {
			return nil, eris.Wrap(err, "ingest: list sources")
		}

		for _, obj := range resp.Results {
			db, ok := obj.(*notionapi.Database)
			if ok {
				sources = append(sources, descriptorFromDatabase(db))
			}
		}

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return sources, nil
}

func descriptorFromDatabase(db *notionapi.Database) model.Source {
	src := model.Source{
		ID:    string(db.ID),
		Title: untitledSource,
	}
	if len(db.Title) > 0 && db.Title[0].PlainText != "" {
		src.Title = db.Title[0].PlainText
	}
	if db.Parent.Type == notionapi.ParentTypePageID {
		src.ParentPageID = string(db.Parent.PageID)
	}
	return src
}

// FetchRecords drains the paginated record set of one source. A failure on
// any page returns an error and no records: callers get all pages or none,
// never a silently truncated set.
func (c *SourceClient) FetchRecords(ctx context.Context, sourceID string) ([]notionapi.Page, error) {
	var records []notionapi.Page
	var cursor notionapi.Cursor

	for {
		resp, err := c.client.QueryDatabase(ctx, sourceID, &notionapi.DatabaseQueryRequest{
			StartCursor: cursor,
			PageSize:    c.pageSize,
		})
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: fetch records for source %s", sourceID)
		}

		records = append(records, resp.Results...)

		zap.L().Debug("ingest: fetched record page",
			zap.String("source_id", sourceID),
			zap.Int("page_records", len(resp.Results)),
			zap.Int("total_records", len(records)),
			zap.Bool("has_more", resp.HasMore),
		)

		if !resp.HasMore {
			return records, nil
		}
		cursor = resp.NextCursor
	}
}

// ResolveOwnerLabel determines the display name attributed to a source.
// When the source lives under a page, that page's title supersedes the
// source's own title (a salesperson's page name beats a generic table
// name). Best effort: any failure falls back to the source title.
func (c *SourceClient) ResolveOwnerLabel(ctx context.Context, src model.Source) string {
	if src.ParentPageID == "" {
		return src.Title
	}

	page, err := c.client.GetPage(ctx, src.ParentPageID)
	if err != nil {
		zap.L().Warn("ingest: owner label resolution failed, using source title",
			zap.String("source_id", src.ID),
			zap.String("parent_page_id", src.ParentPageID),
			zap.Error(err),
		)
		return src.Title
	}

	for _, prop := range page.Properties {
		if tp, ok := prop.(*notionapi.TitleProperty); ok {
			if title := firstPlainText(tp.Title); title != "" {
				return title
			}
		}
	}
	return src.Title
}
