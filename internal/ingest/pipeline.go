package ingest

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/crm-funnel-cli/internal/config"
	"github.com/sells-group/crm-funnel-cli/internal/model"
	"github.com/sells-group/crm-funnel-cli/pkg/notion"
)

// Pipeline runs the full ingestion sequence: list sources, resolve owner
// labels, fetch and normalize records, apply the quality gates, and merge
// accepted batches into one snapshot.
//
// Processing is sequential by design: volumes are modest and stable source
// ordering matters more than latency. Each source's provisional batch is
// built independently and only merged after passing the quality filter, so
// a rejected source never contaminates the corpus.
type Pipeline struct {
	sources *SourceClient
	quality *QualityFilter
}

// New wires a pipeline from configuration and a Notion client.
func New(cfg *config.Config, nc notion.Client) *Pipeline {
	return &Pipeline{
		sources: NewSourceClient(nc, cfg.Notion.PageSize),
		quality: NewQualityFilter(cfg.Quality),
	}
}

// Run executes one full ingestion pass.
//
// Containment policy: no failure inside per-source or per-record processing
// aborts the run. A source listing failure degrades to an empty snapshot; a
// record fetch failure skips that source (counted in Stats.SourcesFailed).
// The only error Run itself returns is context cancellation.
func (p *Pipeline) Run(ctx context.Context) (*model.Snapshot, error) {
	log := zap.L()
	snap := &model.Snapshot{StartedAt: time.Now().UTC()}

	sources, err := p.sources.ListSources(ctx)
	if err != nil {
		// Degraded but valid outcome: the caller sees zero sources, the
		// operator sees why.
		log.Error("pipeline: source listing failed, producing empty snapshot", zap.Error(err))
		snap.FinishedAt = time.Now().UTC()
		return snap, ctx.Err()
	}
	snap.Stats.SourcesFound = len(sources)
	log.Info("pipeline: sources listed", zap.Int("count", len(sources)))

	for _, src := range sources {
		if ctx.Err() != nil {
			return snap, eris.Wrap(ctx.Err(), "pipeline: cancelled")
		}

		owner := p.sources.ResolveOwnerLabel(ctx, src)
		srcLog := log.With(
			zap.String("source_id", src.ID),
			zap.String("source", src.Title),
			zap.String("owner", owner),
		)

		if p.quality.IsDuplicateOwner(owner) {
			snap.Stats.SourcesRejected++
			srcLog.Info("pipeline: source skipped, duplicate owner")
			continue
		}

		records, err := p.sources.FetchRecords(ctx, src.ID)
		if err != nil {
			snap.Stats.SourcesFailed++
			srcLog.Error("pipeline: record fetch failed, source contributes nothing", zap.Error(err))
			continue
		}
		snap.Stats.RecordsProcessed += len(records)

		// The quality gate sees every normalized record, admissible or
		// not: completeness is a property of the source, and measuring it
		// over pre-filtered leads would always read 100%.
		provisional := make([]model.Lead, 0, len(records))
		admitted := make([]model.Lead, 0, len(records))
		for _, record := range records {
			lead, ok := Normalize(record, owner, src.Title)
			provisional = append(provisional, *lead)
			if ok {
				admitted = append(admitted, *lead)
			}
		}

		if p.quality.IsLowQuality(provisional, owner) {
			snap.Stats.SourcesRejected++
			srcLog.Info("pipeline: source rejected by quality filter",
				zap.Int("records", len(records)),
				zap.Int("admitted", len(admitted)),
			)
			continue
		}

		snap.Leads = append(snap.Leads, admitted...)
		snap.Stats.SourcesAccepted++
		snap.Stats.RecordsAdmitted += len(admitted)
		srcLog.Info("pipeline: source accepted",
			zap.Int("records", len(records)),
			zap.Int("admitted", len(admitted)),
		)
	}

	snap.FinishedAt = time.Now().UTC()
	log.Info("pipeline: run complete",
		zap.Int("sources_found", snap.Stats.SourcesFound),
		zap.Int("sources_accepted", snap.Stats.SourcesAccepted),
		zap.Int("sources_rejected", snap.Stats.SourcesRejected),
		zap.Int("sources_failed", snap.Stats.SourcesFailed),
		zap.Int("records_processed", snap.Stats.RecordsProcessed),
		zap.Int("leads", len(snap.Leads)),
	)
	return snap, nil
}
