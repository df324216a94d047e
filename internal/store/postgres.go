package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/crm-funnel-cli/internal/db"
	"github.com/sells-group/crm-funnel-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	total_leads INTEGER NOT NULL DEFAULT 0,
	stats       JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS leads (
	seq         BIGSERIAL PRIMARY KEY,
	run_id      TEXT NOT NULL REFERENCES runs(id),
	owner       TEXT NOT NULL,
	source_name TEXT NOT NULL,
	lead_id     TEXT NOT NULL,
	created_at  TIMESTAMPTZ,
	updated_at  TIMESTAMPTZ,
	date        TEXT,
	name        TEXT,
	phone       TEXT,
	course      TEXT,
	status      TEXT,
	properties  JSONB
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_leads_run_id ON leads(run_id);
`

// leadColumns is the COPY column list for bulk lead inserts.
var leadColumns = []string{
	"run_id", "owner", "source_name", "lead_id",
	"created_at", "updated_at",
	"date", "name", "phone", "course", "status", "properties",
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveSnapshot(ctx context.Context, snap *model.Snapshot) (string, error) {
	id := uuid.New().String()

	statsJSON, err := json.Marshal(snap.Stats)
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal stats")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, started_at, finished_at, total_leads, stats) VALUES ($1, $2, $3, $4, $5)`,
		id, snap.StartedAt.UTC(), snap.FinishedAt.UTC(), len(snap.Leads), statsJSON,
	)
	if err != nil {
		return "", eris.Wrap(err, "postgres: insert run")
	}

	rows := make([][]any, 0, len(snap.Leads))
	for _, lead := range snap.Leads {
		propsJSON, err := json.Marshal(lead.Properties)
		if err != nil {
			return "", eris.Wrapf(err, "postgres: marshal properties for lead %s", lead.LeadID)
		}
		rows = append(rows, []any{
			id, lead.Owner, lead.SourceName, lead.LeadID,
			lead.CreatedAt.UTC(), lead.UpdatedAt.UTC(),
			lead.Date, lead.Name, lead.Phone, lead.Course, lead.Status,
			propsJSON,
		})
	}

	if _, err := db.CopyFrom(ctx, s.pool, "leads", leadColumns, rows); err != nil {
		return "", eris.Wrap(err, "postgres: copy leads")
	}

	snap.RunID = id
	return id, nil
}

func (s *PostgresStore) LatestSnapshot(ctx context.Context) (*model.Snapshot, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, started_at, finished_at, stats FROM runs ORDER BY started_at DESC LIMIT 1`,
	)

	snap := &model.Snapshot{}
	var statsJSON []byte
	if err := row.Scan(&snap.RunID, &snap.StartedAt, &snap.FinishedAt, &statsJSON); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: latest run")
	}
	if err := json.Unmarshal(statsJSON, &snap.Stats); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal stats")
	}

	rows, err := s.pool.Query(ctx,
		`SELECT owner, source_name, lead_id, created_at, updated_at, date, name, phone, course, status, properties
		 FROM leads WHERE run_id = $1 ORDER BY seq`,
		snap.RunID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query leads")
	}
	defer rows.Close()

	for rows.Next() {
		var lead model.Lead
		var propsJSON []byte
		if err := rows.Scan(
			&lead.Owner, &lead.SourceName, &lead.LeadID,
			&lead.CreatedAt, &lead.UpdatedAt,
			&lead.Date, &lead.Name, &lead.Phone, &lead.Course, &lead.Status,
			&propsJSON,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		if len(propsJSON) > 0 {
			if err := json.Unmarshal(propsJSON, &lead.Properties); err != nil {
				return nil, eris.Wrapf(err, "postgres: unmarshal properties for lead %s", lead.LeadID)
			}
		}
		snap.Leads = append(snap.Leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate leads")
	}

	return snap, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.RunInfo, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, started_at, finished_at, total_leads, stats FROM runs ORDER BY started_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.RunInfo
	for rows.Next() {
		var info model.RunInfo
		var statsJSON []byte
		if err := rows.Scan(&info.ID, &info.StartedAt, &info.FinishedAt, &info.TotalLeads, &statsJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if err := json.Unmarshal(statsJSON, &info.Stats); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal stats")
		}
		runs = append(runs, info)
	}
	return runs, rows.Err()
}
