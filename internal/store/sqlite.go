package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/crm-funnel-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL,
	total_leads INTEGER NOT NULL DEFAULT 0,
	stats       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS leads (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	owner       TEXT NOT NULL,
	source_name TEXT NOT NULL,
	lead_id     TEXT NOT NULL,
	created_at  DATETIME,
	updated_at  DATETIME,
	date        TEXT,
	name        TEXT,
	phone       TEXT,
	course      TEXT,
	status      TEXT,
	properties  TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_leads_run_id ON leads(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap *model.Snapshot) (string, error) {
	id := uuid.New().String()

	statsJSON, err := json.Marshal(snap.Stats)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal stats")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, total_leads, stats) VALUES (?, ?, ?, ?, ?)`,
		id, snap.StartedAt.UTC(), snap.FinishedAt.UTC(), len(snap.Leads), string(statsJSON),
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert run")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO leads (run_id, owner, source_name, lead_id, created_at, updated_at, date, name, phone, course, status, properties)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: prepare lead insert")
	}
	defer stmt.Close()

	for _, lead := range snap.Leads {
		propsJSON, err := json.Marshal(lead.Properties)
		if err != nil {
			return "", eris.Wrapf(err, "sqlite: marshal properties for lead %s", lead.LeadID)
		}
		_, err = stmt.ExecContext(ctx,
			id, lead.Owner, lead.SourceName, lead.LeadID,
			lead.CreatedAt.UTC(), lead.UpdatedAt.UTC(),
			lead.Date, lead.Name, lead.Phone, lead.Course, lead.Status,
			string(propsJSON),
		)
		if err != nil {
			return "", eris.Wrapf(err, "sqlite: insert lead %s", lead.LeadID)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", eris.Wrap(err, "sqlite: commit snapshot")
	}

	snap.RunID = id
	return id, nil
}

func (s *SQLiteStore) LatestSnapshot(ctx context.Context) (*model.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, stats FROM runs ORDER BY started_at DESC LIMIT 1`,
	)

	snap := &model.Snapshot{}
	var statsJSON string
	if err := row.Scan(&snap.RunID, &snap.StartedAt, &snap.FinishedAt, &statsJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: latest run")
	}
	if err := json.Unmarshal([]byte(statsJSON), &snap.Stats); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal stats")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT owner, source_name, lead_id, created_at, updated_at, date, name, phone, course, status, properties
		 FROM leads WHERE run_id = ? ORDER BY rowid`,
		snap.RunID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query leads")
	}
	defer rows.Close()

	for rows.Next() {
		var lead model.Lead
		var createdAt, updatedAt time.Time
		var propsJSON string
		if err := rows.Scan(
			&lead.Owner, &lead.SourceName, &lead.LeadID,
			&createdAt, &updatedAt,
			&lead.Date, &lead.Name, &lead.Phone, &lead.Course, &lead.Status,
			&propsJSON,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		lead.CreatedAt = createdAt
		lead.UpdatedAt = updatedAt
		if propsJSON != "" && propsJSON != "null" {
			if err := json.Unmarshal([]byte(propsJSON), &lead.Properties); err != nil {
				return nil, eris.Wrapf(err, "sqlite: unmarshal properties for lead %s", lead.LeadID)
			}
		}
		snap.Leads = append(snap.Leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate leads")
	}

	return snap, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.RunInfo, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, total_leads, stats FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.RunInfo
	for rows.Next() {
		var info model.RunInfo
		var statsJSON string
		if err := rows.Scan(&info.ID, &info.StartedAt, &info.FinishedAt, &info.TotalLeads, &statsJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if err := json.Unmarshal([]byte(statsJSON), &info.Stats); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal stats")
		}
		runs = append(runs, info)
	}
	return runs, rows.Err()
}
