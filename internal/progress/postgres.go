package progress

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/casawatch/triage-cli/internal/db"
	"github.com/casawatch/triage-cli/internal/model"
)

// PostgresStore implements Store over a pgx pool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres wraps an existing pool. The caller owns pool construction so
// tests can hand in pgxmock.
func NewPostgres(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS progress (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	doc        JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS seen_listings (
	listing_id TEXT PRIMARY KEY,
	added_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) LoadProgress(ctx context.Context) (*model.ProgressRecord, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, `SELECT doc FROM progress WHERE id = 1`).Scan(&doc)
	if err == pgx.ErrNoRows {
		return &model.ProgressRecord{}, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load progress")
	}

	var rec model.ProgressRecord
	if err := json.Unmarshal(doc, &rec); err != nil {
		zap.L().Warn("corrupt progress document, starting fresh", zap.Error(err))
		return &model.ProgressRecord{}, nil
	}
	return &rec, nil
}

func (s *PostgresStore) SaveProgress(ctx context.Context, rec *model.ProgressRecord) error {
	rec.LastRun = time.Now().UTC()

	doc, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal progress")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO progress (id, doc, updated_at) VALUES (1, $1, $2)
		 ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at`,
		doc, rec.LastRun,
	)
	return eris.Wrap(err, "postgres: save progress")
}

func (s *PostgresStore) LoadSeen(ctx context.Context) (map[string]bool, error) {
	rows, err := s.pool.Query(ctx, `SELECT listing_id FROM seen_listings`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load seen")
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "postgres: scan seen id")
		}
		seen[id] = true
	}
	return seen, eris.Wrap(rows.Err(), "postgres: iterate seen")
}

func (s *PostgresStore) AddSeen(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin add seen")
	}
	defer tx.Rollback(ctx)

	for _, id := range ids {
		if _, err := tx.Exec(ctx,
			`INSERT INTO seen_listings (listing_id) VALUES ($1) ON CONFLICT DO NOTHING`, id,
		); err != nil {
			return eris.Wrapf(err, "postgres: add seen %s", id)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit add seen")
}
