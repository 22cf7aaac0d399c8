package progress

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/casawatch/triage-cli/internal/model"
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
CREATE TABLE IF NOT EXISTS progress (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	doc        TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS seen_listings (
	listing_id TEXT PRIMARY KEY,
	added_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// LoadProgress returns the stored progress record. A missing row or a
// corrupt document yields an empty record, never an error: losing history
// is recoverable, refusing to run is not.
func (s *SQLiteStore) LoadProgress(ctx context.Context) (*model.ProgressRecord, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM progress WHERE id = 1`).Scan(&doc)
	if err == sql.ErrNoRows {
		return &model.ProgressRecord{}, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load progress")
	}

	var rec model.ProgressRecord
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		zap.L().Warn("corrupt progress document, starting fresh", zap.Error(err))
		return &model.ProgressRecord{}, nil
	}
	return &rec, nil
}

// SaveProgress replaces the whole record atomically and stamps LastRun.
func (s *SQLiteStore) SaveProgress(ctx context.Context, rec *model.ProgressRecord) error {
	rec.LastRun = time.Now().UTC()

	doc, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal progress")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save progress")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO progress (id, doc, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		string(doc), rec.LastRun,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: save progress")
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit save progress")
}

func (s *SQLiteStore) LoadSeen(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT listing_id FROM seen_listings`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load seen")
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan seen id")
		}
		seen[id] = true
	}
	return seen, eris.Wrap(rows.Err(), "sqlite: iterate seen")
}

func (s *SQLiteStore) AddSeen(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin add seen")
	}
	defer tx.Rollback()

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO seen_listings (listing_id) VALUES (?)`, id,
		); err != nil {
			return eris.Wrapf(err, "sqlite: add seen %s", id)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit add seen")
}
