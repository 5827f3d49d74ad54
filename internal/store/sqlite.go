package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/meditrek/internal/model"
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

// created_at holds unix milliseconds so range filters compare numerically.
const sqliteMigration = `
CREATE TABLE IF NOT EXISTS consultations (
	id          TEXT PRIMARY KEY,
	mode        TEXT NOT NULL,
	profile     TEXT NOT NULL,
	result      TEXT NOT NULL,
	status      TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_consultations_created_at ON consultations(created_at);
CREATE INDEX IF NOT EXISTS idx_consultations_mode_status ON consultations(mode, status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveConsultation(ctx context.Context, c *model.Consultation) error {
	prepare(c, func() string { return uuid.New().String() })

	profileJSON, err := json.Marshal(c.Profile)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal profile")
	}
	resultJSON, err := json.Marshal(c.Result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO consultations (id, mode, profile, result, status, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			mode = excluded.mode, profile = excluded.profile, result = excluded.result,
			status = excluded.status, error = excluded.error, duration_ms = excluded.duration_ms`,
		c.ID, string(c.Mode), string(profileJSON), string(resultJSON), string(c.Status),
		c.Error, c.DurationMs, c.CreatedAt.UnixMilli(),
	)
	return eris.Wrapf(err, "sqlite: save consultation %s", c.ID)
}

func (s *SQLiteStore) GetConsultation(ctx context.Context, id string) (*model.Consultation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, mode, profile, result, status, error, duration_ms, created_at FROM consultations WHERE id = ?`,
		id,
	)
	c, err := scanConsultation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get consultation %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get consultation %s", id)
	}
	return c, nil
}

func (s *SQLiteStore) ListConsultations(ctx context.Context, filter ConsultationFilter) ([]model.Consultation, error) {
	query := `SELECT id, mode, profile, result, status, error, duration_ms, created_at FROM consultations WHERE 1=1`
	args := []any{}

	if filter.Mode != "" {
		query += ` AND mode = ?`
		args = append(args, string(filter.Mode))
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if !filter.Since.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.Since.UnixMilli())
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, filter.limit())
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list consultations")
	}
	defer rows.Close() //nolint:errcheck

	out := []model.Consultation{}
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan consultation")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list consultations iterate")
}

func (s *SQLiteStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM consultations WHERE created_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete old consultations")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	return int(n), nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanConsultation(row scannable) (*model.Consultation, error) {
	var (
		c                       model.Consultation
		mode, status            string
		profileJSON, resultJSON string
		createdMs               int64
	)
	if err := row.Scan(&c.ID, &mode, &profileJSON, &resultJSON, &status, &c.Error, &c.DurationMs, &createdMs); err != nil {
		return nil, err
	}
	c.Mode = model.QueryMode(mode)
	c.Status = model.ConsultationStatus(status)
	c.CreatedAt = time.UnixMilli(createdMs).UTC()
	if err := json.Unmarshal([]byte(profileJSON), &c.Profile); err != nil {
		return nil, eris.Wrap(err, "unmarshal profile")
	}
	if err := json.Unmarshal([]byte(resultJSON), &c.Result); err != nil {
		return nil, eris.Wrap(err, "unmarshal result")
	}
	return &c, nil
}
