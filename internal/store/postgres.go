package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/meditrek/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock pools satisfy it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	insertConsultationSQL = `INSERT INTO consultations (id, mode, profile, result, status, error, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			mode = EXCLUDED.mode, profile = EXCLUDED.profile, result = EXCLUDED.result,
			status = EXCLUDED.status, error = EXCLUDED.error, duration_ms = EXCLUDED.duration_ms`
	getConsultationSQL     = `SELECT id, mode, profile, result, status, error, duration_ms, created_at FROM consultations WHERE id = $1`
	deleteConsultationsSQL = `DELETE FROM consultations WHERE created_at < $1`
)

// preparedStatements lists queries to prepare on each new connection.
var preparedStatements = map[string]string{
	"insert_consultation":  insertConsultationSQL,
	"get_consultation":     getConsultationSQL,
	"delete_consultations": deleteConsultationsSQL,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS consultations (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	mode        TEXT NOT NULL,
	profile     JSONB NOT NULL,
	result      JSONB NOT NULL,
	status      TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	duration_ms BIGINT NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_consultations_created_at ON consultations(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_consultations_mode_status ON consultations(mode, status);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveConsultation(ctx context.Context, c *model.Consultation) error {
	prepare(c, func() string { return uuid.New().String() })

	profileJSON, err := json.Marshal(c.Profile)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal profile")
	}
	resultJSON, err := json.Marshal(c.Result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	_, err = s.pool.Exec(ctx, insertConsultationSQL,
		c.ID, string(c.Mode), profileJSON, resultJSON, string(c.Status), c.Error, c.DurationMs, c.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: save consultation %s", c.ID)
}

func (s *PostgresStore) GetConsultation(ctx context.Context, id string) (*model.Consultation, error) {
	c, err := scanPostgresConsultation(s.pool.QueryRow(ctx, getConsultationSQL, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get consultation %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get consultation %s", id)
	}
	return c, nil
}

func (s *PostgresStore) ListConsultations(ctx context.Context, filter ConsultationFilter) ([]model.Consultation, error) {
	query := `SELECT id, mode, profile, result, status, error, duration_ms, created_at FROM consultations WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Mode != "" {
		query += fmt.Sprintf(` AND mode = $%d`, argIdx)
		args = append(args, string(filter.Mode))
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if !filter.Since.IsZero() {
		query += fmt.Sprintf(` AND created_at >= $%d`, argIdx)
		args = append(args, filter.Since.UTC())
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d`, argIdx)
	args = append(args, filter.limit())
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list consultations")
	}
	defer rows.Close()

	out := []model.Consultation{}
	for rows.Next() {
		c, err := scanPostgresConsultation(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan consultation")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list consultations iterate")
}

func (s *PostgresStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, deleteConsultationsSQL, cutoff.UTC())
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete old consultations")
	}
	return int(tag.RowsAffected()), nil
}

func scanPostgresConsultation(row scannable) (*model.Consultation, error) {
	var (
		c                       model.Consultation
		mode, status            string
		profileJSON, resultJSON []byte
	)
	if err := row.Scan(&c.ID, &mode, &profileJSON, &resultJSON, &status, &c.Error, &c.DurationMs, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Mode = model.QueryMode(mode)
	c.Status = model.ConsultationStatus(status)
	c.CreatedAt = c.CreatedAt.UTC()
	if err := json.Unmarshal(profileJSON, &c.Profile); err != nil {
		return nil, eris.Wrap(err, "unmarshal profile")
	}
	if err := json.Unmarshal(resultJSON, &c.Result); err != nil {
		return nil, eris.Wrap(err, "unmarshal result")
	}
	return &c, nil
}
