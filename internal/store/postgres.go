package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/tapline/visitplanner/internal/model"
)

// Pool is the subset of pgxpool.Pool the store needs; tests substitute a
// pgxmock pool.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
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
CREATE TABLE IF NOT EXISTS pubs (
	uuid           TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	zip            TEXT NOT NULL DEFAULT '',
	list_type      TEXT NOT NULL DEFAULT '',
	origin_file_id TEXT NOT NULL DEFAULT '',
	doc            JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS imports (
	file_id         TEXT PRIMARY KEY,
	file_name       TEXT NOT NULL,
	list_type       TEXT NOT NULL DEFAULT '',
	scheduling_mode TEXT NOT NULL DEFAULT '',
	row_count       INTEGER NOT NULL DEFAULT 0,
	imported_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_pubs_zip ON pubs(zip);
CREATE INDEX IF NOT EXISTS idx_pubs_list_type ON pubs(list_type);
CREATE INDEX IF NOT EXISTS idx_pubs_origin_file ON pubs(origin_file_id);
`

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

func (s *PostgresStore) UpsertPub(ctx context.Context, p model.Pub) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal pub")
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO pubs (uuid, name, zip, list_type, origin_file_id, doc, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (uuid) DO UPDATE SET
			name = EXCLUDED.name,
			zip = EXCLUDED.zip,
			list_type = EXCLUDED.list_type,
			origin_file_id = EXCLUDED.origin_file_id,
			doc = EXCLUDED.doc,
			updated_at = now()`,
		p.UUID, p.Name, p.Zip, string(p.ListType), originFileID(p), doc)
	return eris.Wrap(err, "postgres: upsert pub")
}

func (s *PostgresStore) GetPub(ctx context.Context, uuid string) (*model.Pub, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, `SELECT doc FROM pubs WHERE uuid = $1`, uuid).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get pub")
	}
	var p model.Pub
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal pub")
	}
	return &p, nil
}

func (s *PostgresStore) ListPubs(ctx context.Context, filter PubFilter) ([]model.Pub, error) {
	query := `SELECT doc FROM pubs`
	var args []any
	if filter.ListType != "" {
		query += ` WHERE list_type = $1`
		args = append(args, string(filter.ListType))
	}
	query += ` ORDER BY name, uuid`
	if filter.Limit > 0 {
		if len(args) == 0 {
			query += ` LIMIT $1`
		} else {
			query += ` LIMIT $2`
		}
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list pubs")
	}
	defer rows.Close()

	var pubs []model.Pub
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, eris.Wrap(err, "postgres: scan pub")
		}
		var p model.Pub
		if err := json.Unmarshal(doc, &p); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal pub")
		}
		pubs = append(pubs, p)
	}
	return pubs, eris.Wrap(rows.Err(), "postgres: list pubs")
}

func (s *PostgresStore) DeletePubsByFile(ctx context.Context, fileID string) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM pubs WHERE origin_file_id = $1`, fileID)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete pubs by file")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) RecordImport(ctx context.Context, rec ImportRecord) error {
	if rec.ImportedAt.IsZero() {
		rec.ImportedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO imports (file_id, file_name, list_type, scheduling_mode, row_count, imported_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (file_id) DO UPDATE SET
			file_name = EXCLUDED.file_name,
			list_type = EXCLUDED.list_type,
			scheduling_mode = EXCLUDED.scheduling_mode,
			row_count = EXCLUDED.row_count,
			imported_at = EXCLUDED.imported_at`,
		rec.FileID, rec.FileName, string(rec.ListType), string(rec.Mode), rec.RowCount, rec.ImportedAt)
	return eris.Wrap(err, "postgres: record import")
}

func (s *PostgresStore) ListImports(ctx context.Context) ([]ImportRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT file_id, file_name, list_type, scheduling_mode, row_count, imported_at
		FROM imports ORDER BY imported_at DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list imports")
	}
	defer rows.Close()

	var recs []ImportRecord
	for rows.Next() {
		var rec ImportRecord
		var listType, mode string
		if err := rows.Scan(&rec.FileID, &rec.FileName, &listType, &mode, &rec.RowCount, &rec.ImportedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan import")
		}
		rec.ListType = model.ListType(listType)
		rec.Mode = model.SchedulingMode(mode)
		recs = append(recs, rec)
	}
	return recs, eris.Wrap(rows.Err(), "postgres: list imports")
}
