package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/tapline/visitplanner/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
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
CREATE TABLE IF NOT EXISTS pubs (
	uuid           TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	zip            TEXT NOT NULL DEFAULT '',
	list_type      TEXT NOT NULL DEFAULT '',
	origin_file_id TEXT NOT NULL DEFAULT '',
	doc            TEXT NOT NULL,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS imports (
	file_id         TEXT PRIMARY KEY,
	file_name       TEXT NOT NULL,
	list_type       TEXT NOT NULL DEFAULT '',
	scheduling_mode TEXT NOT NULL DEFAULT '',
	row_count       INTEGER NOT NULL DEFAULT 0,
	imported_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_pubs_zip ON pubs(zip);
CREATE INDEX IF NOT EXISTS idx_pubs_list_type ON pubs(list_type);
CREATE INDEX IF NOT EXISTS idx_pubs_origin_file ON pubs(origin_file_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertPub(ctx context.Context, p model.Pub) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal pub")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pubs (uuid, name, zip, list_type, origin_file_id, doc, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uuid) DO UPDATE SET
			name = excluded.name,
			zip = excluded.zip,
			list_type = excluded.list_type,
			origin_file_id = excluded.origin_file_id,
			doc = excluded.doc,
			updated_at = excluded.updated_at`,
		p.UUID, p.Name, p.Zip, string(p.ListType), originFileID(p), string(doc), time.Now().UTC())
	return eris.Wrap(err, "sqlite: upsert pub")
}

func (s *SQLiteStore) GetPub(ctx context.Context, uuid string) (*model.Pub, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM pubs WHERE uuid = ?`, uuid).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get pub")
	}
	var p model.Pub
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal pub")
	}
	return &p, nil
}

func (s *SQLiteStore) ListPubs(ctx context.Context, filter PubFilter) ([]model.Pub, error) {
	query := `SELECT doc FROM pubs`
	var args []any
	if filter.ListType != "" {
		query += ` WHERE list_type = ?`
		args = append(args, string(filter.ListType))
	}
	query += ` ORDER BY name, uuid`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list pubs")
	}
	defer rows.Close()

	var pubs []model.Pub
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan pub")
		}
		var p model.Pub
		if err := json.Unmarshal([]byte(doc), &p); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal pub")
		}
		pubs = append(pubs, p)
	}
	return pubs, eris.Wrap(rows.Err(), "sqlite: list pubs")
}

func (s *SQLiteStore) DeletePubsByFile(ctx context.Context, fileID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pubs WHERE origin_file_id = ?`, fileID)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete pubs by file")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) RecordImport(ctx context.Context, rec ImportRecord) error {
	if rec.ImportedAt.IsZero() {
		rec.ImportedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO imports (file_id, file_name, list_type, scheduling_mode, row_count, imported_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_id) DO UPDATE SET
			file_name = excluded.file_name,
			list_type = excluded.list_type,
			scheduling_mode = excluded.scheduling_mode,
			row_count = excluded.row_count,
			imported_at = excluded.imported_at`,
		rec.FileID, rec.FileName, string(rec.ListType), string(rec.Mode), rec.RowCount, rec.ImportedAt)
	return eris.Wrap(err, "sqlite: record import")
}

func (s *SQLiteStore) ListImports(ctx context.Context) ([]ImportRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT file_id, file_name, list_type, scheduling_mode, row_count, imported_at
		FROM imports ORDER BY imported_at DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list imports")
	}
	defer rows.Close()

	var recs []ImportRecord
	for rows.Next() {
		var rec ImportRecord
		var listType, mode string
		if err := rows.Scan(&rec.FileID, &rec.FileName, &listType, &mode, &rec.RowCount, &rec.ImportedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan import")
		}
		rec.ListType = model.ListType(listType)
		rec.Mode = model.SchedulingMode(mode)
		recs = append(recs, rec)
	}
	return recs, eris.Wrap(rows.Err(), "sqlite: list imports")
}
