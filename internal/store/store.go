// Package store persists the canonical record set and the import file
// registry. Two implementations exist: SQLite (default, file-backed) and
// Postgres (shared team database).
package store

import (
	"context"
	"time"

	"github.com/tapline/visitplanner/internal/model"
)

// PubFilter narrows ListPubs results.
type PubFilter struct {
	ListType model.ListType `json:"list_type,omitempty"`
	Limit    int            `json:"limit,omitempty"`
}

// ImportRecord registers one ingested list file.
type ImportRecord struct {
	FileID     string               `json:"file_id"`
	FileName   string               `json:"file_name"`
	ListType   model.ListType       `json:"list_type,omitempty"`
	Mode       model.SchedulingMode `json:"scheduling_mode,omitempty"`
	RowCount   int                  `json:"row_count"`
	ImportedAt time.Time            `json:"imported_at"`
}

// Store is the persistence interface for the planner. Callers must
// serialize writes racing on the same canonical record themselves; the
// store guarantees only per-call atomicity.
type Store interface {
	// Canonical records
	UpsertPub(ctx context.Context, p model.Pub) error
	GetPub(ctx context.Context, uuid string) (*model.Pub, error)
	ListPubs(ctx context.Context, filter PubFilter) ([]model.Pub, error)
	DeletePubsByFile(ctx context.Context, fileID string) (int, error)

	// Import registry
	RecordImport(ctx context.Context, rec ImportRecord) error
	ListImports(ctx context.Context) ([]ImportRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// originFileID is the file that first created a record; list removal
// deletes the records that file originated.
func originFileID(p model.Pub) string {
	if len(p.Sources) == 0 {
		return ""
	}
	return p.Sources[0].FileID
}
