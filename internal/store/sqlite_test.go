package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapline/visitplanner/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "planner.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testPub(id, name, fileID string) model.Pub {
	return model.Pub{
		UUID:     id,
		Name:     name,
		Zip:      "NR25 8PL",
		ListType: model.ListTypeWins,
		Sources: []model.SourceRef{{
			SourceID: id,
			FileID:   fileID,
			FileName: fileID + ".xlsx",
		}},
		EffectivePlan: &model.EffectivePlan{PrimaryMode: model.ModeMaster},
	}
}

func TestSQLite_UpsertAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := testPub("u1", "Red Lion", "f1")
	require.NoError(t, s.UpsertPub(ctx, p))

	got, err := s.GetPub(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Red Lion", got.Name)
	require.Len(t, got.Sources, 1)
	assert.Equal(t, "f1", got.Sources[0].FileID)
	require.NotNil(t, got.EffectivePlan)
	assert.Equal(t, model.ModeMaster, got.EffectivePlan.PrimaryMode)

	// Upsert replaces the document.
	p.Name = "The Red Lion"
	require.NoError(t, s.UpsertPub(ctx, p))
	got, err = s.GetPub(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "The Red Lion", got.Name)
}

func TestSQLite_GetMissing(t *testing.T) {
	s := newTestStore(t)
	got, err := s.GetPub(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_ListPubsFiltered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := testPub("u1", "Red Lion", "f1")
	b := testPub("u2", "White Swan", "f1")
	b.ListType = model.ListTypeMasterhouse
	require.NoError(t, s.UpsertPub(ctx, a))
	require.NoError(t, s.UpsertPub(ctx, b))

	all, err := s.ListPubs(ctx, PubFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "Red Lion", all[0].Name, "ordered by name")

	wins, err := s.ListPubs(ctx, PubFilter{ListType: model.ListTypeWins})
	require.NoError(t, err)
	require.Len(t, wins, 1)
	assert.Equal(t, "u1", wins[0].UUID)
}

func TestSQLite_DeletePubsByFile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertPub(ctx, testPub("u1", "Red Lion", "f1")))
	require.NoError(t, s.UpsertPub(ctx, testPub("u2", "White Swan", "f2")))

	n, err := s.DeletePubsByFile(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	remaining, err := s.ListPubs(ctx, PubFilter{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "u2", remaining[0].UUID)
}

func TestSQLite_ImportRegistry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := ImportRecord{
		FileID:   "f1",
		FileName: "wins-april.xlsx",
		ListType: model.ListTypeWins,
		Mode:     model.ModeDeadline,
		RowCount: 42,
	}
	require.NoError(t, s.RecordImport(ctx, rec))

	got, err := s.ListImports(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "wins-april.xlsx", got[0].FileName)
	assert.Equal(t, 42, got[0].RowCount)
	assert.False(t, got[0].ImportedAt.IsZero())
}
