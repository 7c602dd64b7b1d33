package sqlite

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/kanban-boards/internal/model"
	"github.com/sakif/kanban-boards/internal/store"
)

// newTestDB opens a fresh in-memory database that is closed with the test.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRead_NoDocument(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Read(context.Background(), store.Boards)

	assert.ErrorIs(t, err, store.ErrNoDocument)
}

func TestWrite_ReplacesDocument(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Write(ctx, store.Users, []byte(`[{"id":1}]`)))
	require.NoError(t, db.Write(ctx, store.Users, []byte(`[{"id":2}]`)))

	doc, err := db.Read(ctx, store.Users)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":2}]`, string(doc))
}

func TestSnapshot_NothingToCopy(t *testing.T) {
	db := newTestDB(t)

	err := db.Snapshot(context.Background(), store.Boards, "boards-x.json")

	assert.ErrorIs(t, err, store.ErrNoDocument)
}

func TestSnapshot_ListAndRemove(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.Write(ctx, store.Boards, []byte(`[{"id":"b"}]`)))

	require.NoError(t, db.Snapshot(ctx, store.Boards, "boards-2.json"))
	require.NoError(t, db.Snapshot(ctx, store.Boards, "boards-1.json"))

	names, err := db.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"boards-1.json", "boards-2.json"}, names)

	doc, err := db.SnapshotDocument(ctx, "boards-2.json")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"b"}]`, string(doc))

	require.NoError(t, db.RemoveSnapshot(ctx, "boards-1.json"))
	names, err = db.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"boards-2.json"}, names)
}

// The Store contract holds on top of SQLite too.
func TestStoreOverSQLite_RetentionAndRoundTrip(t *testing.T) {
	db := newTestDB(t)
	s := store.New(db, slog.New(slog.NewTextHandler(io.Discard, nil)), store.WithRetention(3))
	ctx := context.Background()

	boards := []model.Board{{ID: "b1", Title: "Sprint 1", UserID: "7", Columns: []model.Column{}}}
	require.Nil(t, store.WriteAll(ctx, s, store.Boards, boards))
	assert.Equal(t, boards, store.ReadAll[model.Board](ctx, s, store.Boards))

	for i := 0; i < 8; i++ {
		s.BackupBoards(ctx)
	}
	names, err := s.Backups(ctx)
	require.NoError(t, err)
	assert.Len(t, names, 3)
}
