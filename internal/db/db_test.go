package db

import (
	"context"
	"database/sql"
	"testing"

	"schedule-backend/pkg/migrations"

	"github.com/stretchr/testify/require"
)

func TestCurrentDocument(t *testing.T) {
	database, err := migrations.OpenAndMigrateDB(Schema, migrations.Config{File: ":memory:"})
	require.NoError(t, err)
	defer database.Close()

	ctx := context.Background()
	qry := New(database)

	_, err = qry.GetCurrentDocument(ctx)
	require.ErrorIs(t, err, sql.ErrNoRows)

	err = qry.SetCurrentDocument(ctx, SetCurrentDocumentParams{
		Content:     []byte("first"),
		Source:      "upload",
		Revision:    "aaaa",
		Size:        5,
		RecordCount: 2,
		LoadedAt:    100,
	})
	require.NoError(t, err)
	err = qry.SetCurrentDocument(ctx, SetCurrentDocumentParams{
		Content:     []byte("second"),
		Source:      "https://example.edu/s.xlsx",
		Revision:    "bbbb",
		Size:        6,
		RecordCount: 3,
		LoadedAt:    200,
	})
	require.NoError(t, err)

	doc, err := qry.GetCurrentDocument(ctx)
	require.NoError(t, err)
	require.Equal(t, GetCurrentDocumentRow{
		Content:     []byte("second"),
		Source:      "https://example.edu/s.xlsx",
		Revision:    "bbbb",
		Size:        6,
		RecordCount: 3,
		LoadedAt:    200,
	}, doc)

	info, err := qry.GetCurrentDocumentInfo(ctx)
	require.NoError(t, err)
	require.Equal(t, "bbbb", info.Revision)
	require.EqualValues(t, 3, info.RecordCount)
}

func TestLoadEvents(t *testing.T) {
	database, err := migrations.OpenAndMigrateDB(Schema, migrations.Config{File: ":memory:"})
	require.NoError(t, err)
	defer database.Close()

	ctx := context.Background()
	makeTx := NewMakeTx(database)
	tx, discard, commit, err := makeTx(ctx)
	require.NoError(t, err)
	defer discard()

	for i, ok := range []bool{true, false, true} {
		err = tx.NoteLoadEvent(ctx, NoteLoadEventParams{
			Source:  "refresh",
			Ok:      ok,
			Message: "m",
			At:      int64(i * 10),
		})
		require.NoError(t, err)
	}
	require.NoError(t, commit())

	qry := New(database)
	events, err := qry.GetRecentLoadEvents(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.EqualValues(t, 20, events[0].At)
	require.False(t, events[1].Ok)

	require.NoError(t, qry.DeleteLoadEventsBefore(ctx, 15))
	events, err = qry.GetRecentLoadEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
}
