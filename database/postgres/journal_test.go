package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/duplo"
	"github.com/sagarc03/duplo/database/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournal_RecordAndRecent(t *testing.T) {
	ctx := context.Background()
	j := setupTestJournal(t)

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	first := duplo.Event{
		ID: uuid.New(), Pool: "transient", Action: duplo.ActionUpload, Name: "a.txt",
		Size: 10, Result: duplo.ResultPartial, Remote: "192.0.2.1:1234", CreatedAt: created,
	}
	require.NoError(t, j.Record(ctx, first))
	require.NoError(t, j.Record(ctx, duplo.Event{
		Pool: "transient", Action: duplo.ActionRemove, Name: "a.txt", Size: 10, Result: duplo.ResultOK,
	}))
	require.NoError(t, j.Record(ctx, duplo.Event{
		Pool: "permanent", Action: duplo.ActionShareText, Name: "note.txt", Size: 4, Result: duplo.ResultOK,
	}))

	events, err := j.Recent(ctx, "transient", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, duplo.ActionRemove, events[0].Action)
	assert.NotEqual(t, uuid.Nil, events[0].ID)
	assert.Equal(t, first.ID, events[1].ID)
	assert.Equal(t, duplo.ResultPartial, events[1].Result)
	assert.Equal(t, "192.0.2.1:1234", events[1].Remote)
	assert.True(t, events[1].CreatedAt.Equal(created))
}

func TestJournal_Recent_Limit(t *testing.T) {
	ctx := context.Background()
	j := setupTestJournal(t)

	for _, name := range []string{"one", "two", "three"} {
		require.NoError(t, j.Record(ctx, duplo.Event{Pool: "transient", Action: duplo.ActionSweep, Name: name, Result: duplo.ResultOK}))
	}

	events, err := j.Recent(ctx, "transient", 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "three", events[0].Name)
	assert.Equal(t, "two", events[1].Name)

	events, err = j.Recent(ctx, "transient", 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestNewJournal(t *testing.T) {
	pool := getSharedTestDatabase(t)

	_, err := postgres.NewJournal(pool, duplo.Tables{Events: ""})
	assert.Error(t, err)

	j, err := postgres.NewJournal(pool, duplo.Tables{Events: "events"})
	require.NoError(t, err)
	assert.NoError(t, j.Ping(context.Background()))
}
