// ABOUTME: Tests for the SQLite to Charm KV migration
// ABOUTME: Copies a seeded pipeline into a Badger-backed store and checks re-runs
package main

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/pipeboard/charm"
	"github.com/harperreed/pipeboard/db"
)

func TestMigrateCopiesPipeline(t *testing.T) {
	ctx := context.Background()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	src := db.NewStore(database)
	p, err := db.SeedDemo(ctx, src)
	require.NoError(t, err)

	dst := charm.NewStore(charm.NewTestClient(t))

	r, err := migrate(ctx, database, dst, "", false)
	require.NoError(t, err)
	assert.Equal(t, db.DemoPipelineName, r.Pipeline)
	assert.Equal(t, 6, r.Stages)
	assert.Equal(t, 8, r.Deals)
	assert.Zero(t, r.Skipped)

	stages, err := dst.ListStages(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, stages, 6)
	assert.Equal(t, "Lead", stages[0].Name)

	want, err := src.ListDeals(ctx, p.ID)
	require.NoError(t, err)
	got, err := dst.ListDeals(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	placed := make(map[uuid.UUID]uuid.UUID, len(got))
	for _, d := range got {
		placed[d.ID] = d.StageID
	}
	for _, d := range want {
		assert.Equal(t, d.StageID, placed[d.ID], d.Title)
	}

	state, err := db.GetMigrationState(ctx, database, migrationTarget)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "done", state.Status)

	again, err := migrate(ctx, database, dst, "", false)
	require.NoError(t, err)
	assert.Zero(t, again.Stages)
	assert.Zero(t, again.Deals)
	assert.Equal(t, 15, again.Skipped)
}

func TestMigrateDryRunWritesNothing(t *testing.T) {
	ctx := context.Background()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	p, err := db.SeedDemo(ctx, db.NewStore(database))
	require.NoError(t, err)

	dst := charm.NewStore(charm.NewTestClient(t))

	r, err := migrate(ctx, database, dst, db.DemoPipelineName, true)
	require.NoError(t, err)
	assert.Equal(t, 8, r.Deals)

	deals, err := dst.ListDeals(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, deals)

	state, err := db.GetMigrationState(ctx, database, migrationTarget)
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestMigrateUnknownPipeline(t *testing.T) {
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	_, err = migrate(context.Background(), database, charm.NewStore(charm.NewTestClient(t)), "", false)
	assert.Error(t, err)
}
