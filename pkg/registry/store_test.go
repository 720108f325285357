package registry

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a store connected to a miniredis instance
func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	mr := miniredis.NewMiniRedis()
	err := mr.Start()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := NewStore(&redis.Options{Addr: mr.Addr()}, "test-env")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, mr
}

func testBoard(displayName string) *JobBoardRecord {
	return &JobBoardRecord{
		NaturalKey:       NaturalKey(displayName),
		DisplayName:      displayName,
		BoardType:        BoardTypeAggregator,
		BaseURL:          "https://example.com",
		Region:           "Global",
		IsActive:         true,
		Origin:           OriginCSVImport,
		LastReconciledAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestNewStore(t *testing.T) {
	t.Run("creates store successfully", func(t *testing.T) {
		store, _ := setupTestStore(t)
		assert.NotNil(t, store)
		assert.Equal(t, "test-env", store.EnvName())
	})

	t.Run("rejects empty environment name", func(t *testing.T) {
		_, err := NewStore(&redis.Options{Addr: "localhost:6379"}, "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "environment name cannot be empty")
	})
}

func TestStorePing(t *testing.T) {
	store, _ := setupTestStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestUpsert(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	t.Run("assigns a storage ID on create", func(t *testing.T) {
		persisted, err := store.Upsert(ctx, testBoard("Indeed Jobs"))
		require.NoError(t, err)
		assert.NotEmpty(t, persisted.StorageID)

		retrieved, err := store.Get(ctx, "indeed jobs")
		require.NoError(t, err)
		assert.Equal(t, persisted.StorageID, retrieved.StorageID)
		assert.Equal(t, "Indeed Jobs", retrieved.DisplayName)
	})

	t.Run("preserves storage ID on update", func(t *testing.T) {
		first, err := store.Upsert(ctx, testBoard("Monster"))
		require.NoError(t, err)

		updated := testBoard("Monster")
		updated.BaseURL = "https://www.monster.com/v2"
		updated.StorageID = "caller-supplied-garbage"
		second, err := store.Upsert(ctx, updated)
		require.NoError(t, err)

		assert.Equal(t, first.StorageID, second.StorageID)

		retrieved, err := store.Get(ctx, "monster")
		require.NoError(t, err)
		assert.Equal(t, "https://www.monster.com/v2", retrieved.BaseURL)
	})

	t.Run("rejects invalid record", func(t *testing.T) {
		record := testBoard("Bad Board")
		record.BaseURL = "not a url"
		_, err := store.Upsert(ctx, record)
		assert.Error(t, err)
	})

	t.Run("round-trips all fields", func(t *testing.T) {
		record := testBoard("We Work Remotely")
		record.BoardType = BoardTypeFreelance
		record.IsActive = false
		record.Origin = OriginSeed
		_, err := store.Upsert(ctx, record)
		require.NoError(t, err)

		retrieved, err := store.Get(ctx, "we work remotely")
		require.NoError(t, err)
		assert.Equal(t, BoardTypeFreelance, retrieved.BoardType)
		assert.False(t, retrieved.IsActive)
		assert.Equal(t, OriginSeed, retrieved.Origin)
		assert.True(t, record.LastReconciledAt.Equal(retrieved.LastReconciledAt))
	})
}

func TestGet(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	t.Run("returns not-found for missing key", func(t *testing.T) {
		_, err := store.Get(ctx, "nope")
		assert.True(t, IsNotFound(err))
	})
}

func TestGetByStorageID(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	persisted, err := store.Upsert(ctx, testBoard("Dice"))
	require.NoError(t, err)

	retrieved, err := store.GetByStorageID(ctx, persisted.StorageID)
	require.NoError(t, err)
	assert.Equal(t, "dice", retrieved.NaturalKey)

	_, err = store.GetByStorageID(ctx, "unknown-id")
	assert.True(t, IsNotFound(err))
}

func TestGetAll(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	t.Run("empty environment returns no records", func(t *testing.T) {
		records, err := store.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("returns records sorted by natural key", func(t *testing.T) {
		for _, name := range []string{"Monster", "AngelList", "Dice"} {
			_, err := store.Upsert(ctx, testBoard(name))
			require.NoError(t, err)
		}

		records, err := store.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "angellist", records[0].NaturalKey)
		assert.Equal(t, "dice", records[1].NaturalKey)
		assert.Equal(t, "monster", records[2].NaturalKey)

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 3, count)
	})
}

func TestDelete(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	t.Run("deletes existing record and its indexes", func(t *testing.T) {
		persisted, err := store.Upsert(ctx, testBoard("FlexJobs"))
		require.NoError(t, err)

		deleted, err := store.Delete(ctx, "flexjobs")
		require.NoError(t, err)
		assert.True(t, deleted)

		_, err = store.Get(ctx, "flexjobs")
		assert.True(t, IsNotFound(err))

		_, err = store.GetByStorageID(ctx, persisted.StorageID)
		assert.True(t, IsNotFound(err))

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)
	})

	t.Run("returns false for missing record", func(t *testing.T) {
		deleted, err := store.Delete(ctx, "never existed")
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}
