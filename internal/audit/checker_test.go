package audit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remotehive/boardreg/pkg/registry"
)

func newTestEnv(t *testing.T, name string) Environment {
	mr := miniredis.NewMiniRedis()
	err := mr.Start()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := registry.NewStore(&redis.Options{Addr: mr.Addr()}, name)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return Environment{Name: name, Store: store}
}

func putBoard(t *testing.T, env Environment, displayName, baseURL string, active bool) {
	t.Helper()
	_, err := env.Store.Upsert(context.Background(), &registry.JobBoardRecord{
		NaturalKey:  registry.NaturalKey(displayName),
		DisplayName: displayName,
		BoardType:   registry.BoardTypeAggregator,
		BaseURL:     baseURL,
		Region:      "Global",
		IsActive:    active,
		Origin:      registry.OriginCSVImport,
	})
	require.NoError(t, err)
}

func TestAudit(t *testing.T) {
	ctx := context.Background()

	t.Run("identical environments report no discrepancies", func(t *testing.T) {
		staging := newTestEnv(t, "staging")
		production := newTestEnv(t, "production")
		for _, env := range []Environment{staging, production} {
			putBoard(t, env, "Indeed Jobs", "https://indeed.com", true)
			putBoard(t, env, "Monster", "https://monster.com", false)
		}

		report := NewChecker().Audit(ctx, []Environment{staging, production})

		require.Len(t, report.Environments, 2)
		for _, envReport := range report.Environments {
			assert.Equal(t, 2, envReport.RecordCount)
			assert.Equal(t, 1, envReport.ActiveCount)
			assert.Empty(t, envReport.MissingKeys)
			assert.Empty(t, envReport.MismatchedKeys)
		}
		assert.True(t, report.InSync)
	})

	t.Run("detects missing keys", func(t *testing.T) {
		staging := newTestEnv(t, "staging")
		production := newTestEnv(t, "production")
		putBoard(t, staging, "Indeed Jobs", "https://indeed.com", true)
		putBoard(t, staging, "Dice", "https://dice.com", true)
		putBoard(t, production, "Indeed Jobs", "https://indeed.com", true)

		report := NewChecker().Audit(ctx, []Environment{staging, production})

		assert.Empty(t, report.Environments["staging"].MissingKeys)
		assert.Equal(t, []string{"dice"}, report.Environments["production"].MissingKeys)
		assert.False(t, report.InSync)
	})

	t.Run("detects mismatched is_active and base_url", func(t *testing.T) {
		staging := newTestEnv(t, "staging")
		production := newTestEnv(t, "production")
		putBoard(t, staging, "Indeed Jobs", "https://indeed.com", true)
		putBoard(t, production, "Indeed Jobs", "https://indeed.com", false)
		putBoard(t, staging, "Monster", "https://monster.com", true)
		putBoard(t, production, "Monster", "https://monster.com/v2", true)
		putBoard(t, staging, "Dice", "https://dice.com", true)
		putBoard(t, production, "Dice", "https://dice.com", true)

		report := NewChecker().Audit(ctx, []Environment{staging, production})

		for _, envName := range []string{"staging", "production"} {
			assert.Equal(t, []string{"indeed jobs", "monster"}, report.Environments[envName].MismatchedKeys)
		}
		assert.False(t, report.InSync)
	})

	t.Run("unreachable environment does not abort the audit", func(t *testing.T) {
		reachable := newTestEnv(t, "staging")
		putBoard(t, reachable, "Indeed Jobs", "https://indeed.com", true)

		deadStore, err := registry.NewStore(&redis.Options{
			Addr:        "127.0.0.1:1", // nothing listens here
			DialTimeout: 100 * time.Millisecond,
			MaxRetries:  -1,
		}, "production")
		require.NoError(t, err)
		t.Cleanup(func() { deadStore.Close() })

		checker := NewChecker()
		checker.EnvTimeout = 500 * time.Millisecond

		report := checker.Audit(ctx, []Environment{
			reachable,
			{Name: "production", Store: deadStore},
		})

		require.Len(t, report.Environments, 2)
		assert.True(t, report.Environments["production"].Unreachable)
		assert.NotEmpty(t, report.Environments["production"].Error)

		stagingReport := report.Environments["staging"]
		assert.False(t, stagingReport.Unreachable)
		assert.Equal(t, 1, stagingReport.RecordCount)
		// Cannot claim sync when an environment could not be read
		assert.False(t, report.InSync)
	})

	t.Run("audit never mutates the environments", func(t *testing.T) {
		env := newTestEnv(t, "staging")
		putBoard(t, env, "Indeed Jobs", "https://indeed.com", true)

		_ = NewChecker().Audit(ctx, []Environment{env})

		records, err := env.Store.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "https://indeed.com", records[0].BaseURL)
	})
}
