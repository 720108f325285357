package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remotehive/boardreg/internal/audit"
	"github.com/remotehive/boardreg/pkg/registry"
)

func setupTestEnv(t *testing.T) audit.Environment {
	mr := miniredis.NewMiniRedis()
	err := mr.Start()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := registry.NewStore(&redis.Options{Addr: mr.Addr()}, "test-env")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, err = store.Upsert(context.Background(), &registry.JobBoardRecord{
		NaturalKey:  "indeed jobs",
		DisplayName: "Indeed Jobs",
		BoardType:   registry.BoardTypeAggregator,
		BaseURL:     "https://indeed.com",
		Region:      "Global",
		IsActive:    true,
		Origin:      registry.OriginCSVImport,
	})
	require.NoError(t, err)

	return audit.Environment{Name: "test-env", Store: store}
}

func TestSchedulerRunsAuditImmediately(t *testing.T) {
	env := setupTestEnv(t)

	reports := make(chan *audit.Report, 1)
	sched := New(audit.NewChecker(), []audit.Environment{env}, "@every 1h", func(r *audit.Report) {
		reports <- r
	})

	err := sched.Start(context.Background())
	require.NoError(t, err)
	defer sched.Stop()

	select {
	case report := <-reports:
		assert.True(t, report.InSync)
		require.Contains(t, report.Environments, "test-env")
		assert.Equal(t, 1, report.Environments["test-env"].RecordCount)
	case <-time.After(5 * time.Second):
		t.Fatal("no audit report before the first tick deadline")
	}
}

func TestSchedulerRejectsInvalidSpec(t *testing.T) {
	env := setupTestEnv(t)

	sched := New(audit.NewChecker(), []audit.Environment{env}, "not-a-cron-spec", nil)
	err := sched.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cron")
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	env := setupTestEnv(t)

	sched := New(audit.NewChecker(), []audit.Environment{env}, "@every 1h", nil)
	require.NoError(t, sched.Start(context.Background()))

	sched.Stop()
	sched.Stop()
}
