package storage

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Factulist/internal/domain"
)

func TestFileReportLogAppendAssignsSequentialIDs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "reports.json")
	log := NewFileReportLog(path)

	for i := 0; i < 3; i++ {
		rep, err := log.Append(ctx, domain.Report{Title: "r", ID: 99})
		require.NoError(t, err)
		assert.Equal(t, int64(i), rep.ID)
	}

	reloaded := NewFileReportLog(path)
	all, err := reloaded.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(2), all[2].ID)

	rep, err := reloaded.Append(ctx, domain.Report{Title: "fourth"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), rep.ID)
}

func TestFileReportLogConcurrentAppend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	log := NewFileReportLog("")

	const n = 50
	ids := make([]int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rep, err := log.Append(ctx, domain.Report{})
			assert.NoError(t, err)
			ids[i] = rep.ID
		}(i)
	}
	wg.Wait()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		assert.Equal(t, int64(i), id)
	}
}

func TestFileReportLogLastAndGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	log := NewFileReportLog("")
	for _, title := range []string{"a", "b", "c", "d"} {
		_, err := log.Append(ctx, domain.Report{Title: title})
		require.NoError(t, err)
	}

	last, err := log.Last(ctx, 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "c", last[0].Title)
	assert.Equal(t, "d", last[1].Title)

	all, err := log.Last(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	rep, err := log.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "b", rep.Title)

	_, err = log.Get(ctx, 4)
	assert.ErrorIs(t, err, domain.ErrReportNotFound)
}

func TestFileReportLogCorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reports.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))

	_, err := NewFileReportLog(path).All(context.Background())
	assert.Error(t, err)
}

func TestFileStatsStoreIncrement(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sources.json")
	store := NewFileStatsStore(path)

	_, err := store.Increment(ctx, "example.com", domain.CredibilityVerified)
	require.NoError(t, err)
	stats, err := store.Increment(ctx, "example.com", domain.CredibilityVerified)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Counts[domain.CredibilityVerified])

	_, err = store.Increment(ctx, "other.org", domain.CredibilityFalse)
	require.NoError(t, err)

	reloaded := NewFileStatsStore(path)
	got, ok, err := reloaded.Get(ctx, "example.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, map[string]int{domain.CredibilityVerified: 2}, got.Counts)

	all, err := reloaded.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "example.com", all[0].Domain)
	assert.Equal(t, "other.org", all[1].Domain)

	_, ok, err = reloaded.Get(ctx, "missing.net")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStatsStoreConcurrentIncrement(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewFileStatsStore("")

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Increment(ctx, "example.com", domain.CredibilityMisleading)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stats, _, err := store.Get(ctx, "example.com")
	require.NoError(t, err)
	assert.Equal(t, 40, stats.Total())
}

func TestFileStatsStoreReturnsCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewFileStatsStore("")
	stats, err := store.Increment(ctx, "example.com", domain.CredibilityVerified)
	require.NoError(t, err)
	stats.Counts[domain.CredibilityVerified] = 100

	got, _, err := store.Get(ctx, "example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Counts[domain.CredibilityVerified])
}
