package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func run(id string, started time.Time) Run {
	return Run{ID: id, FileName: id + ".csv", StartedAt: started}
}

func TestMemoryStore_RecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Record(ctx, run(fmt.Sprint(i), base.Add(time.Duration(i)*time.Minute))))
	}

	runs, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	require.Equal(t, "2", runs[0].ID)
	require.Equal(t, "0", runs[2].ID)

	runs, err = store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
}

func TestMemoryStore_RingOverwritesOldest(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(3)
	base := time.Now()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(ctx, run(fmt.Sprint(i), base)))
	}

	require.Equal(t, 3, store.Len())
	runs, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"4", "3", "2"}, ids(runs))
}

func TestMemoryStore_RejectsMissingID(t *testing.T) {
	store := NewMemoryStore(1)
	require.ErrorIs(t, store.Record(context.Background(), Run{}), ErrInvalidRun)
}

func TestMemoryStore_Prune(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(4)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	// Wrap the ring so pruning has to unroll it.
	for i := 0; i < 6; i++ {
		require.NoError(t, store.Record(ctx, run(fmt.Sprint(i), base.Add(time.Duration(i)*time.Hour))))
	}

	removed, err := store.Prune(ctx, base.Add(4*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(2), removed)

	runs, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"5", "4"}, ids(runs))

	require.NoError(t, store.Record(ctx, run("6", base.Add(6*time.Hour))))
	runs, err = store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"6", "5", "4"}, ids(runs))
}

func TestClampLimit(t *testing.T) {
	require.Equal(t, DefaultLimit, clampLimit(-1))
	require.Equal(t, 7, clampLimit(7))
	require.Equal(t, MaxLimit, clampLimit(MaxLimit+1))
}

func ids(runs []Run) []string {
	out := make([]string, len(runs))
	for i, r := range runs {
		out[i] = r.ID
	}
	return out
}
