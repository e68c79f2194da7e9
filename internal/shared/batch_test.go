package shared

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllOrNothingFailsWhole(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	var done atomic.Int32
	err := AllOrNothing(ctx, 5, func(ctx context.Context, i int) error {
		if i == 2 {
			return boom
		}
		done.Add(1)
		return nil
	})
	require.ErrorIs(t, err, boom)
}

func TestAllOrNothingSucceeds(t *testing.T) {
	var done atomic.Int32
	err := AllOrNothing(context.Background(), 4, func(ctx context.Context, i int) error {
		done.Add(1)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, int32(4), done.Load())
}

func TestBestEffortCollectsAndContinues(t *testing.T) {
	boom := errors.New("row failed")
	var visited []int
	errs := BestEffort(context.Background(), 3, func(ctx context.Context, i int) error {
		visited = append(visited, i)
		if i == 1 {
			return boom
		}
		return nil
	})
	require.Equal(t, []int{0, 1, 2}, visited)
	require.Len(t, errs, 1)
	require.Equal(t, 1, errs[0].Index)
	require.ErrorIs(t, errs[0].Err, boom)
}

func TestBestEffortStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var visited int
	errs := BestEffort(ctx, 10, func(ctx context.Context, i int) error {
		visited++
		if i == 1 {
			cancel()
		}
		return nil
	})
	require.Equal(t, 2, visited)
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0].Err, context.Canceled)
}
