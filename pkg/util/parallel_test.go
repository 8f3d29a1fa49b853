package util

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapKeepsInputOrder(t *testing.T) {
	inputs := []int{5, 1, 4, 2, 3}
	got, err := Map(context.Background(), inputs, 3, func(_ context.Context, n int) (int, error) {
		return n * n, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{25, 1, 16, 4, 9}, got)
}

func TestMapEmpty(t *testing.T) {
	got, err := Map(context.Background(), nil, 4, func(context.Context, int) (int, error) {
		t.Fatal("fn must not run")
		return 0, nil
	})

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMapStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	var calls atomic.Int32

	_, err := Map(context.Background(), make([]int, 100), 1, func(_ context.Context, _ int) (int, error) {
		if calls.Add(1) == 3 {
			return 0, boom
		}
		return 0, nil
	})

	assert.ErrorIs(t, err, boom)
	assert.Less(t, calls.Load(), int32(100))
}

func TestMapHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Map(ctx, []int{1, 2, 3}, 2, func(ctx context.Context, n int) (int, error) {
		return n, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}
