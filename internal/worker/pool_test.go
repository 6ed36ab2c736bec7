package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExecuteKeepsInputOrder(t *testing.T) {
	pool := NewPool("square", 4, func(_ context.Context, n int) (int, error) {
		return n * n, nil
	})

	tasks := pool.Execute(context.Background(), []int{1, 2, 3, 4, 5, 6, 7})
	require.Len(t, tasks, 7)
	for i, task := range tasks {
		require.NoError(t, task.Err)
		require.Equal(t, i+1, task.Input)
		require.Equal(t, (i+1)*(i+1), task.Result)
	}
}

func TestExecuteReportsErrorsPerTask(t *testing.T) {
	boom := errors.New("boom")
	pool := NewPool("odd", 2, func(_ context.Context, n int) (int, error) {
		if n%2 == 1 {
			return 0, boom
		}
		return n, nil
	})

	tasks := pool.Execute(context.Background(), []int{1, 2, 3})
	require.ErrorIs(t, tasks[0].Err, boom)
	require.NoError(t, tasks[1].Err)
	require.Equal(t, 2, tasks[1].Result)
	require.ErrorIs(t, tasks[2].Err, boom)
}

func TestExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	pool := NewPool("noop", 1, func(_ context.Context, n int) (int, error) {
		calls.Add(1)
		return n, nil
	})

	tasks := pool.Execute(ctx, []int{1, 2, 3})
	require.Len(t, tasks, 3)
	failed := 0
	for _, task := range tasks {
		if task.Err != nil {
			require.ErrorIs(t, task.Err, context.Canceled)
			failed++
		}
	}
	require.Equal(t, 3, failed+int(calls.Load()))
}

func TestExecuteEmpty(t *testing.T) {
	pool := NewPool("empty", 0, func(_ context.Context, n int) (int, error) { return n, nil })
	require.Empty(t, pool.Execute(context.Background(), nil))
}

func TestBatch(t *testing.T) {
	require.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, Batch([]int{1, 2, 3, 4, 5}, 2))
	require.Equal(t, [][]int{{1}, {2}}, Batch([]int{1, 2}, 0))
	require.Empty(t, Batch([]int{}, 3))
}
