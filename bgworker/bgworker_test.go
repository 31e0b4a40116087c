package bgworker

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapKeepsInputOrder(t *testing.T) {
	t.Parallel()

	inputs := []string{"draft", "submitted", "approved", "shipped", "closed"}

	results, err := Map(t.Context(), 2, inputs, func(_ context.Context, s string) string {
		// Finish out of order.
		time.Sleep(time.Duration(len(inputs)-len(s)%len(inputs)) * time.Millisecond)

		return strings.ToUpper(s)
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"DRAFT", "SUBMITTED", "APPROVED", "SHIPPED", "CLOSED"}, results)
}

func TestMapBoundsConcurrency(t *testing.T) {
	t.Parallel()

	var running, peak atomic.Int32

	inputs := make([]int, 20)

	_, err := Map(t.Context(), 3, inputs, func(context.Context, int) struct{} {
		current := running.Add(1)
		defer running.Add(-1)

		for {
			old := peak.Load()
			if current <= old || peak.CompareAndSwap(old, current) {
				break
			}
		}

		time.Sleep(2 * time.Millisecond)

		return struct{}{}
	})

	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestMapReportsPanics(t *testing.T) {
	t.Parallel()

	results, err := Map(t.Context(), 2, []int{1, 2, 3}, func(_ context.Context, n int) int {
		if n == 2 {
			panic("boom")
		}

		return n * 10
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "job 1")
	assert.Equal(t, []int{10, 0, 30}, results)
}

func TestMapEmpty(t *testing.T) {
	t.Parallel()

	results, err := Map(t.Context(), 0, []int(nil), func(context.Context, int) int { return 1 })

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestWorkerCount(t *testing.T) {
	t.Setenv("BACKGROUND_WORKER_COUNT", "4")
	assert.Equal(t, 4, WorkerCount())

	t.Setenv("BACKGROUND_WORKER_COUNT", "-1")
	assert.Equal(t, defaultWorkerCount, WorkerCount())

	t.Setenv("BACKGROUND_WORKER_COUNT", "lots")
	assert.Equal(t, defaultWorkerCount, WorkerCount())
}
