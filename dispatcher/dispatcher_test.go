package dispatcher_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ygrebnov/qcore/dispatcher"
	"github.com/ygrebnov/qcore/metrics"
	"github.com/ygrebnov/qcore/queue"
	"github.com/ygrebnov/qcore/scheduler"
)

func TestBlockingWithMetricsCountsDispatchedTasks(t *testing.T) {
	sched := scheduler.New()
	q := queue.New()
	require.NoError(t, sched.Add(q))

	provider := metrics.NewBasicProvider()
	d := dispatcher.NewBlocking(sched, dispatcher.WithMetrics(provider))
	sched.SetWake(d.Wake())

	ctx, cancel := context.WithCancel(context.Background())
	go d.Start(ctx)

	var wg sync.WaitGroup
	wg.Add(3)
	for i := 0; i < 3; i++ {
		q.Push(func() { wg.Done() })
	}
	wg.Wait()
	cancel()
	require.NoError(t, d.Await(context.Background()))

	counter := provider.Counter("qcore.dispatcher.tasks_dispatched").(*metrics.BasicCounter)
	assert.Equal(t, int64(3), counter.Snapshot())
}

func TestBlockingRunsPushedTasks(t *testing.T) {
	sched := scheduler.New()
	q := queue.New()
	require.NoError(t, sched.Add(q))

	d := dispatcher.NewBlocking(sched)
	sched.SetWake(d.Wake())

	ctx, cancel := context.WithCancel(context.Background())
	go d.Start(ctx)

	var ran atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)
	q.Push(func() { ran.Store(true); wg.Done() })

	wg.Wait()
	assert.True(t, ran.Load())
	assert.Equal(t, 1, d.Parallelism())

	cancel()
	require.NoError(t, d.Await(context.Background()))
}

func TestBlockingTerminateLinger(t *testing.T) {
	sched := scheduler.New()
	q := queue.New()
	require.NoError(t, sched.Add(q))

	d := dispatcher.NewBlocking(sched)
	sched.SetWake(d.Wake())

	var count atomic.Int32
	var wg sync.WaitGroup
	wg.Add(3)
	for i := 0; i < 3; i++ {
		q.Push(func() { count.Add(1); wg.Done() })
	}

	go d.Start(context.Background())
	d.Terminate(dispatcher.Linger)

	doneCh := make(chan struct{})
	go func() { wg.Wait(); close(doneCh) }()

	select {
	case <-doneCh:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for lingered tasks to run")
	}

	require.NoError(t, d.Await(context.Background()))
	assert.Equal(t, int32(3), count.Load())
}

func TestThreadPoolParallelism(t *testing.T) {
	sched := scheduler.New()
	q := queue.New()
	require.NoError(t, sched.Add(q))

	pool := dispatcher.NewThreadPool(sched, 4)
	sched.SetWake(pool.Wake())
	assert.Equal(t, 4, pool.Parallelism())

	ctx, cancel := context.WithCancel(context.Background())
	go pool.Start(ctx)

	var wg sync.WaitGroup
	const n = 20
	wg.Add(n)
	for i := 0; i < n; i++ {
		q.Push(func() { wg.Done() })
	}
	wg.Wait()

	cancel()
	require.NoError(t, pool.Await(context.Background()))
}

func TestThreadPoolClampsParallelismToOne(t *testing.T) {
	sched := scheduler.New()
	pool := dispatcher.NewThreadPool(sched, 0)
	assert.Equal(t, 1, pool.Parallelism())
}
