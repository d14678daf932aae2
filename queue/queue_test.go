package queue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ygrebnov/qcore"
	"github.com/ygrebnov/qcore/metrics"
	"github.com/ygrebnov/qcore/qerr"
	"github.com/ygrebnov/qcore/queue"
)

func TestQueueWithMetricsTracksBacklog(t *testing.T) {
	provider := metrics.NewBasicProvider()
	q := queue.New(queue.WithMetrics(provider))

	q.Push(func() {})
	q.Push(func() {})
	gauge := provider.UpDownCounter("qcore.queue.backlog").(*metrics.BasicUpDownCounter)
	assert.Equal(t, int64(2), gauge.Snapshot())

	_, err := q.Pop()
	require.NoError(t, err)
	assert.Equal(t, int64(1), gauge.Snapshot())
}

func TestQueuePushPopFIFO(t *testing.T) {
	q := queue.New()

	var order []int
	q.Push(func() { order = append(order, 1) })
	q.Push(func() { order = append(order, 2) })
	q.Push(func() { order = append(order, 3) })

	for i := 0; i < 3; i++ {
		tt, err := q.Pop()
		require.NoError(t, err)
		tt.Task.Run()
	}
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestQueuePopEmptyReturnsValueAbsent(t *testing.T) {
	q := queue.New()
	_, err := q.Pop()
	require.Error(t, err)
	kind, ok := qerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, qerr.ValueAbsent, kind)
}

func TestQueuePushAtNotYetReady(t *testing.T) {
	q := queue.New()
	ran := false
	q.PushAt(func() { ran = true }, time.Now().Add(time.Hour))

	assert.True(t, q.Empty())
	_, err := q.Pop()
	require.Error(t, err)
	assert.False(t, ran)
}

func TestQueuePushAtPastInstantIsImmediate(t *testing.T) {
	q := queue.New()
	q.PushAt(func() {}, time.Now().Add(-time.Second))

	assert.False(t, q.Empty())
	_, err := q.Pop()
	require.NoError(t, err)
}

func TestQueueImmediateOrderedAheadOfTimed(t *testing.T) {
	now := time.Now()
	fc := &fakeClock{now: now}
	q := queue.New(queue.WithClock(fc))
	q.PushAt(func() {}, now.Add(time.Millisecond))
	fc.now = now.Add(time.Second)
	q.Push(func() {})

	tt, err := q.Pop()
	require.NoError(t, err)
	assert.True(t, tt.RunAt.IsZero())

	tt, err = q.Pop()
	require.NoError(t, err)
	assert.False(t, tt.RunAt.IsZero())
}

func TestQueueSetNotifierReturnsBacklog(t *testing.T) {
	q := queue.New()
	q.Push(func() {})
	q.Push(func() {})

	var fired int
	backlog := q.SetNotifier(func() { fired++ }, 1)
	assert.Equal(t, 2, backlog)

	q.Push(func() {})
	assert.Equal(t, 1, fired)
}

func TestQueueNextReadyAt(t *testing.T) {
	q := queue.New()
	_, ok := q.NextReadyAt()
	assert.False(t, ok)

	at := time.Now().Add(time.Minute)
	q.PushAt(func() {}, at)

	got, ok := q.NextReadyAt()
	require.True(t, ok)
	assert.True(t, got.Equal(at))
}

func TestQueuePriorityAndParallelism(t *testing.T) {
	q := queue.New(queue.WithPriority(5), queue.WithParallelism(3))
	assert.Equal(t, 5, q.Priority())
	assert.Equal(t, 3, q.Parallelism())
}

func TestQueueWithFakeClock(t *testing.T) {
	now := time.Now()
	fc := &fakeClock{now: now}
	q := queue.New(queue.WithClock(fc))

	q.PushAt(func() {}, now.Add(time.Second))
	assert.True(t, q.Empty())

	fc.now = now.Add(2 * time.Second)
	assert.False(t, q.Empty())
	_, err := q.Pop()
	require.NoError(t, err)
}

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

var _ qcore.Clock = (*fakeClock)(nil)
