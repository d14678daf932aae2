package scheduler_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ygrebnov/qcore/queue"
	"github.com/ygrebnov/qcore/scheduler"
)

func TestSchedulerPriorityOrdering(t *testing.T) {
	s := scheduler.New()
	low := queue.New(queue.WithPriority(0))
	high := queue.New(queue.WithPriority(10))
	require.NoError(t, s.Add(low))
	require.NoError(t, s.Add(high))

	var order []string
	low.Push(func() { order = append(order, "low") })
	high.Push(func() { order = append(order, "high") })

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		tt, ok := s.Next(ctx)
		require.True(t, ok)
		tt.Task.Run()
	}
	assert.Equal(t, []string{"high", "low"}, order)
}

func TestSchedulerRoundRobinWithinBand(t *testing.T) {
	s := scheduler.New()
	a := queue.New()
	b := queue.New()
	require.NoError(t, s.Add(a))
	require.NoError(t, s.Add(b))

	var order []string
	a.Push(func() { order = append(order, "a1") })
	b.Push(func() { order = append(order, "b1") })
	a.Push(func() { order = append(order, "a2") })

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		tt, ok := s.Next(ctx)
		require.True(t, ok)
		tt.Task.Run()
	}
	_, ok := s.Next(ctx)
	assert.False(t, ok)
	assert.Equal(t, []string{"a1", "b1", "a2"}, order)
}

func TestSchedulerNextEmpty(t *testing.T) {
	s := scheduler.New()
	q := queue.New()
	require.NoError(t, s.Add(q))

	_, ok := s.Next(context.Background())
	assert.False(t, ok)
	assert.True(t, s.Empty())
}

func TestSchedulerDirectRejectsSecondQueue(t *testing.T) {
	q1 := queue.New()
	q2 := queue.New()
	s := scheduler.Direct(q1)

	err := s.Add(q2)
	require.Error(t, err)
}

func TestSchedulerSetWakeReplaysBacklog(t *testing.T) {
	s := scheduler.New()
	q := queue.New()
	require.NoError(t, s.Add(q))

	q.Push(func() {})
	q.Push(func() {})

	var pokes int
	s.SetWake(func() { pokes++ })
	assert.Equal(t, 2, pokes)

	q.Push(func() {})
	assert.Equal(t, 3, pokes)
}

func TestSchedulerAddAfterSetWakeReplaysBacklog(t *testing.T) {
	s := scheduler.New()
	var pokes int
	s.SetWake(func() { pokes++ })

	q := queue.New()
	q.Push(func() {})
	require.NoError(t, s.Add(q))

	assert.Equal(t, 1, pokes)
}

func TestSchedulerNextHonorsCancelledContext(t *testing.T) {
	s := scheduler.New()
	q := queue.New()
	require.NoError(t, s.Add(q))
	q.Push(func() {})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := s.Next(ctx)
	assert.False(t, ok)
}
