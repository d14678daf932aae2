package promise_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ygrebnov/qcore"
	"github.com/ygrebnov/qcore/promise"
	"github.com/ygrebnov/qcore/qerr"
	"github.com/ygrebnov/qcore/queue"
)

func drain(q *queue.Queue, deadline time.Duration) {
	end := time.Now().Add(deadline)
	for time.Now().Before(end) {
		if q.Empty() {
			return
		}
		tt, err := q.Pop()
		if err == nil {
			tt.Task.Run()
			continue
		}
		time.Sleep(time.Millisecond)
	}
}

func TestDeferrerResolveSettlesPromiseOnce(t *testing.T) {
	q := queue.New()
	d := promise.NewDeferrer[int](q)
	p := d.Promise()

	var got int
	var wg sync.WaitGroup
	wg.Add(1)
	p.Tap(func(v int) { got = v; wg.Done() })

	d.Resolve(42)
	d.Resolve(7) // second settlement ignored

	drain(q, time.Second)
	wg.Wait()
	assert.Equal(t, 42, got)
}

func TestPromiseThenTransformsValue(t *testing.T) {
	q := queue.New()
	d := promise.NewDeferrer[int](q)
	p := d.Promise()

	next := promise.Then(p, func(v int) (string, error) {
		return "got-" + itoa(v), nil
	})

	var got string
	var wg sync.WaitGroup
	wg.Add(1)
	next.Tap(func(v string) { got = v; wg.Done() })

	d.Resolve(9)
	drain(q, time.Second)
	wg.Wait()
	assert.Equal(t, "got-9", got)
}

func TestPromiseThenPropagatesRejection(t *testing.T) {
	q := queue.New()
	d := promise.NewDeferrer[int](q)
	p := d.Promise()

	boom := errors.New("boom")
	next := promise.Then(p, func(v int) (int, error) { return v, nil })

	var gotErr error
	var wg sync.WaitGroup
	wg.Add(1)
	next.TapError(func(err error) { gotErr = err; wg.Done() })

	d.Reject(boom)
	drain(q, time.Second)
	wg.Wait()
	assert.Equal(t, boom, gotErr)
}

func TestPromiseFailRecoversError(t *testing.T) {
	q := queue.New()
	d := promise.NewDeferrer[int](q)
	p := d.Promise()

	recovered := promise.Fail(p, func(err error) (int, error) { return -1, nil })

	var got int
	var wg sync.WaitGroup
	wg.Add(1)
	recovered.Tap(func(v int) { got = v; wg.Done() })

	d.Reject(errors.New("fail"))
	drain(q, time.Second)
	wg.Wait()
	assert.Equal(t, -1, got)
}

type myError struct{ msg string }

func (e *myError) Error() string { return e.msg }

func TestPromiseFailAsOnlyMatchesType(t *testing.T) {
	q := queue.New()
	d := promise.NewDeferrer[int](q)
	p := d.Promise()

	handled := promise.FailAs(p, func(e *myError) (int, error) { return 99, nil })

	var got int
	var wg sync.WaitGroup
	wg.Add(1)
	handled.Tap(func(v int) { got = v; wg.Done() })

	d.Reject(&myError{msg: "typed"})
	drain(q, time.Second)
	wg.Wait()
	assert.Equal(t, 99, got)
}

func TestPromiseFailAsPassesThroughNonMatchingType(t *testing.T) {
	q := queue.New()
	d := promise.NewDeferrer[int](q)
	p := d.Promise()

	handled := promise.FailAs(p, func(e *myError) (int, error) { return 99, nil })

	var gotErr error
	var wg sync.WaitGroup
	wg.Add(1)
	handled.TapError(func(err error) { gotErr = err; wg.Done() })

	other := errors.New("different kind")
	d.Reject(other)
	drain(q, time.Second)
	wg.Wait()
	assert.Equal(t, other, gotErr)
}

func TestPromiseConsumedTwicePanics(t *testing.T) {
	q := queue.New()
	d := promise.NewDeferrer[int](q)
	p := d.Promise()

	p.Tap(func(int) {})
	assert.Panics(t, func() { p.Tap(func(int) {}) })
}

func TestPromiseShareAllowsMultipleConsumers(t *testing.T) {
	q := queue.New()
	d := promise.NewDeferrer[int](q)
	sp := d.Promise().Share()

	var a, b int
	var wg sync.WaitGroup
	wg.Add(2)
	sp.Clone().Tap(func(v int) { a = v; wg.Done() })
	sp.Clone().Tap(func(v int) { b = v; wg.Done() })

	d.Resolve(5)
	drain(q, time.Second)
	wg.Wait()
	assert.Equal(t, 5, a)
	assert.Equal(t, 5, b)
}

func TestPromiseAllResolvesInOrder(t *testing.T) {
	q := queue.New()
	d1 := promise.NewDeferrer[int](q)
	d2 := promise.NewDeferrer[int](q)
	d3 := promise.NewDeferrer[int](q)

	combined := promise.All(q, d1.Promise(), d2.Promise(), d3.Promise())

	var got []int
	var wg sync.WaitGroup
	wg.Add(1)
	combined.Tap(func(v []int) { got = v; wg.Done() })

	d2.Resolve(2)
	d1.Resolve(1)
	d3.Resolve(3)
	drain(q, time.Second)
	wg.Wait()
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestPromiseAllRejectsWithCombinedError(t *testing.T) {
	q := queue.New()
	d1 := promise.NewDeferrer[int](q)
	d2 := promise.NewDeferrer[int](q)

	combined := promise.All(q, d1.Promise(), d2.Promise())

	boom := errors.New("boom")
	var gotErr error
	var wg sync.WaitGroup
	wg.Add(1)
	combined.TapError(func(err error) { gotErr = err; wg.Done() })

	d1.Reject(boom)
	d2.Resolve(1)
	drain(q, time.Second)
	wg.Wait()
	kind, ok := qerr.KindOf(gotErr)
	require.True(t, ok)
	assert.Equal(t, qerr.Combined, kind)
	outcomes, ok := qerr.Attachment[[]qcore.Expected[int]](gotErr)
	require.True(t, ok)
	require.Len(t, outcomes, 2)
	assert.Equal(t, boom, outcomes[0].Err())
	assert.Equal(t, 1, outcomes[1].Must())
}

func TestPromiseAllAnyCollectsEveryOutcome(t *testing.T) {
	q := queue.New()
	d1 := promise.NewDeferrer[int](q)
	d2 := promise.NewDeferrer[string](q)

	combined := promise.AllAny(q, promise.AsAny(d1.Promise()), promise.AsAny(d2.Promise()))

	var gotErr error
	var wg sync.WaitGroup
	wg.Add(1)
	combined.TapError(func(err error) { gotErr = err; wg.Done() })

	d1.Reject(errors.New("first failed"))
	d2.Resolve("ok")
	drain(q, time.Second)
	wg.Wait()

	require.Error(t, gotErr)
	kind, ok := qerr.KindOf(gotErr)
	require.True(t, ok)
	assert.Equal(t, qerr.Combined, kind)
	outcomes, ok := qerr.Attachment[[]qcore.Expected[any]](gotErr)
	require.True(t, ok)
	require.Len(t, outcomes, 2)
	assert.True(t, outcomes[0].HasError())
	assert.Equal(t, "ok", outcomes[1].Must())
}

func TestPromiseWithAndReject(t *testing.T) {
	q := queue.New()
	resolved := promise.With(q, 10)
	rejected := promise.Reject[int](q, errors.New("nope"))

	var gotVal int
	var gotErr error
	var wg sync.WaitGroup
	wg.Add(2)
	resolved.Tap(func(v int) { gotVal = v; wg.Done() })
	rejected.TapError(func(err error) { gotErr = err; wg.Done() })

	drain(q, time.Second)
	wg.Wait()
	assert.Equal(t, 10, gotVal)
	require.Error(t, gotErr)
}

func TestPromiseReflectNeverRejects(t *testing.T) {
	q := queue.New()
	d := promise.NewDeferrer[int](q)
	reflected := d.Promise().Reflect()

	var got bool
	var wg sync.WaitGroup
	wg.Add(1)
	reflected.Tap(func(e qcore.Expected[int]) { got = e.HasError(); wg.Done() })

	d.Reject(errors.New("x"))
	drain(q, time.Second)
	wg.Wait()
	assert.True(t, got)
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
