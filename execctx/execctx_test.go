package execctx_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ygrebnov/qcore/dispatcher"
	"github.com/ygrebnov/qcore/execctx"
)

func TestNewDefaultRunsPushedTasks(t *testing.T) {
	ec := execctx.NewDefault(1)
	assert.NotEmpty(t, ec.ID)

	ctx, cancel := context.WithCancel(context.Background())
	go ec.Start(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	ec.Push(func() { wg.Done() })
	wg.Wait()

	cancel()
	require.NoError(t, ec.Await(context.Background()))
}

func TestNewDefaultThreadPoolParallelism(t *testing.T) {
	ec := execctx.NewDefault(4)
	assert.Equal(t, 4, ec.Dispatcher.Parallelism())

	ctx, cancel := context.WithCancel(context.Background())
	go ec.Start(ctx)

	var wg sync.WaitGroup
	wg.Add(10)
	for i := 0; i < 10; i++ {
		ec.Push(func() { wg.Done() })
	}
	wg.Wait()

	cancel()
	require.NoError(t, ec.Await(context.Background()))
}

func TestNewDefaultSingleGoroutineDegenerateCase(t *testing.T) {
	ec := execctx.NewDefault(0)
	assert.Equal(t, 1, ec.Dispatcher.Parallelism())
}

func TestContextTerminate(t *testing.T) {
	ec := execctx.NewDefault(2)
	go ec.Start(context.Background())

	ec.Terminate(dispatcher.Annihilate)
	require.NoError(t, ec.Await(context.Background()))
}
