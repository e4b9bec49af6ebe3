package component

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/quorumchain/bft/module/irrecoverable"
	"github.com/quorumchain/bft/module/util"
)

const timeout = time.Second

func closed(ch <-chan struct{}) func() bool {
	return func() bool { return util.CheckClosed(ch) }
}

func TestComponentManager_ReadyDone(t *testing.T) {
	cm := NewComponentManagerBuilder().
		AddWorker(func(ctx irrecoverable.SignalerContext, ready ReadyFunc) {
			ready()
			<-ctx.Done()
		}).
		AddWorker(func(ctx irrecoverable.SignalerContext, ready ReadyFunc) {
			ready()
			ready()
			<-ctx.Done()
		}).
		Build()

	ctx, cancel := irrecoverable.NewMockSignalerContextWithCancel(t, context.Background())
	cm.Start(ctx)
	assert.Eventually(t, closed(cm.Ready()), timeout, 5*time.Millisecond)
	assert.False(t, closed(cm.Done())())

	cancel()
	assert.Eventually(t, closed(cm.Done()), timeout, 5*time.Millisecond)
	assert.Eventually(t, closed(cm.ShutdownSignal()), timeout, 5*time.Millisecond)

	assert.PanicsWithValue(t, ErrMultipleStartup, func() { cm.Start(ctx) })
}

func TestComponentManager_ThrowPropagates(t *testing.T) {
	fatal := errors.New("fatal")
	cm := NewComponentManagerBuilder().
		AddWorker(func(ctx irrecoverable.SignalerContext, ready ReadyFunc) {
			ready()
			ctx.Throw(fatal)
		}).
		AddWorker(func(ctx irrecoverable.SignalerContext, ready ReadyFunc) {
			ready()
			<-ctx.Done()
		}).
		Build()

	ctx, errChan := irrecoverable.WithSignaler(context.Background())
	cm.Start(ctx)

	select {
	case err := <-errChan:
		assert.ErrorIs(t, err, fatal)
	case <-time.After(timeout):
		t.Fatal("error was not propagated")
	}
	assert.Eventually(t, closed(cm.Done()), timeout, 5*time.Millisecond)
}

type testComponent struct {
	*ComponentManager
}

func TestRunComponent_Restart(t *testing.T) {
	fatal := errors.New("fatal")
	starts := atomic.NewInt32(0)

	factory := func() (Component, error) {
		return testComponent{NewComponentManagerBuilder().
			AddWorker(func(ctx irrecoverable.SignalerContext, ready ReadyFunc) {
				ready()
				starts.Inc()
				ctx.Throw(fatal)
			}).
			Build()}, nil
	}

	handled := 0
	err := RunComponent(context.Background(), factory, func(err error) ErrorHandlingResult {
		require.ErrorIs(t, err, fatal)
		handled++
		if handled < 3 {
			return ErrorHandlingRestart
		}
		return ErrorHandlingStop
	})
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, int32(3), starts.Load())
}

func TestRunComponent_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	factory := func() (Component, error) {
		return NewComponentManagerBuilder().
			AddWorker(func(ctx irrecoverable.SignalerContext, ready ReadyFunc) {
				ready()
				cancel()
				<-ctx.Done()
			}).
			Build(), nil
	}

	err := RunComponent(ctx, factory, func(error) ErrorHandlingResult {
		t.Fatal("unexpected error")
		return ErrorHandlingStop
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunComponent_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RunComponent(ctx, func() (Component, error) {
		t.Fatal("component created after cancellation")
		return nil, nil
	}, func(error) ErrorHandlingResult {
		return ErrorHandlingStop
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNotifier_Coalesces(t *testing.T) {
	n := NewNotifier()
	n.Notify()
	n.Notify()

	<-n.Channel()
	select {
	case <-n.Channel():
		t.Fatal("second notification was not coalesced")
	default:
	}
}
