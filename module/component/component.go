package component

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/atomic"

	"github.com/quorumchain/bft/module/irrecoverable"
	"github.com/quorumchain/bft/module/util"
)

var (
	// ErrMultipleStartup is raised when a component is started twice.
	ErrMultipleStartup = errors.New("component may only be started once")
)

// Component can be started once and exposes channels that close when startup
// and shutdown have completed. After Start, Done must eventually close, either
// because the context was cancelled or because an irrecoverable error was thrown.
type Component interface {
	Start(ctx irrecoverable.SignalerContext)
	Ready() <-chan struct{}
	Done() <-chan struct{}
}

type ComponentFactory func() (Component, error)

// OnError decides how RunComponent reacts to an irrecoverable error.
type OnError = func(err error) ErrorHandlingResult

type ErrorHandlingResult int

const (
	ErrorHandlingRestart ErrorHandlingResult = iota
	ErrorHandlingStop
)

// RunComponent starts components built by componentFactory and restarts them
// on irrecoverable errors for as long as handler says so. It returns
//   - ctx.Err() if the context was cancelled,
//   - the last error if the handler returned ErrorHandlingStop,
//   - any error from componentFactory.
func RunComponent(ctx context.Context, componentFactory ComponentFactory, handler OnError) error {
	var component Component
	var cancel context.CancelFunc
	var done <-chan struct{}
	var irrecoverableErr <-chan error

	start := func() error {
		var err error
		component, err = componentFactory()
		if err != nil {
			return err
		}

		var runCtx context.Context
		runCtx, cancel = context.WithCancel(ctx)

		var signalCtx irrecoverable.SignalerContext
		signalCtx, irrecoverableErr = irrecoverable.WithSignaler(runCtx)

		// Start runs in its own goroutine since Throw terminates the caller.
		go component.Start(signalCtx)
		done = component.Done()
		return nil
	}

	stop := func() {
		cancel()
		<-done
	}

	for {
		if util.CheckClosed(ctx.Done()) {
			return ctx.Err()
		}

		if err := start(); err != nil {
			return err
		}

		if err := util.WaitError(irrecoverableErr, done); err != nil {
			stop()
			switch result := handler(err); result {
			case ErrorHandlingRestart:
				continue
			case ErrorHandlingStop:
				return err
			default:
				panic(fmt.Sprintf("invalid error handling result: %v", result))
			}
		} else if ctx.Err() != nil {
			stop()
			return ctx.Err()
		}

		return nil
	}
}

// ReadyFunc is called by a worker once it is ready.
type ReadyFunc func()

// ComponentWorker is a long running routine of a component. It must call
// ready once it has started and return once ctx is cancelled.
type ComponentWorker func(ctx irrecoverable.SignalerContext, ready ReadyFunc)

type ComponentManagerBuilder interface {
	AddWorker(ComponentWorker) ComponentManagerBuilder
	Build() *ComponentManager
}

type componentManagerBuilderImpl struct {
	workers []ComponentWorker
}

func NewComponentManagerBuilder() ComponentManagerBuilder {
	return &componentManagerBuilderImpl{}
}

// AddWorker is not concurrency safe.
func (c *componentManagerBuilderImpl) AddWorker(worker ComponentWorker) ComponentManagerBuilder {
	c.workers = append(c.workers, worker)
	return c
}

func (c *componentManagerBuilderImpl) Build() *ComponentManager {
	return &ComponentManager{
		started:        atomic.NewBool(false),
		ready:          make(chan struct{}),
		done:           make(chan struct{}),
		workersDone:    make(chan struct{}),
		shutdownSignal: make(chan struct{}),
		workers:        c.workers,
	}
}

var _ Component = (*ComponentManager)(nil)

// ComponentManager runs a component's workers. Ready closes once every worker
// called its ReadyFunc and Done closes once every worker returned.
//
// Shutdown is signalled by cancelling the context passed to Start. An error
// thrown by any worker cancels all of them and is rethrown to the parent.
type ComponentManager struct {
	started        *atomic.Bool
	ready          chan struct{}
	done           chan struct{}
	workersDone    chan struct{}
	shutdownSignal chan struct{}

	workers []ComponentWorker
}

// Start launches the workers. It panics if called twice.
func (c *ComponentManager) Start(parent irrecoverable.SignalerContext) {
	if !c.started.CompareAndSwap(false, true) {
		panic(ErrMultipleStartup)
	}

	ctx, cancel := context.WithCancel(parent)
	signalerCtx, errChan := irrecoverable.WithSignaler(ctx)

	go func() {
		<-ctx.Done()
		close(c.shutdownSignal)
	}()

	go func() {
		// the error reaches the parent before Done closes
		defer func() {
			<-c.workersDone
			close(c.done)
		}()

		if err := util.WaitError(errChan, c.workersDone); err != nil {
			cancel()
			parent.Throw(err)
		}
	}()

	var workersReady sync.WaitGroup
	var workersDone sync.WaitGroup
	workersReady.Add(len(c.workers))
	workersDone.Add(len(c.workers))

	for _, worker := range c.workers {
		worker := worker
		go func() {
			defer workersDone.Done()
			var readyOnce sync.Once
			worker(signalerCtx, func() {
				readyOnce.Do(workersReady.Done)
			})
		}()
	}

	go func() {
		workersReady.Wait()
		close(c.ready)
	}()
	go func() {
		workersDone.Wait()
		close(c.workersDone)
	}()
}

// Ready never closes if a worker returns before calling its ReadyFunc.
func (c *ComponentManager) Ready() <-chan struct{} {
	return c.ready
}

func (c *ComponentManager) Done() <-chan struct{} {
	return c.done
}

// ShutdownSignal closes when the context is cancelled or a worker threw.
func (c *ComponentManager) ShutdownSignal() <-chan struct{} {
	return c.shutdownSignal
}
