package util

import (
	"sync"
)

// ReadyDoneAware is implemented by components with a single start-stop cycle.
type ReadyDoneAware interface {
	Ready() <-chan struct{}
	Done() <-chan struct{}
}

// AllReady returns a channel that is closed when all components are ready.
func AllReady(components ...ReadyDoneAware) <-chan struct{} {
	return allOf(components, ReadyDoneAware.Ready)
}

// AllDone returns a channel that is closed when all components are done.
func AllDone(components ...ReadyDoneAware) <-chan struct{} {
	return allOf(components, ReadyDoneAware.Done)
}

func allOf(components []ReadyDoneAware, signal func(ReadyDoneAware) <-chan struct{}) <-chan struct{} {
	channels := make([]<-chan struct{}, 0, len(components))
	for _, c := range components {
		channels = append(channels, signal(c))
	}
	return AllClosed(channels...)
}

// AllClosed returns a channel that is closed once every input channel is.
func AllClosed(channels ...<-chan struct{}) <-chan struct{} {
	closed := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(len(channels))
	for _, ch := range channels {
		go func(ch <-chan struct{}) {
			defer wg.Done()
			<-ch
		}(ch)
	}
	go func() {
		wg.Wait()
		close(closed)
	}()
	return closed
}

// WaitError waits for an error on errChan or for done to close. An error that
// was sent before done closed is still returned, so a component that threw
// and then shut down is never mistaken for a clean exit.
func WaitError(errChan <-chan error, done <-chan struct{}) error {
	select {
	case err := <-errChan:
		return err
	case <-done:
		select {
		case err := <-errChan:
			return err
		default:
		}
		return nil
	}
}

// CheckClosed reports whether done was closed.
func CheckClosed(done <-chan struct{}) bool {
	select {
	case <-done:
		return true
	default:
		return false
	}
}
