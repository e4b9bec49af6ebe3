package irrecoverable

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"go.uber.org/atomic"
)

// Signaler propagates the first irrecoverable error raised by a component
// to whoever supervises it. Subsequent errors are dropped.
type Signaler struct {
	errChan   chan error
	errThrown *atomic.Bool
}

// NewSignaler returns a Signaler and the channel its first error is delivered on.
// The channel is closed once that error has been sent.
func NewSignaler() (*Signaler, <-chan error) {
	errChan := make(chan error, 1)
	return &Signaler{
		errChan:   errChan,
		errThrown: atomic.NewBool(false),
	}, errChan
}

// Throw is a narrow drop-in replacement for panic or log.Fatal. It records the
// error and terminates the calling goroutine.
func (s *Signaler) Throw(err error) {
	defer runtime.Goexit()
	if s.errThrown.CompareAndSwap(false, true) {
		s.errChan <- err
		close(s.errChan)
	}
}

// SignalerContext is a context.Context that can throw irrecoverable errors.
// It can only be built with WithSignaler.
type SignalerContext interface {
	context.Context
	Throw(err error)
	sealed()
}

type signalerCtx struct {
	context.Context
	signaler *Signaler
}

func (sc signalerCtx) sealed() {}

func (sc signalerCtx) Throw(err error) {
	sc.signaler.Throw(err)
}

// WithSignaler wraps ctx with a fresh Signaler and returns the channel its
// error is reported on.
func WithSignaler(ctx context.Context) (SignalerContext, <-chan error) {
	sig, errChan := NewSignaler()
	return signalerCtx{ctx, sig}, errChan
}

// Throw raises err through ctx if it carries a signaler. Without one there is
// nobody to hand the error to, so the process exits.
func Throw(ctx context.Context, err error) {
	if sc, ok := ctx.(SignalerContext); ok {
		sc.Throw(err)
		return
	}
	fmt.Fprintf(os.Stderr, "irrecoverable error without signaler: %v\n", err)
	os.Exit(1)
}
