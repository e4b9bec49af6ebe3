package timeout

import (
	"context"
	"math"
	"time"

	"github.com/quorumchain/bft/consensus/hotstuff/model"
)

// Controller implements a capped exponential backoff of view timeouts.
// Every local timeout increases the counter of consecutive timeouts, a QC
// resets it. A view entered through a TC keeps the grown timeout, so a
// degraded network gets longer views until a QC forms again.
//
// Each armed timer runs in its own goroutine bound to a child context.
// Arming a new timer cancels the previous one, and every timer delivers to
// a fresh channel, so a superseded timer can never be observed.
type Controller struct {
	cfg            Config
	timeoutChannel chan model.LocalTimeout
	stopTicker     context.CancelFunc
	consecutive    uint64 // local timeouts since the last QC
}

// NewController creates a new Controller.
func NewController(cfg Config) *Controller {
	return &Controller{
		cfg: cfg,
		// never fires until the first timer is armed
		timeoutChannel: make(chan model.LocalTimeout),
		stopTicker:     func() {},
	}
}

// Channel returns the channel the currently armed timer fires on.
func (t *Controller) Channel() <-chan model.LocalTimeout {
	return t.timeoutChannel
}

// StartTimeout arms the timer for view, cancelling the previous one. count
// is the number of times the view already timed out locally.
func (t *Controller) StartTimeout(ctx context.Context, epoch uint64, view uint64, count uint64) model.LocalTimeout {
	t.stopTicker()

	timeout := model.LocalTimeout{
		Epoch:    epoch,
		View:     view,
		Count:    count,
		Duration: t.ReplicaTimeout(),
	}
	t.timeoutChannel = make(chan model.LocalTimeout, 1)

	var childContext context.Context
	childContext, t.stopTicker = context.WithCancel(ctx)
	go fireAfter(childContext, timeout, t.timeoutChannel)

	return timeout
}

// Stop cancels the armed timer.
func (t *Controller) Stop() {
	t.stopTicker()
}

func fireAfter(ctx context.Context, timeout model.LocalTimeout, sink chan<- model.LocalTimeout) {
	timer := time.NewTimer(timeout.Duration)
	defer timer.Stop()
	select {
	case <-timer.C:
		sink <- timeout // buffered, the only send on this channel
	case <-ctx.Done():
	}
}

// ReplicaTimeout returns the duration of the next armed timer.
func (t *Controller) ReplicaTimeout() time.Duration {
	exponent := t.consecutive
	if exponent > t.cfg.MaxExponent {
		exponent = t.cfg.MaxExponent
	}
	return time.Duration(float64(t.cfg.Base) * math.Pow(t.cfg.Rate, float64(exponent)))
}

// ConsecutiveTimeouts returns the number of local timeouts since the last QC.
func (t *Controller) ConsecutiveTimeouts() uint64 {
	return t.consecutive
}

// OnTimeout indicates to the Controller that the current view timed out locally.
func (t *Controller) OnTimeout() {
	if t.consecutive > t.cfg.MaxExponent {
		return
	}
	t.consecutive++
}

// OnProgress indicates to the Controller that a QC was formed.
func (t *Controller) OnProgress() {
	t.consecutive = 0
}
