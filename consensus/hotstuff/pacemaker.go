package hotstuff

import (
	"context"

	"github.com/quorumchain/bft/consensus/hotstuff/model"
)

// Pacemaker drives view progression. A view is left when a QC or TC for it
// (or a later view) becomes known. The pacemaker arms a local timer for the
// current view, times the view out when the timer fires and proposes when
// the replica leads the view.
//
// Pacemaker is not concurrency safe; it is driven by the event loop.
type Pacemaker interface {
	// Start moves the pacemaker to the view after the vertex store's HighQC.
	Start(ctx context.Context) error

	// CurView returns the current view.
	CurView() uint64

	// ProcessQC advances the view if highQC certifies the current view or
	// a later one. It returns true if the view changed.
	ProcessQC(highQC model.HighQC) (bool, error)

	// OnViewUpdate arms the timer for the view and proposes if the replica
	// is the view's leader. Stale updates are ignored.
	OnViewUpdate(update model.ViewUpdate) error

	// OnLocalTimeout times out the current view and broadcasts a timeout
	// vote. It returns false if the timeout is stale.
	OnLocalTimeout(timeout model.LocalTimeout) (bool, error)

	// TimeoutChannel returns the channel of the currently armed timer. A
	// new channel is used for every armed timer.
	TimeoutChannel() <-chan model.LocalTimeout
}

// PacemakerEvents receives the view updates the pacemaker produces.
// Implementations queue them into the event loop.
type PacemakerEvents interface {
	OnViewUpdate(update model.ViewUpdate)
}
