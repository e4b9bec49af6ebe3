package epochs

import (
	"github.com/quorumchain/bft/consensus/hotstuff/bftsync"
	"github.com/quorumchain/bft/consensus/hotstuff/eventhandler"
	"github.com/quorumchain/bft/consensus/hotstuff/eventloop"
	"github.com/quorumchain/bft/consensus/hotstuff/pacemaker/timeout"
	"github.com/quorumchain/bft/module/fifoqueue"
)

// Config holds the parameters every epoch's consensus instance is built with.
type Config struct {
	Timeout timeout.Config
	Sync    bftsync.Config
	// MaxFutureMessages caps the messages held for epochs the replica has
	// not started yet. Messages beyond the cap are dropped.
	MaxFutureMessages int
	// InboundCapacity caps the network messages queued in an event loop.
	InboundCapacity int
	// MaxVerticesPerResponse caps the vertices served per sync request.
	MaxVerticesPerResponse uint32
	// VerifierCacheSize is the number of decoded validator keys kept in memory.
	VerifierCacheSize int
}

func DefaultConfig() Config {
	return Config{
		Timeout:                timeout.DefaultConfig(),
		Sync:                   bftsync.DefaultConfig(),
		MaxFutureMessages:      1000,
		InboundCapacity:        10_000,
		MaxVerticesPerResponse: 100,
		VerifierCacheSize:      1000,
	}
}

// Option customizes an EpochManager beyond its Config.
type Option func(*EpochManager)

// WithInboundLengthObserver reports the inbound queue length of every
// epoch's event loop.
func WithInboundLengthObserver(observer fifoqueue.LengthObserver) Option {
	return func(m *EpochManager) {
		m.inboundObserver = observer
	}
}

func (c Config) loopOptions(observer fifoqueue.LengthObserver) []eventloop.Option {
	opts := []eventloop.Option{eventloop.WithInboundCapacity(c.InboundCapacity)}
	if observer != nil {
		opts = append(opts, eventloop.WithInboundLengthObserver(observer))
	}
	return opts
}

func (c Config) handlerOptions() []eventhandler.Option {
	return []eventhandler.Option{eventhandler.WithMaxVerticesPerResponse(c.MaxVerticesPerResponse)}
}
