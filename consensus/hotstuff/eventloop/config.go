package eventloop

import "github.com/quorumchain/bft/module/fifoqueue"

const defaultInboundCapacity = 10_000

type config struct {
	inboundCapacity int
	lengthObserver  fifoqueue.LengthObserver
}

func defaultConfig() config {
	return config{
		inboundCapacity: defaultInboundCapacity,
		lengthObserver:  func(int) {},
	}
}

type Option func(*config)

// WithInboundCapacity bounds the queue of messages received from the network.
// Messages arriving while it is full are dropped.
func WithInboundCapacity(capacity int) Option {
	return func(c *config) {
		c.inboundCapacity = capacity
	}
}

// WithInboundLengthObserver reports the inbound queue length after every change.
func WithInboundLengthObserver(observer fifoqueue.LengthObserver) Option {
	return func(c *config) {
		c.lengthObserver = observer
	}
}
