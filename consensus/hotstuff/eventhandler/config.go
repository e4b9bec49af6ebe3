package eventhandler

type config struct {
	maxBufferedEvents      int
	maxVerticesPerResponse uint32
}

func defaultConfig() config {
	return config{
		maxBufferedEvents:      1024,
		maxVerticesPerResponse: 100,
	}
}

// Option customizes an EventHandler.
type Option func(*config)

// WithMaxBufferedEvents caps the number of proposals and votes parked while
// waiting for their view or for missing vertices.
func WithMaxBufferedEvents(n int) Option {
	return func(c *config) {
		c.maxBufferedEvents = n
	}
}

// WithMaxVerticesPerResponse caps how many vertices one sync response may carry.
func WithMaxVerticesPerResponse(n uint32) Option {
	return func(c *config) {
		c.maxVerticesPerResponse = n
	}
}
