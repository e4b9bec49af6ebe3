package bftsync

import (
	"time"

	"golang.org/x/time/rate"
)

// Config holds the tuning parameters of vertex synchronization.
type Config struct {
	// RequestTimeout is how long a request may stay unanswered before it
	// is sent to the next peer.
	RequestTimeout time.Duration
	// MaxAttempts is the number of peers asked for the same vertex before
	// the syncs waiting on it are abandoned.
	MaxAttempts uint
	// MaxOutstanding caps the number of vertices requested at once. When
	// the cap is reached, the least recently requested vertex is dropped.
	MaxOutstanding int
	// MaxDepth caps the number of vertices fetched for a single QC.
	MaxDepth int
	// RequestRate limits requests sent per second, with bursts up to RequestBurst.
	RequestRate  rate.Limit
	RequestBurst int
}

// DefaultConfig returns the sync configuration used by production replicas.
func DefaultConfig() Config {
	return Config{
		RequestTimeout: 2 * time.Second,
		MaxAttempts:    5,
		MaxOutstanding: 64,
		MaxDepth:       256,
		RequestRate:    rate.Limit(50),
		RequestBurst:   10,
	}
}
