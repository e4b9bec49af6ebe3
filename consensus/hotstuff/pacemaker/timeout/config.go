package timeout

import (
	"time"

	"github.com/quorumchain/bft/consensus/hotstuff/model"
)

// Config contains the configuration parameters for the exponential backoff
// of local view timeouts:
//
//	duration(n) = Base * Rate ^ min(n, MaxExponent)
//
// where n is the number of consecutive local timeouts since the last QC.
type Config struct {
	// Base is the timeout of a view entered on the happy path.
	Base time.Duration
	// Rate is the factor the timeout grows by per consecutive local timeout.
	Rate float64
	// MaxExponent caps the exponent, and with it the longest timeout.
	MaxExponent uint64
}

// DefaultConfig returns the timeout configuration used by production replicas.
func DefaultConfig() Config {
	return Config{
		Base:        3 * time.Second,
		Rate:        1.2,
		MaxExponent: 6,
	}
}

// NewConfig creates a validated timeout configuration.
func NewConfig(base time.Duration, rate float64, maxExponent uint64) (Config, error) {
	if base <= 0 {
		return Config{}, model.NewConfigurationErrorf("base timeout must be positive, got %v", base)
	}
	if rate < 1 {
		return Config{}, model.NewConfigurationErrorf("timeout rate must be at least 1, got %f", rate)
	}
	return Config{
		Base:        base,
		Rate:        rate,
		MaxExponent: maxExponent,
	}, nil
}
