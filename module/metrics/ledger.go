package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LedgerCollector tracks the committed ledger.
type LedgerCollector struct {
	version          prometheus.Gauge
	commandsExecuted prometheus.Counter
	epochChanges     prometheus.Counter
	mempoolSize      prometheus.Gauge
}

func NewLedgerCollector(registerer prometheus.Registerer) *LedgerCollector {
	r := NewRegisterer(registerer)
	return &LedgerCollector{
		version: r.RegisterNewGauge(prometheus.GaugeOpts{
			Subsystem: subsystemLedger,
			Name: "state_version",
			Help: "number of commands in the committed ledger",
		}),
		commandsExecuted: r.RegisterNewCounter(prometheus.CounterOpts{
			Subsystem: subsystemLedger,
			Name: "commands_committed_total",
			Help: "number of commands committed",
		}),
		epochChanges: r.RegisterNewCounter(prometheus.CounterOpts{
			Subsystem: subsystemLedger,
			Name: "epoch_changes_total",
			Help: "number of committed epoch changes",
		}),
		mempoolSize: r.RegisterNewGauge(prometheus.GaugeOpts{
			Subsystem: subsystemLedger,
			Name: "mempool_size",
			Help: "number of commands waiting in the mempool",
		}),
	}
}

func (c *LedgerCollector) CommandsCommitted(count int, version uint64) {
	c.commandsExecuted.Add(float64(count))
	c.version.Set(float64(version))
}

func (c *LedgerCollector) EpochChanged() {
	c.epochChanges.Inc()
}

func (c *LedgerCollector) MempoolSize(size int) {
	c.mempoolSize.Set(float64(size))
}
