package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registerer builds collectors under the bft namespace and registers them
// right away. Duplicate registration panics.
type Registerer struct {
	prometheus.Registerer
	namespace string
}

func NewRegisterer(registerer prometheus.Registerer) *Registerer {
	return &Registerer{Registerer: registerer, namespace: namespaceBFT}
}

func mustRegister[C prometheus.Collector](r *Registerer, collector C) C {
	r.MustRegister(collector)
	return collector
}

func (r *Registerer) RegisterNewHistogram(opts prometheus.HistogramOpts) prometheus.Histogram {
	if opts.Namespace == "" {
		opts.Namespace = r.namespace
	}
	return mustRegister(r, prometheus.NewHistogram(opts))
}

func (r *Registerer) RegisterNewCounter(opts prometheus.CounterOpts) prometheus.Counter {
	return mustRegister(r, prometheus.NewCounter(r.counterOpts(opts)))
}

func (r *Registerer) RegisterNewCounterVec(opts prometheus.CounterOpts, labelNames ...string) *prometheus.CounterVec {
	return mustRegister(r, prometheus.NewCounterVec(r.counterOpts(opts), labelNames))
}

func (r *Registerer) RegisterNewGauge(opts prometheus.GaugeOpts) prometheus.Gauge {
	if opts.Namespace == "" {
		opts.Namespace = r.namespace
	}
	return mustRegister(r, prometheus.NewGauge(opts))
}

func (r *Registerer) counterOpts(opts prometheus.CounterOpts) prometheus.CounterOpts {
	if opts.Namespace == "" {
		opts.Namespace = r.namespace
	}
	return opts
}
