package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// NetworkCollector counts consensus messages passing through the transport.
type NetworkCollector struct {
	sent     *prometheus.CounterVec
	received *prometheus.CounterVec
	dropped  *prometheus.CounterVec
}

func NewNetworkCollector(registerer prometheus.Registerer) *NetworkCollector {
	r := NewRegisterer(registerer)
	return &NetworkCollector{
		sent: r.RegisterNewCounterVec(prometheus.CounterOpts{
			Subsystem: subsystemNetwork,
			Name: "messages_sent_total",
			Help: "number of consensus messages sent, by message type",
		}, LabelMessage),
		received: r.RegisterNewCounterVec(prometheus.CounterOpts{
			Subsystem: subsystemNetwork,
			Name: "messages_received_total",
			Help: "number of consensus messages delivered, by message type",
		}, LabelMessage),
		dropped: r.RegisterNewCounterVec(prometheus.CounterOpts{
			Subsystem: subsystemNetwork,
			Name: "messages_dropped_total",
			Help: "number of consensus messages dropped before delivery, by message type",
		}, LabelMessage),
	}
}

func (c *NetworkCollector) MessageSent(message string) {
	c.sent.WithLabelValues(message).Inc()
}

func (c *NetworkCollector) MessageReceived(message string) {
	c.received.WithLabelValues(message).Inc()
}

func (c *NetworkCollector) MessageDropped(message string) {
	c.dropped.WithLabelValues(message).Inc()
}
