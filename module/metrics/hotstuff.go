package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/quorumchain/bft/consensus/hotstuff"
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/model/chain"
)

// HotstuffCollector exposes the consensus notifications as prometheus metrics.
// It is registered as one more consumer on the notification distributor.
type HotstuffCollector struct {
	epoch             prometheus.Gauge
	curView           prometheus.Gauge
	committedView     prometheus.Gauge
	timeoutDuration   prometheus.Gauge
	vertexStoreSize   prometheus.Gauge
	eventsProcessed   prometheus.Counter
	localTimeouts     prometheus.Counter
	proposalsReceived prometheus.Counter
	proposalsSent     prometheus.Counter
	votesReceived     *prometheus.CounterVec
	votesSent         *prometheus.CounterVec
	votesRejected     *prometheus.CounterVec
	noVotes           prometheus.Counter
	quorums           *prometheus.CounterVec
	invalidMessages   prometheus.Counter
	syncRequests      prometheus.Counter
	verticesInserted  prometheus.Counter
	verticesCommitted prometheus.Counter
	commitLatency     prometheus.Histogram
	inboundQueue      prometheus.Gauge
}

var _ hotstuff.Consumer = (*HotstuffCollector)(nil)

func NewHotstuffCollector(registerer prometheus.Registerer) *HotstuffCollector {
	r := NewRegisterer(registerer)
	return &HotstuffCollector{
		epoch: r.RegisterNewGauge(prometheus.GaugeOpts{
			Subsystem: subsystemHotstuff,
			Name: "epoch",
			Help: "epoch of the running consensus instance",
		}),
		curView: r.RegisterNewGauge(prometheus.GaugeOpts{
			Subsystem: subsystemHotstuff,
			Name: "cur_view",
			Help: "the current view of the pacemaker",
		}),
		committedView: r.RegisterNewGauge(prometheus.GaugeOpts{
			Subsystem: subsystemHotstuff,
			Name: "committed_view",
			Help: "view of the last committed vertex",
		}),
		timeoutDuration: r.RegisterNewGauge(prometheus.GaugeOpts{
			Subsystem: subsystemHotstuff,
			Name: "timeout_seconds",
			Help: "duration of the currently armed view timeout",
		}),
		vertexStoreSize: r.RegisterNewGauge(prometheus.GaugeOpts{
			Subsystem: subsystemHotstuff,
			Name: "vertex_store_size",
			Help: "number of uncommitted vertices in the vertex store",
		}),
		eventsProcessed: r.RegisterNewCounter(prometheus.CounterOpts{
			Subsystem: subsystemEventLoop,
			Name: "events_processed_total",
			Help: "number of events handled by the event loop",
		}),
		localTimeouts: r.RegisterNewCounter(prometheus.CounterOpts{
			Subsystem: subsystemHotstuff,
			Name: "local_timeouts_total",
			Help: "number of views that timed out locally",
		}),
		proposalsReceived: r.RegisterNewCounter(prometheus.CounterOpts{
			Subsystem: subsystemHotstuff,
			Name: "proposals_received_total",
			Help: "number of valid proposals received",
		}),
		proposalsSent: r.RegisterNewCounter(prometheus.CounterOpts{
			Subsystem: subsystemHotstuff,
			Name: "proposals_sent_total",
			Help: "number of proposals broadcast as leader",
		}),
		votesReceived: r.RegisterNewCounterVec(prometheus.CounterOpts{
			Subsystem: subsystemHotstuff,
			Name: "votes_received_total",
			Help: "number of valid votes received",
		}, LabelVoteKind),
		votesSent: r.RegisterNewCounterVec(prometheus.CounterOpts{
			Subsystem: subsystemHotstuff,
			Name: "votes_sent_total",
			Help: "number of votes cast",
		}, LabelVoteKind),
		votesRejected: r.RegisterNewCounterVec(prometheus.CounterOpts{
			Subsystem: subsystemHotstuff,
			Name: "votes_rejected_total",
			Help: "number of votes dropped by vote aggregation",
		}, LabelReason),
		noVotes: r.RegisterNewCounter(prometheus.CounterOpts{
			Subsystem: subsystemHotstuff,
			Name: "safety_refusals_total",
			Help: "number of vertices safety rules refused to vote for",
		}),
		quorums: r.RegisterNewCounterVec(prometheus.CounterOpts{
			Subsystem: subsystemHotstuff,
			Name: "certificates_formed_total",
			Help: "number of certificates formed from collected votes",
		}, LabelCertificate),
		invalidMessages: r.RegisterNewCounter(prometheus.CounterOpts{
			Subsystem: subsystemHotstuff,
			Name: "invalid_messages_total",
			Help: "number of inbound messages that failed validation",
		}),
		syncRequests: r.RegisterNewCounter(prometheus.CounterOpts{
			Subsystem: subsystemHotstuff,
			Name: "sync_requests_total",
			Help: "number of vertex requests sent to peers",
		}),
		verticesInserted: r.RegisterNewCounter(prometheus.CounterOpts{
			Subsystem: subsystemHotstuff,
			Name: "vertices_inserted_total",
			Help: "number of vertices prepared and inserted",
		}),
		verticesCommitted: r.RegisterNewCounter(prometheus.CounterOpts{
			Subsystem: subsystemHotstuff,
			Name: "vertices_committed_total",
			Help: "number of vertices committed",
		}),
		commitLatency: r.RegisterNewHistogram(prometheus.HistogramOpts{
			Subsystem: subsystemHotstuff,
			Name:    "commit_latency_seconds",
			Help:    "time from a vertex's proposal timestamp to its commit",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		inboundQueue: r.RegisterNewGauge(prometheus.GaugeOpts{
			Subsystem: subsystemEventLoop,
			Name: "inbound_queue_length",
			Help: "number of network messages waiting in the event loop",
		}),
	}
}

func voteKind(vote *model.Vote) string {
	if vote.IsTimeout() {
		return VoteKindTimeout
	}
	return VoteKindRegular
}

// InboundQueueLength is meant as the event loop's queue length observer.
func (c *HotstuffCollector) InboundQueueLength(length int) {
	c.inboundQueue.Set(float64(length))
}

func (c *HotstuffCollector) OnEventProcessed() {
	c.eventsProcessed.Inc()
}

func (c *HotstuffCollector) OnReceiveProposal(_ uint64, _ *model.Proposal) {
	c.proposalsReceived.Inc()
}

func (c *HotstuffCollector) OnReceiveVote(_ uint64, vote *model.Vote) {
	c.votesReceived.WithLabelValues(voteKind(vote)).Inc()
}

func (c *HotstuffCollector) OnEnteringView(update model.ViewUpdate) {
	c.curView.Set(float64(update.CurrentView))
}

func (c *HotstuffCollector) OnStartingTimeout(timeout model.LocalTimeout) {
	c.timeoutDuration.Set(timeout.Duration.Seconds())
}

func (c *HotstuffCollector) OnLocalTimeout(model.LocalTimeout) {
	c.localTimeouts.Inc()
}

func (c *HotstuffCollector) OnVertexInserted(update model.BFTInsertUpdate) {
	c.verticesInserted.Inc()
	c.vertexStoreSize.Set(float64(update.VertexStoreSize))
}

func (c *HotstuffCollector) OnVertexCommitted(update model.BFTCommittedUpdate) {
	now := time.Now()
	for _, committed := range update.Committed {
		c.verticesCommitted.Inc()
		c.committedView.Set(float64(committed.View()))
		c.commitLatency.Observe(now.Sub(committed.Vertex.Time()).Seconds())
	}
}

func (c *HotstuffCollector) OnQuorumReached(event model.ViewQuorumReached) {
	switch event.Result.(type) {
	case model.FormedQC:
		c.quorums.WithLabelValues(CertificateQC).Inc()
	case model.FormedTC:
		c.quorums.WithLabelValues(CertificateTC).Inc()
	}
}

func (c *HotstuffCollector) OnVoting(vote *model.Vote) {
	c.votesSent.WithLabelValues(voteKind(vote)).Inc()
}

func (c *HotstuffCollector) OnNoVote(model.NoVote) {
	c.noVotes.Inc()
}

func (c *HotstuffCollector) OnProposing(*model.Proposal) {
	c.proposalsSent.Inc()
}

func (c *HotstuffCollector) OnVoteRejected(_ *model.Vote, reason model.VoteRejectReason) {
	c.votesRejected.WithLabelValues(reason.String()).Inc()
}

func (c *HotstuffCollector) OnInvalidMessage(error) {
	c.invalidMessages.Inc()
}

func (c *HotstuffCollector) OnSyncRequested(model.GetVerticesRequest, chain.Identifier) {
	c.syncRequests.Inc()
}

func (c *HotstuffCollector) OnEpochStarted(epoch uint64) {
	c.epoch.Set(float64(epoch))
}
