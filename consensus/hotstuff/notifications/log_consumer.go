package notifications

import (
	"github.com/rs/zerolog"

	"github.com/quorumchain/bft/consensus/hotstuff"
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/model/chain"
	"github.com/quorumchain/bft/utils/logging"
)

// LogConsumer is an implementation of the notifications consumer that logs a
// message for each event.
type LogConsumer struct {
	log zerolog.Logger
}

var _ hotstuff.Consumer = (*LogConsumer)(nil)

func NewLogConsumer(log zerolog.Logger) *LogConsumer {
	lc := &LogConsumer{
		log: log,
	}
	return lc
}

func (lc *LogConsumer) OnEventProcessed() {
	lc.log.Trace().Msg("event processed")
}

func (lc *LogConsumer) OnReceiveProposal(currentView uint64, proposal *model.Proposal) {
	vertex := proposal.Vertex
	lc.log.Debug().
		Uint64("cur_view", currentView).
		Uint64("vertex_view", vertex.View).
		Hex("vertex_id", logging.ID(vertex)).
		Hex("proposer_id", vertex.Proposer[:]).
		Uint64("qc_view", vertex.QC.View()).
		Int("payload_size", len(vertex.Payload)).
		Msg("processing proposal")
}

func (lc *LogConsumer) OnReceiveVote(currentView uint64, vote *model.Vote) {
	lc.log.Debug().
		Uint64("cur_view", currentView).
		Uint64("vote_view", vote.View).
		Hex("voter_id", vote.Author[:]).
		Bool("timeout", vote.IsTimeout()).
		Msg("processing vote")
}

func (lc *LogConsumer) OnEnteringView(update model.ViewUpdate) {
	lc.log.Debug().
		Uint64("view", update.CurrentView).
		Uint64("high_qc_view", update.HighQC.Highest.View()).
		Hex("leader_id", update.Leader[:]).
		Hex("next_leader_id", update.NextLeader[:]).
		Msg("view entered")
}

func (lc *LogConsumer) OnStartingTimeout(timeout model.LocalTimeout) {
	lc.log.Debug().
		Uint64("timeout_view", timeout.View).
		Uint64("timeout_count", timeout.Count).
		Dur("timeout_duration", timeout.Duration).
		Msg("timeout started")
}

func (lc *LogConsumer) OnLocalTimeout(timeout model.LocalTimeout) {
	lc.log.Info().
		Uint64("timeout_view", timeout.View).
		Uint64("timeout_count", timeout.Count).
		Dur("timeout_duration", timeout.Duration).
		Msg("timeout reached")
}

func (lc *LogConsumer) OnVertexInserted(update model.BFTInsertUpdate) {
	lc.log.Debug().
		Uint64("vertex_view", update.Inserted.View()).
		Hex("vertex_id", update.Inserted.VertexID[:]).
		Int("store_size", update.VertexStoreSize).
		Msg("vertex inserted")
}

func (lc *LogConsumer) OnVertexCommitted(update model.BFTCommittedUpdate) {
	for _, v := range update.Committed {
		lc.log.Info().
			Uint64("vertex_view", v.View()).
			Hex("vertex_id", v.VertexID[:]).
			Uint64("ledger_version", v.Ledger.Accumulator.Version).
			Int("commands", len(v.Commands)).
			Msg("vertex committed")
	}
}

func (lc *LogConsumer) OnQuorumReached(event model.ViewQuorumReached) {
	entry := lc.log.Debug().
		Uint64("quorum_view", event.Result.View()).
		Hex("last_author", event.LastAuthor[:])
	switch result := event.Result.(type) {
	case model.FormedQC:
		entry.Str("certificate", "qc").Hex("vertex_id", result.QC.Proposed.VertexID[:])
	case model.FormedTC:
		entry.Str("certificate", "tc")
	}
	entry.Msg("quorum reached")
}

func (lc *LogConsumer) OnVoting(vote *model.Vote) {
	lc.log.Debug().
		Uint64("vote_view", vote.View).
		Bool("timeout", vote.IsTimeout()).
		Msg("voting")
}

func (lc *LogConsumer) OnNoVote(event model.NoVote) {
	lc.log.Info().
		Uint64("vertex_view", event.Vertex.View).
		Str("reason", event.Reason).
		Msg("not voting for vertex")
}

func (lc *LogConsumer) OnProposing(proposal *model.Proposal) {
	vertex := proposal.Vertex
	lc.log.Debug().
		Uint64("vertex_view", vertex.View).
		Uint64("parent_view", vertex.QC.View()).
		Hex("parent_id", vertex.QC.Proposed.VertexID[:]).
		Int("payload_size", len(vertex.Payload)).
		Msg("proposal broadcast")
}

func (lc *LogConsumer) OnVoteRejected(vote *model.Vote, reason model.VoteRejectReason) {
	lc.log.Debug().
		Uint64("vote_view", vote.View).
		Hex("voter_id", vote.Author[:]).
		Str("reason", reason.String()).
		Msg("vote rejected")
}

func (lc *LogConsumer) OnInvalidMessage(err error) {
	lc.log.Warn().Err(err).Msg("invalid message detected")
}

func (lc *LogConsumer) OnSyncRequested(request model.GetVerticesRequest, target chain.Identifier) {
	lc.log.Debug().
		Hex("vertex_id", request.VertexID[:]).
		Uint32("count", request.Count).
		Hex("target_id", target[:]).
		Msg("requesting vertices")
}

func (lc *LogConsumer) OnEpochStarted(epoch uint64) {
	lc.log.Info().
		Uint64("epoch", epoch).
		Msg("epoch started")
}
