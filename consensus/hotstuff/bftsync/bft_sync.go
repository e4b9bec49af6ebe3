package bftsync

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/quorumchain/bft/consensus/hotstuff"
	"github.com/quorumchain/bft/consensus/hotstuff/committees"
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/consensus/hotstuff/vertexstore"
	"github.com/quorumchain/bft/model/chain"
	"github.com/quorumchain/bft/utils/logging"
	"github.com/quorumchain/bft/utils/rand"
)

// syncState tracks the retrieval of the vertices a HighQC depends on.
type syncState struct {
	highQC model.HighQC
	peers  []chain.Identifier
	// fetched holds retrieved vertices from the certified vertex towards
	// the root, i.e. children before parents.
	fetched []*model.Vertex
}

func (s *syncState) targetID() chain.Identifier {
	return s.highQC.Highest.VertexID()
}

// request is an outstanding GetVerticesRequest for one vertex.
type request struct {
	vertexID chain.Identifier
	syncIDs  []chain.Identifier
	peers    []chain.Identifier
	attempt  uint
	timer    *time.Timer
	// refused holds the peers that answered they do not have the vertex.
	refused       map[chain.Identifier]struct{}
	refusedWeight uint64
}

// BFTSync implements hotstuff.BFTSync. It fetches the ancestors of a QC
// one vertex at a time, walking from the certified vertex towards the
// root until it reaches a vertex the store knows, and then inserts the
// fetched vertices parent first.
//
// BFTSync is driven by the event loop. Request timeouts are scheduled on
// timers and delivered back through hotstuff.SyncEvents.
type BFTSync struct {
	log          zerolog.Logger
	self         chain.Identifier
	validators   hotstuff.ValidatorSet
	vertexStore  hotstuff.VertexStore
	communicator hotstuff.Communicator
	notifier     hotstuff.Consumer
	events       hotstuff.SyncEvents
	cfg          Config

	limiter     *rate.Limiter
	outstanding *lru.Cache[chain.Identifier, *request]
	syncing     map[chain.Identifier]*syncState
}

var _ hotstuff.BFTSync = (*BFTSync)(nil)

// New creates a BFTSync for the epoch of validators.
func New(
	log zerolog.Logger,
	self chain.Identifier,
	validators hotstuff.ValidatorSet,
	vertexStore hotstuff.VertexStore,
	communicator hotstuff.Communicator,
	notifier hotstuff.Consumer,
	events hotstuff.SyncEvents,
	cfg Config,
) (*BFTSync, error) {
	if cfg.MaxAttempts == 0 || cfg.MaxDepth <= 0 {
		return nil, model.NewConfigurationErrorf("sync needs at least one attempt and a positive depth")
	}
	outstanding, err := lru.NewWithEvict[chain.Identifier, *request](cfg.MaxOutstanding, func(_ chain.Identifier, req *request) {
		if req.timer != nil {
			req.timer.Stop()
		}
	})
	if err != nil {
		return nil, model.NewConfigurationErrorf("invalid outstanding request cap: %w", err)
	}
	return &BFTSync{
		log: log.With().
			Str("hotstuff", "bft_sync").
			Uint64("epoch", validators.Epoch()).
			Logger(),
		self:         self,
		validators:   validators,
		vertexStore:  vertexStore,
		communicator: communicator,
		notifier:     notifier,
		events:       events,
		cfg:          cfg,
		limiter:      rate.NewLimiter(cfg.RequestRate, cfg.RequestBurst),
		outstanding:  outstanding,
		syncing:      make(map[chain.Identifier]*syncState),
	}, nil
}

// SyncToQC brings the vertex store up to date with highQC. It returns true
// if the vertex store now contains the highest certified vertex.
func (s *BFTSync) SyncToQC(highQC model.HighQC, author chain.Identifier) (bool, error) {
	if highQC.HighestTC != nil {
		err := s.vertexStore.InsertTC(highQC.HighestTC)
		if err != nil {
			return false, fmt.Errorf("could not insert tc for view %d: %w", highQC.HighestTC.View, err)
		}
	}

	qc := highQC.Highest
	if qc.View() <= s.vertexStore.Root().View() {
		return true, nil
	}
	inserted, err := s.insertHighQC(highQC)
	if err != nil || inserted {
		return inserted, err
	}

	targetID := qc.VertexID()
	if _, ok := s.syncing[targetID]; ok {
		return false, nil
	}
	state := &syncState{
		highQC: highQC,
		peers:  s.peers(author, qc),
	}
	if len(state.peers) == 0 {
		s.log.Warn().Hex("vertex_id", targetID[:]).Msg("no peer to sync from")
		return false, nil
	}
	s.syncing[targetID] = state
	s.log.Debug().
		Uint64("qc_view", qc.View()).
		Hex("vertex_id", targetID[:]).
		Strs("peers", logging.IDs(state.peers)).
		Msg("vertex unknown, starting sync")
	s.request(targetID, targetID, state.peers)
	return false, nil
}

// insertHighQC inserts the certificates of highQC whose vertices are known.
func (s *BFTSync) insertHighQC(highQC model.HighQC) (bool, error) {
	committed := highQC.HighestCommitted
	if committed != nil && s.vertexStore.ContainsVertex(committed.VertexID()) {
		_, err := s.vertexStore.InsertQC(committed)
		if err != nil {
			return false, fmt.Errorf("could not insert committed qc for view %d: %w", committed.View(), err)
		}
	}
	inserted, err := s.vertexStore.InsertQC(highQC.Highest)
	if err != nil {
		return false, fmt.Errorf("could not insert qc for view %d: %w", highQC.Highest.View(), err)
	}
	return inserted, nil
}

// peers returns whom to ask for the vertices of qc: the author of the
// message that carried it first, then the QC signers. If none of them is
// another member, every other validator is asked in turn.
func (s *BFTSync) peers(author chain.Identifier, qc *model.QuorumCertificate) []chain.Identifier {
	signers := qc.Signatures.Signers()
	// the author goes first, the signers in random order spread the load
	err := rand.Shuffle(len(signers), func(i, j int) {
		signers[i], signers[j] = signers[j], signers[i]
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("could not shuffle sync peers")
	}
	peers := s.filterPeers(append([]chain.Identifier{author}, signers...))
	if len(peers) == 0 {
		peers = s.filterPeers(s.validators.NodeIDs())
	}
	return peers
}

func (s *BFTSync) filterPeers(candidates []chain.Identifier) []chain.Identifier {
	seen := make(map[chain.Identifier]struct{}, len(candidates))
	peers := make([]chain.Identifier, 0, len(candidates))
	for _, id := range candidates {
		if _, dup := seen[id]; dup || id == s.self || !s.validators.Contains(id) {
			continue
		}
		seen[id] = struct{}{}
		peers = append(peers, id)
	}
	return peers
}

// request asks a peer for vertexID on behalf of the sync towards syncID.
// A vertex already requested is not requested twice.
func (s *BFTSync) request(vertexID chain.Identifier, syncID chain.Identifier, peers []chain.Identifier) {
	if req, ok := s.outstanding.Get(vertexID); ok {
		req.syncIDs = append(req.syncIDs, syncID)
		return
	}
	if s.outstanding.Len() >= s.cfg.MaxOutstanding {
		// a sync without an outstanding request would never be retried
		_, oldest, ok := s.outstanding.RemoveOldest()
		if ok {
			s.log.Debug().Hex("vertex_id", oldest.vertexID[:]).Msg("too many vertex requests, dropping the oldest")
			s.abandon(oldest)
		}
	}
	req := &request{
		vertexID: vertexID,
		syncIDs:  []chain.Identifier{syncID},
		peers:    peers,
		refused:  make(map[chain.Identifier]struct{}),
	}
	s.outstanding.Add(vertexID, req)
	s.send(req)
}

// send dispatches req to the peer of its current attempt and arms its
// timeout. A request suppressed by the rate limiter is retried on timeout.
func (s *BFTSync) send(req *request) {
	target := req.peers[int(req.attempt)%len(req.peers)]
	if s.limiter.Allow() {
		request := model.GetVerticesRequest{
			Sender:   s.self,
			Epoch:    s.validators.Epoch(),
			VertexID: req.vertexID,
			Count:    1,
		}
		s.notifier.OnSyncRequested(request, target)
		s.communicator.SendGetVerticesRequest(request, target)
	} else {
		s.log.Debug().Hex("vertex_id", req.vertexID[:]).Msg("vertex request rate limited")
	}

	timeout := model.VertexRequestTimeout{
		Epoch:    s.validators.Epoch(),
		VertexID: req.vertexID,
		Attempt:  req.attempt,
	}
	if req.timer != nil {
		req.timer.Stop()
	}
	req.timer = time.AfterFunc(s.cfg.RequestTimeout, func() {
		s.events.OnVertexRequestTimeout(timeout)
	})
}

// OnGetVerticesResponse continues the syncs waiting for the returned vertex.
// Unsolicited or malformed responses are dropped.
func (s *BFTSync) OnGetVerticesResponse(response model.GetVerticesResponse) error {
	req, ok := s.outstanding.Peek(response.VertexID)
	if !ok {
		return nil
	}
	if len(response.Vertices) == 0 || response.Vertices[0].ID() != response.VertexID {
		s.notifier.OnInvalidMessage(fmt.Errorf("response from %v does not contain requested vertex %v", response.Sender, response.VertexID))
		return nil
	}
	for i := 1; i < len(response.Vertices); i++ {
		if response.Vertices[i-1].ParentID() != response.Vertices[i].ID() {
			s.notifier.OnInvalidMessage(fmt.Errorf("response from %v is not a chain of ancestors", response.Sender))
			return nil
		}
	}
	s.outstanding.Remove(response.VertexID)

	for _, syncID := range req.syncIDs {
		state, ok := s.syncing[syncID]
		if !ok {
			continue
		}
		state.fetched = append(state.fetched, response.Vertices...)
		err := s.advance(syncID, state)
		if err != nil {
			return err
		}
	}
	return nil
}

// advance inserts the fetched vertices if they connect to the vertex store,
// and otherwise requests the next missing ancestor.
func (s *BFTSync) advance(syncID chain.Identifier, state *syncState) error {
	oldest := state.fetched[len(state.fetched)-1]
	parentID := oldest.ParentID()

	if !s.vertexStore.ContainsVertex(parentID) {
		if oldest.IsGenesis() || oldest.ParentView() <= s.vertexStore.Root().View() || len(state.fetched) >= s.cfg.MaxDepth {
			// the chain does not connect to anything this replica can still extend
			s.log.Warn().
				Hex("vertex_id", syncID[:]).
				Int("fetched", len(state.fetched)).
				Msg("abandoning sync, chain does not connect to the vertex store")
			delete(s.syncing, syncID)
			return nil
		}
		s.request(parentID, syncID, state.peers)
		return nil
	}

	delete(s.syncing, syncID)
	for i := len(state.fetched) - 1; i >= 0; i-- {
		_, err := s.vertexStore.InsertVertex(state.fetched[i])
		if vertexstore.IsRecoverable(err) {
			s.notifier.OnInvalidMessage(fmt.Errorf("could not insert synced vertex: %w", err))
			return nil
		}
		if err != nil {
			return fmt.Errorf("could not insert synced vertex %v: %w", state.fetched[i].ID(), err)
		}
	}
	_, err := s.insertHighQC(state.highQC)
	if err != nil {
		return err
	}
	s.log.Debug().
		Hex("vertex_id", syncID[:]).
		Int("fetched", len(state.fetched)).
		Msg("sync complete")
	return nil
}

// OnGetVerticesErrorResponse retries the request with the next peer. Once
// peers holding more than a third of the weight have refused, at least one
// honest replica no longer has the vertex and the request is given up. If
// the responder knows a higher QC, the replica syncs to that one as well.
func (s *BFTSync) OnGetVerticesErrorResponse(response model.GetVerticesErrorResponse) error {
	req, ok := s.outstanding.Peek(response.Request.VertexID)
	if !ok {
		return nil
	}
	if _, dup := req.refused[response.Sender]; !dup {
		req.refused[response.Sender] = struct{}{}
		req.refusedWeight += s.validators.WeightOf(response.Sender)
	}
	if req.refusedWeight >= committees.WeightThresholdForHonestMajority(s.validators.TotalWeight()) {
		s.log.Debug().
			Hex("vertex_id", req.vertexID[:]).
			Uint64("refused_weight", req.refusedWeight).
			Msg("vertex refused by an honest majority, giving up")
		s.outstanding.Remove(req.vertexID)
		s.abandon(req)
	} else {
		s.retry(req)
	}

	if response.HighQC.Highest != nil && response.HighQC.Highest.View() > s.vertexStore.HighQC().Highest.View() {
		_, err := s.SyncToQC(response.HighQC, response.Sender)
		return err
	}
	return nil
}

// OnVertexRequestTimeout retries a request that was not answered in time.
// Timeouts of attempts that were already superseded are ignored.
func (s *BFTSync) OnVertexRequestTimeout(timeout model.VertexRequestTimeout) error {
	req, ok := s.outstanding.Peek(timeout.VertexID)
	if !ok || req.attempt != timeout.Attempt {
		return nil
	}
	s.retry(req)
	return nil
}

func (s *BFTSync) retry(req *request) {
	req.attempt++
	if req.attempt >= s.cfg.MaxAttempts {
		s.log.Warn().Hex("vertex_id", req.vertexID[:]).Uint("attempts", req.attempt).Msg("vertex request failed")
		s.outstanding.Remove(req.vertexID)
		s.abandon(req)
		return
	}
	s.send(req)
}

// abandon drops the syncs waiting on req, so a later SyncToQC for the same
// target starts over.
func (s *BFTSync) abandon(req *request) {
	for _, syncID := range req.syncIDs {
		delete(s.syncing, syncID)
	}
}

// OnViewUpdate abandons syncs towards QCs older than the one the replica
// just advanced with: the newer QC supersedes them.
func (s *BFTSync) OnViewUpdate(update model.ViewUpdate) {
	for syncID, state := range s.syncing {
		if state.highQC.Highest.View() < update.HighQC.Highest.View() {
			delete(s.syncing, syncID)
		}
	}
	for _, vertexID := range s.outstanding.Keys() {
		req, ok := s.outstanding.Peek(vertexID)
		if !ok {
			continue
		}
		if !s.anySyncing(req.syncIDs) {
			s.outstanding.Remove(vertexID)
		}
	}
}

func (s *BFTSync) anySyncing(syncIDs []chain.Identifier) bool {
	for _, id := range syncIDs {
		if _, ok := s.syncing[id]; ok {
			return true
		}
	}
	return false
}

// Stop cancels every outstanding request.
func (s *BFTSync) Stop() {
	s.outstanding.Purge()
	s.syncing = make(map[chain.Identifier]*syncState)
}

// Syncing returns the number of QCs being synced to.
func (s *BFTSync) Syncing() int {
	return len(s.syncing)
}
