package vertexstore

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/quorumchain/bft/consensus/hotstuff"
	"github.com/quorumchain/bft/consensus/hotstuff/model"
	"github.com/quorumchain/bft/model/chain"
)

// VertexStore owns the tree of prepared, uncommitted vertices of one epoch,
// rooted at the last committed vertex. Vertices are kept in a map keyed by
// their content hash; parent links are followed by lookup, so pruning a
// branch is a map removal.
//
// VertexStore applies the 3-chain commit rule: a QC for vertex v commits
// v's grandparent g if g, parent(v) and v have consecutive views.
//
// VertexStore is not concurrency safe; it is driven by the event loop of its epoch.
type VertexStore struct {
	log       zerolog.Logger
	ledger    hotstuff.Ledger
	persister hotstuff.Persister
	events    hotstuff.VertexStoreEvents
	notifier  hotstuff.Consumer

	root     *model.PreparedVertex
	rootQC   *model.QuorumCertificate
	vertices map[chain.Identifier]*model.PreparedVertex
	children map[chain.Identifier][]chain.Identifier

	highestQC          *model.QuorumCertificate
	highestCommittedQC *model.QuorumCertificate
	highestTC          *model.TimeoutCertificate
}

// New rebuilds a vertex store from a persisted (or genesis) state. Every
// uncommitted vertex is prepared again against the ledger. The store is
// returned only if the whole tree could be rebuilt.
func New(
	log zerolog.Logger,
	ledger hotstuff.Ledger,
	persister hotstuff.Persister,
	events hotstuff.VertexStoreEvents,
	notifier hotstuff.Consumer,
	state *model.VertexStoreState,
) (*VertexStore, error) {
	if state.Root == nil || state.RootQC == nil || state.HighQC.Highest == nil || state.HighQC.HighestCommitted == nil {
		return nil, model.NewConfigurationErrorf("incomplete vertex store state")
	}
	rootID := state.Root.ID()
	if state.RootQC.VertexID() != rootID {
		return nil, model.NewConfigurationErrorf("root qc certifies %v, root is %v", state.RootQC.VertexID(), rootID)
	}

	s := &VertexStore{
		log: log.With().
			Str("hotstuff", "vertex_store").
			Uint64("epoch", state.Root.Epoch).
			Logger(),
		ledger:             ledger,
		persister:          persister,
		events:             events,
		notifier:           notifier,
		root:               model.NewPreparedVertex(state.Root, nil, state.RootQC.Proposed.Ledger),
		rootQC:             state.RootQC,
		vertices:           make(map[chain.Identifier]*model.PreparedVertex),
		children:           make(map[chain.Identifier][]chain.Identifier),
		highestQC:          state.HighQC.Highest,
		highestCommittedQC: state.HighQC.HighestCommitted,
		highestTC:          state.HighQC.HighestTC,
	}

	vertices := make([]*model.Vertex, len(state.Vertices))
	copy(vertices, state.Vertices)
	sort.SliceStable(vertices, func(i, j int) bool { return vertices[i].View < vertices[j].View })
	for _, vertex := range vertices {
		prepared, err := s.prepare(vertex)
		if err != nil {
			return nil, fmt.Errorf("could not rebuild vertex %v at view %d: %w", vertex.ID(), vertex.View, err)
		}
		s.add(prepared)
	}
	if !s.ContainsVertex(s.highestQC.VertexID()) {
		return nil, fmt.Errorf("high qc references unknown vertex %v", s.highestQC.VertexID())
	}

	return s, nil
}

// InsertVertex prepares vertex against the ledger and adds it to the tree.
// Returns:
//   - model.MissingParentError if the parent is not in the tree (the caller should sync)
//   - model.ErrPrunedVertex if the vertex is at or below the root
//   - model.InvalidProposalError if the vertex does not extend its parent consistently
//
// Inserting a known vertex is a no-op returning the stored vertex.
// Any other error is a symptom of a failed ledger or persister.
func (s *VertexStore) InsertVertex(vertex *model.Vertex) (*model.PreparedVertex, error) {
	vertexID := vertex.ID()
	if existing, ok := s.vertices[vertexID]; ok {
		return existing, nil
	}
	if vertex.View <= s.root.View() {
		return nil, model.ErrPrunedVertex
	}
	if !s.ContainsVertex(vertex.ParentID()) {
		return nil, model.MissingParentError{VertexID: vertexID, View: vertex.View, ParentID: vertex.ParentID()}
	}

	prepared, err := s.prepare(vertex)
	if err != nil {
		return nil, err
	}
	s.add(prepared)

	s.log.Debug().
		Uint64("vertex_view", vertex.View).
		Hex("vertex_id", vertexID[:]).
		Uint64("qc_view", vertex.QC.View()).
		Int("commands", len(prepared.Commands)).
		Msg("vertex inserted")

	// the vertex QC may advance our HighQC and commit an ancestor
	_, committed, err := s.processQC(vertex.QC)
	if err != nil {
		return nil, fmt.Errorf("could not process qc of vertex %v: %w", vertexID, err)
	}
	if !committed {
		err = s.persist()
		if err != nil {
			return nil, err
		}
	}

	update := model.BFTInsertUpdate{Inserted: prepared, VertexStoreSize: len(s.vertices)}
	s.notifier.OnVertexInserted(update)
	s.events.OnBFTInsertUpdate(update)
	return prepared, nil
}

func (s *VertexStore) prepare(vertex *model.Vertex) (*model.PreparedVertex, error) {
	parent, ok := s.get(vertex.ParentID())
	if !ok {
		return nil, model.MissingParentError{VertexID: vertex.ID(), View: vertex.View, ParentID: vertex.ParentID()}
	}
	if vertex.Epoch != s.root.Vertex.Epoch {
		return nil, model.InvalidProposalError{VertexID: vertex.ID(), View: vertex.View, Err: model.EpochMismatchError{Expected: s.root.Vertex.Epoch, Actual: vertex.Epoch}}
	}
	if vertex.View <= parent.View() {
		return nil, model.InvalidProposalError{VertexID: vertex.ID(), View: vertex.View, Err: fmt.Errorf("view does not exceed parent view %d", parent.View())}
	}
	if vertex.QC.View() != parent.View() || !vertex.QC.Proposed.Ledger.Equals(parent.Ledger) {
		return nil, model.InvalidProposalError{VertexID: vertex.ID(), View: vertex.View, Err: fmt.Errorf("qc header does not match prepared parent")}
	}

	path, _ := s.GetPathFromRoot(parent.VertexID)
	previous := make([]*model.PreparedVertex, 0, len(path)+1)
	previous = append(previous, s.root)
	previous = append(previous, path...)

	prepared, err := s.ledger.Prepare(previous, vertex)
	if err != nil {
		return nil, fmt.Errorf("could not prepare vertex %v: %w", vertex.ID(), err)
	}
	return prepared, nil
}

func (s *VertexStore) add(prepared *model.PreparedVertex) {
	s.vertices[prepared.VertexID] = prepared
	parentID := prepared.ParentID()
	s.children[parentID] = append(s.children[parentID], prepared.VertexID)
}

// InsertQC records qc as a candidate HighQC and applies the commit rule.
// It returns false if the certified vertex is unknown, in which case the
// caller has to sync the vertex first.
func (s *VertexStore) InsertQC(qc *model.QuorumCertificate) (bool, error) {
	if !s.ContainsVertex(qc.VertexID()) {
		// a QC for a vertex we already committed past is not news
		return qc.View() <= s.root.View(), nil
	}
	changed, committed, err := s.processQC(qc)
	if err != nil {
		return false, err
	}
	if changed && !committed {
		err = s.persist()
		if err != nil {
			return false, err
		}
	}
	return true, nil
}

// processQC updates the HighQC and applies the commit rule. A commit
// persists the store itself.
func (s *VertexStore) processQC(qc *model.QuorumCertificate) (bool, bool, error) {
	changed := false
	if qc.View() > s.highestQC.View() {
		s.highestQC = qc
		changed = true
	}
	committed, err := s.CommitVertex(qc)
	if err != nil {
		return false, false, err
	}
	return changed, len(committed) > 0, nil
}

// InsertTC records tc if it is the highest TC seen.
func (s *VertexStore) InsertTC(tc *model.TimeoutCertificate) error {
	if s.highestTC != nil && s.highestTC.View >= tc.View {
		return nil
	}
	s.highestTC = tc
	return s.persist()
}

// CommitVertex applies the 3-chain commit rule to qc. If qc certifies a
// vertex whose parent and grandparent have the two directly preceding
// views, every vertex from the root up to and including the grandparent is
// committed to the ledger in ascending view order, all branches not
// descending from the grandparent are pruned and the grandparent becomes
// the new root. It returns the committed vertices.
func (s *VertexStore) CommitVertex(qc *model.QuorumCertificate) ([]*model.PreparedVertex, error) {
	if qc.Proposed.View != qc.Parent.View+1 {
		return nil, nil
	}
	parent, ok := s.vertices[qc.Parent.VertexID]
	if !ok {
		// parent is the root or was committed already
		return nil, nil
	}
	grandparentHeader := parent.Vertex.QC.Proposed
	if qc.Parent.View != grandparentHeader.View+1 {
		return nil, nil
	}
	if grandparentHeader.View <= s.root.View() {
		return nil, nil
	}
	grandparentID := grandparentHeader.VertexID
	if _, ok := s.vertices[grandparentID]; !ok {
		return nil, fmt.Errorf("inconsistent vertex tree: grandparent %v of %v missing", grandparentID, qc.VertexID())
	}

	committed, ok := s.GetPathFromRoot(grandparentID)
	if !ok {
		return nil, fmt.Errorf("inconsistent vertex tree: no path from root to %v", grandparentID)
	}

	err := s.ledger.Commit(committed, qc)
	if err != nil {
		return nil, fmt.Errorf("could not commit vertices up to %v: %w", grandparentID, err)
	}

	s.prune(grandparentID)
	s.rootQC = parent.Vertex.QC
	if s.highestCommittedQC.View() < qc.View() {
		s.highestCommittedQC = qc
	}

	state := s.State()
	err = s.persister.PutVertexStoreState(state)
	if err != nil {
		return nil, fmt.Errorf("could not persist vertex store after commit: %w", err)
	}

	s.log.Info().
		Uint64("root_view", s.root.View()).
		Hex("root_id", s.root.VertexID[:]).
		Int("committed", len(committed)).
		Int("remaining", len(s.vertices)).
		Msg("vertices committed")

	s.notifier.OnVertexCommitted(model.BFTCommittedUpdate{Committed: committed, VertexStoreState: state})
	return committed, nil
}

// prune makes newRootID the root and drops every vertex that does not
// descend from it.
func (s *VertexStore) prune(newRootID chain.Identifier) {
	keep := make(map[chain.Identifier]struct{})
	stack := []chain.Identifier{newRootID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		keep[id] = struct{}{}
		stack = append(stack, s.children[id]...)
	}

	newRoot := s.vertices[newRootID]
	for id := range s.vertices {
		if _, ok := keep[id]; !ok {
			delete(s.vertices, id)
		}
	}
	for id := range s.children {
		if _, ok := keep[id]; !ok {
			delete(s.children, id)
		}
	}
	delete(s.vertices, newRootID)
	s.root = newRoot
}

// GetPathFromRoot returns the uncommitted ancestors of vertexID, ordered
// from the child of the root up to and including vertexID. The path to the
// root itself is empty. Returns false if vertexID is unknown.
func (s *VertexStore) GetPathFromRoot(vertexID chain.Identifier) ([]*model.PreparedVertex, bool) {
	var path []*model.PreparedVertex
	id := vertexID
	for id != s.root.VertexID {
		v, ok := s.vertices[id]
		if !ok {
			return nil, false
		}
		path = append(path, v)
		id = v.ParentID()
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, true
}

// GetVertices returns count vertices starting at vertexID and walking
// towards the root, the root included. Returns false if fewer than count
// vertices are available.
func (s *VertexStore) GetVertices(vertexID chain.Identifier, count int) ([]*model.Vertex, bool) {
	vertices := make([]*model.Vertex, 0, count)
	id := vertexID
	for len(vertices) < count {
		v, ok := s.get(id)
		if !ok {
			return nil, false
		}
		vertices = append(vertices, v.Vertex)
		if v.VertexID == s.root.VertexID {
			break
		}
		id = v.ParentID()
	}
	if len(vertices) < count {
		return nil, false
	}
	return vertices, true
}

// GetVertex returns a prepared vertex of the tree, the root included.
func (s *VertexStore) GetVertex(vertexID chain.Identifier) (*model.PreparedVertex, bool) {
	return s.get(vertexID)
}

func (s *VertexStore) get(vertexID chain.Identifier) (*model.PreparedVertex, bool) {
	if vertexID == s.root.VertexID {
		return s.root, true
	}
	v, ok := s.vertices[vertexID]
	return v, ok
}

// ContainsVertex reports whether vertexID is the root or an uncommitted vertex.
func (s *VertexStore) ContainsVertex(vertexID chain.Identifier) bool {
	_, ok := s.get(vertexID)
	return ok
}

// HighQC returns the replica's current certificate summary.
func (s *VertexStore) HighQC() model.HighQC {
	return model.NewHighQC(s.highestQC, s.highestCommittedQC, s.highestTC)
}

// Root returns the last committed vertex.
func (s *VertexStore) Root() *model.PreparedVertex {
	return s.root
}

// Size returns the number of uncommitted vertices.
func (s *VertexStore) Size() int {
	return len(s.vertices)
}

// State returns a snapshot of the tree suitable for persisting. Vertices
// are ordered by view so that parents precede children.
func (s *VertexStore) State() *model.VertexStoreState {
	vertices := make([]*model.Vertex, 0, len(s.vertices))
	for _, v := range s.vertices {
		vertices = append(vertices, v.Vertex)
	}
	sort.Slice(vertices, func(i, j int) bool {
		if vertices[i].View != vertices[j].View {
			return vertices[i].View < vertices[j].View
		}
		a, b := vertices[i].ID(), vertices[j].ID()
		return a.String() < b.String()
	})
	return &model.VertexStoreState{
		Root:     s.root.Vertex,
		RootQC:   s.rootQC,
		HighQC:   s.HighQC(),
		Vertices: vertices,
	}
}

func (s *VertexStore) persist() error {
	err := s.persister.PutVertexStoreState(s.State())
	if err != nil {
		return fmt.Errorf("could not persist vertex store: %w", err)
	}
	return nil
}

// IsRecoverable reports whether err returned by InsertVertex is a benign,
// message-level error rather than a failure of the replica itself.
func IsRecoverable(err error) bool {
	return model.IsMissingParentError(err) ||
		errors.Is(err, model.ErrPrunedVertex) ||
		model.IsInvalidProposalError(err)
}
