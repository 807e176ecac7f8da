// Package graph is the ordered collection of per-track audio processing
// nodes with stable ids and swap-remove semantics. Grounded on
// original_source/omni_engine/src/graph.rs plus the call-site swap-remove
// usage in engine.rs (the retrieved graph.rs snapshot predates
// remove_node); this is a flat per-track slice, not petgraph's general DAG,
// since each track owns exactly one node (spec 4.7).
package graph

// Node is the minimal capability graph.Graph depends on; the full
// processing surface lives in internal/nodes.Node, which satisfies this.
type Node interface {
	GetLatency() uint32
}

// Graph is an ordered {id -> node} collection.
type Graph[N Node] struct {
	ids   []uint32
	nodes []N
	index map[uint32]int
	nextID uint32
}

// New returns an empty graph.
func New[N Node]() *Graph[N] {
	return &Graph[N]{index: make(map[uint32]int), nextID: 1}
}

// AddNode appends node, returning its newly allocated stable id.
func (g *Graph[N]) AddNode(node N) uint32 {
	id := g.nextID
	g.nextID++
	g.ids = append(g.ids, id)
	g.nodes = append(g.nodes, node)
	g.index[id] = len(g.nodes) - 1
	return id
}

// NodeAt returns the node for id, if present.
func (g *Graph[N]) NodeAt(id uint32) (N, bool) {
	var zero N
	idx, ok := g.index[id]
	if !ok {
		return zero, false
	}
	return g.nodes[idx], true
}

// NodeMut returns a pointer to the slot holding the node for id, allowing
// in-place mutation (e.g. replacing a track's node).
func (g *Graph[N]) NodeMut(id uint32) (*N, bool) {
	idx, ok := g.index[id]
	if !ok {
		return nil, false
	}
	return &g.nodes[idx], true
}

// RemoveNode removes id using swap-remove: the last node fills the removed
// slot. Returns the id of the node that was moved into the freed slot (if
// any occurred), whether a move happened, and the removed node itself so
// the caller can hand it to an off-thread dropper instead of destructing it
// inline.
func (g *Graph[N]) RemoveNode(id uint32) (movedOldID uint32, hadMove bool, removed N) {
	idx, ok := g.index[id]
	if !ok {
		return 0, false, removed
	}
	removed = g.nodes[idx]
	lastIdx := len(g.nodes) - 1
	if idx != lastIdx {
		movedOldID = g.ids[lastIdx]
		g.nodes[idx] = g.nodes[lastIdx]
		g.ids[idx] = g.ids[lastIdx]
		g.index[movedOldID] = idx
		hadMove = true
	}
	g.nodes = g.nodes[:lastIdx]
	g.ids = g.ids[:lastIdx]
	delete(g.index, id)
	return movedOldID, hadMove, removed
}

// Len returns the number of nodes currently in the graph.
func (g *Graph[N]) Len() int { return len(g.nodes) }

// IDs returns the graph's current ids in slot order (index i is the node's
// current slot; stable only until the next RemoveNode).
func (g *Graph[N]) IDs() []uint32 {
	out := make([]uint32, len(g.ids))
	copy(out, g.ids)
	return out
}

// ForEach calls fn for every (id, node) pair in slot order.
func (g *Graph[N]) ForEach(fn func(id uint32, node N)) {
	for i, id := range g.ids {
		fn(id, g.nodes[i])
	}
}
