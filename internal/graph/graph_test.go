package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNode struct{ latency uint32 }

func (f fakeNode) GetLatency() uint32 { return f.latency }

func TestAddNodeAssignsStableIDs(t *testing.T) {
	g := New[fakeNode]()
	id1 := g.AddNode(fakeNode{latency: 1})
	id2 := g.AddNode(fakeNode{latency: 2})
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, g.Len())

	n1, ok := g.NodeAt(id1)
	require.True(t, ok)
	assert.Equal(t, uint32(1), n1.latency)
}

func TestRemoveNodeSwapRemoveKeepsSurvivorsAddressable(t *testing.T) {
	g := New[fakeNode]()
	idA := g.AddNode(fakeNode{latency: 1})
	idB := g.AddNode(fakeNode{latency: 2})
	idC := g.AddNode(fakeNode{latency: 3})

	_, _, removed := g.RemoveNode(idA)
	assert.Equal(t, uint32(1), removed.latency)
	assert.Equal(t, 2, g.Len())

	// Every id other than the removed one must still resolve to its own
	// node; internal/graph's stable id map means callers never need to
	// remap a moved slot after a swap-remove.
	nb, ok := g.NodeAt(idB)
	require.True(t, ok)
	assert.Equal(t, uint32(2), nb.latency)

	nc, ok := g.NodeAt(idC)
	require.True(t, ok)
	assert.Equal(t, uint32(3), nc.latency)
}

func TestRemoveNodeMissingIsNoop(t *testing.T) {
	g := New[fakeNode]()
	id := g.AddNode(fakeNode{latency: 1})
	_, hadMove, _ := g.RemoveNode(id + 100)
	assert.False(t, hadMove)
	assert.Equal(t, 1, g.Len())
}

func TestNodeMutAllowsInPlaceReplace(t *testing.T) {
	g := New[fakeNode]()
	id := g.AddNode(fakeNode{latency: 1})
	slot, ok := g.NodeMut(id)
	require.True(t, ok)
	*slot = fakeNode{latency: 99}

	n, _ := g.NodeAt(id)
	assert.Equal(t, uint32(99), n.latency)
}

func TestForEachVisitsEveryNode(t *testing.T) {
	g := New[fakeNode]()
	g.AddNode(fakeNode{latency: 1})
	g.AddNode(fakeNode{latency: 2})

	var total uint32
	g.ForEach(func(id uint32, n fakeNode) { total += n.latency })
	assert.Equal(t, uint32(3), total)
}
