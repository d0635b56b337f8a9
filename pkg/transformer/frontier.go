package transformer

import (
	"container/heap"
	"math"
	"slices"

	"github.com/matzehuels/bpcgraph/pkg/bpc"
	"github.com/matzehuels/bpcgraph/pkg/ops"
	"github.com/matzehuels/bpcgraph/pkg/similarity"
)

// epsilon absorbs float noise when comparing accumulated costs.
const epsilon = 1e-9

// node is a search state. Its graph and chain are never modified after the
// node is created; children copy the chain before appending.
type node struct {
	graph  bpc.Graph
	sig    string
	chain  []ops.Operation
	parent *node
	g, h   float64
	est    similarity.Result
	seq    int
	index  int
}

func (n *node) f() float64 { return n.g + n.h }

func (n *node) child(graph bpc.Graph, sig string, op ops.Operation, g float64, est similarity.Result, seq int) *node {
	return &node{
		graph:  graph,
		sig:    sig,
		chain:  append(slices.Clip(n.chain), op),
		parent: n,
		g:      g,
		h:      est.Distance,
		est:    est,
		seq:    seq,
	}
}

// less orders nodes by f, then h, then creation order.
func less(a, b *node) bool {
	if fa, fb := a.f(), b.f(); math.Abs(fa-fb) > epsilon {
		return fa < fb
	}
	if math.Abs(a.h-b.h) > epsilon {
		return a.h < b.h
	}
	return a.seq < b.seq
}

// better reports whether a is a better fallback result than b: closer to the
// target, then cheaper, then earlier.
func better(a, b *node) bool {
	if b == nil {
		return true
	}
	if math.Abs(a.h-b.h) > epsilon {
		return a.h < b.h
	}
	if math.Abs(a.g-b.g) > epsilon {
		return a.g < b.g
	}
	return a.seq < b.seq
}

// frontier is a min-heap of nodes implementing heap.Interface.
type frontier []*node

func (q frontier) Len() int           { return len(q) }
func (q frontier) Less(i, j int) bool { return less(q[i], q[j]) }
func (q frontier) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *frontier) Push(x any) {
	n := x.(*node)
	n.index = len(*q)
	*q = append(*q, n)
}

func (q *frontier) Pop() any {
	old := *q
	last := len(old) - 1
	n := old[last]
	old[last] = nil
	n.index = -1
	*q = old[:last]
	return n
}

func (q *frontier) push(n *node) { heap.Push(q, n) }
func (q *frontier) pop() *node   { return heap.Pop(q).(*node) }
