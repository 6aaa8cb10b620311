package application

import (
	"container/heap"

	"github.com/felixgeelhaar/toolplan/domain/plan"
	"github.com/felixgeelhaar/toolplan/domain/state"
)

// node is a search frontier entry.
type node[S state.State] struct {
	f     float64
	g     float64
	state S
	plan  plan.Plan[S]

	seq   uint64
	index int
}

// frontier is the OPEN list: a min-heap on f, ties broken by insertion order.
type frontier[S state.State] struct {
	items nodeHeap[S]
	next  uint64
}

func newFrontier[S state.State]() *frontier[S] {
	f := &frontier[S]{items: make(nodeHeap[S], 0)}
	heap.Init(&f.items)
	return f
}

func (f *frontier[S]) push(n *node[S]) {
	n.seq = f.next
	f.next++
	heap.Push(&f.items, n)
}

func (f *frontier[S]) pop() (*node[S], bool) {
	if len(f.items) == 0 {
		return nil, false
	}
	return heap.Pop(&f.items).(*node[S]), true
}

func (f *frontier[S]) len() int {
	return len(f.items)
}

type nodeHeap[S state.State] []*node[S]

func (h nodeHeap[S]) Len() int { return len(h) }

func (h nodeHeap[S]) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	return h[i].seq < h[j].seq
}

func (h nodeHeap[S]) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *nodeHeap[S]) Push(x any) {
	n := len(*h)
	item := x.(*node[S])
	item.index = n
	*h = append(*h, item)
}

func (h *nodeHeap[S]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[0 : n-1]
	return item
}
