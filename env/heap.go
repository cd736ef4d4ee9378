package env

import "container/heap"

// placement is node capacity held by an embedded virtual node
type placement struct {
	node   int
	demand int
}

// departure is a scheduled teardown of resources held by an active service
type departure struct {
	time  float64
	links []int
	start int
	width int
	// extra spectrum segments (VONE chains hold one per virtual link)
	segments []segment
	// node capacity to return (VONE)
	placements []placement
}

type segment struct {
	links []int
	start int
	width int
}

type departureHeap []*departure

var _ heap.Interface = &departureHeap{}

func (h departureHeap) Len() int            { return len(h) }
func (h departureHeap) Less(i, j int) bool  { return h[i].time < h[j].time }
func (h departureHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *departureHeap) Push(x interface{}) { *h = append(*h, x.(*departure)) }

func (h *departureHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

func newDepartureHeap() *departureHeap {
	h := &departureHeap{}
	heap.Init(h)
	return h
}

func (h *departureHeap) push(d *departure) {
	heap.Push(h, d)
}

// popDue removes and returns the next departure at or before the clock
func (h *departureHeap) popDue(clock float64) (*departure, bool) {
	if h.Len() == 0 || (*h)[0].time > clock {
		return nil, false
	}
	return heap.Pop(h).(*departure), true
}
