package mot

// rowCandidate is the closest detection (column) for an existing object (row)
type rowCandidate struct {
	row      int
	col      int
	distance float64
}

// Copied from container/heap - https://golang.org/pkg/container/heap/
// Why make copy? Just want to avoid type conversion

type distanceHeap []*rowCandidate

func (h distanceHeap) Len() int { return len(h) }

// Less orders by distance first. Ties are resolved by row index so results are reproducible
func (h distanceHeap) Less(i, j int) bool {
	if h[i].distance == h[j].distance {
		return h[i].row < h[j].row
	}
	return h[i].distance < h[j].distance
}
func (h distanceHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

// Push pushes the element x onto the heap.
// The complexity is O(log n) where n = h.Len().
func (h *distanceHeap) Push(x *rowCandidate) {
	*h = append(*h, x)
	h.up(h.Len() - 1)
}

// Pop removes and returns the minimum element (according to Less) from the heap.
// The complexity is O(log n) where n = h.Len().
func (h *distanceHeap) Pop() *rowCandidate {
	n := h.Len() - 1
	h.Swap(0, n)
	h.down(0, n)
	heapSize := len(*h)
	lastNode := (*h)[heapSize-1]
	*h = (*h)[0 : heapSize-1]
	return lastNode
}

func (h distanceHeap) up(j int) {
	for {
		i := (j - 1) / 2
		if i == j || !h.Less(j, i) {
			break
		}
		h.Swap(i, j)
		j = i
	}
}

func (h distanceHeap) down(i0, n int) bool {
	i := i0
	for {
		j1 := 2*i + 1
		if j1 >= n || j1 < 0 {
			break
		}
		j := j1
		if j2 := j1 + 1; j2 < n && h.Less(j2, j1) {
			j = j2
		}
		if !h.Less(j, i) {
			break
		}
		h.Swap(i, j)
		i = j
	}
	return i > i0
}
