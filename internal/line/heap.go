package line

import "container/heap"

/// victimHeap is a container/heap min-heap over *Line ordered by Vpc: the
/// line with the fewest valid pages is always at the top, per spec.md
/// §4.4's victim queue ordering. Each Line's Pos field is kept in sync by
/// Swap so a decrease-key (heap.Fix) can be issued in O(log n) from a
/// stable per-element position, per spec.md §9's design note.
///
/// Pos is 1-based: 0 means "not in the heap", matching spec.md §3's Line
/// field description literally ("pos (heap index or 0 if not in heap)").
type victimHeap []*Line

func (h victimHeap) Len() int { return len(h) }

func (h victimHeap) Less(i, j int) bool { return h[i].Vpc < h[j].Vpc }

func (h victimHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].Pos = i + 1
	h[j].Pos = j + 1
}

func (h *victimHeap) Push(x interface{}) {
	l := x.(*Line)
	l.Pos = len(*h) + 1
	*h = append(*h, l)
}

func (h *victimHeap) Pop() interface{} {
	old := *h
	n := len(old)
	l := old[n-1]
	old[n-1] = nil
	l.Pos = 0
	*h = old[:n-1]
	return l
}

/// pushVictim inserts l into the victim heap and increments the victim
/// count.
func (m *Manager) pushVictim(l *Line) {
	heap.Push(&m.victims, l)
	m.victimCnt++
}

/// fixVictim re-establishes heap order after l's Vpc changed in place;
/// l must already be in the heap (l.Pos != 0).
func (m *Manager) fixVictim(l *Line) {
	heap.Fix(&m.victims, l.Pos-1)
}

/// peekVictim returns the top of the victim heap without removing it, or
/// nil if the heap is empty.
func (m *Manager) peekVictim() *Line {
	if len(m.victims) == 0 {
		return nil
	}
	return m.victims[0]
}

/// popVictimTop removes and returns the top of the victim heap.
func (m *Manager) popVictimTop() *Line {
	l := heap.Pop(&m.victims).(*Line)
	m.victimCnt--
	return l
}
