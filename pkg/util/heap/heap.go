// Package heap is a small generic min-heap ordered by a numeric or
// string priority. The cache uses it to order entries by expiry and
// the scheduler to order tasks by next run time.
package heap

import "cmp"

type Heap[K cmp.Ordered, V any] struct {
	keys []K
	vals []V
}

func New[K cmp.Ordered, V any]() *Heap[K, V] {
	return &Heap[K, V]{}
}

func (h *Heap[K, V]) Len() int {
	return len(h.keys)
}

func (h *Heap[K, V]) Push(key K, val V) {
	h.keys = append(h.keys, key)
	h.vals = append(h.vals, val)
	i := len(h.keys) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if h.keys[parent] <= h.keys[i] {
			break
		}
		h.swap(i, parent)
		i = parent
	}
}

// Peek returns the minimum entry without removing it.
func (h *Heap[K, V]) Peek() (K, V, bool) {
	if len(h.keys) == 0 {
		var k K
		var v V
		return k, v, false
	}
	return h.keys[0], h.vals[0], true
}

// Pop removes and returns the minimum entry.
func (h *Heap[K, V]) Pop() (K, V, bool) {
	if len(h.keys) == 0 {
		var k K
		var v V
		return k, v, false
	}
	key, val := h.keys[0], h.vals[0]
	last := len(h.keys) - 1
	h.swap(0, last)
	h.keys = h.keys[:last]
	h.vals = h.vals[:last]
	h.siftDown(0)
	return key, val, true
}

func (h *Heap[K, V]) swap(i, j int) {
	h.keys[i], h.keys[j] = h.keys[j], h.keys[i]
	h.vals[i], h.vals[j] = h.vals[j], h.vals[i]
}

func (h *Heap[K, V]) siftDown(i int) {
	n := len(h.keys)
	for {
		smallest := i
		if left := 2*i + 1; left < n && h.keys[left] < h.keys[smallest] {
			smallest = left
		}
		if right := 2*i + 2; right < n && h.keys[right] < h.keys[smallest] {
			smallest = right
		}
		if smallest == i {
			return
		}
		h.swap(i, smallest)
		i = smallest
	}
}
