package heap_test

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyunghoon/twasm/pkg/util/heap"
)

func TestHeapExpiryOrder(t *testing.T) {
	// entries arrive in file-load order; they must come back out in
	// expiry order
	h := heap.New[int64, string]()
	h.Push(300, "app.ts")
	h.Push(100, "util.ts")
	h.Push(200, "dom.ts")

	exp, etag, ok := h.Pop()
	require.True(t, ok)
	assert.Equal(t, int64(100), exp)
	assert.Equal(t, "util.ts", etag)

	exp, etag, ok = h.Pop()
	require.True(t, ok)
	assert.Equal(t, int64(200), exp)
	assert.Equal(t, "dom.ts", etag)

	exp, etag, ok = h.Pop()
	require.True(t, ok)
	assert.Equal(t, int64(300), exp)
	assert.Equal(t, "app.ts", etag)

	_, _, ok = h.Pop()
	assert.False(t, ok)
}

func TestHeapPeekDoesNotRemove(t *testing.T) {
	h := heap.New[int64, string]()
	_, _, ok := h.Peek()
	assert.False(t, ok)

	h.Push(5, "a")
	h.Push(1, "b")
	for i := 0; i < 3; i++ {
		exp, etag, ok := h.Peek()
		require.True(t, ok)
		assert.Equal(t, int64(1), exp)
		assert.Equal(t, "b", etag)
		assert.Equal(t, 2, h.Len())
	}
}

func TestHeapDuplicateKeys(t *testing.T) {
	// two entries expiring at the same instant both drain before a
	// later one
	h := heap.New[int64, string]()
	h.Push(10, "x")
	h.Push(20, "z")
	h.Push(10, "y")

	first, _, _ := h.Pop()
	second, _, _ := h.Pop()
	third, _, _ := h.Pop()
	assert.Equal(t, int64(10), first)
	assert.Equal(t, int64(10), second)
	assert.Equal(t, int64(20), third)
}

func TestHeapRandomizedOrdering(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	keys := make([]int, 500)
	h := heap.New[int, int]()
	for i := range keys {
		keys[i] = rng.Intn(1000)
		h.Push(keys[i], i)
	}
	sort.Ints(keys)

	for _, want := range keys {
		got, _, ok := h.Pop()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, 0, h.Len())
}

func TestHeapInterleavedPushPop(t *testing.T) {
	h := heap.New[int, string]()
	h.Push(3, "c")
	h.Push(1, "a")

	k, _, _ := h.Pop()
	assert.Equal(t, 1, k)

	h.Push(2, "b")
	k, _, _ = h.Pop()
	assert.Equal(t, 2, k)
	k, _, _ = h.Pop()
	assert.Equal(t, 3, k)
}
