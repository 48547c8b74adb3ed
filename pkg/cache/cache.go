// Package cache holds transpiled module code between loads. Entries
// are keyed by content ETag and grouped into named buckets, each with
// its own TTL and size bound; a scheduler task sweeps expired code out
// of every bucket.
package cache

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kyunghoon/twasm/pkg/scheduler"
	"github.com/kyunghoon/twasm/pkg/util/heap"
)

type Store interface {
	Bucket(name string) Bucket
	BucketWithOpts(name string, opts BucketOptions) Bucket
	Clear()
}

// Bucket maps content ETags to transpiled module code.
type Bucket interface {
	Get(etag string) (code string, ok bool)
	Set(etag, code string)
	SetWithTTL(etag, code string, ttl time.Duration)
	Delete(etag string) bool
	Len() int
}

type BucketOptions struct {
	// DefaultTTL applies to Set. Zero means entries never expire.
	DefaultTTL time.Duration
	// MaxItems bounds the bucket; inserting past it evicts the entry
	// expiring soonest, oldest insertion first among non-expiring
	// entries. Zero means unbounded.
	MaxItems int
}

type Options struct {
	// SweepInterval is how often expired entries are collected.
	// Expired code is never served regardless.
	SweepInterval time.Duration
	Logger        *zap.Logger
}

type store struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
	sch     scheduler.Scheduler
	sweep   time.Duration
}

func New(opts Options) Store {
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = time.Second * 5
	}
	return &store{
		buckets: make(map[string]*bucket),
		sweep:   opts.SweepInterval,
		sch: scheduler.New(scheduler.Options{
			Logger:   opts.Logger,
			Interval: opts.SweepInterval,
			AutoRun:  true,
		}),
	}
}

func (s *store) Bucket(name string) Bucket {
	return s.BucketWithOpts(name, BucketOptions{})
}

func (s *store) BucketWithOpts(name string, opts BucketOptions) Bucket {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.buckets[name]; ok {
		return b
	}
	b := &bucket{
		opts:    opts,
		entries: make(map[string]*entry),
		queue:   heap.New[int64, *entry](),
	}
	s.buckets[name] = b
	s.sch.ScheduleTask("cache."+name, scheduler.TaskOptions{
		Interval: s.sweep,
		TaskFunc: func(_ context.Context) { b.sweep(time.Now()) },
	})
	return b
}

func (s *store) Clear() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.buckets {
		b.clear()
	}
}

type bucket struct {
	mu      sync.RWMutex
	opts    BucketOptions
	entries map[string]*entry
	queue   *heap.Heap[int64, *entry]
	seq     int64
}

type entry struct {
	etag string
	code string
	exp  time.Time
	// prio is the queue key the entry was last pushed under; a queue
	// element whose key no longer matches is stale and gets dropped.
	prio int64
}

// fifoBase puts non-expiring entries behind every dated one in the
// eviction queue, ordered among themselves by insertion.
const fifoBase = int64(math.MaxInt64) / 2

func (b *bucket) Get(etag string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.entries[etag]
	if !ok || e.expired(time.Now()) {
		return "", false
	}
	return e.code, true
}

func (b *bucket) Set(etag, code string) {
	b.SetWithTTL(etag, code, b.opts.DefaultTTL)
}

func (b *bucket) SetWithTTL(etag, code string, ttl time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[etag]
	if !ok {
		if b.opts.MaxItems > 0 && len(b.entries) >= b.opts.MaxItems {
			b.evictOne()
		}
		e = &entry{etag: etag}
		b.entries[etag] = e
	}
	e.code = code
	e.exp = time.Time{}
	if ttl > 0 {
		e.exp = time.Now().Add(ttl)
		e.prio = e.exp.UnixMilli()
	} else {
		b.seq++
		e.prio = fifoBase + b.seq
	}
	b.queue.Push(e.prio, e)
}

func (b *bucket) Delete(etag string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.entries[etag]; !ok {
		return false
	}
	delete(b.entries, etag)
	return true
}

func (b *bucket) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// evictOne removes the queue's first live entry. Requires b.mu held.
func (b *bucket) evictOne() {
	for {
		prio, e, ok := b.queue.Pop()
		if !ok {
			return
		}
		if b.entries[e.etag] != e || e.prio != prio {
			continue
		}
		delete(b.entries, e.etag)
		return
	}
}

// sweep drops every entry whose TTL has passed.
func (b *bucket) sweep(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for {
		prio, e, ok := b.queue.Peek()
		if !ok || prio >= fifoBase || time.UnixMilli(prio).After(now) {
			return
		}
		b.queue.Pop()
		if b.entries[e.etag] != e || e.prio != prio {
			continue
		}
		delete(b.entries, e.etag)
	}
}

func (b *bucket) clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = make(map[string]*entry)
	b.queue = heap.New[int64, *entry]()
	b.seq = 0
}

func (e *entry) expired(now time.Time) bool {
	return !e.exp.IsZero() && !e.exp.After(now)
}
