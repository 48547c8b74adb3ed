// Package keylock provides named read-write locks. The dev server
// takes one per content ETag so concurrent loads of the same module
// transpile it once.
package keylock

import "sync"

type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

func New() *KeyLock {
	return &KeyLock{locks: make(map[string]*sync.RWMutex)}
}

func (l *KeyLock) get(key string) *sync.RWMutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	mtx, ok := l.locks[key]
	if !ok {
		mtx = &sync.RWMutex{}
		l.locks[key] = mtx
	}
	return mtx
}

// Lock takes the write lock for key and returns its release func.
func (l *KeyLock) Lock(key string) func() {
	mtx := l.get(key)
	mtx.Lock()
	return mtx.Unlock
}

// RLock takes the read lock for key and returns its release func.
func (l *KeyLock) RLock(key string) func() {
	mtx := l.get(key)
	mtx.RLock()
	return mtx.RUnlock
}
