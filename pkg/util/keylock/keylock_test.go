package keylock_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kyunghoon/twasm/pkg/util/keylock"
)

func TestKeyLockSerializesPerKey(t *testing.T) {
	kl := keylock.New()
	var even, odd int

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		key, counter := "even", &even
		if i%2 == 1 {
			key, counter = "odd", &odd
		}
		wg.Add(1)
		go func(key string, counter *int) {
			defer wg.Done()
			unlock := kl.Lock(key)
			defer unlock()
			*counter++
		}(key, counter)
	}
	wg.Wait()

	assert.Equal(t, 32, even)
	assert.Equal(t, 32, odd)
}

func TestKeyLockReadersShareKey(t *testing.T) {
	kl := keylock.New()

	u1 := kl.RLock("shared")
	u2 := kl.RLock("shared")
	u1()
	u2()

	unlock := kl.Lock("shared")
	unlock()
}
