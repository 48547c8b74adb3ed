package cache_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kyunghoon/twasm/pkg/cache"
)

const wrapped = `(function (global, factory) {})(this, function (exports) {});`

func TestGetSetRoundTrip(t *testing.T) {
	c := cache.New(cache.Options{})
	load := c.Bucket("load")

	load.Set(`"abc123"`, wrapped)
	code, ok := load.Get(`"abc123"`)
	assert.True(t, ok)
	assert.Equal(t, wrapped, code)

	_, ok = load.Get(`"other"`)
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	c := cache.New(cache.Options{})
	load := c.Bucket("load")
	load.Set(`"abc123"`, wrapped)

	assert.True(t, load.Delete(`"abc123"`))
	assert.False(t, load.Delete(`"abc123"`))
	_, ok := load.Get(`"abc123"`)
	assert.False(t, ok)
}

func TestBucketIsolation(t *testing.T) {
	c := cache.New(cache.Options{})
	c.Bucket("load").Set(`"abc123"`, wrapped)

	_, ok := c.Bucket("exec").Get(`"abc123"`)
	assert.False(t, ok, "buckets do not share entries")
	code, ok := c.Bucket("load").Get(`"abc123"`)
	assert.True(t, ok)
	assert.Equal(t, wrapped, code)
}

func TestTTLExpiry(t *testing.T) {
	c := cache.New(cache.Options{SweepInterval: time.Millisecond * 20})
	load := c.BucketWithOpts("load", cache.BucketOptions{
		DefaultTTL: time.Millisecond * 50,
	})
	load.Set(`"abc123"`, wrapped)

	_, ok := load.Get(`"abc123"`)
	assert.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok := load.Get(`"abc123"`)
		return !ok
	}, time.Second, time.Millisecond*10, "expired code stops being served")

	assert.Eventually(t, func() bool {
		return load.Len() == 0
	}, time.Second, time.Millisecond*10, "the sweep collects the entry")
}

func TestMaxItemsEviction(t *testing.T) {
	c := cache.New(cache.Options{})
	load := c.BucketWithOpts("load", cache.BucketOptions{MaxItems: 2})

	load.Set(`"a"`, "// module a")
	load.Set(`"b"`, "// module b")
	load.Set(`"c"`, "// module c")

	assert.Equal(t, 2, load.Len())
	_, ok := load.Get(`"a"`)
	assert.False(t, ok, "oldest entry evicted")
	_, ok = load.Get(`"b"`)
	assert.True(t, ok)
	_, ok = load.Get(`"c"`)
	assert.True(t, ok)
}

func TestEvictionPrefersExpiring(t *testing.T) {
	c := cache.New(cache.Options{})
	load := c.BucketWithOpts("load", cache.BucketOptions{MaxItems: 2})

	load.Set(`"pinned"`, "// no ttl")
	load.SetWithTTL(`"dated"`, "// ttl", time.Minute)
	load.Set(`"next"`, "// forces eviction")

	_, ok := load.Get(`"pinned"`)
	assert.True(t, ok, "non-expiring entry survives")
	_, ok = load.Get(`"dated"`)
	assert.False(t, ok, "dated entry goes first")
}

func TestOverwriteRefreshesTTL(t *testing.T) {
	c := cache.New(cache.Options{SweepInterval: time.Millisecond * 10})
	load := c.Bucket("load")

	load.SetWithTTL(`"abc123"`, "// v1", time.Millisecond*30)
	load.SetWithTTL(`"abc123"`, "// v2", time.Millisecond*300)
	assert.Equal(t, 1, load.Len())

	time.Sleep(time.Millisecond * 60)
	code, ok := load.Get(`"abc123"`)
	assert.True(t, ok, "overwrite replaced the shorter TTL")
	assert.Equal(t, "// v2", code)
}

func TestClear(t *testing.T) {
	c := cache.New(cache.Options{})
	for i := 0; i < 3; i++ {
		c.Bucket("load").Set(fmt.Sprintf(`"etag%d"`, i), wrapped)
	}
	c.Bucket("exec").Set(`"x"`, wrapped)

	c.Clear()
	assert.Equal(t, 0, c.Bucket("load").Len())
	assert.Equal(t, 0, c.Bucket("exec").Len())
}
