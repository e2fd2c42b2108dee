package cache

import (
	"fmt"
	"github.com/stretchr/testify/assert"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache() (*ResultCache[string], *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)}
	return NewResultCache[string](DefaultTTL, WithClock[string](clock.Now)), clock
}

func Test_ResultCache_ReadBeforeTTL_ShouldReturnEntryUnchanged(t *testing.T) {

	assert := assert.New(t)
	c, clock := newTestCache()

	c.Set(1, "golang", []string{"a", "b"}, 250)
	clock.Advance(DefaultTTL - time.Second)

	items, total, ok := c.Get(1, "golang")
	assert.True(ok)
	assert.Equal([]string{"a", "b"}, items)
	assert.Equal(250, total)
}

func Test_ResultCache_ReadAtTTL_ShouldMiss(t *testing.T) {

	assert := assert.New(t)
	c, clock := newTestCache()

	c.Set(1, "golang", []string{"a"}, 1)
	clock.Advance(DefaultTTL)

	_, _, ok := c.Get(1, "golang")
	assert.False(ok)
	assert.Equal(0, c.Len())
}

func Test_ResultCache_Set_ShouldSweepOtherExpiredEntries(t *testing.T) {

	assert := assert.New(t)
	c, clock := newTestCache()

	c.Set(1, "old", []string{"a"}, 1)
	clock.Advance(DefaultTTL + time.Minute)
	c.Set(2, "new", []string{"b"}, 1)

	assert.Equal(1, c.Len())
}

func Test_ResultCache_Key_ShouldNotNormalizeQuery(t *testing.T) {

	assert := assert.New(t)
	c, _ := newTestCache()

	c.Set(1, "Golang", []string{"a"}, 1)

	_, _, ok := c.Get(1, "golang")
	assert.False(ok)
	_, _, ok = c.Get(2, "Golang")
	assert.False(ok)
	_, _, ok = c.Get(1, "Golang")
	assert.True(ok)
}

func Test_ResultCache_Overwrite_ShouldRefreshTimestamp(t *testing.T) {

	assert := assert.New(t)
	c, clock := newTestCache()

	c.Set(1, "q", []string{"a"}, 1)
	clock.Advance(DefaultTTL - time.Minute)
	c.Set(1, "q", []string{"b"}, 2)
	clock.Advance(2 * time.Minute)

	items, total, ok := c.Get(1, "q")
	assert.True(ok)
	assert.Equal([]string{"b"}, items)
	assert.Equal(2, total)
}

func Test_ResultCache_MutatingReturnedSlice_ShouldNotAffectCache(t *testing.T) {

	c, _ := newTestCache()
	source := []string{"a", "b"}
	c.Set(1, "q", source, 2)
	source[0] = "changed"

	items, _, _ := c.Get(1, "q")
	items[1] = "changed"

	again, _, _ := c.Get(1, "q")
	assert.Equal(t, []string{"a", "b"}, again)
}

func Test_ResultCache_Invalidate_ShouldRemoveEntry(t *testing.T) {

	c, _ := newTestCache()
	c.Set(1, "q", []string{"a"}, 1)

	c.Invalidate(1, "q")

	_, _, ok := c.Get(1, "q")
	assert.False(t, ok)
}

func Test_ResultCache_ConcurrentAccess_ShouldKeepEveryWrite(t *testing.T) {

	c, _ := newTestCache()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			query := fmt.Sprintf("q%d", i)
			c.Set(int64(i), query, []string{query}, i)
			_, _, _ = c.Get(int64(i), query)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, c.Len())
}
