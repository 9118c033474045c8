package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResponseCacheExpires(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newResponseCache(time.Minute)
	c.now = func() time.Time { return now }

	c.put("a", []byte("1"))
	data, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), data)

	now = now.Add(59 * time.Second)
	_, ok = c.get("a")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok = c.get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.len())
}

func TestResponseCacheInvalidate(t *testing.T) {
	c := newResponseCache(time.Hour)
	c.put("a", []byte("1"))
	c.put("b", []byte("2"))

	c.invalidate("a")
	_, ok := c.get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.len())

	c.clear()
	assert.Equal(t, 0, c.len())
}

func TestResponseCacheDisabled(t *testing.T) {
	c := newResponseCache(0)
	c.put("a", []byte("1"))
	_, ok := c.get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.len())
}
