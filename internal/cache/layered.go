package cache

import (
	"errors"
	"time"
)

// LayeredCache reads through a fast layer in front of a persistent one
type LayeredCache struct {
	front Cache
	back  Cache
}

// NewLayeredCache puts front (usually memory) before back (usually disk)
func NewLayeredCache(front, back Cache) *LayeredCache {
	return &LayeredCache{front: front, back: back}
}

// Get checks the front layer first and promotes back-layer hits
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.front.Get(key); found {
		return val, true
	}

	val, found := c.back.Get(key)
	if !found {
		return nil, false
	}
	_ = c.front.Set(key, val, 0)
	return val, true
}

// Set writes to both layers
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.front.Set(key, value, ttl); err != nil {
		return err
	}
	return c.back.Set(key, value, ttl)
}

func (c *LayeredCache) Delete(key string) error {
	return errors.Join(c.front.Delete(key), c.back.Delete(key))
}

func (c *LayeredCache) Clear() error {
	return errors.Join(c.front.Clear(), c.back.Clear())
}
