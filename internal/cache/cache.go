package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/awmpietro/golang-workflow-volume/internal/workflow"
)

// InMemory keeps compiled workflow sets keyed by the hash of their source.
// Concurrent misses on one key compile once. Once max entries are held, new
// sets are returned but not stored.
type InMemory struct {
	mu    sync.RWMutex
	max   int
	items map[string]*workflow.Set
	group singleflight.Group
}

func NewInMemory(max int) *InMemory {
	if max < 0 {
		max = 0
	}
	return &InMemory{
		max:   max,
		items: make(map[string]*workflow.Set, max),
	}
}

func (c *InMemory) GetOrCompute(src string, fn func() (*workflow.Set, error)) (*workflow.Set, error) {
	key := Hash(src)

	c.mu.RLock()
	if v, ok := c.items[key]; ok {
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do(key, func() (out any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("compile panicked: %v", r)
			}
		}()

		c.mu.RLock()
		cached, ok := c.items[key]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}

		s, err := fn()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if len(c.items) < c.max {
			c.items[key] = s
		}
		c.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*workflow.Set), nil
}

func (c *InMemory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Hash is the hex SHA-256 of a definition source.
func Hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
