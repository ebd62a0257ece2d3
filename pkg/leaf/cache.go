package leaf

import (
	"sync"
)

// Cache is a hierarchical memoization store: flat key/value pairs plus named
// child namespaces, each itself a Cache. Entries never expire; Clear is the
// only way to drop them. A Cache is safe for concurrent use, so one instance
// can be shared between parses.
type Cache struct {
	mu       sync.RWMutex
	values   map[string]interface{}
	children map[string]*Cache
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{
		values:   make(map[string]interface{}),
		children: make(map[string]*Cache),
	}
}

// Get returns the value stored under key
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Put stores value under key. The last writer wins.
func (c *Cache) Put(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// NS returns the child namespace called name, creating it on first use
func (c *Cache) NS(name string) *Cache {
	c.mu.RLock()
	child, ok := c.children[name]
	c.mu.RUnlock()
	if ok {
		return child
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if child, ok := c.children[name]; ok {
		return child
	}
	child = NewCache()
	c.children[name] = child
	return child
}

// Memo returns the value under key, computing and storing it with fn when it
// is missing. Errors are returned without being stored.
func (c *Cache) Memo(key string, fn func() (interface{}, error)) (interface{}, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := fn()
	if err != nil {
		return nil, err
	}
	c.Put(key, v)
	return v, nil
}

// Size returns the number of values in this cache and all its namespaces
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	size := len(c.values)
	for _, child := range c.children {
		size += child.Size()
	}
	return size
}

// Clear removes all values and namespaces
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = make(map[string]interface{})
	c.children = make(map[string]*Cache)
}
