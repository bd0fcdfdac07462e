// Package cache provides a thread-safe LRU cache of compiled formulas.
//
// A program depends only on the formula text, the parameter list, and the
// parser, so a consumer that compiles the same formula many times, such as a
// plotter redrawing after every edit, can compile once per distinct text.
//
//	c := cache.New(formula.NewParser(), 64)
//	prog, err := c.Get("sin(x) + y", "x", "y")
package cache

import (
	"container/list"
	"strings"
	"sync"

	"github.com/zephyrtronium/formula"
)

type entry struct {
	key  string
	prog *formula.Program
}

// Cache is an LRU cache of compiled programs. Once the capacity is reached,
// the least recently used program is evicted. A Cache is safe for concurrent
// use by multiple goroutines.
type Cache struct {
	p        *formula.Parser
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

// New creates a cache compiling with p. If capacity is not positive, a
// default of 256 is used.
func New(p *formula.Parser, capacity int) *Cache {
	if capacity <= 0 {
		capacity = 256
	}
	return &Cache{
		p:        p,
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// Get returns the program for a formula and parameter list, compiling it if
// it is not cached. Errors are returned as from Parser.Compile and are not
// cached.
func (c *Cache) Get(src string, params ...string) (*formula.Program, error) {
	key := cachekey(src, params)
	c.mu.Lock()
	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		c.mu.Unlock()
		return el.Value.(*entry).prog, nil
	}
	c.mu.Unlock()

	// Compile outside the lock. Concurrent misses on one key may compile
	// twice; the later insert wins.
	prog, err := c.p.Compile(src, params...)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		el.Value.(*entry).prog = prog
		c.ll.MoveToFront(el)
		return prog, nil
	}
	if c.ll.Len() >= c.capacity {
		c.evictLocked()
	}
	c.items[key] = c.ll.PushFront(&entry{key: key, prog: prog})
	return prog, nil
}

// Len returns the number of cached programs.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Capacity returns the maximum number of cached programs.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Purge removes all cached programs.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element, c.capacity)
}

// evictLocked removes the least recently used program. c.mu must be held.
func (c *Cache) evictLocked() {
	el := c.ll.Back()
	if el == nil {
		return
	}
	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}

// cachekey joins the formula and parameters with NUL, which cannot occur in
// a formula that compiles.
func cachekey(src string, params []string) string {
	var b strings.Builder
	b.WriteString(src)
	for _, p := range params {
		b.WriteByte(0)
		b.WriteString(strings.ToLower(p))
	}
	return b.String()
}
