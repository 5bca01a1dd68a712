package view

import (
	"strconv"
	"sync"

	"shopicsv/app/rowstore"
)

// DefaultCacheEntries is the number of projections kept by NewCache(0)
const DefaultCacheEntries = 16

// lruList maintains cache eviction order
type lruList struct {
	head  *lruNode
	tail  *lruNode
	nodes map[string]*lruNode
	size  int
}

type lruNode struct {
	key        string
	prev, next *lruNode
}

func newLRUList() *lruList {
	head := &lruNode{}
	tail := &lruNode{}
	head.next = tail
	tail.prev = head
	return &lruList{head: head, tail: tail, nodes: make(map[string]*lruNode)}
}

func (l *lruList) addToFront(key string) {
	if node, exists := l.nodes[key]; exists {
		l.moveToFront(node)
		return
	}
	node := &lruNode{key: key}
	l.nodes[key] = node
	node.next = l.head.next
	node.prev = l.head
	l.head.next.prev = node
	l.head.next = node
	l.size++
}

func (l *lruList) removeOldest() string {
	if l.size == 0 {
		return ""
	}
	oldest := l.tail.prev
	l.removeNode(oldest)
	delete(l.nodes, oldest.key)
	l.size--
	return oldest.key
}

func (l *lruList) moveToFront(node *lruNode) {
	l.removeNode(node)
	node.next = l.head.next
	node.prev = l.head
	l.head.next.prev = node
	l.head.next = node
}

func (l *lruList) removeNode(node *lruNode) {
	node.prev.next = node.next
	node.next.prev = node.prev
}

// CacheStats reports cache effectiveness
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// Cache keeps recent projections keyed by store version and filter, so the
// frontend can page through a filtered view without re-scanning the rows.
type Cache struct {
	mu         sync.Mutex
	maxEntries int
	entries    map[string]Projection
	lru        *lruList
	hits       int64
	misses     int64
}

// NewCache creates a projection cache. maxEntries <= 0 uses DefaultCacheEntries.
func NewCache(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	return &Cache{
		maxEntries: maxEntries,
		entries:    make(map[string]Projection),
		lru:        newLRUList(),
	}
}

// Project returns the cached projection for the store's current version, computing it on a miss
func (c *Cache) Project(store *rowstore.Store, f Filter) Projection {
	key := strconv.FormatUint(store.Version(), 10) + "#" + f.Key()

	c.mu.Lock()
	if p, ok := c.entries[key]; ok {
		c.lru.addToFront(key)
		c.hits++
		c.mu.Unlock()
		return cloneProjection(p)
	}
	c.misses++
	c.mu.Unlock()

	p := Project(store.Rows(), f)

	c.mu.Lock()
	c.entries[key] = p
	c.lru.addToFront(key)
	for c.lru.size > c.maxEntries {
		delete(c.entries, c.lru.removeOldest())
	}
	c.mu.Unlock()
	return cloneProjection(p)
}

// Invalidate drops every cached projection
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]Projection)
	c.lru = newLRUList()
	c.mu.Unlock()
}

// Stats returns the current cache statistics
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}

func cloneProjection(p Projection) Projection {
	rows := make([]rowstore.Row, len(p.Rows))
	for i, r := range p.Rows {
		rows[i] = r.Clone()
	}
	return Projection{Rows: rows, DisplayedCount: p.DisplayedCount}
}
