package build

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/koberi-lang/koberic/internal/cli"
)

// CacheKey identifies one translation: the input bytes and every option that
// changes the output.
type CacheKey string

// Fingerprint computes the cache key of translating input under cfg.
func Fingerprint(input []byte, cfg *cli.Config) CacheKey {
	h := sha256.New()
	h.Write(input)
	h.Write([]byte{0})
	h.Write([]byte(cfg.Indent))
	h.Write([]byte{0})
	h.Write([]byte(cfg.Entry))
	h.Write([]byte{0})
	h.Write([]byte(cfg.Language))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(cfg.Libraries, "\x00")))
	return CacheKey(hex.EncodeToString(h.Sum(nil)))
}

// Artifact is a cached translation result.
type Artifact struct {
	Source []byte
	Output string // path the source was written to
}

// CacheStats exposes basic metrics.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Entries   int64
	Bytes     int64
	Evictions int64
}

// Cache abstracts a key->artifact store.
type Cache interface {
	Get(key CacheKey) (Artifact, bool)
	Put(key CacheKey, a Artifact)
	Invalidate(key CacheKey)
	Stats() CacheStats
}

// InMemoryLRUCache is a thread-safe LRU cache with a max entry count.
type InMemoryLRUCache struct {
	mu       sync.Mutex
	capacity int
	head     *lruNode // most recently used
	tail     *lruNode
	table    map[CacheKey]*lruNode
	stats    CacheStats
}

type lruNode struct {
	key        CacheKey
	val        Artifact
	prev, next *lruNode
}

// NewInMemoryLRUCache creates a new cache with the given capacity (entries). If capacity<=0, defaults to 256.
func NewInMemoryLRUCache(capacity int) *InMemoryLRUCache {
	if capacity <= 0 {
		capacity = 256
	}
	return &InMemoryLRUCache{capacity: capacity, table: make(map[CacheKey]*lruNode)}
}

func (c *InMemoryLRUCache) unlink(n *lruNode) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

func (c *InMemoryLRUCache) pushFront(n *lruNode) {
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

func (c *InMemoryLRUCache) remove(n *lruNode) {
	c.unlink(n)
	delete(c.table, n.key)
	c.stats.Entries = int64(len(c.table))
	c.stats.Bytes -= int64(len(n.val.Source))
}

func (c *InMemoryLRUCache) Get(key CacheKey) (Artifact, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.table[key]
	if !ok {
		c.stats.Misses++
		return Artifact{}, false
	}
	c.unlink(n)
	c.pushFront(n)
	c.stats.Hits++
	return n.val, true
}

func (c *InMemoryLRUCache) Put(key CacheKey, a Artifact) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.table[key]; ok {
		c.stats.Bytes += int64(len(a.Source) - len(n.val.Source))
		n.val = a
		c.unlink(n)
		c.pushFront(n)
		return
	}
	n := &lruNode{key: key, val: a}
	c.pushFront(n)
	c.table[key] = n
	c.stats.Entries = int64(len(c.table))
	c.stats.Bytes += int64(len(a.Source))
	for len(c.table) > c.capacity && c.tail != nil {
		c.remove(c.tail)
		c.stats.Evictions++
	}
}

func (c *InMemoryLRUCache) Invalidate(key CacheKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.table[key]; ok {
		c.remove(n)
	}
}

func (c *InMemoryLRUCache) Stats() CacheStats { c.mu.Lock(); defer c.mu.Unlock(); return c.stats }
