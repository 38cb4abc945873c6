// Package cache provides a weighted LRU cache whose entries may expire. It
// holds node quotes that rarely change, such as rent exemption minimums.
package cache

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrKeyExists is returned by Insert when the key is already cached.
var ErrKeyExists = errors.New("key already exists in cache")

type Cache interface {
	SetVerbose(verbose bool)
	GetWeight() int
	GetBudget() int
	Len() int

	// Insert adds an item that never expires.
	Insert(key string, value interface{}, weight int) error
	// InsertWithTTL adds an item that is dropped ttl after insertion.
	InsertWithTTL(key string, value interface{}, weight int, ttl time.Duration) error
	Retrieve(key string) (interface{}, bool)
	Delete(key string) bool
	Clear()
}

type cacheNode struct {
	next      *cacheNode
	prev      *cacheNode
	key       string
	value     interface{}
	weight    int
	expiresAt time.Time
}

func (n *cacheNode) expired(now time.Time) bool {
	return !n.expiresAt.IsZero() && !now.Before(n.expiresAt)
}

type cache struct {
	log *logrus.Entry
	now func() time.Time

	mu      sync.Mutex
	head    *cacheNode
	tail    *cacheNode
	lookup  map[string]*cacheNode
	weight  int
	budget  int
	verbose bool
}

// NewCache returns a cache that evicts least recently used items once the
// total weight exceeds budget.
func NewCache(budget int) Cache {
	return newCache(budget, time.Now)
}

func newCache(budget int, now func() time.Time) *cache {
	return &cache{
		log:    logrus.StandardLogger().WithField("type", "cache/lru"),
		now:    now,
		lookup: make(map[string]*cacheNode),
		budget: budget,
	}
}

func (c *cache) SetVerbose(verbose bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verbose = verbose
}

func (c *cache) GetWeight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.weight
}

func (c *cache) GetBudget() int {
	return c.budget
}

func (c *cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lookup)
}

func (c *cache) Insert(key string, value interface{}, weight int) error {
	return c.insert(key, value, weight, time.Time{})
}

func (c *cache) InsertWithTTL(key string, value interface{}, weight int, ttl time.Duration) error {
	return c.insert(key, value, weight, c.now().Add(ttl))
}

func (c *cache) insert(key string, value interface{}, weight int, expiresAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, found := c.lookup[key]; found {
		if !existing.expired(c.now()) {
			return ErrKeyExists
		}
		c.remove(existing)
	}

	node := &cacheNode{
		key:       key,
		value:     value,
		weight:    weight,
		expiresAt: expiresAt,
	}
	c.pushFront(node)
	c.lookup[key] = node
	c.weight += weight

	for c.weight > c.budget && c.tail != nil {
		evicted := c.tail
		c.remove(evicted)

		if c.verbose {
			c.log.WithFields(logrus.Fields{
				"key":          evicted.key,
				"weight":       evicted.weight,
				"spare_weight": c.budget - c.weight,
			}).Debug("evicted cache entry")
		}
	}

	return nil
}

// Retrieve returns the cached value for key and marks it recently used.
func (c *cache) Retrieve(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, found := c.lookup[key]
	if !found {
		return nil, false
	}
	if node.expired(c.now()) {
		c.remove(node)
		return nil, false
	}

	if node != c.head {
		c.unlink(node)
		c.pushFront(node)
	}
	return node.value, true
}

func (c *cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, found := c.lookup[key]
	if !found {
		return false
	}
	c.remove(node)
	return true
}

func (c *cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.head = nil
	c.tail = nil
	c.lookup = make(map[string]*cacheNode)
	c.weight = 0
}

func (c *cache) pushFront(node *cacheNode) {
	node.prev = nil
	node.next = c.head
	if c.head != nil {
		c.head.prev = node
	}
	c.head = node
	if c.tail == nil {
		c.tail = node
	}
}

func (c *cache) unlink(node *cacheNode) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		c.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		c.tail = node.prev
	}
	node.next = nil
	node.prev = nil
}

func (c *cache) remove(node *cacheNode) {
	c.unlink(node)
	c.weight -= node.weight
	delete(c.lookup, node.key)
}
