package cache

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gr/device"
)

// Default limits.
const (
	DefaultMaxCount = 256
	DefaultMaxBytes = 16 * 1024 * 1024
)

var (
	// ErrKeyExists is returned by CreateAndLock when an attached entry
	// already uses the key. The resource stays with the caller.
	ErrKeyExists = errors.New("cache: key already exists")

	// ErrEntryLocked is returned when freeing an entry that is in use.
	ErrEntryLocked = errors.New("cache: entry is locked")

	// ErrUnknownEntry is returned for entries the cache no longer tracks.
	ErrUnknownEntry = errors.New("cache: unknown entry")
)

// LockKind selects how FindAndLock treats entries that are already locked.
type LockKind uint8

const (
	// LockNested returns an entry even when it is already locked.
	LockNested LockKind = iota
	// LockSingle returns only entries with no current lock.
	LockSingle
)

// Entry is one cached resource.
type Entry struct {
	key       Key
	res       device.Resource
	size      int64
	lockCount int
	attached  bool
	valid     bool
	node      *lruNode
}

// Key returns the entry key.
func (e *Entry) Key() Key { return e.key }

// Resource returns the cached resource.
func (e *Entry) Resource() device.Resource { return e.res }

// Size returns the byte cost charged to the budget.
func (e *Entry) Size() int64 { return e.size }

// LockCount returns the current lock count.
func (e *Entry) LockCount() int { return e.lockCount }

// IsLocked reports whether the entry is in use.
func (e *Entry) IsLocked() bool { return e.lockCount > 0 }

// IsAttached reports whether the entry is visible to key lookups.
func (e *Entry) IsAttached() bool { return e.attached }

// IsValid reports whether the cache still tracks the entry. Entries that
// were locked during RemoveAll become invalid.
func (e *Entry) IsValid() bool { return e.valid }

// Cache is a budgeted, lock-counted resource cache.
type Cache struct {
	entries map[Key][]*Entry
	byID    map[uint64]*Entry
	lru     lruList

	// orphans holds entries that were locked during RemoveAll until their
	// holders unlock them.
	orphans map[uint64]*Entry

	maxCount int
	maxBytes int64
	count    int
	bytes    int64

	hits      uint64
	misses    uint64
	evictions uint64

	beforeEvict func()

	logger *slog.Logger
}

// New creates a cache with the given budget.
// A nil logger disables logging.
func New(maxCount int, maxBytes int64, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cache{
		entries:  make(map[Key][]*Entry),
		byID:     make(map[uint64]*Entry),
		orphans:  make(map[uint64]*Entry),
		maxCount: maxCount,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// FindAndLock returns an attached entry for key and increments its lock
// count, or nil on a miss.
func (c *Cache) FindAndLock(key Key, kind LockKind) *Entry {
	for _, e := range c.entries[key] {
		if kind == LockSingle && e.lockCount > 0 {
			continue
		}
		c.lock(e)
		c.hits++
		return e
	}
	c.misses++
	return nil
}

// HasKey reports whether an attached entry uses key.
func (c *Cache) HasKey(key Key) bool {
	return len(c.entries[key]) > 0
}

// CreateAndLock inserts res under key with a lock count of one.
func (c *Cache) CreateAndLock(key Key, res device.Resource) (*Entry, error) {
	if c.HasKey(key) {
		return nil, fmt.Errorf("%w: %s", ErrKeyExists, key)
	}
	e := c.insert(key, res)
	e.lockCount = 1
	c.PurgeAsNeeded()
	return e, nil
}

// AddAndLock inserts res under key with a lock count of one, alongside any
// entries already using the key.
func (c *Cache) AddAndLock(key Key, res device.Resource) *Entry {
	e := c.insert(key, res)
	e.lockCount = 1
	c.PurgeAsNeeded()
	return e
}

// Attach inserts res under key unlocked, making it immediately reusable.
func (c *Cache) Attach(key Key, res device.Resource) *Entry {
	e := c.insert(key, res)
	c.lru.PushFront(e)
	c.PurgeAsNeeded()
	return e
}

func (c *Cache) insert(key Key, res device.Resource) *Entry {
	e := &Entry{
		key:      key,
		res:      res,
		size:     res.SizeBytes(),
		attached: true,
		valid:    true,
	}
	c.entries[key] = append(c.entries[key], e)
	c.byID[res.ID()] = e
	c.count++
	c.bytes += e.size
	return e
}

func (c *Cache) lock(e *Entry) {
	if e.lockCount == 0 {
		c.lru.Remove(e)
	}
	e.lockCount++
}

// Unlock decrements the lock count. At zero the entry becomes evictable;
// eviction itself waits for the next sweep.
func (c *Cache) Unlock(e *Entry) {
	if e.lockCount == 0 {
		c.logger.Warn("cache: unlock of unlocked entry", "key", e.key.String())
		return
	}
	e.lockCount--
	if e.lockCount > 0 {
		return
	}
	if !e.valid {
		if c.orphans[e.res.ID()] == e {
			delete(c.orphans, e.res.ID())
		}
		e.res.Release()
		return
	}
	c.lru.PushFront(e)
}

// Detach hides the entry from key lookups. It stays owned and budgeted.
func (c *Cache) Detach(e *Entry) {
	if !e.attached || !e.valid {
		return
	}
	list := c.entries[e.key]
	for i, x := range list {
		if x == e {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(c.entries, e.key)
	} else {
		c.entries[e.key] = list
	}
	c.lru.Remove(e)
	e.attached = false
}

// Reattach makes a detached entry visible to key lookups again.
func (c *Cache) Reattach(e *Entry) {
	if e.attached || !e.valid {
		return
	}
	c.entries[e.key] = append(c.entries[e.key], e)
	e.attached = true
	if e.lockCount == 0 {
		c.lru.PushFront(e)
	}
}

// ReattachAndUnlock reattaches a detached entry and drops one lock.
func (c *Cache) ReattachAndUnlock(e *Entry) {
	c.Reattach(e)
	c.Unlock(e)
}

// EntryFor returns the entry owning res, or nil.
func (c *Cache) EntryFor(res device.Resource) *Entry {
	if res == nil {
		return nil
	}
	if e, ok := c.byID[res.ID()]; ok {
		return e
	}
	return c.orphans[res.ID()]
}

// FreeEntry removes an unlocked entry and releases its resource.
func (c *Cache) FreeEntry(e *Entry) error {
	if !e.valid || c.byID[e.res.ID()] != e {
		return ErrUnknownEntry
	}
	if e.lockCount > 0 {
		return fmt.Errorf("%w: %s", ErrEntryLocked, e.key)
	}
	c.remove(e)
	e.res.Release()
	return nil
}

func (c *Cache) remove(e *Entry) {
	if e.attached {
		c.Detach(e)
	}
	c.lru.Remove(e)
	delete(c.byID, e.res.ID())
	c.count--
	c.bytes -= e.size
	e.valid = false
}

// RemoveAll releases every unlocked entry. Locked entries are dropped from
// bookkeeping and marked invalid; their resource is released when the
// holder's last Unlock arrives.
func (c *Cache) RemoveAll() {
	leaked := 0
	for _, e := range c.byID {
		e.valid = false
		e.attached = false
		e.node = nil
		if e.lockCount > 0 {
			leaked++
			c.orphans[e.res.ID()] = e
			continue
		}
		e.res.Release()
	}
	if leaked > 0 {
		c.logger.Debug("cache: removed all with locked entries", "locked", leaked)
	}
	c.entries = make(map[Key][]*Entry)
	c.byID = make(map[uint64]*Entry)
	c.lru.Clear()
	c.count = 0
	c.bytes = 0
}

// SetLimits changes the budget. Entries over the new budget are evicted by
// the next insertion or PurgeAsNeeded.
func (c *Cache) SetLimits(maxCount int, maxBytes int64) {
	c.maxCount = maxCount
	c.maxBytes = maxBytes
}

// Limits returns the budget.
func (c *Cache) Limits() (maxCount int, maxBytes int64) {
	return c.maxCount, c.maxBytes
}

// Count returns the number of tracked entries.
func (c *Cache) Count() int { return c.count }

// Bytes returns the bytes charged to the budget.
func (c *Cache) Bytes() int64 { return c.bytes }

func (c *Cache) overBudget() bool {
	return c.count > c.maxCount || c.bytes > c.maxBytes
}

// SetEvictionHook registers fn to run once per sweep, before the first
// entry is evicted. Owners holding deferred work that samples unlocked
// resources submit it there.
func (c *Cache) SetEvictionHook(fn func()) {
	c.beforeEvict = fn
}

// PurgeAsNeeded evicts unlocked entries, least recently unlocked first,
// until the cache fits its budget or nothing evictable remains.
func (c *Cache) PurgeAsNeeded() {
	hooked := c.beforeEvict == nil
	for c.overBudget() {
		e := c.lru.Oldest()
		if e == nil {
			return
		}
		if !hooked {
			hooked = true
			c.beforeEvict()
			continue
		}
		c.logger.Debug("cache: evict", "key", e.key.String(), "fingerprint", e.key.Fingerprint(), "bytes", e.size)
		c.remove(e)
		e.res.Release()
		c.evictions++
	}
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	s := Stats{
		Count:     c.count,
		Bytes:     c.bytes,
		Evictions: c.evictions,
		Hits:      c.hits,
		Misses:    c.misses,
		MaxCount:  c.maxCount,
		MaxBytes:  c.maxBytes,
	}
	for _, e := range c.byID {
		if e.lockCount > 0 {
			s.Locked++
		}
		if !e.attached {
			s.Detached++
		}
	}
	return s
}

// Stats contains cache statistics.
type Stats struct {
	Count     int
	Bytes     int64
	Locked    int
	Detached  int
	Evictions uint64
	Hits      uint64
	Misses    uint64
	MaxCount  int
	MaxBytes  int64
}

// String returns a human-readable representation of the stats.
func (s Stats) String() string {
	return fmt.Sprintf("Cache[%d/%d entries, %d/%d KB, %d locked, %d detached, %d hits, %d misses, %d evictions]",
		s.Count, s.MaxCount,
		s.Bytes/1024, s.MaxBytes/1024,
		s.Locked, s.Detached, s.Hits, s.Misses, s.Evictions)
}
