// Package cache implements the GPU resource cache.
//
// The cache owns every GPU resource the rendering context keeps alive
// between draws. Entries are looked up by Key and carry a lock count:
// locked entries are in use and are never evicted, unlocked entries sit in
// an LRU list and are evicted least-recently-unlocked first whenever the
// cache exceeds its entry-count or byte budget.
//
// Entries can be detached from key lookup while staying owned by the cache.
// The scratch allocator uses this to hand out a reusable texture to exactly
// one user at a time:
//
//	e := c.FindAndLock(key, cache.LockSingle)
//	c.Detach(e)
//	// ... render into e.Resource() ...
//	c.ReattachAndUnlock(e)
//
// # Thread Safety
//
// Cache is not safe for concurrent use. A rendering context and its cache
// are driven from one goroutine.
package cache
