// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package cache provides a small LRU cache of built digests.  The
// diagnostic server uses it so that repeated probes with the same
// node filter do not rebuild the digest every time.  Keys are
// arbitrary strings, typically the node-filter pattern; cached
// digests are treated as immutable once stored.
package cache

import (
	"container/list"
	"sync"

	"github.com/mmcclenn/go-dataservice/digest"
)

// entry pairs a cache key with the digest stored under it.
type entry struct {
	key    string
	digest *digest.Digest
}

// DigestCache is a least-recently-used cache with a fixed capacity.
// The cache can be safely accessed from multiple goroutines.
type DigestCache struct {
	size      int
	lock      sync.RWMutex
	evictList *list.List
	index     map[string]*list.Element
}

// New creates a digest cache holding at most size digests.
func New(size int) *DigestCache {
	return &DigestCache{
		size:      size,
		evictList: list.New(),
		index:     make(map[string]*list.Element),
	}
}

// Get retrieves the digest for a key.  If it is not present, calls
// the build function, and if that succeeds, saves the result and
// returns it.  This returns an error only if the digest is not
// present and the build function returns an error.
func (c *DigestCache) Get(key string, build func(string) (*digest.Digest, error)) (*digest.Digest, error) {
	// This sadly happens under a writer lock, since we need to move
	// the item to the front of the list if it is present
	c.lock.Lock()
	defer c.lock.Unlock()

	if element, present := c.index[key]; present {
		c.evictList.MoveToBack(element)
		return element.Value.(entry).digest, nil
	}

	d, err := build(key)
	if err != nil {
		return nil, err
	}
	c.add(entry{key: key, digest: d})
	return d, nil
}

// Peek looks for a digest in the cache and returns it if present, or
// nil if absent.  This runs under a reader lock and does not affect
// the recency of the item.
func (c *DigestCache) Peek(key string) *digest.Digest {
	c.lock.RLock()
	defer c.lock.RUnlock()

	if element, present := c.index[key]; present {
		return element.Value.(entry).digest
	}
	return nil
}

// Put stores a digest under a key, possibly evicting something.
func (c *DigestCache) Put(key string, d *digest.Digest) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if element, present := c.index[key]; present {
		element.Value = entry{key: key, digest: d}
		c.evictList.MoveToBack(element)
		return
	}
	c.add(entry{key: key, digest: d})
}

// Remove takes a digest out of the cache.  It does nothing if that
// key does not exist.
func (c *DigestCache) Remove(key string) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if element, present := c.index[key]; present {
		delete(c.index, key)
		c.evictList.Remove(element)
	}
}

// Len returns the number of cached digests.
func (c *DigestCache) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return len(c.index)
}

// add is an internal helper, running under the write lock, that adds
// a new entry to the cache.  The key is known to not already exist.
func (c *DigestCache) add(e entry) {
	element := c.evictList.PushBack(e)
	c.index[e.key] = element

	// If this caused the cache to go over size, start evicting items
	for len(c.index) > c.size {
		head := c.evictList.Front()
		evicted := head.Value.(entry)
		delete(c.index, evicted.key)
		c.evictList.Remove(head)
	}
}
