/*
File: cache.go
Description: Thread-safe sharded LRU cache for risk assessments, keyed by
             URL fingerprint, with per-entry TTL and lazy expiry.
*/

package urlguard

import (
	"container/list"
	"hash/maphash"
	"sync"
	"time"
)

const assessmentCacheShards = 16 // must stay a power of two

type cacheEntry struct {
	key        string
	assessment *RiskAssessment
	expiresAt  time.Time
}

type cacheShard struct {
	sync.RWMutex
	items    map[string]*list.Element
	lruList  *list.List
	capacity int
}

// AssessmentCache caches completed assessments by fingerprint. Expired
// entries are dropped on access, not by a background sweeper.
type AssessmentCache struct {
	shards [assessmentCacheShards]*cacheShard
	seed   maphash.Seed
	ttl    time.Duration
}

func NewAssessmentCache(capacity int, ttl time.Duration) *AssessmentCache {
	c := &AssessmentCache{
		seed: maphash.MakeSeed(),
		ttl:  ttl,
	}
	shardCap := capacity / assessmentCacheShards
	if shardCap < 1 {
		shardCap = 1
	}

	for i := 0; i < assessmentCacheShards; i++ {
		c.shards[i] = &cacheShard{
			items:    make(map[string]*list.Element),
			lruList:  list.New(),
			capacity: shardCap,
		}
	}
	return c
}

func (c *AssessmentCache) getShard(key string) *cacheShard {
	var h maphash.Hash
	h.SetSeed(c.seed)
	h.WriteString(key)
	return c.shards[h.Sum64()&(assessmentCacheShards-1)]
}

// Get returns the cached assessment for a fingerprint. An entry past its
// TTL is removed and reported as a miss.
func (c *AssessmentCache) Get(key string) (*RiskAssessment, bool) {
	shard := c.getShard(key)
	shard.RLock()
	_, found := shard.items[key]
	shard.RUnlock()

	if !found {
		return nil, false
	}

	shard.Lock()
	defer shard.Unlock()
	el, ok := shard.items[key]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		shard.lruList.Remove(el)
		delete(shard.items, key)
		return nil, false
	}
	shard.lruList.MoveToFront(el)
	return entry.assessment, true
}

// Add stores an assessment under a fingerprint, evicting the least
// recently used entry of the shard when full.
func (c *AssessmentCache) Add(key string, assessment *RiskAssessment) {
	shard := c.getShard(key)
	shard.Lock()
	defer shard.Unlock()

	expiresAt := time.Now().Add(c.ttl)

	if elem, found := shard.items[key]; found {
		shard.lruList.MoveToFront(elem)
		entry := elem.Value.(*cacheEntry)
		entry.assessment = assessment
		entry.expiresAt = expiresAt
		return
	}

	if shard.lruList.Len() >= shard.capacity {
		if oldest := shard.lruList.Back(); oldest != nil {
			shard.lruList.Remove(oldest)
			delete(shard.items, oldest.Value.(*cacheEntry).key)
		}
	}

	entry := &cacheEntry{key: key, assessment: assessment, expiresAt: expiresAt}
	shard.items[key] = shard.lruList.PushFront(entry)
}

// Flush empties the cache.
func (c *AssessmentCache) Flush() {
	for _, shard := range c.shards {
		shard.Lock()
		shard.items = make(map[string]*list.Element)
		shard.lruList.Init()
		shard.Unlock()
	}
}

// Len reports the number of entries, including not-yet-collected expired
// ones.
func (c *AssessmentCache) Len() int {
	n := 0
	for _, shard := range c.shards {
		shard.RLock()
		n += shard.lruList.Len()
		shard.RUnlock()
	}
	return n
}
