/*
File: sharded_singleflight.go
Description: Sharded wrapper around singleflight.Group so concurrent
             analyses of the same fingerprint coalesce into one flight
             without serializing unrelated fingerprints on a single mutex.
*/

package urlguard

import (
	"hash/maphash"
	"sync"

	"golang.org/x/sync/singleflight"
)

const flightShardCount = 128

type shardedFlightGroup struct {
	shards []*singleflight.Group
	seed   maphash.Seed
}

var flightHashPool = sync.Pool{
	New: func() any {
		return new(maphash.Hash)
	},
}

func newShardedFlightGroup() *shardedFlightGroup {
	g := &shardedFlightGroup{
		shards: make([]*singleflight.Group, flightShardCount),
		seed:   maphash.MakeSeed(),
	}
	for i := 0; i < flightShardCount; i++ {
		g.shards[i] = &singleflight.Group{}
	}
	return g
}

func (g *shardedFlightGroup) getShard(key string) *singleflight.Group {
	h := flightHashPool.Get().(*maphash.Hash)
	// Reset before SetSeed; a pooled hasher still carries its old seed.
	h.Reset()
	h.SetSeed(g.seed)
	h.WriteString(key)
	idx := h.Sum64() & (flightShardCount - 1)
	flightHashPool.Put(h)
	return g.shards[idx]
}

func (g *shardedFlightGroup) Do(key string, fn func() (interface{}, error)) (interface{}, error, bool) {
	return g.getShard(key).Do(key, fn)
}

func (g *shardedFlightGroup) Forget(key string) {
	g.getShard(key).Forget(key)
}
