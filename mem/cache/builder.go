package cache

import (
	"math/rand"

	"github.com/sarchlab/dmcache/mem"
	"github.com/sarchlab/dmcache/mem/cache/internal/tagging"
	"github.com/sarchlab/dmcache/sim/hooking"
)

// Builder can build caches.
type Builder struct {
	addressBits      int
	cacheByteSize    uint64
	blockByteSize    uint64
	wayAssociativity int
	replaceStrategy  string
	rand             *rand.Rand
	backing          BackingMemory
	hooks            []hooking.Hook
}

// MakeBuilder creates a new builder with a 16KB direct-mapped cache of 64B
// blocks over a 32-bit address space.
func MakeBuilder() Builder {
	return Builder{
		addressBits:      32,
		cacheByteSize:    16 * mem.KB,
		blockByteSize:    64,
		wayAssociativity: 1,
		replaceStrategy:  "lru",
	}
}

// WithAddressBits sets the width of an address.
func (b Builder) WithAddressBits(addressBits int) Builder {
	b.addressBits = addressBits
	return b
}

// WithCacheByteSize sets the capacity of the cache.
func (b Builder) WithCacheByteSize(cacheByteSize uint64) Builder {
	b.cacheByteSize = cacheByteSize
	return b
}

// WithBlockByteSize sets the size of a cache line.
func (b Builder) WithBlockByteSize(blockByteSize uint64) Builder {
	b.blockByteSize = blockByteSize
	return b
}

// WithWayAssociativity sets the number of ways per set. 1 builds a
// direct-mapped cache.
func (b Builder) WithWayAssociativity(wayAssociativity int) Builder {
	b.wayAssociativity = wayAssociativity
	return b
}

// WithReplacementPolicy selects how a set picks the line to evict: "lru",
// "lfu" or "random". It has no effect on a direct-mapped cache.
func (b Builder) WithReplacementPolicy(policy string) Builder {
	b.replaceStrategy = policy
	return b
}

// WithRandSource sets the random source used by the random replacement
// policy.
func (b Builder) WithRandSource(rng *rand.Rand) Builder {
	b.rand = rng
	return b
}

// WithBackingMemory sets the memory behind the cache. Without one, the
// cache gets a zero-filled storage that covers the whole address space.
func (b Builder) WithBackingMemory(backing BackingMemory) Builder {
	b.backing = backing
	return b
}

// WithHook registers a hook on the cache being built.
func (b Builder) WithHook(hook hooking.Hook) Builder {
	b.hooks = append(b.hooks[:len(b.hooks):len(b.hooks)], hook)
	return b
}

// Build builds a cache. It returns ErrInvalidGeometry if the parameters do
// not describe a cache.
func (b Builder) Build(name string) (*Store, error) {
	geometry, err := NewGeometry(
		b.addressBits,
		b.cacheByteSize,
		b.blockByteSize,
		b.wayAssociativity,
	)
	if err != nil {
		return nil, err
	}

	victimFinder, err := tagging.NewVictimFinder(b.replaceStrategy, b.rand)
	if err != nil {
		return nil, err
	}

	s := &Store{
		name:         name,
		geometry:     geometry,
		victimFinder: victimFinder,
		backing:      b.backing,
		tags: tagging.NewTagArray(
			int(geometry.NumSets()),
			geometry.Associativity,
		),
	}

	if s.backing == nil {
		s.backing = mem.NewStorage(geometry.AddressSpace())
	}

	// Each line owns its slice so that writing one line never shows up in
	// another.
	s.data = make([][]byte, geometry.NumLines())
	for i := range s.data {
		s.data[i] = make([]byte, geometry.BlockBytes)
	}

	for _, hook := range b.hooks {
		s.AcceptHook(hook)
	}

	return s, nil
}

// NewStore builds a direct-mapped cache in front of backing. A nil backing
// gets a zero-filled storage.
func NewStore(
	addressBits int,
	cacheBytes, blockBytes uint64,
	backing BackingMemory,
) (*Store, error) {
	return MakeBuilder().
		WithAddressBits(addressBits).
		WithCacheByteSize(cacheBytes).
		WithBlockByteSize(blockBytes).
		WithWayAssociativity(1).
		WithBackingMemory(backing).
		Build("Cache")
}
