package tagging

import (
	"fmt"
	"math/rand"
)

// A VictimFinder decides which block of a set should hold a new block.
type VictimFinder interface {
	FindVictim(set *Set) Block
}

// LRUVictimFinder evicts the least recently used block.
type LRUVictimFinder struct{}

// NewLRUVictimFinder returns a newly constructed lru evictor.
func NewLRUVictimFinder() *LRUVictimFinder {
	return new(LRUVictimFinder)
}

// FindVictim returns the least recently used block in a set.
func (e *LRUVictimFinder) FindVictim(set *Set) Block {
	// First try evicting an empty block
	for _, wayID := range set.LRUQueue {
		if !set.Blocks[wayID].IsValid {
			return set.Blocks[wayID]
		}
	}

	return set.Blocks[set.LRUQueue[0]]
}

// LFUVictimFinder evicts the block with the fewest accesses. Ties go to the
// lowest way.
type LFUVictimFinder struct{}

// NewLFUVictimFinder returns a newly constructed lfu evictor.
func NewLFUVictimFinder() *LFUVictimFinder {
	return new(LFUVictimFinder)
}

// FindVictim returns the least frequently used block in a set.
func (e *LFUVictimFinder) FindVictim(set *Set) Block {
	if block, ok := firstInvalid(set); ok {
		return block
	}

	victim := set.Blocks[0]
	for _, block := range set.Blocks[1:] {
		if block.AccessCount < victim.AccessCount {
			victim = block
		}
	}

	return victim
}

// RandomVictimFinder evicts a block chosen by its random source.
type RandomVictimFinder struct {
	rand *rand.Rand
}

// NewRandomVictimFinder returns an evictor that draws victims from rng.
func NewRandomVictimFinder(rng *rand.Rand) *RandomVictimFinder {
	if rng == nil {
		panic("random victim finder requires a random source")
	}

	return &RandomVictimFinder{rand: rng}
}

// FindVictim returns an empty block if there is one, or a random block.
func (e *RandomVictimFinder) FindVictim(set *Set) Block {
	if block, ok := firstInvalid(set); ok {
		return block
	}

	return set.Blocks[e.rand.Intn(len(set.Blocks))]
}

func firstInvalid(set *Set) (Block, bool) {
	for _, block := range set.Blocks {
		if !block.IsValid {
			return block, true
		}
	}

	return Block{}, false
}

// NewVictimFinder creates the victim finder for a replacement policy name:
// "lru", "lfu", or "random".
func NewVictimFinder(policy string, rng *rand.Rand) (VictimFinder, error) {
	switch policy {
	case "", "lru":
		return NewLRUVictimFinder(), nil
	case "lfu":
		return NewLFUVictimFinder(), nil
	case "random":
		if rng == nil {
			return nil, fmt.Errorf("random replacement requires a random source")
		}

		return NewRandomVictimFinder(rng), nil
	default:
		return nil, fmt.Errorf("unknown replacement policy %q", policy)
	}
}
