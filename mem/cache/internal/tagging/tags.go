// Package tagging keeps the bookkeeping of a cache: which block each line
// holds, and whether the line is valid and dirty.
package tagging

// A TagArray stores the tags of all the lines in a cache, organized in sets.
type TagArray interface {
	// Lookup returns the valid block in the set that holds the tag.
	Lookup(setID int, tag uint64) (Block, bool)

	// Update overwrites the block at the block's set and way.
	Update(block Block)

	// Visit records an access to the block for the replacement policy.
	Visit(block Block)

	// GetSet returns the set with the given ID.
	GetSet(setID int) *Set

	// NumSets returns the number of sets.
	NumSets() int

	// NumWays returns the number of blocks per set.
	NumWays() int

	// Reset marks every block invalid and clean.
	Reset()
}

// NewTagArray creates a tag array with all blocks invalid.
func NewTagArray(numSets, numWays int) TagArray {
	if numSets <= 0 || numWays <= 0 {
		panic("tag array must have at least one set and one way")
	}

	t := &tagArrayImpl{
		numSets: numSets,
		numWays: numWays,
	}

	t.Reset()

	return t
}

// A Block of a cache is the information that is associated with a cache line.
type Block struct {
	Tag         uint64
	SetID       int
	WayID       int
	IsValid     bool
	IsDirty     bool
	AccessCount uint64
}

// A Set is a list of blocks where a certain piece of memory can be stored.
// LRUQueue lists way IDs from the least to the most recently used.
type Set struct {
	Blocks   []Block
	LRUQueue []int
}

type tagArrayImpl struct {
	numSets int
	numWays int
	sets    []Set
}

func (t *tagArrayImpl) NumSets() int {
	return t.numSets
}

func (t *tagArrayImpl) NumWays() int {
	return t.numWays
}

func (t *tagArrayImpl) GetSet(setID int) *Set {
	return &t.sets[setID]
}

func (t *tagArrayImpl) Lookup(setID int, tag uint64) (Block, bool) {
	for _, block := range t.sets[setID].Blocks {
		if block.IsValid && block.Tag == tag {
			return block, true
		}
	}

	return Block{}, false
}

func (t *tagArrayImpl) Update(block Block) {
	t.sets[block.SetID].Blocks[block.WayID] = block
}

// Visit moves the block to the end of the LRUQueue and bumps its access
// count.
func (t *tagArrayImpl) Visit(block Block) {
	set := &t.sets[block.SetID]
	newLRUQueue := make([]int, 0, len(set.LRUQueue))

	for _, b := range set.LRUQueue {
		if b != block.WayID {
			newLRUQueue = append(newLRUQueue, b)
		}
	}

	newLRUQueue = append(newLRUQueue, block.WayID)
	set.LRUQueue = newLRUQueue

	set.Blocks[block.WayID].AccessCount++
}

func (t *tagArrayImpl) Reset() {
	t.sets = make([]Set, t.numSets)
	for i := 0; i < t.numSets; i++ {
		t.sets[i].Blocks = make([]Block, t.numWays)
		t.sets[i].LRUQueue = make([]int, t.numWays)

		for j := 0; j < t.numWays; j++ {
			t.sets[i].Blocks[j] = Block{SetID: i, WayID: j}
			t.sets[i].LRUQueue[j] = j
		}
	}
}
