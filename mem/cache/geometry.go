package cache

import (
	"fmt"
	"math/bits"
)

// Geometry describes how a cache splits an address into tag, index and
// offset. A Geometry is immutable once created.
type Geometry struct {
	AddressBits   int
	CacheBytes    uint64
	BlockBytes    uint64
	Associativity int

	OffsetBits int
	IndexBits  int
	TagBits    int
}

// MaxAddressBits is the widest address a cache can model.
const MaxAddressBits = 63

// NewGeometry validates the cache parameters and derives the bit widths.
// Block size, cache size, and the number of sets must all be powers of two.
func NewGeometry(
	addressBits int,
	cacheBytes, blockBytes uint64,
	associativity int,
) (Geometry, error) {
	g := Geometry{
		AddressBits:   addressBits,
		CacheBytes:    cacheBytes,
		BlockBytes:    blockBytes,
		Associativity: associativity,
	}

	if err := g.validate(); err != nil {
		return Geometry{}, err
	}

	g.OffsetBits = log2(blockBytes)
	g.IndexBits = log2(g.NumSets())
	g.TagBits = addressBits - g.OffsetBits - g.IndexBits

	return g, nil
}

func (g Geometry) validate() error {
	switch {
	case g.AddressBits <= 0 || g.AddressBits > MaxAddressBits:
		return invalidGeometry("address width %d not in [1, %d]",
			g.AddressBits, MaxAddressBits)
	case g.CacheBytes == 0 || g.BlockBytes == 0 || g.Associativity <= 0:
		return invalidGeometry("sizes must be positive: cache %d, block %d, "+
			"associativity %d", g.CacheBytes, g.BlockBytes, g.Associativity)
	case !isPowerOfTwo(g.BlockBytes):
		return invalidGeometry("block size %d is not a power of two",
			g.BlockBytes)
	case !isPowerOfTwo(g.CacheBytes):
		return invalidGeometry("cache size %d is not a power of two",
			g.CacheBytes)
	case g.BlockBytes > g.CacheBytes:
		return invalidGeometry("block size %d exceeds cache size %d",
			g.BlockBytes, g.CacheBytes)
	}

	numLines := g.CacheBytes / g.BlockBytes
	if numLines%uint64(g.Associativity) != 0 ||
		!isPowerOfTwo(numLines/uint64(g.Associativity)) {
		return invalidGeometry("%d lines cannot form a power-of-two number "+
			"of %d-way sets", numLines, g.Associativity)
	}

	if log2(g.CacheBytes/uint64(g.Associativity)) > g.AddressBits {
		return invalidGeometry("a %d-bit address cannot index a %d-byte "+
			"%d-way cache", g.AddressBits, g.CacheBytes, g.Associativity)
	}

	return nil
}

func invalidGeometry(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidGeometry}, args...)...)
}

// NumLines returns the total number of lines in the cache.
func (g Geometry) NumLines() int {
	return int(g.CacheBytes / g.BlockBytes)
}

// NumSets returns the number of sets, which is the number of lines for a
// direct-mapped cache.
func (g Geometry) NumSets() uint64 {
	return g.CacheBytes / g.BlockBytes / uint64(g.Associativity)
}

// AddressSpace returns the number of addressable bytes.
func (g Geometry) AddressSpace() uint64 {
	return uint64(1) << g.AddressBits
}

// Contains tells whether the address fits in the address width.
func (g Geometry) Contains(address uint64) bool {
	return address < g.AddressSpace()
}

// Decode splits an address into its tag, index and offset. Index and offset
// come from contiguous low-order bit fields, so sequential addresses fill
// sequential lines before wrapping around.
func (g Geometry) Decode(address uint64) (tag, index, offset uint64) {
	offset = address & (g.BlockBytes - 1)
	index = (address >> g.OffsetBits) & (g.NumSets() - 1)
	tag = address >> (g.OffsetBits + g.IndexBits)

	return tag, index, offset
}

// BlockAddress returns the address of the first byte of the block that has
// the given tag and index.
func (g Geometry) BlockAddress(tag, index uint64) uint64 {
	return tag<<(g.OffsetBits+g.IndexBits) | index<<g.OffsetBits
}

// String returns a one-line summary of the geometry.
func (g Geometry) String() string {
	return fmt.Sprintf(
		"%d-bit address, %dB cache, %dB block, %d-way "+
			"(tag %d, index %d, offset %d bits)",
		g.AddressBits, g.CacheBytes, g.BlockBytes, g.Associativity,
		g.TagBits, g.IndexBits, g.OffsetBits)
}

func isPowerOfTwo(x uint64) bool {
	return x != 0 && x&(x-1) == 0
}

func log2(x uint64) int {
	return bits.TrailingZeros64(x)
}
