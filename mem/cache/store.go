// Package cache models a single-level data cache in front of a byte
// addressable main memory.
//
// The cache is direct-mapped unless built with a higher associativity. It
// allocates on both read and write misses and writes dirty lines back to
// the backing memory when they are evicted or flushed.
package cache

import (
	"fmt"

	"github.com/sarchlab/dmcache/mem/cache/internal/tagging"
	"github.com/sarchlab/dmcache/sim"
	"github.com/sarchlab/dmcache/sim/hooking"
)

// BackingMemory is the memory that a cache fills lines from and writes dirty
// lines back to.
type BackingMemory interface {
	ReadBlock(address uint64, length int) ([]byte, error)
	WriteBlock(address uint64, data []byte) error
}

// A Store holds the lines of a cache and implements the hit, miss, fill and
// write-back state machine. A Store is not safe for concurrent use; see
// LockedStore.
type Store struct {
	hooking.HookableBase

	name         string
	geometry     Geometry
	tags         tagging.TagArray
	victimFinder tagging.VictimFinder
	data         [][]byte
	backing      BackingMemory
	stats        Statistics
}

// access carries the decoded address of one read or write.
type access struct {
	id      string
	kind    AccessKind
	address uint64
	tag     uint64
	index   uint64
	offset  uint64
}

// Name returns the name given to the cache at build time.
func (s *Store) Name() string {
	return s.name
}

// Geometry returns the geometry of the cache.
func (s *Store) Geometry() Geometry {
	return s.geometry
}

// Statistics returns a snapshot of the counters.
func (s *Store) Statistics() Statistics {
	return s.stats
}

// Read returns the byte at address, filling its line from the backing memory
// on a miss.
func (s *Store) Read(address uint64) (byte, error) {
	acc, err := s.decode(AccessRead, address)
	if err != nil {
		return 0, err
	}

	block, hit := s.tags.Lookup(int(acc.index), acc.tag)
	s.traceAccess(acc, hit)

	if !hit {
		block, err = s.fill(acc)
		if err != nil {
			return 0, err
		}

		s.stats.ReadMisses++
	} else {
		s.stats.ReadHits++
	}

	s.stats.Reads++
	s.tags.Visit(block)

	return s.lineData(block)[acc.offset], nil
}

// Write stores value at address and marks the line dirty. A miss fills the
// whole line first. It returns the byte now stored.
func (s *Store) Write(address uint64, value byte) (byte, error) {
	acc, err := s.decode(AccessWrite, address)
	if err != nil {
		return 0, err
	}

	block, hit := s.tags.Lookup(int(acc.index), acc.tag)
	s.traceAccess(acc, hit)

	if !hit {
		block, err = s.fill(acc)
		if err != nil {
			return 0, err
		}

		s.stats.WriteMisses++
	} else {
		s.stats.WriteHits++
	}

	s.stats.Writes++

	data := s.lineData(block)
	data[acc.offset] = value

	block.IsDirty = true
	s.tags.Update(block)
	s.tags.Visit(block)

	return data[acc.offset], nil
}

// Flush writes every dirty line back to the backing memory, then clears all
// the lines. Each write-back is traced with the ID of the flush event. If a write-back fails, no line is cleared and the error is
// returned.
func (s *Store) Flush() error {
	flush := &access{}
	if s.NumHooks() > 0 {
		flush.id = sim.GetIDGenerator().Generate()
	}

	writeBacks := 0

	for setID := 0; setID < s.tags.NumSets(); setID++ {
		for _, block := range s.tags.GetSet(setID).Blocks {
			if !block.IsValid || !block.IsDirty {
				continue
			}

			if err := s.writeBack(block); err != nil {
				return err
			}

			writeBacks++
			s.traceLine(HookPosWriteBack, flush, s.lineEvent(block))
		}
	}

	for _, line := range s.data {
		clear(line)
	}

	s.tags.Reset()
	s.stats.WriteBacks += uint64(writeBacks)

	s.traceFlush(flush.id, writeBacks)

	return nil
}

// DumpLines returns a copy of every line, ordered by index and then way.
func (s *Store) DumpLines() []LineDump {
	dumps := make([]LineDump, 0, len(s.data))

	for setID := 0; setID < s.tags.NumSets(); setID++ {
		for _, block := range s.tags.GetSet(setID).Blocks {
			dumps = append(dumps, LineDump{
				Index: block.SetID,
				Way:   block.WayID,
				Valid: block.IsValid,
				Dirty: block.IsDirty,
				Tag:   block.Tag,
				Data:  append([]byte(nil), s.lineData(block)...),
			})
		}
	}

	return dumps
}

func (s *Store) decode(kind AccessKind, address uint64) (*access, error) {
	if !s.geometry.Contains(address) {
		return nil, fmt.Errorf("%w: 0x%x does not fit in %d bits",
			ErrAddressOutOfRange, address, s.geometry.AddressBits)
	}

	acc := &access{kind: kind, address: address}
	acc.tag, acc.index, acc.offset = s.geometry.Decode(address)

	if s.NumHooks() > 0 {
		acc.id = sim.GetIDGenerator().Generate()
	}

	return acc, nil
}

// fill brings the block of the access into the line chosen by the victim
// finder. All the backing memory traffic happens before the line changes, so
// a failure leaves the cache untouched.
func (s *Store) fill(acc *access) (tagging.Block, error) {
	set := s.tags.GetSet(int(acc.index))
	victim := s.victimFinder.FindVictim(set)
	blockAddr := acc.address - acc.offset

	newData, err := s.backing.ReadBlock(blockAddr, int(s.geometry.BlockBytes))
	if err != nil {
		return tagging.Block{}, fmt.Errorf("fill block 0x%x: %w", blockAddr, err)
	}

	if uint64(len(newData)) != s.geometry.BlockBytes {
		return tagging.Block{}, fmt.Errorf(
			"fill block 0x%x: backing memory returned %d bytes, want %d",
			blockAddr, len(newData), s.geometry.BlockBytes)
	}

	if victim.IsValid {
		if victim.IsDirty {
			if err := s.writeBack(victim); err != nil {
				return tagging.Block{}, err
			}

			s.stats.WriteBacks++
			s.traceLine(HookPosWriteBack, acc, s.lineEvent(victim))
		}

		s.stats.Evictions++
		s.traceLine(HookPosEvict, acc, s.lineEvent(victim))
	}

	copy(s.lineData(victim), newData)

	block := tagging.Block{
		Tag:     acc.tag,
		SetID:   victim.SetID,
		WayID:   victim.WayID,
		IsValid: true,
	}
	s.tags.Update(block)
	s.traceLine(HookPosFill, acc, s.lineEvent(block))

	return block, nil
}

func (s *Store) writeBack(block tagging.Block) error {
	addr := s.geometry.BlockAddress(block.Tag, uint64(block.SetID))
	data := append([]byte(nil), s.lineData(block)...)

	if err := s.backing.WriteBlock(addr, data); err != nil {
		return fmt.Errorf("write back block 0x%x: %w", addr, err)
	}

	return nil
}

func (s *Store) lineData(block tagging.Block) []byte {
	return s.data[block.SetID*s.tags.NumWays()+block.WayID]
}

func (s *Store) lineEvent(block tagging.Block) LineEvent {
	return LineEvent{
		Index:        block.SetID,
		Way:          block.WayID,
		Tag:          block.Tag,
		BlockAddress: s.geometry.BlockAddress(block.Tag, uint64(block.SetID)),
		Dirty:        block.IsDirty,
	}
}

// LineDump is a copy of one cache line, for display.
type LineDump struct {
	Index int
	Way   int
	Valid bool
	Dirty bool
	Tag   uint64
	Data  []byte
}
