package cache

import (
	"github.com/sarchlab/dmcache/sim/hooking"
)

// Hook positions at which a Store invokes its hooks.
var (
	// HookPosAccess marks that an access has been classified as a hit or a
	// miss. The item is an AccessEvent.
	HookPosAccess = &hooking.HookPos{Name: "Cache Access"}

	// HookPosEvict marks that a valid line is about to be replaced. The item
	// is a LineEvent describing the line being evicted.
	HookPosEvict = &hooking.HookPos{Name: "Cache Evict"}

	// HookPosWriteBack marks that a dirty line has been written to the
	// backing memory. The item is a LineEvent.
	HookPosWriteBack = &hooking.HookPos{Name: "Cache Write Back"}

	// HookPosFill marks that a line has been filled from the backing memory.
	// The item is a LineEvent describing the new content.
	HookPosFill = &hooking.HookPos{Name: "Cache Fill"}

	// HookPosFlush marks that the cache has been flushed. The item is a
	// FlushEvent.
	HookPosFlush = &hooking.HookPos{Name: "Cache Flush"}
)

// AccessKind tells reads and writes apart.
type AccessKind int

// The kinds of accesses.
const (
	AccessRead AccessKind = iota
	AccessWrite
)

func (k AccessKind) String() string {
	switch k {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	default:
		return "unknown"
	}
}

// AccessEvent describes one classified access.
type AccessEvent struct {
	ID      string
	Kind    AccessKind
	Address uint64
	Tag     uint64
	Index   uint64
	Offset  uint64
	Hit     bool
}

// LineEvent describes a transition of a single line.
type LineEvent struct {
	AccessID     string
	Index        int
	Way          int
	Tag          uint64
	BlockAddress uint64
	Dirty        bool
}

// FlushEvent summarizes a flush.
type FlushEvent struct {
	ID         string
	WriteBacks int
}

func (s *Store) traceAccess(acc *access, hit bool) {
	if s.NumHooks() == 0 {
		return
	}

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosAccess,
		Item: AccessEvent{
			ID:      acc.id,
			Kind:    acc.kind,
			Address: acc.address,
			Tag:     acc.tag,
			Index:   acc.index,
			Offset:  acc.offset,
			Hit:     hit,
		},
	})
}

func (s *Store) traceLine(pos *hooking.HookPos, acc *access, event LineEvent) {
	if s.NumHooks() == 0 {
		return
	}

	if acc != nil {
		event.AccessID = acc.id
	}

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    pos,
		Item:   event,
	})
}

func (s *Store) traceFlush(id string, writeBacks int) {
	if s.NumHooks() == 0 {
		return
	}

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosFlush,
		Item:   FlushEvent{ID: id, WriteBacks: writeBacks},
	})
}
