package mem

import (
	"fmt"
	"math/rand"
)

// An Initializer fills a storage with its initial content before a
// simulation starts.
type Initializer interface {
	Initialize(s *Storage) error
}

// ZeroInitializer leaves the storage zero-filled.
type ZeroInitializer struct{}

// Initialize does nothing, as untouched storage already reads as zero.
func (ZeroInitializer) Initialize(*Storage) error {
	return nil
}

// PatternInitializer writes the low byte of each address into that address,
// so that any byte read back identifies where it came from.
type PatternInitializer struct{}

// Initialize fills the storage with the address pattern.
func (PatternInitializer) Initialize(s *Storage) error {
	return fillInChunks(s, func(addr uint64, chunk []byte) {
		for i := range chunk {
			chunk[i] = byte(addr + uint64(i))
		}
	})
}

// RandomInitializer fills the storage with bytes drawn from Rand. Seeding
// Rand makes the memory content reproducible.
type RandomInitializer struct {
	Rand *rand.Rand
}

// Initialize fills the storage with random bytes.
func (r RandomInitializer) Initialize(s *Storage) error {
	if r.Rand == nil {
		return fmt.Errorf("random initializer requires a random source")
	}

	return fillInChunks(s, func(_ uint64, chunk []byte) {
		r.Rand.Read(chunk)
	})
}

func fillInChunks(s *Storage, fill func(addr uint64, chunk []byte)) error {
	for addr := uint64(0); addr < s.capacity; addr += s.unitSize {
		length := min(s.unitSize, s.capacity-addr)
		chunk := make([]byte, length)
		fill(addr, chunk)

		if err := s.Write(addr, chunk); err != nil {
			return err
		}
	}

	return nil
}

// InitializerByName returns the initializer selected by a configuration
// string. The random initializer uses rng.
func InitializerByName(name string, rng *rand.Rand) (Initializer, error) {
	switch name {
	case "", "zero":
		return ZeroInitializer{}, nil
	case "pattern":
		return PatternInitializer{}, nil
	case "random":
		return RandomInitializer{Rand: rng}, nil
	default:
		return nil, fmt.Errorf("unknown memory initializer %q", name)
	}
}
