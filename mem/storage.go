// Package mem provides the main memory model that sits behind the cache.
package mem

import (
	"errors"
	"fmt"
)

// Size units.
const (
	KB uint64 = 1 << 10
	MB uint64 = 1 << 20
	GB uint64 = 1 << 30
)

// ErrBeyondCapacity is returned when an access touches bytes past the end of
// a storage.
var ErrBeyondCapacity = errors.New(
	"accessing physical address beyond the storage capacity")

// A Storage keeps the bytes of the simulated main memory.
//
// The storage manages its bytes in units, similar to pages in memory
// management. A unit is allocated on the first access that touches it, so a
// storage that spans a wide address space only costs memory for the parts
// that the simulation actually uses. Untouched bytes read as zero.
type Storage struct {
	unitSize uint64
	capacity uint64
	data     map[uint64][]byte
}

// NewStorage creates a storage object with the specified capacity in bytes.
func NewStorage(capacity uint64) *Storage {
	return NewStorageWithUnitSize(capacity, 4*KB)
}

// NewStorageWithUnitSize creates a storage that allocates its bytes in units
// of the given size.
func NewStorageWithUnitSize(capacity, unitSize uint64) *Storage {
	if unitSize == 0 {
		panic("storage unit size must be positive")
	}

	return &Storage{
		unitSize: unitSize,
		capacity: capacity,
		data:     make(map[uint64][]byte),
	}
}

// Capacity returns the number of bytes the storage can hold.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}

func (s *Storage) mustBeInRange(address, length uint64) error {
	if address >= s.capacity || length > s.capacity-address {
		return fmt.Errorf("%w: [0x%x, 0x%x) capacity 0x%x",
			ErrBeyondCapacity, address, address+length, s.capacity)
	}

	return nil
}

// createOrGetStorageUnit retrieves a storage unit if the unit has been created
// before. Otherwise it initializes a storage unit in the storage object.
func (s *Storage) createOrGetStorageUnit(address uint64) []byte {
	baseAddr, _ := s.parseAddress(address)

	unit, ok := s.data[baseAddr]
	if !ok {
		unit = make([]byte, s.unitSize)
		s.data[baseAddr] = unit
	}

	return unit
}

func (s *Storage) parseAddress(addr uint64) (baseAddr, inUnitAddr uint64) {
	inUnitAddr = addr % s.unitSize
	baseAddr = addr - inUnitAddr

	return
}

// Read returns a copy of length bytes starting at address.
func (s *Storage) Read(address uint64, length uint64) ([]byte, error) {
	if length == 0 {
		return []byte{}, nil
	}

	if err := s.mustBeInRange(address, length); err != nil {
		return nil, err
	}

	res := make([]byte, length)
	currAddr := address
	dataOffset := uint64(0)

	for dataOffset < length {
		unit := s.createOrGetStorageUnit(currAddr)
		baseAddr, inUnitAddr := s.parseAddress(currAddr)

		lenToRead := min(length-dataOffset, baseAddr+s.unitSize-currAddr)

		copy(res[dataOffset:dataOffset+lenToRead],
			unit[inUnitAddr:inUnitAddr+lenToRead])

		dataOffset += lenToRead
		currAddr += lenToRead
	}

	return res, nil
}

// Write stores data starting at address. Either all the bytes are written or,
// if any byte falls outside the capacity, none are.
func (s *Storage) Write(address uint64, data []byte) error {
	if len(data) == 0 {
		return nil
	}

	if err := s.mustBeInRange(address, uint64(len(data))); err != nil {
		return err
	}

	currAddr := address
	dataOffset := uint64(0)

	for dataOffset < uint64(len(data)) {
		unit := s.createOrGetStorageUnit(currAddr)
		baseAddr, inUnitAddr := s.parseAddress(currAddr)

		lenToWrite := min(
			uint64(len(data))-dataOffset,
			baseAddr+s.unitSize-currAddr,
		)

		copy(unit[inUnitAddr:inUnitAddr+lenToWrite],
			data[dataOffset:dataOffset+lenToWrite])

		dataOffset += lenToWrite
		currAddr += lenToWrite
	}

	return nil
}

// ReadBlock reads a whole cache block. It lets a Storage serve as the
// backing memory of a cache.
func (s *Storage) ReadBlock(address uint64, length int) ([]byte, error) {
	if length < 0 {
		return nil, fmt.Errorf("negative block length %d", length)
	}

	return s.Read(address, uint64(length))
}

// WriteBlock writes a whole cache block back to the storage.
func (s *Storage) WriteBlock(address uint64, data []byte) error {
	return s.Write(address, data)
}

// NumAllocatedUnits returns how many units have been touched so far.
func (s *Storage) NumAllocatedUnits() int {
	return len(s.data)
}
