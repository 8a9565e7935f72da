package cache

import "sync"

// A LockedStore guards a Store with a single mutex so that it can be shared
// between goroutines. Every operation holds the lock for its whole duration.
type LockedStore struct {
	lock  sync.Mutex
	store *Store
}

// NewLockedStore wraps a store. The store must not be used directly
// afterwards.
func NewLockedStore(store *Store) *LockedStore {
	return &LockedStore{store: store}
}

// Name returns the name of the wrapped store.
func (l *LockedStore) Name() string {
	return l.store.Name()
}

// Geometry returns the geometry of the wrapped store.
func (l *LockedStore) Geometry() Geometry {
	return l.store.Geometry()
}

// Read reads a byte through the cache.
func (l *LockedStore) Read(address uint64) (byte, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.store.Read(address)
}

// Write writes a byte through the cache.
func (l *LockedStore) Write(address uint64, value byte) (byte, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.store.Write(address, value)
}

// Flush flushes the cache.
func (l *LockedStore) Flush() error {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.store.Flush()
}

// Statistics returns a snapshot of the counters.
func (l *LockedStore) Statistics() Statistics {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.store.Statistics()
}

// DumpLines returns a copy of every line.
func (l *LockedStore) DumpLines() []LineDump {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.store.DumpLines()
}

// Inspect runs f with exclusive access to the store. f must not keep the
// store after returning.
func (l *LockedStore) Inspect(f func(s *Store)) {
	l.lock.Lock()
	defer l.lock.Unlock()

	f(l.store)
}
