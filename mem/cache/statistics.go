package cache

// Statistics counts what a cache has done since it was built.
type Statistics struct {
	Reads       uint64
	ReadHits    uint64
	ReadMisses  uint64
	Writes      uint64
	WriteHits   uint64
	WriteMisses uint64
	Evictions   uint64
	WriteBacks  uint64
}

// Accesses returns the number of reads and writes.
func (s Statistics) Accesses() uint64 {
	return s.Reads + s.Writes
}

// Hits returns the number of read and write hits.
func (s Statistics) Hits() uint64 {
	return s.ReadHits + s.WriteHits
}

// Misses returns the number of read and write misses.
func (s Statistics) Misses() uint64 {
	return s.ReadMisses + s.WriteMisses
}

// HitRate returns the fraction of accesses that hit, or 0 before any access.
func (s Statistics) HitRate() float64 {
	return ratio(s.Hits(), s.Accesses())
}

// ReadHitRate returns the fraction of reads that hit.
func (s Statistics) ReadHitRate() float64 {
	return ratio(s.ReadHits, s.Reads)
}

// WriteHitRate returns the fraction of writes that hit.
func (s Statistics) WriteHitRate() float64 {
	return ratio(s.WriteHits, s.Writes)
}

func ratio(a, b uint64) float64 {
	if b == 0 {
		return 0
	}

	return float64(a) / float64(b)
}
