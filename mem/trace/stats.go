package trace

import (
	"github.com/sarchlab/dmcache/datarecording"
	"github.com/sarchlab/dmcache/mem/cache"
)

// StatisticsEntry is a row of the cache_statistics table.
type StatisticsEntry struct {
	Cache         string
	AddressBits   int
	CacheBytes    uint64
	BlockBytes    uint64
	Associativity int
	Reads         uint64
	Writes        uint64
	ReadHits      uint64
	ReadMisses    uint64
	WriteHits     uint64
	WriteMisses   uint64
	Evictions     uint64
	WriteBacks    uint64
	HitRate       float64
}

// A StatsRecorder stores the final counters of caches, one row per cache.
type StatsRecorder struct {
	dataRecorder datarecording.DataRecorder
}

// NewStatsRecorder creates the cache_statistics table and returns a recorder
// that fills it.
func NewStatsRecorder(dataRecorder datarecording.DataRecorder) *StatsRecorder {
	dataRecorder.CreateTable(StatisticsTable, StatisticsEntry{})

	return &StatsRecorder{dataRecorder: dataRecorder}
}

// Record adds one row for a cache.
func (r *StatsRecorder) Record(
	name string,
	geometry cache.Geometry,
	stats cache.Statistics,
) {
	r.dataRecorder.InsertData(StatisticsTable, StatisticsEntry{
		Cache:         name,
		AddressBits:   geometry.AddressBits,
		CacheBytes:    geometry.CacheBytes,
		BlockBytes:    geometry.BlockBytes,
		Associativity: geometry.Associativity,
		Reads:         stats.Reads,
		Writes:        stats.Writes,
		ReadHits:      stats.ReadHits,
		ReadMisses:    stats.ReadMisses,
		WriteHits:     stats.WriteHits,
		WriteMisses:   stats.WriteMisses,
		Evictions:     stats.Evictions,
		WriteBacks:    stats.WriteBacks,
		HitRate:       stats.HitRate(),
	})
}
