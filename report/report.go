// Package report prints the state and the counters of a cache for humans
// and spreadsheets.
package report

import (
	"fmt"
	"io"

	"github.com/sarchlab/dmcache/mem/cache"
)

// printer remembers the first write error so that a report can be written
// without checking every line.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}

	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// WriteLines prints every line of a cache, one row per line.
func WriteLines(w io.Writer, lines []cache.LineDump) error {
	p := &printer{w: w}

	p.printf("------CACHE------\n")
	p.printf("[index:way] V D tag | data\n")
	p.printf("-----------------\n")

	for _, line := range lines {
		p.printf("[0x%x:%d] %d %d 0x%x |",
			line.Index, line.Way, bit(line.Valid), bit(line.Dirty), line.Tag)

		for _, b := range line.Data {
			p.printf(" 0x%02x", b)
		}

		p.printf("\n")
	}

	p.printf("-----------------\n")

	return p.err
}

func bit(b bool) int {
	if b {
		return 1
	}

	return 0
}

// WriteStatistics prints the geometry and the counters of a cache.
func WriteStatistics(
	w io.Writer,
	geometry cache.Geometry,
	stats cache.Statistics,
) error {
	p := &printer{w: w}

	p.printf("cache:       %s\n", geometry)
	p.printf("reads:       %d (hits %d, misses %d, hit rate %.2f%%)\n",
		stats.Reads, stats.ReadHits, stats.ReadMisses,
		100*stats.ReadHitRate())
	p.printf("writes:      %d (hits %d, misses %d, hit rate %.2f%%)\n",
		stats.Writes, stats.WriteHits, stats.WriteMisses,
		100*stats.WriteHitRate())
	p.printf("hit rate:    %.2f%%\n", 100*stats.HitRate())
	p.printf("evictions:   %d\n", stats.Evictions)
	p.printf("write backs: %d\n", stats.WriteBacks)

	return p.err
}
