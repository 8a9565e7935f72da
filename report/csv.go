package report

import (
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/dmcache/mem/cache"
	"github.com/tebeka/atexit"
)

type csvRow struct {
	geometry cache.Geometry
	stats    cache.Statistics
}

// CSVWriter writes one row of counters per cache configuration.
type CSVWriter struct {
	w      io.Writer
	closer io.Closer

	rows          []csvRow
	bufferSize    int
	headerWritten bool
}

// NewCSVWriter creates a CSVWriter that writes to w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{
		w:          w,
		bufferSize: 1000,
	}
}

// CreateCSVFile creates the file at path, overwriting any existing file, and
// returns a CSVWriter on it. The buffered rows are flushed and the file is
// closed when the program exits through atexit.
func CreateCSVFile(path string) (*CSVWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := NewCSVWriter(file)
	w.closer = file

	atexit.Register(func() {
		err := w.Close()
		if err != nil {
			panic(err)
		}
	})

	return w, nil
}

// Write buffers the row of a cache.
func (w *CSVWriter) Write(geometry cache.Geometry, stats cache.Statistics) error {
	w.rows = append(w.rows, csvRow{geometry: geometry, stats: stats})
	if len(w.rows) >= w.bufferSize {
		return w.Flush()
	}

	return nil
}

// Flush writes the buffered rows, preceded by the header the first time.
func (w *CSVWriter) Flush() error {
	if !w.headerWritten {
		_, err := fmt.Fprintf(w.w, "cache_bytes, block_bytes, "+
			"reads, writes, read_hits, read_misses, write_hits, write_misses\n")
		if err != nil {
			return err
		}

		w.headerWritten = true
	}

	for _, row := range w.rows {
		_, err := fmt.Fprintf(w.w, "%d, %d, %d, %d, %d, %d, %d, %d\n",
			row.geometry.CacheBytes,
			row.geometry.BlockBytes,
			row.stats.Reads,
			row.stats.Writes,
			row.stats.ReadHits,
			row.stats.ReadMisses,
			row.stats.WriteHits,
			row.stats.WriteMisses,
		)
		if err != nil {
			return err
		}
	}

	w.rows = nil

	return nil
}

// Close flushes the writer and closes the file it was created on, if any.
// Closing twice does nothing.
func (w *CSVWriter) Close() error {
	if err := w.Flush(); err != nil {
		return err
	}

	if w.closer == nil {
		return nil
	}

	closer := w.closer
	w.closer = nil

	return closer.Close()
}
