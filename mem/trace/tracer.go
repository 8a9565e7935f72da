// Package trace provides hooks that record what a cache does.
package trace

import (
	"log"

	"github.com/sarchlab/dmcache/datarecording"
	"github.com/sarchlab/dmcache/mem/cache"
	"github.com/sarchlab/dmcache/sim/hooking"
)

type named interface {
	Name() string
}

func domainName(ctx hooking.HookCtx) string {
	if n, ok := ctx.Domain.(named); ok {
		return n.Name()
	}

	return ""
}

func hitOrMiss(hit bool) string {
	if hit {
		return "Hit"
	}

	return "Miss"
}

// A logTracer is a hook that prints every cache event as a line of text.
type logTracer struct {
	logger *log.Logger
}

// NewLogTracer creates a hook that writes cache events to logger.
func NewLogTracer(logger *log.Logger) hooking.Hook {
	return &logTracer{logger: logger}
}

func (t *logTracer) Func(ctx hooking.HookCtx) {
	switch item := ctx.Item.(type) {
	case cache.AccessEvent:
		t.logger.Printf("%s, %s: 0x%x = %s, tag 0x%x, index 0x%x, offset 0x%x\n",
			domainName(ctx),
			item.Kind,
			item.Address,
			hitOrMiss(item.Hit),
			item.Tag,
			item.Index,
			item.Offset,
		)
	case cache.LineEvent:
		t.logger.Printf("%s, %s: block 0x%x, index 0x%x, way %d, dirty %t\n",
			domainName(ctx),
			ctx.Pos.Name,
			item.BlockAddress,
			item.Index,
			item.Way,
			item.Dirty,
		)
	case cache.FlushEvent:
		t.logger.Printf("%s, %s: %d lines written back\n",
			domainName(ctx),
			ctx.Pos.Name,
			item.WriteBacks,
		)
	}
}

// Names of the tables that the tracers create.
const (
	AccessTable     = "cache_accesses"
	LineEventTable  = "cache_line_events"
	FlushTable      = "cache_flushes"
	StatisticsTable = "cache_statistics"
)

// AccessEntry is a row of the cache_accesses table.
type AccessEntry struct {
	ID       string
	Cache    string
	Kind     string
	Address  uint64
	Tag      uint64
	SetIndex uint64
	Offset   uint64
	Hit      bool
}

// LineEventEntry is a row of the cache_line_events table.
type LineEventEntry struct {
	AccessID     string
	Cache        string
	What         string
	SetIndex     int
	Way          int
	Tag          uint64
	BlockAddress uint64
	Dirty        bool
}

// FlushEntry is a row of the cache_flushes table.
type FlushEntry struct {
	ID         string
	Cache      string
	WriteBacks int
}

// MapTables tells a reader how to decode every table the tracers write.
func MapTables(reader datarecording.DataReader) {
	reader.MapTable(AccessTable, AccessEntry{})
	reader.MapTable(LineEventTable, LineEventEntry{})
	reader.MapTable(FlushTable, FlushEntry{})
	reader.MapTable(StatisticsTable, StatisticsEntry{})
}

// A dbTracer is a hook that records cache events into a database using the
// data recorder.
type dbTracer struct {
	dataRecorder datarecording.DataRecorder
}

// NewDBTracer creates a hook that records accesses into the cache_accesses
// table, line transitions into cache_line_events and flushes into
// cache_flushes.
func NewDBTracer(dataRecorder datarecording.DataRecorder) hooking.Hook {
	t := &dbTracer{dataRecorder: dataRecorder}

	t.dataRecorder.CreateTable(AccessTable, AccessEntry{})
	t.dataRecorder.CreateTable(LineEventTable, LineEventEntry{})
	t.dataRecorder.CreateTable(FlushTable, FlushEntry{})

	return t
}

func (t *dbTracer) Func(ctx hooking.HookCtx) {
	switch item := ctx.Item.(type) {
	case cache.AccessEvent:
		t.dataRecorder.InsertData(AccessTable, AccessEntry{
			ID:       item.ID,
			Cache:    domainName(ctx),
			Kind:     item.Kind.String(),
			Address:  item.Address,
			Tag:      item.Tag,
			SetIndex: item.Index,
			Offset:   item.Offset,
			Hit:      item.Hit,
		})
	case cache.LineEvent:
		t.dataRecorder.InsertData(LineEventTable, LineEventEntry{
			AccessID:     item.AccessID,
			Cache:        domainName(ctx),
			What:         ctx.Pos.Name,
			SetIndex:     item.Index,
			Way:          item.Way,
			Tag:          item.Tag,
			BlockAddress: item.BlockAddress,
			Dirty:        item.Dirty,
		})
	case cache.FlushEvent:
		t.dataRecorder.InsertData(FlushTable, FlushEntry{
			ID:         item.ID,
			Cache:      domainName(ctx),
			WriteBacks: item.WriteBacks,
		})
	}
}
