// Package monitoring serves the state of a running cache over HTTP.
package monitoring

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/sarchlab/dmcache/mem/cache"
	"github.com/sarchlab/dmcache/sim"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// Monitor turns a cache into a server that can be inspected and driven from
// outside.
type Monitor struct {
	cache           *cache.LockedStore
	portNumber      int
	profileDuration time.Duration

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor of the given cache.
func NewMonitor(c *cache.LockedStore) *Monitor {
	return &Monitor{
		cache:           c,
		profileDuration: time.Second,
	}
}

// minPortNumber is the lowest port the monitor may listen on. Lower ports
// are privileged.
const minPortNumber = 1024

// WithPortNumber sets the port number of the monitor. Privileged ports are
// replaced by a random port.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < minPortNumber {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        sim.GetIDGenerator().Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the progress list.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Router returns the handler that serves the monitoring API.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/geometry", m.geometry)
	r.HandleFunc("/api/stats", m.stats)
	r.HandleFunc("/api/lines", m.lines)
	r.HandleFunc("/api/lines/{set}", m.linesOfSet)
	r.HandleFunc("/api/read/{address}", m.read).Methods(http.MethodPost)
	r.HandleFunc("/api/write/{address}/{value}", m.write).
		Methods(http.MethodPost)
	r.HandleFunc("/api/flush", m.flush).Methods(http.MethodPost)
	r.HandleFunc("/api/component", m.component)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	return r
}

// StartServer starts the monitor as a web server in the background and
// returns its URL.
func (m *Monitor) StartServer() (string, error) {
	actualPort := ":0"
	if m.portNumber >= minPortNumber {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Monitoring cache with %s\n", url)

	go func() {
		err := http.Serve(listener, m.Router())
		dieOnErr(err)
	}()

	return url, nil
}

type geometryRsp struct {
	Name          string `json:"name"`
	AddressBits   int    `json:"address_bits"`
	CacheBytes    uint64 `json:"cache_bytes"`
	BlockBytes    uint64 `json:"block_bytes"`
	Associativity int    `json:"associativity"`
	NumSets       uint64 `json:"num_sets"`
	OffsetBits    int    `json:"offset_bits"`
	IndexBits     int    `json:"index_bits"`
	TagBits       int    `json:"tag_bits"`
}

func (m *Monitor) geometry(w http.ResponseWriter, _ *http.Request) {
	g := m.cache.Geometry()

	writeJSON(w, geometryRsp{
		Name:          m.cache.Name(),
		AddressBits:   g.AddressBits,
		CacheBytes:    g.CacheBytes,
		BlockBytes:    g.BlockBytes,
		Associativity: g.Associativity,
		NumSets:       g.NumSets(),
		OffsetBits:    g.OffsetBits,
		IndexBits:     g.IndexBits,
		TagBits:       g.TagBits,
	})
}

type statsRsp struct {
	Reads       uint64  `json:"reads"`
	ReadHits    uint64  `json:"read_hits"`
	ReadMisses  uint64  `json:"read_misses"`
	Writes      uint64  `json:"writes"`
	WriteHits   uint64  `json:"write_hits"`
	WriteMisses uint64  `json:"write_misses"`
	Evictions   uint64  `json:"evictions"`
	WriteBacks  uint64  `json:"write_backs"`
	HitRate     float64 `json:"hit_rate"`
}

func (m *Monitor) stats(w http.ResponseWriter, _ *http.Request) {
	s := m.cache.Statistics()

	writeJSON(w, statsRsp{
		Reads:       s.Reads,
		ReadHits:    s.ReadHits,
		ReadMisses:  s.ReadMisses,
		Writes:      s.Writes,
		WriteHits:   s.WriteHits,
		WriteMisses: s.WriteMisses,
		Evictions:   s.Evictions,
		WriteBacks:  s.WriteBacks,
		HitRate:     s.HitRate(),
	})
}

type lineRsp struct {
	Index int    `json:"index"`
	Way   int    `json:"way"`
	Valid bool   `json:"valid"`
	Dirty bool   `json:"dirty"`
	Tag   uint64 `json:"tag"`
	Data  string `json:"data"`
}

func toLineRsp(dumps []cache.LineDump) []lineRsp {
	rsp := make([]lineRsp, 0, len(dumps))
	for _, d := range dumps {
		rsp = append(rsp, lineRsp{
			Index: d.Index,
			Way:   d.Way,
			Valid: d.Valid,
			Dirty: d.Dirty,
			Tag:   d.Tag,
			Data:  hex.EncodeToString(d.Data),
		})
	}

	return rsp
}

func (m *Monitor) lines(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, toLineRsp(m.cache.DumpLines()))
}

func (m *Monitor) linesOfSet(w http.ResponseWriter, r *http.Request) {
	set, err := strconv.ParseUint(mux.Vars(r)["set"], 0, 64)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if set >= m.cache.Geometry().NumSets() {
		http.Error(w, fmt.Sprintf("set %d not found", set),
			http.StatusNotFound)
		return
	}

	var selected []cache.LineDump

	for _, d := range m.cache.DumpLines() {
		if uint64(d.Index) == set {
			selected = append(selected, d)
		}
	}

	writeJSON(w, toLineRsp(selected))
}

type accessRsp struct {
	Address uint64 `json:"address"`
	Value   byte   `json:"value"`
}

func (m *Monitor) read(w http.ResponseWriter, r *http.Request) {
	address, err := strconv.ParseUint(mux.Vars(r)["address"], 0, 64)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	value, err := m.cache.Read(address)
	if err != nil {
		writeAccessError(w, err)
		return
	}

	writeJSON(w, accessRsp{Address: address, Value: value})
}

func (m *Monitor) write(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	address, err := strconv.ParseUint(vars["address"], 0, 64)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	value, err := strconv.ParseUint(vars["value"], 0, 8)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	stored, err := m.cache.Write(address, byte(value))
	if err != nil {
		writeAccessError(w, err)
		return
	}

	writeJSON(w, accessRsp{Address: address, Value: stored})
}

func writeAccessError(w http.ResponseWriter, err error) {
	if errors.Is(err, cache.ErrAddressOutOfRange) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func (m *Monitor) flush(w http.ResponseWriter, _ *http.Request) {
	if err := m.cache.Flush(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	m.stats(w, nil)
}

func (m *Monitor) component(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	var err error

	m.cache.Inspect(func(s *cache.Store) {
		serializer := goseth.NewSerializer()
		serializer.SetRoot(s)
		serializer.SetMaxDepth(1)
		err = serializer.Serialize(buf)
	})
	dieOnErr(err)

	_, err = w.Write(buf.Bytes())
	dieOnErr(err)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	rsp := make([]progressRsp, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		rsp = append(rsp, b.snapshot())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, rsp)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(m.profileDuration)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
