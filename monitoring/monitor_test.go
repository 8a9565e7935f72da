package monitoring

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/gorilla/mux"
	"github.com/sarchlab/dmcache/mem/cache"
)

var _ = Describe("Monitor", func() {
	var (
		store  *cache.LockedStore
		m      *Monitor
		router *mux.Router
	)

	serve := func(method, path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(method, path, nil))

		return rec
	}

	decode := func(rec *httptest.ResponseRecorder, v any) {
		Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())
		Expect(json.Unmarshal(rec.Body.Bytes(), v)).To(Succeed())
	}

	BeforeEach(func() {
		s, err := cache.NewStore(4, 8, 2, nil)
		Expect(err).NotTo(HaveOccurred())

		store = cache.NewLockedStore(s)
		m = NewMonitor(store)
		m.profileDuration = 10 * time.Millisecond
		router = m.Router()
	})

	It("should report the geometry", func() {
		var rsp geometryRsp
		decode(serve(http.MethodGet, "/api/geometry"), &rsp)

		Expect(rsp).To(Equal(geometryRsp{
			Name:          "Cache",
			AddressBits:   4,
			CacheBytes:    8,
			BlockBytes:    2,
			Associativity: 1,
			NumSets:       4,
			OffsetBits:    1,
			IndexBits:     2,
			TagBits:       1,
		}))
	})

	It("should write and read through the cache", func() {
		var written accessRsp
		decode(serve(http.MethodPost, "/api/write/0x3/0x1"), &written)
		Expect(written).To(Equal(accessRsp{Address: 3, Value: 1}))

		var read accessRsp
		decode(serve(http.MethodPost, "/api/read/3"), &read)
		Expect(read).To(Equal(accessRsp{Address: 3, Value: 1}))

		var stats statsRsp
		decode(serve(http.MethodGet, "/api/stats"), &stats)
		Expect(stats.Writes).To(Equal(uint64(1)))
		Expect(stats.WriteMisses).To(Equal(uint64(1)))
		Expect(stats.ReadHits).To(Equal(uint64(1)))
		Expect(stats.HitRate).To(BeNumerically("~", 0.5))
	})

	It("should only accept writes as POST", func() {
		rec := serve(http.MethodGet, "/api/write/0x3/0x1")

		Expect(rec.Code).To(Equal(http.StatusMethodNotAllowed))
	})

	It("should only accept reads as POST", func() {
		rec := serve(http.MethodGet, "/api/read/0x3")

		Expect(rec.Code).To(Equal(http.StatusMethodNotAllowed))
		Expect(store.Statistics().Reads).To(BeZero())
	})

	It("should reject out of range addresses", func() {
		rec := serve(http.MethodPost, "/api/read/0x10")

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(store.Statistics().Reads).To(BeZero())
	})

	It("should reject malformed numbers", func() {
		Expect(serve(http.MethodPost, "/api/read/abc").Code).
			To(Equal(http.StatusBadRequest))
		Expect(serve(http.MethodPost, "/api/write/0x1/0x100").Code).
			To(Equal(http.StatusBadRequest))
		Expect(serve(http.MethodGet, "/api/lines/x").Code).
			To(Equal(http.StatusBadRequest))
	})

	It("should list the lines", func() {
		serve(http.MethodPost, "/api/write/0x3/0xab")

		var lines []lineRsp
		decode(serve(http.MethodGet, "/api/lines"), &lines)
		Expect(lines).To(HaveLen(4))
		Expect(lines[1]).To(Equal(lineRsp{
			Index: 1,
			Valid: true,
			Dirty: true,
			Data:  "00ab",
		}))

		var set []lineRsp
		decode(serve(http.MethodGet, "/api/lines/1"), &set)
		Expect(set).To(Equal(lines[1:2]))

		Expect(serve(http.MethodGet, "/api/lines/4").Code).
			To(Equal(http.StatusNotFound))
	})

	It("should flush", func() {
		serve(http.MethodPost, "/api/write/0x3/0xab")

		var stats statsRsp
		decode(serve(http.MethodPost, "/api/flush"), &stats)
		Expect(stats.WriteBacks).To(Equal(uint64(1)))

		for _, line := range store.DumpLines() {
			Expect(line.Valid).To(BeFalse())
		}
	})

	It("should serialize the cache", func() {
		rec := serve(http.MethodGet, "/api/component")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.Len()).NotTo(BeZero())
	})

	It("should list progress bars", func() {
		bar := m.CreateProgressBar("workload", 10)
		bar.IncrementFinished(3)
		other := m.CreateProgressBar("other", 1)
		m.CompleteProgressBar(other)

		var bars []progressRsp
		decode(serve(http.MethodGet, "/api/progress"), &bars)

		Expect(bars).To(HaveLen(1))
		Expect(bars[0].Name).To(Equal("workload"))
		Expect(bars[0].Total).To(Equal(uint64(10)))
		Expect(bars[0].Finished).To(Equal(uint64(3)))
	})

	It("should report resources", func() {
		var rsp resourceRsp
		decode(serve(http.MethodGet, "/api/resource"), &rsp)

		Expect(rsp.MemorySize).NotTo(BeZero())
	})

	It("should collect a profile", func() {
		rec := serve(http.MethodGet, "/api/profile")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(json.Valid(rec.Body.Bytes())).To(BeTrue())
	})

	It("should serve over TCP", func() {
		url, err := m.StartServer()
		Expect(err).NotTo(HaveOccurred())

		rsp, err := http.Get(url + "/api/geometry")
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		body, err := io.ReadAll(rsp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(body)).To(ContainSubstring(`"tag_bits":1`))
	})

	It("should replace privileged ports by a random port", func() {
		Expect(m.WithPortNumber(80).portNumber).To(BeZero())
		Expect(m.WithPortNumber(1023).portNumber).To(BeZero())
		Expect(m.WithPortNumber(1024).portNumber).To(Equal(1024))
	})

	It("should listen on the requested port", func() {
		listener, err := net.Listen("tcp", ":0")
		Expect(err).NotTo(HaveOccurred())
		port := listener.Addr().(*net.TCPAddr).Port
		Expect(listener.Close()).To(Succeed())
		Expect(port).To(BeNumerically(">=", minPortNumber))

		url, err := m.WithPortNumber(port).StartServer()
		Expect(err).NotTo(HaveOccurred())
		Expect(url).To(Equal(fmt.Sprintf("http://localhost:%d", port)))
	})
})
