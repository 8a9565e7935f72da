package cache

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/dmcache/mem"
	"github.com/sarchlab/dmcache/sim/hooking"
)

var _ = Describe("Builder", func() {
	It("should build the default cache", func() {
		store, err := MakeBuilder().Build("L1D")
		Expect(err).NotTo(HaveOccurred())

		Expect(store.Name()).To(Equal("L1D"))
		Expect(store.Geometry().AddressBits).To(Equal(32))
		Expect(store.Geometry().NumLines()).To(Equal(256))
		Expect(store.DumpLines()).To(HaveLen(256))
	})

	It("should fail on invalid geometry without building", func() {
		store, err := MakeBuilder().
			WithCacheByteSize(100).
			Build("Cache")

		Expect(err).To(MatchError(ErrInvalidGeometry))
		Expect(store).To(BeNil())
	})

	It("should fail on unknown replacement policies", func() {
		_, err := MakeBuilder().
			WithReplacementPolicy("mru").
			Build("Cache")

		Expect(err).To(HaveOccurred())
	})

	It("should register hooks", func() {
		hook := hooking.HookFunc(func(hooking.HookCtx) {})

		store, err := MakeBuilder().
			WithHook(hook).
			WithHook(hook).
			Build("Cache")
		Expect(err).NotTo(HaveOccurred())

		Expect(store.NumHooks()).To(Equal(2))
	})

	It("should give every line its own data", func() {
		store, err := NewStore(4, 8, 2, nil)
		Expect(err).NotTo(HaveOccurred())

		store.data[0][0] = 0xFF

		for i := 1; i < len(store.data); i++ {
			Expect(store.data[i][0]).To(BeZero())
		}
	})

	It("should use the given backing memory", func() {
		storage := mem.NewStorage(1 << 8)
		Expect(storage.Write(0x40, []byte{0x5A})).To(Succeed())

		store, err := MakeBuilder().
			WithAddressBits(8).
			WithCacheByteSize(32).
			WithBlockByteSize(4).
			WithBackingMemory(storage).
			Build("Cache")
		Expect(err).NotTo(HaveOccurred())

		data, err := store.Read(0x40)
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal(byte(0x5A)))
	})

	Context("with two ways", func() {
		var store *Store

		BeforeEach(func() {
			var err error
			store, err = MakeBuilder().
				WithAddressBits(4).
				WithCacheByteSize(8).
				WithBlockByteSize(2).
				WithWayAssociativity(2).
				WithReplacementPolicy("lru").
				Build("Cache")
			Expect(err).NotTo(HaveOccurred())
		})

		It("should keep two conflicting blocks", func() {
			_, _ = store.Read(0x00)
			_, _ = store.Read(0x04)
			_, _ = store.Read(0x00)
			_, _ = store.Read(0x04)

			stats := store.Statistics()
			Expect(stats.ReadMisses).To(Equal(uint64(2)))
			Expect(stats.ReadHits).To(Equal(uint64(2)))
		})

		It("should evict the least recently used block", func() {
			_, _ = store.Read(0x00)
			_, _ = store.Read(0x04)
			_, _ = store.Read(0x00)
			_, _ = store.Read(0x08)

			_, _ = store.Read(0x00)
			Expect(store.Statistics().ReadHits).To(Equal(uint64(2)))

			_, _ = store.Read(0x04)
			Expect(store.Statistics().ReadMisses).To(Equal(uint64(4)))
		})

		It("should dump lines by index and way", func() {
			lines := store.DumpLines()
			Expect(lines).To(HaveLen(4))
			Expect(lines[1].Index).To(Equal(0))
			Expect(lines[1].Way).To(Equal(1))
			Expect(lines[2].Index).To(Equal(1))
			Expect(lines[2].Way).To(Equal(0))
		})

		It("should write back to the right address from any way", func() {
			storage := mem.NewStorage(16)
			store, _ = MakeBuilder().
				WithAddressBits(4).
				WithCacheByteSize(8).
				WithBlockByteSize(2).
				WithWayAssociativity(2).
				WithBackingMemory(storage).
				Build("Cache")

			_, _ = store.Write(0x04, 0x44)
			_, _ = store.Write(0x0C, 0xCC)
			Expect(store.Flush()).To(Succeed())

			data, _ := storage.Read(0, 16)
			Expect(data[0x04]).To(Equal(byte(0x44)))
			Expect(data[0x0C]).To(Equal(byte(0xCC)))
		})
	})

	It("should build a random replacement cache with a source", func() {
		store, err := MakeBuilder().
			WithAddressBits(8).
			WithCacheByteSize(16).
			WithBlockByteSize(2).
			WithWayAssociativity(4).
			WithReplacementPolicy("random").
			WithRandSource(rand.New(rand.NewSource(3))).
			Build("Cache")
		Expect(err).NotTo(HaveOccurred())

		for addr := uint64(0); addr < 64; addr += 4 {
			_, err := store.Write(addr, byte(addr))
			Expect(err).NotTo(HaveOccurred())
		}

		for addr := uint64(0); addr < 64; addr += 4 {
			data, err := store.Read(addr)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal(byte(addr)))
		}
	})
})
