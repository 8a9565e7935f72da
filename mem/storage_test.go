package mem_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/dmcache/mem"
)

var _ = Describe("Storage", func() {
	It("should read and write in single unit", func() {
		storage := mem.NewStorage(4096)
		Expect(storage.Write(0, []byte{1, 2, 3, 4})).To(Succeed())

		res, err := storage.Read(0, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal([]byte{1, 2}))

		res, _ = storage.Read(1, 2)
		Expect(res).To(Equal([]byte{2, 3}))
	})

	It("should read and write across units", func() {
		storage := mem.NewStorage(8192)
		Expect(storage.Write(4094, []byte{1, 2, 3, 4})).To(Succeed())

		res, err := storage.Read(4094, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal([]byte{1, 2, 3, 4}))
		Expect(storage.NumAllocatedUnits()).To(Equal(2))
	})

	It("should read zeros from untouched bytes", func() {
		storage := mem.NewStorage(16)

		res, err := storage.Read(8, 8)
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal(make([]byte, 8)))
	})

	It("should return error if accessing over the capacity", func() {
		storage := mem.NewStorage(4096)

		err := storage.Write(4097, []byte{1})
		Expect(err).To(MatchError(mem.ErrBeyondCapacity))

		_, err = storage.Read(4097, 1)
		Expect(err).To(MatchError(mem.ErrBeyondCapacity))
	})

	It("should reject a write that straddles the end without writing", func() {
		storage := mem.NewStorage(16)

		err := storage.Write(14, []byte{1, 2, 3})
		Expect(err).To(MatchError(mem.ErrBeyondCapacity))

		res, _ := storage.Read(14, 2)
		Expect(res).To(Equal([]byte{0, 0}))
	})

	It("should serve blocks", func() {
		storage := mem.NewStorageWithUnitSize(16, 4)
		Expect(storage.WriteBlock(6, []byte{0xAA, 0xBB})).To(Succeed())

		block, err := storage.ReadBlock(6, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(block).To(Equal([]byte{0xAA, 0xBB}))

		_, err = storage.ReadBlock(0, -1)
		Expect(err).To(HaveOccurred())
	})

	It("should return copies on read", func() {
		storage := mem.NewStorage(8)
		Expect(storage.Write(0, []byte{9})).To(Succeed())

		res, _ := storage.Read(0, 1)
		res[0] = 7

		again, _ := storage.Read(0, 1)
		Expect(again).To(Equal([]byte{9}))
	})
})

var _ = Describe("Initializer", func() {
	It("should fill the address pattern", func() {
		storage := mem.NewStorageWithUnitSize(300, 64)
		Expect(mem.PatternInitializer{}.Initialize(storage)).To(Succeed())

		res, _ := storage.Read(254, 4)
		Expect(res).To(Equal([]byte{254, 255, 0, 1}))

		last, _ := storage.Read(299, 1)
		Expect(last).To(Equal([]byte{byte(299 % 256)}))
	})

	It("should fill reproducible random bytes", func() {
		a := mem.NewStorage(16)
		b := mem.NewStorage(16)

		Expect(mem.RandomInitializer{Rand: rand.New(rand.NewSource(1))}.
			Initialize(a)).To(Succeed())
		Expect(mem.RandomInitializer{Rand: rand.New(rand.NewSource(1))}.
			Initialize(b)).To(Succeed())

		ra, _ := a.Read(0, 16)
		rb, _ := b.Read(0, 16)
		Expect(ra).To(Equal(rb))
	})

	It("should require a random source", func() {
		err := mem.RandomInitializer{}.Initialize(mem.NewStorage(4))
		Expect(err).To(HaveOccurred())
	})

	It("should select initializers by name", func() {
		i, err := mem.InitializerByName("pattern", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(i).To(Equal(mem.PatternInitializer{}))

		i, err = mem.InitializerByName("", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(i).To(Equal(mem.ZeroInitializer{}))

		_, err = mem.InitializerByName("bogus", nil)
		Expect(err).To(HaveOccurred())
	})
})
