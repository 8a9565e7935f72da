package tagging

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func fullSet(numWays int) *Set {
	set := &Set{}
	for i := 0; i < numWays; i++ {
		set.Blocks = append(set.Blocks, Block{WayID: i, IsValid: true})
		set.LRUQueue = append(set.LRUQueue, i)
	}

	return set
}

var _ = Describe("LRUVictimFinder", func() {
	var finder *LRUVictimFinder

	BeforeEach(func() {
		finder = NewLRUVictimFinder()
	})

	It("should prefer an invalid block", func() {
		set := fullSet(4)
		set.LRUQueue = []int{1, 3, 0, 2}
		set.Blocks[0].IsValid = false

		Expect(finder.FindVictim(set).WayID).To(Equal(0))
	})

	It("should evict the least recently used block", func() {
		set := fullSet(4)
		set.LRUQueue = []int{2, 0, 1, 3}

		Expect(finder.FindVictim(set).WayID).To(Equal(2))
	})

	It("should always pick way 0 when direct mapped", func() {
		Expect(finder.FindVictim(fullSet(1)).WayID).To(Equal(0))
	})
})

var _ = Describe("LFUVictimFinder", func() {
	var finder *LFUVictimFinder

	BeforeEach(func() {
		finder = NewLFUVictimFinder()
	})

	It("should prefer an invalid block", func() {
		set := fullSet(4)
		set.Blocks[3].IsValid = false

		Expect(finder.FindVictim(set).WayID).To(Equal(3))
	})

	It("should evict the least frequently used block", func() {
		set := fullSet(4)
		set.Blocks[0].AccessCount = 5
		set.Blocks[1].AccessCount = 2
		set.Blocks[2].AccessCount = 9
		set.Blocks[3].AccessCount = 2

		Expect(finder.FindVictim(set).WayID).To(Equal(1))
	})
})

var _ = Describe("RandomVictimFinder", func() {
	It("should prefer an invalid block", func() {
		finder := NewRandomVictimFinder(rand.New(rand.NewSource(1)))
		set := fullSet(4)
		set.Blocks[2].IsValid = false

		Expect(finder.FindVictim(set).WayID).To(Equal(2))
	})

	It("should be reproducible with the same seed", func() {
		a := NewRandomVictimFinder(rand.New(rand.NewSource(7)))
		b := NewRandomVictimFinder(rand.New(rand.NewSource(7)))

		for i := 0; i < 16; i++ {
			wa := a.FindVictim(fullSet(8)).WayID
			wb := b.FindVictim(fullSet(8)).WayID
			Expect(wa).To(Equal(wb))
			Expect(wa).To(BeNumerically("<", 8))
		}
	})
})

var _ = Describe("NewVictimFinder", func() {
	It("should create finders by name", func() {
		f, err := NewVictimFinder("lru", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(f).To(BeAssignableToTypeOf(&LRUVictimFinder{}))

		f, err = NewVictimFinder("lfu", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(f).To(BeAssignableToTypeOf(&LFUVictimFinder{}))

		f, err = NewVictimFinder("random", rand.New(rand.NewSource(1)))
		Expect(err).NotTo(HaveOccurred())
		Expect(f).To(BeAssignableToTypeOf(&RandomVictimFinder{}))
	})

	It("should reject unknown policies", func() {
		_, err := NewVictimFinder("fifo", nil)
		Expect(err).To(MatchError(ContainSubstring("fifo")))

		_, err = NewVictimFinder("random", nil)
		Expect(err).To(HaveOccurred())
	})
})
