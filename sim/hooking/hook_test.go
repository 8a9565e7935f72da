package hooking

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("HookableBase", func() {
	var (
		mockCtrl *gomock.Controller
		hookable *HookableBase
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		hookable = &HookableBase{}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should invoke hooks in registration order", func() {
		pos := &HookPos{Name: "Test"}
		ctx := HookCtx{Domain: hookable, Pos: pos, Item: 1}

		first := NewMockHook(mockCtrl)
		second := NewMockHook(mockCtrl)
		hookable.AcceptHook(first)
		hookable.AcceptHook(second)

		gomock.InOrder(
			first.EXPECT().Func(ctx),
			second.EXPECT().Func(ctx),
		)

		hookable.InvokeHook(ctx)

		Expect(hookable.NumHooks()).To(Equal(2))
		Expect(hookable.Hooks()).To(HaveLen(2))
	})

	It("should panic when the same hook is registered twice", func() {
		hook := NewMockHook(mockCtrl)
		hookable.AcceptHook(hook)

		Expect(func() { hookable.AcceptHook(hook) }).To(Panic())
	})

	It("should adapt functions", func() {
		var got []any
		hookable.AcceptHook(HookFunc(func(ctx HookCtx) {
			got = append(got, ctx.Item)
		}))

		hookable.InvokeHook(HookCtx{Item: "a"})
		hookable.InvokeHook(HookCtx{Item: "b"})

		Expect(got).To(Equal([]any{"a", "b"}))
	})

	It("should do nothing without hooks", func() {
		Expect(func() { hookable.InvokeHook(HookCtx{}) }).NotTo(Panic())
	})
})
