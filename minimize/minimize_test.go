package minimize_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/canxin121/riscv-fuzz-test/minimize"
)

func TestMinimize(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Minimize Suite")
}

var _ = Describe("ForRegisters", func() {
	It("keeps only the chain feeding the target register", func() {
		instructions := []string{
			"addi x1, x0, 10",
			"addi x2, x0, 20",
			"add x3, x1, x2",
			"addi x4, x0, 99",
			"add x5, x3, x1",
		}

		kept := minimize.ForRegisters(instructions, []string{"x5"})

		Expect(kept).To(Equal([]string{
			"addi x1, x0, 10",
			"addi x2, x0, 20",
			"add x3, x1, x2",
			"add x5, x3, x1",
		}))
	})

	It("follows memory operands into base registers", func() {
		instructions := []string{
			"addi x6, x0, 256",
			"ld x7, 8(x6)",
			"addi x8, x0, 1",
		}

		kept := minimize.ForRegisters(instructions, []string{"x7"})

		Expect(kept).To(Equal([]string{
			"addi x6, x0, 256",
			"ld x7, 8(x6)",
		}))
	})

	It("carries float targets across int/float boundaries", func() {
		instructions := []string{
			"addi x9, x0, 3",
			"fcvt.d.w f1, x9",
			"fadd.d f2, f1, f1",
			"fadd.d f3, f0, f0",
		}

		kept := minimize.ForRegisters(instructions, []string{"f2"})

		Expect(kept).To(Equal([]string{
			"addi x9, x0, 3",
			"fcvt.d.w f1, x9",
			"fadd.d f2, f1, f1",
		}))
	})

	It("is a fixed point on its own output", func() {
		instructions := []string{
			"addi x1, x0, 1",
			"addi x2, x0, 2",
			"add x3, x1, x2",
			"addi x4, x0, 9",
		}
		targets := []string{"x3"}

		once := minimize.ForRegisters(instructions, targets)
		twice := minimize.ForRegisters(once, targets)

		Expect(once).To(Equal([]string{
			"addi x1, x0, 1",
			"addi x2, x0, 2",
			"add x3, x1, x2",
		}))
		Expect(twice).To(Equal(once))
	})

	It("returns nil for an empty sequence or empty target set", func() {
		Expect(minimize.ForRegisters(nil, []string{"x1"})).To(BeNil())
		Expect(minimize.ForRegisters([]string{"addi x1, x0, 1"}, nil)).To(BeNil())
	})

	It("returns nil when nothing touches the targets", func() {
		kept := minimize.ForRegisters([]string{"addi x1, x0, 1"}, []string{"x2"})
		Expect(kept).To(BeNil())
	})
})

var _ = Describe("RegistersIn", func() {
	It("extracts registers from operands, memory forms, and labels", func() {
		Expect(minimize.RegistersIn("add x3, x1, x2")).To(
			Equal([]string{"x3", "x1", "x2"}))
		Expect(minimize.RegistersIn("sd x5, -16(x2)")).To(
			Equal([]string{"x5", "x2"}))
		Expect(minimize.RegistersIn("fmadd.d f1, f2, f3, f4")).To(
			Equal([]string{"f1", "f2", "f3", "f4"}))
	})

	It("rejects tokens that merely resemble registers", func() {
		Expect(minimize.RegistersIn("fence")).To(BeEmpty())
		Expect(minimize.RegistersIn("addi x32, x0, 1")).To(Equal([]string{"x0"}))
		Expect(minimize.RegistersIn("li t0, 42")).To(BeEmpty())
	})
})
