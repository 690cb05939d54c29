package asm_test

import (
	"math/rand"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/canxin121/riscv-fuzz-test/asm"
)

func TestAsm(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Asm Suite")
}

const sampleSource = `_start:
    la t0, exception_handler
    csrw mtvec, t0

_user_code:
    addi x1, x0, 10
    # a full-line comment
    add x2, x1, x1  # inline comment

    sh3add x3, x1, x2

_dump_regs:
    DUMP_ALL_REGS
`

var _ = Describe("ExtractUserCode", func() {
	It("returns the instructions between the label and the next label", func() {
		Expect(asm.ExtractUserCode(sampleSource)).To(Equal([]string{
			"addi x1, x0, 10",
			"add x2, x1, x1",
			"sh3add x3, x1, x2",
		}))
	})

	It("returns nothing when the label is absent", func() {
		Expect(asm.ExtractUserCode("_start:\n    nop\n")).To(BeEmpty())
	})
})

var _ = Describe("ReplaceUserCode", func() {
	It("swaps only the user-code body", func() {
		out := asm.ReplaceUserCode(sampleSource, []string{"addi x5, x0, 1"})

		Expect(out).To(ContainSubstring("_start:"))
		Expect(out).To(ContainSubstring("_user_code:"))
		Expect(out).To(ContainSubstring("    addi x5, x0, 1\n"))
		Expect(out).To(ContainSubstring("_dump_regs:"))
		Expect(out).NotTo(ContainSubstring("sh3add"))
		Expect(asm.ExtractUserCode(out)).To(Equal([]string{"addi x5, x0, 1"}))
	})
})

var _ = Describe("RemoveInstructions", func() {
	It("drops every line containing a removed instruction", func() {
		out := asm.RemoveInstructions(sampleSource, []string{"sh3add x3, x1, x2"})

		Expect(out).NotTo(ContainSubstring("sh3add"))
		Expect(asm.ExtractUserCode(out)).To(Equal([]string{
			"addi x1, x0, 10",
			"add x2, x1, x1",
		}))
	})

	It("returns the source unchanged for an empty removal set", func() {
		Expect(asm.RemoveInstructions(sampleSource, nil)).To(Equal(sampleSource))
	})
})

var _ = Describe("Program", func() {
	It("wraps user code in the dump scaffold", func() {
		program := asm.StandardProgram("    addi x1, x0, 10")

		Expect(program).To(ContainSubstring("_start:"))
		Expect(program).To(ContainSubstring("_user_code:"))
		Expect(program).To(ContainSubstring("    addi x1, x0, 10"))
		Expect(program).To(ContainSubstring("exception_handler"))
		Expect(program).To(ContainSubstring("DUMP_ALL_REGS"))
		Expect(program).To(ContainSubstring("register_dump_buffer"))
		Expect(program).To(ContainSubstring(".tohost"))
		Expect(program).To(ContainSubstring("0xFEEDC0DE1000"))
	})

	It("omits the dumps the config disables", func() {
		program := asm.MinimalProgram("    nop")

		Expect(program).To(ContainSubstring("_user_code:"))
		Expect(program).NotTo(ContainSubstring("_dump_regs:"))
	})

	It("round-trips generated user code through extraction", func() {
		instructions := []string{"addi x1, x0, 10", "add x2, x1, x1"}
		program := asm.StandardProgram(asm.FormatUserCode(instructions))

		Expect(asm.ExtractUserCode(program)).To(Equal(instructions))
	})
})

var _ = Describe("Generator", func() {
	It("produces the planned number of instructions per extension", func() {
		rng := rand.New(rand.NewSource(1))
		instructions := asm.NewGenerator().
			With(asm.ExtI, 5).
			With(asm.ExtM, 3).
			Generate(rng)

		Expect(instructions).To(HaveLen(8))
	})

	It("is deterministic for a fixed seed", func() {
		gen := func() []string {
			return asm.NewGenerator().
				Order(asm.RandomShuffle).
				With(asm.ExtI, 10).
				With(asm.ExtZbb, 5).
				Generate(rand.New(rand.NewSource(42)))
		}

		Expect(gen()).To(Equal(gen()))
	})

	It("never emits control-flow instructions", func() {
		rng := rand.New(rand.NewSource(7))
		instructions := asm.NewGenerator().
			With(asm.ExtI, 200).
			With(asm.ExtM, 50).
			Generate(rng)

		for _, inst := range instructions {
			mnemonic := strings.Fields(inst)[0]
			Expect(mnemonic).NotTo(HavePrefix("b"), inst)
			Expect(mnemonic).NotTo(HavePrefix("j"), inst)
			Expect(mnemonic).NotTo(Equal("ecall"), inst)
			Expect(mnemonic).NotTo(Equal("ebreak"), inst)
		}
	})

	It("renders operands the minimizer can read back", func() {
		rng := rand.New(rand.NewSource(3))
		instructions := asm.NewGenerator().
			With(asm.ExtD, 20).
			Generate(rng)

		for _, inst := range instructions {
			Expect(inst).To(MatchRegexp(`[xf]\d+`), inst)
		}
	})

	It("records extensions in insertion order", func() {
		gen := asm.NewGenerator().
			With(asm.ExtZbs, 1).
			With(asm.ExtI, 1).
			With(asm.ExtZbs, 1)

		Expect(gen.Extensions()).To(Equal([]asm.Extension{asm.ExtZbs, asm.ExtI}))
	})
})

var _ = Describe("March", func() {
	It("builds the canonical string with sorted multi-letter extensions", func() {
		march := asm.March([]asm.Extension{
			asm.ExtI, asm.ExtM, asm.ExtF, asm.ExtZba, asm.ExtZbb, asm.ExtZbs, asm.ExtD,
		})

		Expect(march).To(Equal("rv64imfd_zba_zbb_zbs_zfa"))
	})

	It("adds implied extensions", func() {
		Expect(asm.March([]asm.Extension{asm.ExtD})).To(Equal("rv64ifd_zfa"))
		Expect(asm.March([]asm.Extension{asm.ExtM})).To(Equal("rv64im"))
	})

	It("falls back to the base ISA for an empty set", func() {
		Expect(asm.March(nil)).To(Equal("rv64i"))
	})
})
