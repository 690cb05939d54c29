package diff_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/canxin121/riscv-fuzz-test/diff"
	"github.com/canxin121/riscv-fuzz-test/htif"
	"github.com/canxin121/riscv-fuzz-test/sim"
)

func TestDiff(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Diff Suite")
}

func baselineDump() *htif.RegistersDump {
	d := &htif.RegistersDump{Kind: htif.DumpIntOnly}
	for i := 0; i < 32; i++ {
		d.IntRegisters[i] = uint64(i) * 0x10
	}
	d.CoreCSRs = htif.CoreCSRs{
		Mstatus: 0x8000000000001800,
		Misa:    0x800000000014112D,
		Mtvec:   0x80000004,
		Mepc:    0x80000100,
		Mhartid: 0,
	}
	return d
}

func withFloats(d *htif.RegistersDump) *htif.RegistersDump {
	d.Kind = htif.DumpIntAndFloat
	var floats [32]uint64
	for i := range floats {
		floats[i] = 0x3FF0000000000000 + uint64(i)
	}
	fcsr := uint64(0x20)
	d.FloatRegisters = &floats
	d.FloatCSR = &fcsr
	return d
}

func exception(mepc, mcause uint64) htif.ExceptionDump {
	return htif.ExceptionDump{
		CSRs: htif.ExceptionCSRs{
			Mstatus: 0x8000000000001800,
			Mcause:  mcause,
			Mepc:    mepc,
			Mtvec:   0x80000004,
		},
	}
}

var _ = Describe("CompareRegisters", func() {
	It("finds no difference between identical dumps", func() {
		a := withFloats(baselineDump())
		b := withFloats(baselineDump())

		d := diff.CompareRegisters(a, b, sim.Spike, sim.Rocket)

		Expect(d.IsEmpty()).To(BeTrue())
		Expect(d.HasRegisterDifferences()).To(BeFalse())
	})

	It("reports differing integer registers with their ABI names", func() {
		a := baselineDump()
		b := baselineDump()
		b.IntRegisters[5] = 0xDEAD
		b.IntRegisters[10] = 0xBEEF

		d := diff.CompareRegisters(a, b, sim.Spike, sim.Rocket)

		Expect(d.IntRegisters).To(HaveLen(2))
		Expect(d.IntRegisters[0].Index).To(Equal(5))
		Expect(d.IntRegisters[0].Name).To(Equal("t0"))
		Expect(d.IntRegisters[0].A).To(Equal(uint64(0x50)))
		Expect(d.IntRegisters[0].B).To(Equal(uint64(0xDEAD)))
		Expect(d.IntRegisters[1].Name).To(Equal("a0"))
		Expect(d.HasRegisterDifferences()).To(BeTrue())
	})

	It("reports differing core CSR fields by name", func() {
		a := baselineDump()
		b := baselineDump()
		b.CoreCSRs.Mcycle = 12345

		d := diff.CompareRegisters(a, b, sim.Spike, sim.Rocket)

		Expect(d.CoreCSRs).To(HaveLen(1))
		Expect(d.CoreCSRs[0].Name).To(Equal("mcycle"))
		Expect(d.CoreCSRs[0].B).To(Equal(uint64(12345)))
		Expect(d.HasRegisterDifferences()).To(BeFalse())
	})

	It("compares float registers and fcsr when both sides carry them", func() {
		a := withFloats(baselineDump())
		b := withFloats(baselineDump())
		b.FloatRegisters[3] = 0x4000000000000000
		*b.FloatCSR = 0x1

		d := diff.CompareRegisters(a, b, sim.Spike, sim.Rocket)

		Expect(d.FloatRegs).To(HaveLen(1))
		Expect(d.FloatRegs[0].Index).To(Equal(3))
		Expect(d.Fcsr).NotTo(BeNil())
		Expect(d.Fcsr.Name).To(Equal("fcsr"))
		Expect(d.FloatPresence).To(BeNil())
	})

	It("records a presence mismatch when only one side has float state", func() {
		a := withFloats(baselineDump())
		b := baselineDump()

		d := diff.CompareRegisters(a, b, sim.Spike, sim.Rocket)

		Expect(d.FloatPresence).NotTo(BeNil())
		Expect(d.FloatPresence.A).To(BeTrue())
		Expect(d.FloatPresence.B).To(BeFalse())
		Expect(d.FcsrPresence).NotTo(BeNil())
		Expect(d.FloatRegs).To(BeEmpty())
		Expect(d.IsEmpty()).To(BeFalse())
	})

	It("reports the same differences with values swapped when sides swap", func() {
		a := withFloats(baselineDump())
		b := withFloats(baselineDump())
		b.IntRegisters[9] = 0x999

		ab := diff.CompareRegisters(a, b, sim.Spike, sim.Rocket)
		ba := diff.CompareRegisters(b, a, sim.Rocket, sim.Spike)

		Expect(ba.IntRegisters).To(HaveLen(len(ab.IntRegisters)))
		Expect(ba.IntRegisters[0].Index).To(Equal(ab.IntRegisters[0].Index))
		Expect(ba.IntRegisters[0].A).To(Equal(ab.IntRegisters[0].B))
		Expect(ba.IntRegisters[0].B).To(Equal(ab.IntRegisters[0].A))
	})

	It("names differing registers in the numeric form", func() {
		a := withFloats(baselineDump())
		b := withFloats(baselineDump())
		b.IntRegisters[7] = 1
		b.FloatRegisters[2] = 1

		d := diff.CompareRegisters(a, b, sim.Spike, sim.Rocket)

		Expect(d.DifferingRegisterNames()).To(Equal([]string{"x7", "f2"}))
	})
})

var _ = Describe("CompareExceptions", func() {
	It("pairs identical lists with no differences", func() {
		listA := []htif.ExceptionDump{exception(0x80000100, 2), exception(0x80000200, 5)}
		listB := []htif.ExceptionDump{exception(0x80000100, 2), exception(0x80000200, 5)}

		d := diff.CompareExceptions(listA, listB, sim.Spike, sim.Rocket)

		Expect(d.IsEmpty()).To(BeTrue())
		Expect(d.Paired).To(HaveLen(2))
		Expect(d.Paired[0].Differences).To(BeEmpty())
		Expect(d.OnlyInA).To(BeEmpty())
		Expect(d.OnlyInB).To(BeEmpty())
		Expect(d.Categorized).To(BeEmpty())
	})

	It("classifies an unmatched exception as only-in-simulator", func() {
		listA := []htif.ExceptionDump{exception(0x80000100, 2)}

		d := diff.CompareExceptions(listA, nil, sim.Spike, sim.Rocket)

		Expect(d.OnlyInA).To(HaveLen(1))
		Expect(d.Categorized).To(HaveLen(1))
		Expect(d.Categorized[0].Category.Kind).To(Equal(diff.OnlyInSimulator))
		Expect(d.Categorized[0].Category.Which).To(Equal(sim.Spike))
		Expect(d.Categorized[0].Category.Mcause).To(Equal(uint64(2)))
		Expect(d.HasOnlyInIllegal(sim.Spike)).To(BeTrue())
		Expect(d.HasOnlyInIllegal(sim.Rocket)).To(BeFalse())
	})

	It("collects originals for illegal-instruction traps on one side", func() {
		ex1 := exception(0x80000100, 2)
		ex1.Trace = &htif.InstructionTrace{
			PC:                  0x80000100,
			Disassembly:         "sh3add t0, t1, t2",
			OriginalInstruction: "sh3add x5, x6, x7",
		}
		ex2 := exception(0x80000104, 2)
		ex2.Trace = &htif.InstructionTrace{
			PC:                  0x80000104,
			Disassembly:         "bexti a0, a1, 3",
			OriginalInstruction: "bexti x10, x11, 3",
		}
		ex3 := exception(0x80000100, 2)
		ex3.Trace = ex1.Trace

		d := diff.CompareExceptions(nil, []htif.ExceptionDump{ex1, ex2, ex3}, sim.Spike, sim.Rocket)

		Expect(d.HasOnlyInIllegal(sim.Rocket)).To(BeTrue())
		Expect(d.OnlyInIllegalOriginals(sim.Rocket)).To(Equal([]string{
			"bexti x10, x11, 3",
			"sh3add x5, x6, x7",
		}))
		Expect(d.OnlyInIllegalOriginals(sim.Spike)).To(BeEmpty())
	})

	It("categorizes paired CSR differences by field", func() {
		exA := exception(0x80000100, 2)
		exB := exception(0x80000100, 5)
		exB.CSRs.Mip = 0x80
		exB.CSRs.Mtval = 0x123
		exB.CSRs.Mscratch = 0x456

		d := diff.CompareExceptions(
			[]htif.ExceptionDump{exA}, []htif.ExceptionDump{exB},
			sim.Spike, sim.Rocket)

		Expect(d.Paired).To(HaveLen(1))
		Expect(d.Paired[0].Differences).To(HaveLen(4))

		kinds := make(map[diff.CategoryKind]bool)
		for _, g := range d.Categorized {
			kinds[g.Category.Kind] = true
		}
		Expect(kinds).To(HaveKey(diff.FixedMipDifference))
		Expect(kinds).To(HaveKey(diff.McauseDifference))
		Expect(kinds).To(HaveKey(diff.MtvalDifference))
		Expect(kinds).To(HaveKey(diff.OtherCsrDifference))
	})

	It("orders groups by descending count", func() {
		makePair := func(mepc, mtvalB uint64) (htif.ExceptionDump, htif.ExceptionDump) {
			a := exception(mepc, 2)
			b := exception(mepc, 2)
			b.CSRs.Mtval = mtvalB
			return a, b
		}
		a1, b1 := makePair(0x100, 0x11)
		a2, b2 := makePair(0x200, 0x22)
		a3 := exception(0x300, 2)
		b3 := exception(0x300, 2)
		b3.CSRs.Mip = 0x80

		d := diff.CompareExceptions(
			[]htif.ExceptionDump{a1, a2, a3},
			[]htif.ExceptionDump{b1, b2, b3},
			sim.Spike, sim.Rocket)

		Expect(d.Categorized).To(HaveLen(2))
		Expect(d.Categorized[0].Category.Kind).To(Equal(diff.MtvalDifference))
		Expect(d.Categorized[0].Count).To(Equal(2))
		Expect(d.Categorized[0].PCs).To(Equal([]uint64{0x100, 0x200}))
		Expect(d.Categorized[1].Category.Kind).To(Equal(diff.FixedMipDifference))
	})

	It("pairs duplicate trap addresses greedily in encounter order", func() {
		listA := []htif.ExceptionDump{exception(0x100, 2), exception(0x100, 2)}
		listB := []htif.ExceptionDump{exception(0x100, 2)}

		d := diff.CompareExceptions(listA, listB, sim.Spike, sim.Rocket)

		Expect(d.Paired).To(HaveLen(1))
		Expect(d.OnlyInA).To(HaveLen(1))
		Expect(d.OnlyInB).To(BeEmpty())
	})
})
