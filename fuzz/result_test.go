package fuzz_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/canxin121/riscv-fuzz-test/diff"
	"github.com/canxin121/riscv-fuzz-test/fuzz"
	"github.com/canxin121/riscv-fuzz-test/htif"
	"github.com/canxin121/riscv-fuzz-test/sim"
)

var _ = Describe("Comparison", func() {
	It("is clean when no comparator ran", func() {
		Expect((&fuzz.Comparison{}).Clean()).To(BeTrue())
	})

	It("is clean when both comparators found nothing", func() {
		a := &htif.RegistersDump{}
		cmp := &fuzz.Comparison{
			Registers:  diff.CompareRegisters(a, a, sim.Spike, sim.Rocket),
			Exceptions: diff.CompareExceptions(nil, nil, sim.Spike, sim.Rocket),
		}
		Expect(cmp.Clean()).To(BeTrue())
	})

	It("is dirty when any comparator found a difference", func() {
		a := &htif.RegistersDump{}
		b := &htif.RegistersDump{}
		b.IntRegisters[1] = 1
		cmp := &fuzz.Comparison{
			Registers: diff.CompareRegisters(a, b, sim.Spike, sim.Rocket),
		}
		Expect(cmp.Clean()).To(BeFalse())
	})
})

var _ = Describe("InstanceResult", func() {
	It("reports the last round that ran", func() {
		initial := &fuzz.Comparison{}
		retry := &fuzz.Comparison{}
		minimal := &fuzz.Comparison{}

		r := &fuzz.InstanceResult{Initial: initial}
		Expect(r.FinalComparison()).To(BeIdenticalTo(initial))

		r.Retry = retry
		Expect(r.FinalComparison()).To(BeIdenticalTo(retry))

		r.Minimal = minimal
		Expect(r.FinalComparison()).To(BeIdenticalTo(minimal))
	})
})
