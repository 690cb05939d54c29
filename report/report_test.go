package report_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/canxin121/riscv-fuzz-test/diff"
	"github.com/canxin121/riscv-fuzz-test/htif"
	"github.com/canxin121/riscv-fuzz-test/report"
	"github.com/canxin121/riscv-fuzz-test/sim"
)

func TestReport(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Report Suite")
}

var _ = Describe("RegistersMarkdown", func() {
	It("reports a clean comparison as difference-free", func() {
		a := &htif.RegistersDump{}
		b := &htif.RegistersDump{}
		d := diff.CompareRegisters(a, b, sim.Spike, sim.Rocket)

		md := report.RegistersMarkdown(d)

		Expect(md).To(ContainSubstring("No differences found"))
	})

	It("renders a table per differing section", func() {
		a := &htif.RegistersDump{}
		b := &htif.RegistersDump{}
		a.IntRegisters[5] = 0x50
		b.CoreCSRs.Mcycle = 77

		md := report.RegistersMarkdown(diff.CompareRegisters(a, b, sim.Spike, sim.Rocket))

		Expect(md).To(ContainSubstring("Integer Registers, Core CSRs"))
		Expect(md).To(ContainSubstring("## Integer Register Differences"))
		Expect(md).To(ContainSubstring("x05"))
		Expect(md).To(ContainSubstring("t0"))
		Expect(md).To(ContainSubstring("0x0000000000000050"))
		Expect(md).To(ContainSubstring("## Core CSR Differences"))
		Expect(md).To(ContainSubstring("mcycle"))
		Expect(md).To(ContainSubstring("Spike"))
		Expect(md).To(ContainSubstring("Rocket"))
	})
})

var _ = Describe("ExceptionsMarkdown", func() {
	It("reports an empty diff as clean", func() {
		d := diff.CompareExceptions(nil, nil, sim.Spike, sim.Rocket)

		Expect(report.ExceptionsMarkdown(d)).To(
			ContainSubstring("No significant differences found"))
	})

	It("lists one-sided exceptions and the categorized summary", func() {
		ex := htif.ExceptionDump{
			CSRs: htif.ExceptionCSRs{Mepc: 0x80000100, Mcause: 2},
			Trace: &htif.InstructionTrace{
				PC:                  0x80000100,
				Disassembly:         "sh3add t0, t1, t2",
				OriginalInstruction: "sh3add x5, x6, x7",
			},
		}

		d := diff.CompareExceptions(nil, []htif.ExceptionDump{ex}, sim.Spike, sim.Rocket)
		md := report.ExceptionsMarkdown(d)

		Expect(md).To(ContainSubstring("Rocket"))
		Expect(md).To(ContainSubstring("0x80000100"))
		Expect(md).To(ContainSubstring("Illegal instruction"))
		Expect(md).To(ContainSubstring("sh3add"))
	})

	It("details matched pairs with CSR differences", func() {
		exA := htif.ExceptionDump{CSRs: htif.ExceptionCSRs{Mepc: 0x100, Mcause: 2}}
		exB := htif.ExceptionDump{CSRs: htif.ExceptionCSRs{Mepc: 0x100, Mcause: 5}}

		d := diff.CompareExceptions(
			[]htif.ExceptionDump{exA}, []htif.ExceptionDump{exB},
			sim.Spike, sim.Rocket)
		md := report.ExceptionsMarkdown(d)

		Expect(md).To(ContainSubstring("mcause"))
		Expect(md).To(ContainSubstring("Illegal instruction"))
	})
})

var _ = Describe("ExecutionMarkdown", func() {
	It("summarizes decoded output counts", func() {
		out := htif.Parse([]byte("hello\n"))

		md := report.ExecutionMarkdown("Spike", out)

		Expect(md).To(ContainSubstring("Spike"))
		Expect(md).To(ContainSubstring("6"))
	})
})

var _ = Describe("Persistence", func() {
	It("writes JSON and Markdown files", func() {
		dir := GinkgoT().TempDir()

		jsonPath := filepath.Join(dir, "out.json")
		Expect(report.WriteJSON(jsonPath, map[string]int{"n": 1})).To(Succeed())
		data, err := os.ReadFile(jsonPath)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"n": 1`))

		mdPath := filepath.Join(dir, "out.md")
		Expect(report.WriteMarkdown(mdPath, "# Title\n")).To(Succeed())
		data, err = os.ReadFile(mdPath)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(data)).To(HavePrefix("# Title"))
	})
})
