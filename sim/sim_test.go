package sim_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/canxin121/riscv-fuzz-test/sim"
	"github.com/canxin121/riscv-fuzz-test/trace"
)

func TestSim(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Sim Suite")
}

var _ = Describe("EmulatorType", func() {
	It("parses both casings of the simulator names", func() {
		for name, want := range map[string]sim.EmulatorType{
			"spike":  sim.Spike,
			"Spike":  sim.Spike,
			"rocket": sim.Rocket,
			"Rocket": sim.Rocket,
		} {
			got, err := sim.ParseEmulatorType(name)
			Expect(err).ToNot(HaveOccurred())
			Expect(got).To(Equal(want))
		}
	})

	It("rejects unknown simulator names", func() {
		_, err := sim.ParseEmulatorType("qemu")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("qemu"))
	})

	It("renders display names", func() {
		Expect(sim.Spike.String()).To(Equal("Spike"))
		Expect(sim.Rocket.String()).To(Equal("Rocket"))
	})
})

var _ = Describe("GCCMarch", func() {
	It("strips multi-letter extensions and keeps imafdc", func() {
		Expect(sim.GCCMarch("rv64imfd_zba_zbb_zbs_zfa")).To(Equal("rv64imfd"))
		Expect(sim.GCCMarch("rv64gc")).To(Equal("rv64cd"))
	})

	It("forces d so hard-float conditionals resolve", func() {
		Expect(sim.GCCMarch("rv64im")).To(Equal("rv64imd"))
		Expect(sim.GCCMarch("rv32i")).To(Equal("rv32id"))
	})

	It("falls back to rv64id for malformed input", func() {
		Expect(sim.GCCMarch("")).To(Equal("rv64id"))
		Expect(sim.GCCMarch("armv8")).To(Equal("rv64id"))
	})
})

var _ = Describe("ParseOutput", func() {
	It("decodes without traces when no listing is given", func() {
		out, err := sim.ParseOutput([]byte("hello\n"), "")

		Expect(err).ToNot(HaveOccurred())
		Expect(out.RawLength).To(Equal(6))
	})

	It("returns the decoded output alongside a listing error", func() {
		out, err := sim.ParseOutput([]byte("hello\n"), "/nonexistent/output.dump")

		Expect(err).To(MatchError(trace.ErrListingUnavailable))
		Expect(out).NotTo(BeNil())
		Expect(out.RawLength).To(Equal(6))
	})
})

var _ = Describe("Default configurations", func() {
	It("targets the stock toolchain and simulator binaries", func() {
		Expect(sim.DefaultSpikeConfig().Binary).To(Equal("spike"))
		Expect(sim.DefaultSpikeConfig().ISA).To(Equal("rv64gc"))
		Expect(sim.DefaultRocketConfig().Binary).To(Equal("emulators/rocket_emulator"))
		Expect(sim.DefaultToolchainConfig().GCC).To(Equal("riscv64-unknown-elf-gcc"))
	})
})
