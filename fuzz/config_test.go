package fuzz_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/canxin121/riscv-fuzz-test/asm"
	"github.com/canxin121/riscv-fuzz-test/fuzz"
	"github.com/canxin121/riscv-fuzz-test/sim"
)

func TestFuzz(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Fuzz Suite")
}

var _ = Describe("Config", func() {
	It("defaults to the stock toolchain and the supported extensions", func() {
		cfg := fuzz.DefaultConfig()

		Expect(cfg.Toolchain.GCC).To(Equal("riscv64-unknown-elf-gcc"))
		Expect(cfg.Spike.Binary).To(Equal("spike"))
		Expect(cfg.Extensions).To(Equal([]asm.Extension{
			asm.ExtI, asm.ExtM, asm.ExtF,
			asm.ExtZba, asm.ExtZbb, asm.ExtZbs,
		}))
	})

	It("derives the march from the extension set with D appended", func() {
		cfg := fuzz.DefaultConfig()
		Expect(cfg.MarchString()).To(Equal("rv64imfd_zba_zbb_zbs_zfa"))
	})

	It("prefers an explicit march over derivation", func() {
		cfg := fuzz.DefaultConfig()
		cfg.March = "rv64gc"
		Expect(cfg.MarchString()).To(Equal("rv64gc"))
	})

	It("returns the defaults for an empty path", func() {
		cfg, err := fuzz.LoadConfig("")
		Expect(err).ToNot(HaveOccurred())
		Expect(cfg.Spike.Binary).To(Equal("spike"))
	})

	It("wraps a missing config file in the not-found sentinel", func() {
		_, err := fuzz.LoadConfig("/nonexistent/harness.toml")
		Expect(err).To(MatchError(sim.ErrFileNotFound))
	})

	It("overlays TOML values on the defaults", func() {
		path := filepath.Join(GinkgoT().TempDir(), "harness.toml")
		content := `march = "rv64imd"

[spike]
Binary = "/opt/spike/bin/spike"
ISA = "rv64imd"

[rocket]
Binary = "emulators/rocket64"
`
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())

		cfg, err := fuzz.LoadConfig(path)

		Expect(err).ToNot(HaveOccurred())
		Expect(cfg.March).To(Equal("rv64imd"))
		Expect(cfg.Spike.Binary).To(Equal("/opt/spike/bin/spike"))
		Expect(cfg.Rocket.Binary).To(Equal("emulators/rocket64"))
		Expect(cfg.Toolchain.GCC).To(Equal("riscv64-unknown-elf-gcc"))
		Expect(cfg.Extensions).To(Equal(fuzz.DefaultConfig().Extensions))
	})
})
