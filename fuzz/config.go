// Package fuzz orchestrates differential test instances: building programs,
// running both simulators, comparing their outputs, and retrying with
// reduced programs when the comparison points at removable instructions.
package fuzz

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/canxin121/riscv-fuzz-test/asm"
	"github.com/canxin121/riscv-fuzz-test/sim"
)

// Config carries everything one harness run needs: toolchain and simulator
// locations plus the ISA the programs are generated and built for.
type Config struct {
	Toolchain sim.ToolchainConfig `toml:"toolchain"`
	Spike     sim.SpikeConfig     `toml:"spike"`
	Rocket    sim.RocketConfig    `toml:"rocket"`

	// March is the full march string programs are assembled with. Empty
	// means derive it from Extensions.
	March string `toml:"march"`

	// Extensions drive random generation. D is appended for the march
	// only: the scaffold needs hard-float support to dump f registers.
	Extensions []asm.Extension `toml:"extensions"`
}

// DefaultConfig mirrors the extension set the Rocket emulator is known to
// support.
func DefaultConfig() Config {
	return Config{
		Toolchain: sim.DefaultToolchainConfig(),
		Spike:     sim.DefaultSpikeConfig(),
		Rocket:    sim.DefaultRocketConfig(),
		Extensions: []asm.Extension{
			asm.ExtI, asm.ExtM, asm.ExtF,
			asm.ExtZba, asm.ExtZbb, asm.ExtZbs,
		},
	}
}

// LoadConfig reads a TOML config file over the defaults. A missing path
// returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); err != nil {
		return cfg, fmt.Errorf("%w: %s", sim.ErrFileNotFound, path)
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// MarchString returns the configured march, deriving it from the extension
// set when unset.
func (c *Config) MarchString() string {
	if c.March != "" {
		return c.March
	}
	exts := append(append([]asm.Extension(nil), c.Extensions...), asm.ExtD)
	return asm.March(exts)
}
