// Package sim drives the external RISC-V toolchain and the two simulators
// under test, and turns their raw output into structured execution results.
package sim

import (
	"errors"
	"fmt"
	"time"
)

// EmulatorType identifies one of the simulators under differential test.
type EmulatorType uint8

// The simulators under test.
const (
	Spike EmulatorType = iota
	Rocket
)

// String returns the simulator's display name.
func (t EmulatorType) String() string {
	if t == Rocket {
		return "Rocket"
	}
	return "Spike"
}

// ParseEmulatorType parses a simulator name, case-sensitively matching the
// display names.
func ParseEmulatorType(s string) (EmulatorType, error) {
	switch s {
	case "spike", "Spike":
		return Spike, nil
	case "rocket", "Rocket":
		return Rocket, nil
	default:
		return Spike, fmt.Errorf("unknown emulator %q (want spike or rocket)", s)
	}
}

// Sentinel errors for the I/O layer. The decoding core is total; these are
// the only failure modes the harness reports.
var (
	// ErrFileNotFound reports a missing input file (program, linker
	// script, listing).
	ErrFileNotFound = errors.New("file not found")

	// ErrLaunchFailed reports that a simulator subprocess could not be
	// started.
	ErrLaunchFailed = errors.New("subprocess launch failed")
)

// SpikeConfig configures a Spike invocation.
type SpikeConfig struct {
	// Binary is the simulator executable.
	Binary string
	// ISA is the march string passed via --isa.
	ISA string
	// Timeout bounds the simulator's wall-clock time. Zero means no
	// limit.
	Timeout time.Duration
}

// DefaultSpikeConfig returns the stock Spike configuration.
func DefaultSpikeConfig() SpikeConfig {
	return SpikeConfig{
		Binary:  "spike",
		ISA:     "rv64gc",
		Timeout: 60 * time.Second,
	}
}

// RocketConfig configures a Rocket emulator invocation.
type RocketConfig struct {
	// Binary is the emulator executable.
	Binary string
	// MaxCycles bounds the simulated cycle count. Zero means no limit.
	MaxCycles uint64
	// Timeout bounds the emulator's wall-clock time. Zero means no
	// limit.
	Timeout time.Duration
}

// DefaultRocketConfig returns the stock Rocket configuration.
func DefaultRocketConfig() RocketConfig {
	return RocketConfig{
		Binary:  "emulators/rocket_emulator",
		Timeout: 120 * time.Second,
	}
}

// ToolchainConfig locates the cross toolchain used to build test programs.
type ToolchainConfig struct {
	GCC     string
	AS      string
	LD      string
	Objdump string
}

// DefaultToolchainConfig returns the conventional riscv64-unknown-elf
// toolchain names, resolved through PATH.
func DefaultToolchainConfig() ToolchainConfig {
	return ToolchainConfig{
		GCC:     "riscv64-unknown-elf-gcc",
		AS:      "riscv64-unknown-elf-as",
		LD:      "riscv64-unknown-elf-ld",
		Objdump: "riscv64-unknown-elf-objdump",
	}
}
