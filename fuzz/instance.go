package fuzz

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/canxin121/riscv-fuzz-test/asm"
	"github.com/canxin121/riscv-fuzz-test/diff"
	"github.com/canxin121/riscv-fuzz-test/htif"
	"github.com/canxin121/riscv-fuzz-test/minimize"
	"github.com/canxin121/riscv-fuzz-test/report"
	"github.com/canxin121/riscv-fuzz-test/sim"
)

// Harness runs differential test instances against the configured
// simulators.
type Harness struct {
	cfg Config
}

// New returns a harness over the given configuration.
func New(cfg Config) *Harness {
	return &Harness{cfg: cfg}
}

// Comparison bundles one build-run-compare round.
type Comparison struct {
	SpikeOutput  *htif.ExecutionOutput
	RocketOutput *htif.ExecutionOutput

	Registers  *diff.RegistersDumpDiff
	Exceptions *diff.ExceptionListDiff
}

// Clean reports whether the round found no differences at all.
func (c *Comparison) Clean() bool {
	return (c.Registers == nil || c.Registers.IsEmpty()) &&
		(c.Exceptions == nil || c.Exceptions.IsEmpty())
}

// InstanceResult is the full outcome of one test instance, including the
// retry and minimization rounds when they ran.
type InstanceResult struct {
	Initial *Comparison

	// RemovedInstructions are the original instructions stripped before
	// the retry round. Empty when no retry happened.
	RemovedInstructions []string
	Retry               *Comparison

	// MinimalInstructions is the backward slice fed to the minimal
	// round. Empty when no minimization happened.
	MinimalInstructions []string
	Minimal             *Comparison
}

// RunInstance builds and compares one assembly program. With autoRetry set,
// Rocket-only illegal-instruction exceptions trigger a second round with the
// offending instructions removed, and remaining register differences after
// that trigger a minimized third round.
func (h *Harness) RunInstance(ctx context.Context, buildDir, assemblyFile string, autoRetry bool) (*InstanceResult, error) {
	result := &InstanceResult{}

	initial, err := h.compareOnce(ctx, buildDir, assemblyFile, "diff")
	if err != nil {
		return nil, err
	}
	result.Initial = initial

	if !autoRetry || initial.Exceptions == nil ||
		!initial.Exceptions.HasOnlyInIllegal(sim.Rocket) {
		return result, nil
	}

	removed := initial.Exceptions.OnlyInIllegalOriginals(sim.Rocket)
	if len(removed) == 0 {
		slog.Info("no removable instructions identified, skipping retry")
		return result, nil
	}
	slog.Info("retrying without rocket-only illegal instructions",
		"count", len(removed))

	source, err := os.ReadFile(assemblyFile)
	if err != nil {
		return result, fmt.Errorf("read %s: %w", assemblyFile, err)
	}

	retryDir := filepath.Join(buildDir, "rocket_illegal_retry")
	if err := os.MkdirAll(retryDir, 0o755); err != nil {
		return result, fmt.Errorf("create retry dir: %w", err)
	}
	retrySource := asm.RemoveInstructions(string(source), removed)
	retryFile := filepath.Join(retryDir, "retry_output.S")
	if err := os.WriteFile(retryFile, []byte(retrySource), 0o644); err != nil {
		return result, fmt.Errorf("write retry program: %w", err)
	}

	retry, err := h.compareOnce(ctx, retryDir, retryFile, "retry_diff")
	if err != nil {
		return result, err
	}
	result.RemovedInstructions = removed
	result.Retry = retry

	if retry.Registers == nil || !retry.Registers.HasRegisterDifferences() {
		return result, nil
	}

	targets := retry.Registers.DifferingRegisterNames()
	minimal := minimize.ForRegisters(asm.ExtractUserCode(retrySource), targets)
	if len(minimal) == 0 {
		slog.Info("no instructions found for minimal analysis")
		return result, nil
	}
	slog.Info("running minimal analysis",
		"instructions", len(minimal), "registers", len(targets))

	minDir := filepath.Join(retryDir, "minimal_analysis")
	if err := os.MkdirAll(minDir, 0o755); err != nil {
		return result, fmt.Errorf("create minimal dir: %w", err)
	}
	minFile := filepath.Join(minDir, "minimal_output.S")
	minSource := asm.ReplaceUserCode(retrySource, minimal)
	if err := os.WriteFile(minFile, []byte(minSource), 0o644); err != nil {
		return result, fmt.Errorf("write minimal program: %w", err)
	}

	minRound, err := h.compareOnce(ctx, minDir, minFile, "minimal_diff")
	if err != nil {
		return result, err
	}
	result.MinimalInstructions = minimal
	result.Minimal = minRound

	return result, nil
}

// RunOne builds the program and runs it under a single simulator, returning
// the decoded output with traces attached.
func (h *Harness) RunOne(ctx context.Context, dir, assemblyFile string, emulator sim.EmulatorType) (*htif.ExecutionOutput, error) {
	march := h.cfg.MarchString()

	build, err := sim.BuildELF(ctx, h.cfg.Toolchain, assemblyFile, march)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", assemblyFile, err)
	}

	var raw []byte
	logFile := filepath.Join(dir, "output.bin")
	if emulator == sim.Rocket {
		raw, err = sim.RunRocket(ctx, h.cfg.Rocket, build.ExecutableFile, logFile)
	} else {
		spikeCfg := h.cfg.Spike
		spikeCfg.ISA = march
		raw, err = sim.RunSpike(ctx, spikeCfg, build.ExecutableFile, logFile)
	}
	if err != nil {
		return nil, err
	}

	out, err := sim.ParseOutput(raw, build.ListingFile)
	if err != nil {
		slog.Warn("output decoded without traces", "err", err)
	}
	return out, nil
}

// compareOnce runs the build-run-parse-compare pipeline for one program and
// persists the round's reports under dir.
func (h *Harness) compareOnce(ctx context.Context, dir, assemblyFile, reportName string) (*Comparison, error) {
	march := h.cfg.MarchString()

	build, err := sim.BuildELF(ctx, h.cfg.Toolchain, assemblyFile, march)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", assemblyFile, err)
	}

	spikeCfg := h.cfg.Spike
	spikeCfg.ISA = march
	spikeRaw, err := sim.RunSpike(ctx, spikeCfg,
		build.ExecutableFile, filepath.Join(dir, "spike_output.bin"))
	if err != nil {
		return nil, fmt.Errorf("spike: %w", err)
	}

	rocketRaw, err := sim.RunRocket(ctx, h.cfg.Rocket,
		build.ExecutableFile, filepath.Join(dir, "rocket_output.bin"))
	if err != nil {
		return nil, fmt.Errorf("rocket: %w", err)
	}

	cmp := &Comparison{}
	cmp.SpikeOutput, err = sim.ParseOutput(spikeRaw, build.ListingFile)
	if err != nil {
		slog.Warn("spike output decoded without traces", "err", err)
	}
	cmp.RocketOutput, err = sim.ParseOutput(rocketRaw, build.ListingFile)
	if err != nil {
		slog.Warn("rocket output decoded without traces", "err", err)
	}

	spikeRegs := cmp.SpikeOutput.FinalRegisters()
	rocketRegs := cmp.RocketOutput.FinalRegisters()
	switch {
	case spikeRegs != nil && rocketRegs != nil:
		cmp.Registers = diff.CompareRegisters(spikeRegs, rocketRegs, sim.Spike, sim.Rocket)
	case spikeRegs != nil || rocketRegs != nil:
		slog.Warn("register dump missing on one side",
			"spike", spikeRegs != nil, "rocket", rocketRegs != nil)
	}

	cmp.Exceptions = diff.CompareExceptions(
		cmp.SpikeOutput.ExceptionDumps, cmp.RocketOutput.ExceptionDumps,
		sim.Spike, sim.Rocket)

	if err := h.persist(dir, reportName, cmp); err != nil {
		return nil, err
	}
	return cmp, nil
}

func (h *Harness) persist(dir, name string, cmp *Comparison) error {
	if err := report.WriteJSON(filepath.Join(dir, name+".json"), cmp); err != nil {
		return err
	}

	md := ""
	if cmp.Registers != nil {
		md += report.RegistersMarkdown(cmp.Registers)
		md += "\n"
	}
	md += report.ExceptionsMarkdown(cmp.Exceptions)
	if err := report.WriteMarkdown(filepath.Join(dir, name+".md"), md); err != nil {
		return err
	}

	for _, side := range []struct {
		name string
		out  *htif.ExecutionOutput
	}{
		{"Spike", cmp.SpikeOutput},
		{"Rocket", cmp.RocketOutput},
	} {
		path := filepath.Join(dir, side.name+"_output.md")
		if err := report.WriteMarkdown(path, report.ExecutionMarkdown(side.name, side.out)); err != nil {
			return err
		}
	}
	return nil
}
