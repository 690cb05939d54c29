package fuzz

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/canxin121/riscv-fuzz-test/asm"
)

// GenerateProgram writes a fresh random test program into dir and returns
// its path. instPerExt instructions are drawn per configured extension and
// shuffled together.
func (h *Harness) GenerateProgram(dir string, instPerExt int, rng *rand.Rand) (string, error) {
	gen := asm.NewGenerator().Order(asm.RandomShuffle)
	for _, ext := range h.cfg.Extensions {
		gen = gen.With(ext, instPerExt)
	}

	instructions := gen.Generate(rng)
	source := asm.StandardProgram(asm.FormatUserCode(instructions))

	path := filepath.Join(dir, "generated_output.S")
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		return "", fmt.Errorf("write generated program: %w", err)
	}
	return path, nil
}

// RunRandomInstance generates one random program in dir and runs it through
// the full pipeline with auto-retry enabled.
func (h *Harness) RunRandomInstance(ctx context.Context, dir string, instPerExt int, rng *rand.Rand) (*InstanceResult, error) {
	program, err := h.GenerateProgram(dir, instPerExt, rng)
	if err != nil {
		return nil, err
	}
	return h.RunInstance(ctx, dir, program, true)
}
