package sim

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// BuildResult holds the paths produced by one BuildELF run. All paths are
// derived from the assembly file by swapping its extension.
type BuildResult struct {
	// PreprocessedAssembly is set only when the input was a .S file that
	// went through the C preprocessor.
	PreprocessedAssembly string
	ObjectFile           string
	ExecutableFile       string
	// ListingFile is the objdump disassembly consumed by the tracer.
	ListingFile string
}

// BuildError reports a failed toolchain stage with the tool's stderr.
type BuildError struct {
	Stage  string
	Stderr string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Stage, strings.TrimSpace(e.Stderr))
}

// BuildELF assembles and links one test program and produces its disassembly
// listing. .S inputs are first run through gcc -E so the __riscv_flen
// conditionals in the scaffold resolve against the march. The linker script
// is written next to the assembly file if it does not already exist.
func BuildELF(ctx context.Context, tc ToolchainConfig, assemblyFile, march string) (*BuildResult, error) {
	ext := filepath.Ext(assemblyFile)
	base := strings.TrimSuffix(assemblyFile, ext)

	result := &BuildResult{
		ObjectFile:     base + ".o",
		ExecutableFile: base + ".elf",
		ListingFile:    base + ".dump",
	}

	if _, err := os.Stat(assemblyFile); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, assemblyFile)
	}

	linkerScript := filepath.Join(filepath.Dir(assemblyFile), "linker.ld")
	if _, err := os.Stat(linkerScript); err != nil {
		if err := os.WriteFile(linkerScript, []byte(linkerScript64), 0o644); err != nil {
			return nil, fmt.Errorf("write linker script: %w", err)
		}
	}

	assemblyToUse := assemblyFile
	if ext == ".S" {
		preprocessed := base + ".s"
		gccMarch := GCCMarch(march)
		slog.Debug("preprocessing assembly",
			"march", march, "gcc_march", gccMarch)
		if err := runTool(ctx, "preprocessing", tc.GCC,
			"-march="+gccMarch, "-E", assemblyFile, "-o", preprocessed); err != nil {
			return nil, err
		}
		result.PreprocessedAssembly = preprocessed
		assemblyToUse = preprocessed
	}

	if err := runTool(ctx, "assembly", tc.AS,
		"-march="+march, "-g", "-o", result.ObjectFile, assemblyToUse); err != nil {
		return nil, err
	}

	if err := runTool(ctx, "linking", tc.LD,
		"-T", linkerScript, "-o", result.ExecutableFile, result.ObjectFile); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, tc.Objdump, "-S", result.ExecutableFile)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &BuildError{Stage: "disassembly", Stderr: stderr.String()}
	}
	if err := os.WriteFile(result.ListingFile, stdout.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("write listing: %w", err)
	}

	slog.Debug("build completed", "executable", result.ExecutableFile)
	return result, nil
}

func runTool(ctx context.Context, stage, tool string, args ...string) error {
	cmd := exec.CommandContext(ctx, tool, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() == 0 {
			stderr.WriteString(err.Error())
		}
		return &BuildError{Stage: stage, Stderr: stderr.String()}
	}
	return nil
}

// GCCMarch reduces a full march string to the subset gcc accepts for
// preprocessing: only the imafdc single-letter extensions survive, and d is
// forced on so hard-float scaffolds always preprocess with __riscv_flen set.
func GCCMarch(march string) string {
	base := march
	if i := strings.IndexByte(march, '_'); i >= 0 {
		base = march[:i]
	}

	var prefix string
	switch {
	case strings.HasPrefix(base, "rv32"):
		prefix = "rv32"
	case strings.HasPrefix(base, "rv64"):
		prefix = "rv64"
	default:
		return "rv64id"
	}

	var kept []byte
	for _, c := range []byte(base[len(prefix):]) {
		switch c {
		case 'i', 'm', 'a', 'f', 'd', 'c':
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		kept = append(kept, 'i')
	}
	if !bytes.ContainsRune(kept, 'd') {
		kept = append(kept, 'd')
	}
	return prefix + string(kept)
}

// Minimal bare-metal layout with the tohost/fromhost section the HTIF
// protocol requires.
const linkerScript64 = `OUTPUT_ARCH("riscv")
ENTRY(_start)

SECTIONS
{
  . = 0x80000000;
  .text.init : { *(.text.init) }
  .text : { *(.text) }
  . = ALIGN(0x1000);
  .tohost : { *(.tohost) }
  . = ALIGN(0x1000);
  .data : { *(.data) }
  .bss : { *(.bss) }
  _end = .;
}
`
