// Package trace maps trap PCs back to source instructions through a parsed
// objdump disassembly listing.
package trace

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/canxin121/riscv-fuzz-test/htif"
)

// ErrListingUnavailable reports a missing or unreadable disassembly listing.
var ErrListingUnavailable = errors.New("listing unavailable")

// listingEntry is one disassembled instruction from the listing.
type listingEntry struct {
	disassembly string
	machineCode string
	original    string
}

// Tracer resolves PCs against a disassembly listing loaded once up front.
type Tracer struct {
	entries map[uint64]listingEntry
}

// New loads and parses a disassembly listing file.
func New(listingPath string) (*Tracer, error) {
	content, err := os.ReadFile(listingPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrListingUnavailable, listingPath, err)
	}
	return Parse(string(content)), nil
}

// Parse builds a tracer from listing text. Lines have the form
// "addr: machinecode disassembly"; when the assembler emitted the original
// source instruction on the preceding line, that line is captured as the
// original form.
func Parse(listing string) *Tracer {
	lines := strings.Split(listing, "\n")
	entries := make(map[uint64]listingEntry)

	for i, line := range lines {
		pc, disassembly, machineCode, ok := parseListingLine(line)
		if !ok {
			continue
		}

		original := disassembly
		if i > 0 {
			prev := strings.TrimSpace(lines[i-1])
			if prev != "" && !strings.Contains(prev, ":") {
				original = prev
			}
		}

		entries[pc] = listingEntry{
			disassembly: disassembly,
			machineCode: machineCode,
			original:    original,
		}
	}

	return &Tracer{entries: entries}
}

// Len returns the number of instructions in the listing.
func (t *Tracer) Len() int {
	return len(t.entries)
}

// TracePC resolves a single PC, or nil when the listing does not cover it.
func (t *Tracer) TracePC(pc uint64) *htif.InstructionTrace {
	entry, ok := t.entries[pc]
	if !ok {
		return nil
	}
	return &htif.InstructionTrace{
		PC:                  pc,
		Disassembly:         entry.disassembly,
		MachineCode:         entry.machineCode,
		OriginalInstruction: entry.original,
	}
}

// TraceAll attaches traces to every exception dump whose mepc the listing
// covers. This is the only mutation exception dumps see after parsing.
func (t *Tracer) TraceAll(dumps []htif.ExceptionDump) {
	for i := range dumps {
		dumps[i].Trace = t.TracePC(dumps[i].CSRs.Mepc)
	}
}

// parseListingLine splits "addr: machinecode disassembly…" into its parts.
func parseListingLine(line string) (pc uint64, disassembly, machineCode string, ok bool) {
	trimmed := strings.TrimSpace(line)

	colon := strings.IndexByte(trimmed, ':')
	if colon < 0 {
		return 0, "", "", false
	}

	addr := strings.TrimSpace(trimmed[:colon])
	pc, err := strconv.ParseUint(addr, 16, 64)
	if err != nil {
		return 0, "", "", false
	}

	fields := strings.Fields(trimmed[colon+1:])
	if len(fields) < 2 {
		return 0, "", "", false
	}
	return pc, strings.Join(fields[1:], " "), fields[0], true
}
