package diff

import (
	"fmt"
	"sort"

	"github.com/canxin121/riscv-fuzz-test/htif"
	"github.com/canxin121/riscv-fuzz-test/sim"
)

// PairedException is a pair of exception dumps matched by mepc, with their
// per-field CSR differences. A pair with no differences is still recorded:
// it preserves the fact that a match was found.
type PairedException struct {
	A, B        htif.ExceptionDump
	Differences []CSRDifference
}

// ExceptionListDiff is the result of matching two simulators' exception
// lists against each other.
type ExceptionListDiff struct {
	SimA, SimB sim.EmulatorType

	OnlyInA []htif.ExceptionDump
	OnlyInB []htif.ExceptionDump
	Paired  []PairedException

	Categorized []CategorizedDiffs
}

// IsEmpty reports whether the two lists matched completely.
func (d *ExceptionListDiff) IsEmpty() bool {
	if len(d.OnlyInA) > 0 || len(d.OnlyInB) > 0 || len(d.Categorized) > 0 {
		return false
	}
	for _, p := range d.Paired {
		if len(p.Differences) > 0 {
			return false
		}
	}
	return true
}

// HasOnlyInIllegal reports whether the diff contains an OnlyInSimulator
// group for the given simulator with an illegal-instruction cause. The retry
// policy keys on this.
func (d *ExceptionListDiff) HasOnlyInIllegal(which sim.EmulatorType) bool {
	target := Category{Kind: OnlyInSimulator, Which: which, Mcause: htif.McauseIllegalInstruction}
	for _, g := range d.Categorized {
		if g.Category == target {
			return true
		}
	}
	return false
}

// OnlyInIllegalOriginals returns the de-duplicated, sorted original
// instruction strings traced for the given simulator's illegal-instruction
// groups.
func (d *ExceptionListDiff) OnlyInIllegalOriginals(which sim.EmulatorType) []string {
	target := Category{Kind: OnlyInSimulator, Which: which, Mcause: htif.McauseIllegalInstruction}

	seen := make(map[string]struct{})
	var originals []string
	for _, g := range d.Categorized {
		if g.Category != target {
			continue
		}
		for _, t := range g.Traces {
			if t == nil {
				continue
			}
			if _, ok := seen[t.OriginalInstruction]; ok {
				continue
			}
			seen[t.OriginalInstruction] = struct{}{}
			originals = append(originals, t.OriginalInstruction)
		}
	}
	sort.Strings(originals)
	return originals
}

// CompareExceptions matches two exception lists exclusively by mepc and
// classifies every discrepancy. Matching is a greedy one-pass walk: each
// entry of listA pairs with the first still-unconsumed listB entry sharing
// its mepc, so duplicate trap addresses pair in encounter order.
func CompareExceptions(listA, listB []htif.ExceptionDump, simA, simB sim.EmulatorType) *ExceptionListDiff {
	d := &ExceptionListDiff{SimA: simA, SimB: simB}
	var raw []rawDiff

	byMepc := make(map[uint64][]int)
	for i, ex := range listB {
		byMepc[ex.CSRs.Mepc] = append(byMepc[ex.CSRs.Mepc], i)
	}
	consumed := make([]bool, len(listB))

	for _, exA := range listA {
		match := -1
		for _, idx := range byMepc[exA.CSRs.Mepc] {
			if !consumed[idx] {
				match = idx
				break
			}
		}

		if match < 0 {
			d.OnlyInA = append(d.OnlyInA, exA)
			raw = append(raw, onlyInRecord(exA, simA))
			continue
		}

		consumed[match] = true
		exB := listB[match]

		differences := compareNamedCSRs(exA.CSRs.Fields(), exB.CSRs.Fields())
		d.Paired = append(d.Paired, PairedException{A: exA, B: exB, Differences: differences})

		for _, fieldDiff := range differences {
			raw = append(raw, rawDiff{
				category: categoryForCSR(fieldDiff.Name, fieldDiff.A, fieldDiff.B),
				pc:       exA.CSRs.Mepc,
				summary: fmt.Sprintf("PC: 0x%X%s, CSR: %s, %s: 0x%X, %s: 0x%X",
					exA.CSRs.Mepc, traceSuffix(exA.Trace),
					fieldDiff.Name, simA, fieldDiff.A, simB, fieldDiff.B),
				trace: exA.Trace,
			})
		}
	}

	for i, exB := range listB {
		if !consumed[i] {
			d.OnlyInB = append(d.OnlyInB, exB)
			raw = append(raw, onlyInRecord(exB, simB))
		}
	}

	d.Categorized = categorize(raw)
	return d
}

func onlyInRecord(ex htif.ExceptionDump, which sim.EmulatorType) rawDiff {
	return rawDiff{
		category: Category{
			Kind:   OnlyInSimulator,
			Which:  which,
			Mcause: ex.CSRs.Mcause,
		},
		pc: ex.CSRs.Mepc,
		summary: fmt.Sprintf("PC: 0x%X%s, Mcause: 0x%X",
			ex.CSRs.Mepc, traceSuffix(ex.Trace), ex.CSRs.Mcause),
		trace: ex.Trace,
	}
}

func traceSuffix(t *htif.InstructionTrace) string {
	if t == nil {
		return ""
	}
	return fmt.Sprintf(" (%s)", t.Disassembly)
}
