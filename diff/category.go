package diff

import (
	"fmt"
	"sort"

	"github.com/canxin121/riscv-fuzz-test/htif"
	"github.com/canxin121/riscv-fuzz-test/sim"
)

// CategoryKind discriminates the exception-difference categories.
type CategoryKind uint8

// Exception difference categories.
const (
	// FixedMipDifference marks a recurring mip value disagreement.
	FixedMipDifference CategoryKind = iota
	// McauseDifference marks the same trap site raising different causes.
	McauseDifference
	// OnlyInSimulator marks a trap one simulator raised and the other did
	// not.
	OnlyInSimulator
	// MtvalDifference marks mtval disagreement.
	MtvalDifference
	// OtherCsrDifference marks any remaining CSR field disagreement.
	OtherCsrDifference
)

// Category is the grouping key for exception differences. It is a comparable
// value type so it can key a map; unused fields stay zero.
type Category struct {
	Kind CategoryKind

	// A and B carry the two simulators' values for FixedMipDifference and
	// McauseDifference.
	A, B uint64

	// Which and Mcause describe an OnlyInSimulator entry.
	Which  sim.EmulatorType
	Mcause uint64

	// CsrName names the field for OtherCsrDifference.
	CsrName string
}

// Name returns a stable short name used for tie-breaking group order.
func (c Category) Name() string {
	switch c.Kind {
	case FixedMipDifference:
		return "Fixed MIP Difference"
	case McauseDifference:
		return "MCAUSE Difference"
	case OnlyInSimulator:
		return fmt.Sprintf("Exception only in %s", c.Which)
	case MtvalDifference:
		return "MTVAL Difference"
	default:
		return fmt.Sprintf("%s Difference", c.CsrName)
	}
}

// Title returns the full display title including the category's values.
func (c Category) Title() string {
	switch c.Kind {
	case FixedMipDifference:
		return fmt.Sprintf("Fixed MIP Difference (Value1=0x%X, Value2=0x%X)", c.A, c.B)
	case McauseDifference:
		return fmt.Sprintf("MCAUSE Difference (Cause1: %s vs Cause2: %s)",
			htif.ExceptionDescription(c.A), htif.ExceptionDescription(c.B))
	case OnlyInSimulator:
		return fmt.Sprintf("Only in %s (mcause: 0x%X - %s)",
			c.Which, c.Mcause, htif.ExceptionDescription(c.Mcause))
	case MtvalDifference:
		return "MTVAL Value Difference"
	default:
		return fmt.Sprintf("Other CSR (%s) Difference", c.CsrName)
	}
}

// categoryForCSR maps a differing CSR field name to its category.
func categoryForCSR(name string, a, b uint64) Category {
	switch name {
	case "mip":
		return Category{Kind: FixedMipDifference, A: a, B: b}
	case "mcause":
		return Category{Kind: McauseDifference, A: a, B: b}
	case "mtval":
		return Category{Kind: MtvalDifference}
	default:
		return Category{Kind: OtherCsrDifference, CsrName: name}
	}
}

// rawDiff is one un-grouped exception difference record.
type rawDiff struct {
	category Category
	pc       uint64
	summary  string
	trace    *htif.InstructionTrace
}

// CategorizedDiffs is one group of exception differences sharing a category.
type CategorizedDiffs struct {
	Category Category
	// Count is the number of raw difference records in the group.
	Count int
	// PCs is the de-duplicated ascending list of affected trap PCs.
	PCs []uint64
	// Traces holds, per PC, the first instruction trace found among the
	// group's records for that PC; entries may be nil.
	Traces []*htif.InstructionTrace
	// Summaries are one-line descriptions of the individual records.
	Summaries []string
}

// categorize groups raw difference records and orders the groups by
// descending count, ties broken by category name.
func categorize(raw []rawDiff) []CategorizedDiffs {
	if len(raw) == 0 {
		return nil
	}

	byCategory := make(map[Category][]rawDiff)
	for _, r := range raw {
		byCategory[r.category] = append(byCategory[r.category], r)
	}

	groups := make([]CategorizedDiffs, 0, len(byCategory))
	for category, records := range byCategory {
		group := CategorizedDiffs{Category: category, Count: len(records)}

		pcs := make([]uint64, 0, len(records))
		for _, r := range records {
			pcs = append(pcs, r.pc)
			group.Summaries = append(group.Summaries, r.summary)
		}
		sort.Slice(pcs, func(i, j int) bool { return pcs[i] < pcs[j] })
		group.PCs = dedupSorted(pcs)

		for _, pc := range group.PCs {
			group.Traces = append(group.Traces, firstTraceFor(records, pc))
		}

		groups = append(groups, group)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Category.Name() < groups[j].Category.Name()
	})
	return groups
}

func dedupSorted(pcs []uint64) []uint64 {
	out := pcs[:0]
	for i, pc := range pcs {
		if i == 0 || pc != out[len(out)-1] {
			out = append(out, pc)
		}
	}
	return out
}

func firstTraceFor(records []rawDiff, pc uint64) *htif.InstructionTrace {
	for _, r := range records {
		if r.pc == pc && r.trace != nil {
			return r.trace
		}
	}
	return nil
}
