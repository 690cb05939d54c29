// Package diff compares the structured outputs of two simulator runs and
// classifies the discrepancies it finds. All comparisons are exact 64-bit
// equality; the comparator is pure and never fails on well-formed dumps.
package diff

import (
	"fmt"

	"github.com/canxin121/riscv-fuzz-test/htif"
	"github.com/canxin121/riscv-fuzz-test/sim"
)

// IntRegisterDiff is one differing integer register.
type IntRegisterDiff struct {
	Index int
	Name  string
	A, B  uint64
}

// FloatRegisterDiff is one differing floating-point register.
type FloatRegisterDiff struct {
	Index int
	A, B  uint64
}

// CSRDifference is one differing CSR field.
type CSRDifference struct {
	Name string
	A, B uint64
}

// PresenceMismatch records that one side carried a value the other did not.
type PresenceMismatch struct {
	// A and B are true where the respective side had the value.
	A, B bool
}

// RegistersDumpDiff holds every field-level difference between two register
// dumps.
type RegistersDumpDiff struct {
	SimA, SimB sim.EmulatorType

	IntRegisters  []IntRegisterDiff
	CoreCSRs      []CSRDifference
	FloatPresence *PresenceMismatch
	FloatRegs     []FloatRegisterDiff
	FcsrPresence  *PresenceMismatch
	Fcsr          *CSRDifference
}

// IsEmpty reports whether no field differs.
func (d *RegistersDumpDiff) IsEmpty() bool {
	return len(d.IntRegisters) == 0 &&
		len(d.CoreCSRs) == 0 &&
		d.FloatPresence == nil &&
		len(d.FloatRegs) == 0 &&
		d.FcsrPresence == nil &&
		d.Fcsr == nil
}

// HasRegisterDifferences reports whether any integer or float register
// differs, ignoring CSR-only divergence.
func (d *RegistersDumpDiff) HasRegisterDifferences() bool {
	return len(d.IntRegisters) > 0 || len(d.FloatRegs) > 0
}

// DifferingRegisterNames returns the differing registers in the numeric
// x%d/f%d form the minimizer consumes.
func (d *RegistersDumpDiff) DifferingRegisterNames() []string {
	names := make([]string, 0, len(d.IntRegisters)+len(d.FloatRegs))
	for _, r := range d.IntRegisters {
		names = append(names, fmt.Sprintf("x%d", r.Index))
	}
	for _, r := range d.FloatRegs {
		names = append(names, fmt.Sprintf("f%d", r.Index))
	}
	return names
}

// CompareRegisters computes the field-level difference between two register
// dumps, a from simA and b from simB.
func CompareRegisters(a, b *htif.RegistersDump, simA, simB sim.EmulatorType) *RegistersDumpDiff {
	d := &RegistersDumpDiff{SimA: simA, SimB: simB}

	for i := 0; i < 32; i++ {
		if a.IntRegisters[i] != b.IntRegisters[i] {
			d.IntRegisters = append(d.IntRegisters, IntRegisterDiff{
				Index: i,
				Name:  htif.RegisterName(i),
				A:     a.IntRegisters[i],
				B:     b.IntRegisters[i],
			})
		}
	}

	d.CoreCSRs = compareNamedCSRs(a.CoreCSRs.Fields(), b.CoreCSRs.Fields())

	switch {
	case a.FloatRegisters != nil && b.FloatRegisters != nil:
		for i := 0; i < 32; i++ {
			if a.FloatRegisters[i] != b.FloatRegisters[i] {
				d.FloatRegs = append(d.FloatRegs, FloatRegisterDiff{
					Index: i,
					A:     a.FloatRegisters[i],
					B:     b.FloatRegisters[i],
				})
			}
		}
	case a.FloatRegisters != nil || b.FloatRegisters != nil:
		d.FloatPresence = &PresenceMismatch{
			A: a.FloatRegisters != nil,
			B: b.FloatRegisters != nil,
		}
	}

	switch {
	case a.FloatCSR != nil && b.FloatCSR != nil:
		if *a.FloatCSR != *b.FloatCSR {
			d.Fcsr = &CSRDifference{Name: "fcsr", A: *a.FloatCSR, B: *b.FloatCSR}
		}
	case a.FloatCSR != nil || b.FloatCSR != nil:
		d.FcsrPresence = &PresenceMismatch{
			A: a.FloatCSR != nil,
			B: b.FloatCSR != nil,
		}
	}

	return d
}

// compareNamedCSRs pairs two equally-shaped CSR field lists and records
// every value mismatch.
func compareNamedCSRs(a, b []htif.NamedCSR) []CSRDifference {
	var diffs []CSRDifference
	for i := range a {
		if a[i].Value != b[i].Value {
			diffs = append(diffs, CSRDifference{Name: a[i].Name, A: a[i].Value, B: b[i].Value})
		}
	}
	return diffs
}
