// Package report renders comparison results and execution summaries as
// Markdown and persists them as JSON. It is a pure consumer of the diff and
// htif types; nothing here feeds back into the comparison.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/canxin121/riscv-fuzz-test/diff"
	"github.com/canxin121/riscv-fuzz-test/htif"
)

// RegistersMarkdown renders a register-dump comparison as a Markdown report.
func RegistersMarkdown(d *diff.RegistersDumpDiff) string {
	var b strings.Builder
	b.WriteString("# Register Dump Differences\n\n")

	if d.IsEmpty() {
		b.WriteString("No differences found\n")
		return b.String()
	}

	var sections []string
	if len(d.IntRegisters) > 0 {
		sections = append(sections, "Integer Registers")
	}
	if len(d.CoreCSRs) > 0 {
		sections = append(sections, "Core CSRs")
	}
	if d.FloatPresence != nil {
		sections = append(sections, "Float Register Status")
	}
	if len(d.FloatRegs) > 0 {
		sections = append(sections, "Float Registers")
	}
	if d.FcsrPresence != nil || d.Fcsr != nil {
		sections = append(sections, "Float CSRs")
	}
	fmt.Fprintf(&b, "Differences found in: %s\n\n", strings.Join(sections, ", "))

	simA, simB := d.SimA.String(), d.SimB.String()

	if len(d.IntRegisters) > 0 {
		fmt.Fprintf(&b, "## Integer Register Differences\n\n")
		fmt.Fprintf(&b, "Difference count: %d / 32\n\n", len(d.IntRegisters))
		rows := make([][]string, 0, len(d.IntRegisters))
		for _, r := range d.IntRegisters {
			rows = append(rows, []string{
				fmt.Sprintf("x%02d", r.Index), r.Name, hex64(r.A), hex64(r.B),
			})
		}
		b.WriteString(markdownTable([]string{"Register", "ABI Name", simA, simB}, rows))
		b.WriteByte('\n')
	}

	if len(d.CoreCSRs) > 0 {
		fmt.Fprintf(&b, "## Core CSR Differences\n\n")
		fmt.Fprintf(&b, "Difference count: %d\n\n", len(d.CoreCSRs))
		rows := make([][]string, 0, len(d.CoreCSRs))
		for _, c := range d.CoreCSRs {
			rows = append(rows, []string{c.Name, hex64(c.A), hex64(c.B)})
		}
		b.WriteString(markdownTable([]string{"CSR", simA, simB}, rows))
		b.WriteByte('\n')
	}

	if d.FloatPresence != nil {
		fmt.Fprintf(&b, "## Float Register Status Difference\n\n")
		b.WriteString(markdownTable([]string{"Item", simA, simB}, [][]string{
			{"Float Registers", presence(d.FloatPresence.A), presence(d.FloatPresence.B)},
		}))
		b.WriteByte('\n')
	}

	if len(d.FloatRegs) > 0 {
		fmt.Fprintf(&b, "## Float Register Differences\n\n")
		fmt.Fprintf(&b, "Difference count: %d / 32 float registers\n\n", len(d.FloatRegs))
		rows := make([][]string, 0, len(d.FloatRegs))
		for _, r := range d.FloatRegs {
			rows = append(rows, []string{
				fmt.Sprintf("f%02d", r.Index), hex64(r.A), hex64(r.B),
			})
		}
		b.WriteString(markdownTable([]string{"Register", simA, simB}, rows))
		b.WriteByte('\n')
	}

	if d.FcsrPresence != nil {
		fmt.Fprintf(&b, "## Float CSR Status Difference\n\n")
		b.WriteString(markdownTable([]string{"Item", simA, simB}, [][]string{
			{"Float CSR", presence(d.FcsrPresence.A), presence(d.FcsrPresence.B)},
		}))
		b.WriteByte('\n')
	}

	if d.Fcsr != nil {
		fmt.Fprintf(&b, "## Float CSR Difference\n\n")
		b.WriteString(markdownTable([]string{"CSR", simA, simB}, [][]string{
			{d.Fcsr.Name, hex64(d.Fcsr.A), hex64(d.Fcsr.B)},
		}))
		b.WriteByte('\n')
	}

	return b.String()
}

// ExceptionsMarkdown renders an exception-list comparison as a Markdown
// report: unmatched exceptions per side, matched pairs with differences, and
// the categorized summary.
func ExceptionsMarkdown(d *diff.ExceptionListDiff) string {
	simA, simB := d.SimA.String(), d.SimB.String()

	var b strings.Builder
	b.WriteString("# Exception List Diff Report\n\n")
	fmt.Fprintf(&b, "Comparison: %s vs %s\n\n", simA, simB)

	pairsWithDiffs := 0
	for _, p := range d.Paired {
		if len(p.Differences) > 0 {
			pairsWithDiffs++
		}
	}

	b.WriteString("## Difference Summary\n\n")
	b.WriteString(markdownTable([]string{"Category", "Count"}, [][]string{
		{fmt.Sprintf("Exceptions only in %s", simA), fmt.Sprintf("%d", len(d.OnlyInA))},
		{fmt.Sprintf("Exceptions only in %s", simB), fmt.Sprintf("%d", len(d.OnlyInB))},
		{"Matched exception pairs (total)", fmt.Sprintf("%d", len(d.Paired))},
		{"Matched exception pairs (with differences)", fmt.Sprintf("%d", pairsWithDiffs)},
		{"Categorized differences", fmt.Sprintf("%d", len(d.Categorized))},
	}))
	b.WriteByte('\n')

	writeOnlyIn(&b, simA, d.OnlyInA)
	writeOnlyIn(&b, simB, d.OnlyInB)

	if pairsWithDiffs > 0 {
		b.WriteString("## Matched Exception Difference Details\n\n")
		fmt.Fprintf(&b, "Pairs with differences: %d / %d pairs\n\n",
			pairsWithDiffs, len(d.Paired))

		n := 0
		for _, p := range d.Paired {
			if len(p.Differences) == 0 {
				continue
			}
			n++
			fmt.Fprintf(&b, "### Pair %d - MEPC: %s\n\n", n, hex64(p.A.CSRs.Mepc))

			if t := p.A.Trace; t != nil {
				b.WriteString("#### Triggering Instruction\n\n")
				b.WriteString(markdownTable(
					[]string{"PC Address", "Disassembly", "Original Assembly"},
					[][]string{{hex64(p.A.CSRs.Mepc), t.Disassembly, t.OriginalInstruction}}))
				b.WriteByte('\n')
			}

			b.WriteString(markdownTable([]string{"Item", simA, simB}, [][]string{
				{"Position", fmt.Sprintf("%d", p.A.ByteOffset), fmt.Sprintf("%d", p.B.ByteOffset)},
				{"MCAUSE", hex64(p.A.CSRs.Mcause), hex64(p.B.CSRs.Mcause)},
				{"Exception Description",
					htif.ExceptionDescription(p.A.CSRs.Mcause),
					htif.ExceptionDescription(p.B.CSRs.Mcause)},
			}))
			b.WriteByte('\n')

			b.WriteString("#### CSR Field Differences\n\n")
			rows := make([][]string, 0, len(p.Differences))
			for _, c := range p.Differences {
				desc := "Values differ"
				if c.Name == "mcause" {
					desc = fmt.Sprintf("%s vs %s",
						htif.ExceptionDescription(c.A), htif.ExceptionDescription(c.B))
				}
				rows = append(rows, []string{c.Name, hex64(c.A), hex64(c.B), desc})
			}
			b.WriteString(markdownTable(
				[]string{"CSR Field", simA, simB, "Difference Description"}, rows))
			b.WriteByte('\n')
		}
	} else if len(d.Paired) > 0 {
		b.WriteString("## Matched Exception Status\n\n")
		fmt.Fprintf(&b, "%d matched exception pairs, no differences\n\n", len(d.Paired))
	}

	if len(d.Categorized) > 0 {
		b.WriteString("## Categorized Exception Difference Summary\n\n")
		total := 0
		for _, g := range d.Categorized {
			total += g.Count
		}
		fmt.Fprintf(&b, "Total differences: %d\n\n", total)

		for i, g := range d.Categorized {
			fmt.Fprintf(&b, "### Category %d\n\n", i+1)
			b.WriteString(CategoryMarkdown(&g))
		}
	}

	if d.IsEmpty() {
		b.WriteString("No significant differences found\n")
	}

	return b.String()
}

// CategoryMarkdown renders one categorized difference group.
func CategoryMarkdown(g *diff.CategorizedDiffs) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Category: %s\n", g.Category.Title())
	fmt.Fprintf(&b, "Occurrence count: %d\n", g.Count)
	fmt.Fprintf(&b, "Affected PCs: %d addresses\n\n", len(g.PCs))

	if len(g.PCs) > 0 {
		b.WriteString("#### PC Address and Instruction Mapping\n\n")
		rows := make([][]string, 0, len(g.PCs))
		for i, pc := range g.PCs {
			disasm, original := "-", "-"
			if t := g.Traces[i]; t != nil {
				disasm, original = t.Disassembly, t.OriginalInstruction
			}
			rows = append(rows, []string{
				fmt.Sprintf("%d", i+1), hex64(pc), disasm, original,
			})
		}
		b.WriteString(markdownTable(
			[]string{"#", "PC Address", "Disassembly", "Original Assembly"}, rows))
		b.WriteByte('\n')
	}

	if len(g.Summaries) > 0 {
		b.WriteString("#### Difference Examples\n\n")
		for i, s := range g.Summaries {
			fmt.Fprintf(&b, "%d. %s\n", i+1, s)
		}
		b.WriteByte('\n')
	}

	return b.String()
}

// ExecutionMarkdown renders a one-run summary: counts, the text the program
// printed, and the trap list.
func ExecutionMarkdown(name string, out *htif.ExecutionOutput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s Execution Output\n\n", name)

	b.WriteString(markdownTable([]string{"Item", "Value"}, [][]string{
		{"Raw output bytes", fmt.Sprintf("%d", out.RawLength)},
		{"Decoded items", fmt.Sprintf("%d", len(out.Items))},
		{"Register dumps", fmt.Sprintf("%d", len(out.RegisterDumps))},
		{"Exception dumps", fmt.Sprintf("%d", len(out.ExceptionDumps))},
		{"Truncated payloads", fmt.Sprintf("%d", out.TruncatedPayloads)},
	}))
	b.WriteByte('\n')

	if len(out.ExceptionDumps) > 0 {
		b.WriteString("## Exceptions\n\n")
		rows := make([][]string, 0, len(out.ExceptionDumps))
		for i, ex := range out.ExceptionDumps {
			disasm := "-"
			if ex.Trace != nil {
				disasm = ex.Trace.Disassembly
			}
			rows = append(rows, []string{
				fmt.Sprintf("%d", i+1),
				hex64(ex.CSRs.Mepc),
				fmt.Sprintf("0x%X", ex.CSRs.Mcause),
				htif.ExceptionDescription(ex.CSRs.Mcause),
				disasm,
			})
		}
		b.WriteString(markdownTable(
			[]string{"#", "MEPC", "MCAUSE", "Description", "Disassembly"}, rows))
		b.WriteByte('\n')
	}

	return b.String()
}

func writeOnlyIn(b *strings.Builder, simName string, list []htif.ExceptionDump) {
	if len(list) == 0 {
		return
	}
	fmt.Fprintf(b, "## Exceptions only in %s\n\n", simName)
	fmt.Fprintf(b, "Total: %d\n\n", len(list))

	rows := make([][]string, 0, len(list))
	for i, ex := range list {
		disasm, original := "-", "-"
		if t := ex.Trace; t != nil {
			disasm, original = t.Disassembly, t.OriginalInstruction
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			hex64(ex.CSRs.Mepc),
			disasm,
			original,
			hex64(ex.CSRs.Mcause),
			htif.ExceptionDescription(ex.CSRs.Mcause),
			hex64(ex.CSRs.Mtval),
			fmt.Sprintf("%d", ex.ByteOffset),
		})
	}
	b.WriteString(markdownTable([]string{
		"#", "MEPC", "Disassembly", "Original Assembly", "MCAUSE",
		"Exception Description", "MTVAL", "Position",
	}, rows))
	b.WriteByte('\n')
}

func markdownTable(header []string, rows [][]string) string {
	buf := new(bytes.Buffer)
	table := tablewriter.NewWriter(buf)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	table.AppendBulk(rows)
	table.Render()
	return buf.String()
}

func hex64(v uint64) string {
	return fmt.Sprintf("0x%016X", v)
}

func presence(present bool) string {
	if present {
		return "present"
	}
	return "absent"
}
