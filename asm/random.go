package asm

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

// Extension identifies a RISC-V instruction-set extension the generator can
// draw from.
type Extension string

// Supported extensions.
const (
	ExtI   Extension = "I"
	ExtM   Extension = "M"
	ExtF   Extension = "F"
	ExtD   Extension = "D"
	ExtZba Extension = "Zba"
	ExtZbb Extension = "Zbb"
	ExtZbs Extension = "Zbs"
)

// GenerationOrder controls how instructions from different extensions are
// interleaved in the generated program.
type GenerationOrder int

const (
	// Sequential emits each extension's block in one run.
	Sequential GenerationOrder = iota
	// RandomShuffle mixes all generated instructions together.
	RandomShuffle
)

// Generator produces random straight-line instruction sequences. Control-flow
// instructions are deliberately absent from the pools: the generated body
// must fall through to the register dump no matter what the operands are.
type Generator struct {
	order  GenerationOrder
	counts map[Extension]int
	exts   []Extension
}

// NewGenerator returns an empty generator with sequential ordering.
func NewGenerator() *Generator {
	return &Generator{counts: make(map[Extension]int)}
}

// With adds count instructions of the given extension to the plan.
func (g *Generator) With(ext Extension, count int) *Generator {
	if _, ok := g.counts[ext]; !ok {
		g.exts = append(g.exts, ext)
	}
	g.counts[ext] += count
	return g
}

// Order sets the interleaving mode.
func (g *Generator) Order(order GenerationOrder) *Generator {
	g.order = order
	return g
}

// Extensions returns the planned extensions in insertion order.
func (g *Generator) Extensions() []Extension {
	return append([]Extension(nil), g.exts...)
}

// Generate renders the planned instructions using the given random source.
func (g *Generator) Generate(rng *rand.Rand) []string {
	var instructions []string
	for _, ext := range g.exts {
		pool := pools[ext]
		if len(pool) == 0 {
			continue
		}
		for i := 0; i < g.counts[ext]; i++ {
			tmpl := pool[rng.Intn(len(pool))]
			instructions = append(instructions, tmpl.render(rng))
		}
	}
	if g.order == RandomShuffle {
		rng.Shuffle(len(instructions), func(i, j int) {
			instructions[i], instructions[j] = instructions[j], instructions[i]
		})
	}
	return instructions
}

// FormatUserCode joins instructions into an indented user-code body.
func FormatUserCode(instructions []string) string {
	var b strings.Builder
	for i, inst := range instructions {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("    ")
		b.WriteString(inst)
	}
	return b.String()
}

// Operand kinds for instruction templates.
type operandKind int

const (
	opGPR operandKind = iota
	opFPR
	opImm12
	opImm20
	opShamt6
	opShamt5
	opMem // imm12(xN) addressing operand
)

type instTemplate struct {
	mnemonic string
	operands []operandKind
}

func t(mnemonic string, operands ...operandKind) instTemplate {
	return instTemplate{mnemonic: mnemonic, operands: operands}
}

func (t instTemplate) render(rng *rand.Rand) string {
	if len(t.operands) == 0 {
		return t.mnemonic
	}
	parts := make([]string, len(t.operands))
	for i, kind := range t.operands {
		switch kind {
		case opGPR:
			parts[i] = fmt.Sprintf("x%d", rng.Intn(32))
		case opFPR:
			parts[i] = fmt.Sprintf("f%d", rng.Intn(32))
		case opImm12:
			parts[i] = fmt.Sprintf("%d", rng.Intn(4096)-2048)
		case opImm20:
			parts[i] = fmt.Sprintf("%d", rng.Intn(1<<20))
		case opShamt6:
			parts[i] = fmt.Sprintf("%d", rng.Intn(64))
		case opShamt5:
			parts[i] = fmt.Sprintf("%d", rng.Intn(32))
		case opMem:
			parts[i] = fmt.Sprintf("%d(x%d)", rng.Intn(4096)-2048, rng.Intn(32))
		}
	}
	return t.mnemonic + " " + strings.Join(parts, ", ")
}

// Pools of straight-line instructions per extension. Loads and stores with
// random addresses are included on purpose: access faults are handled by the
// trap handler and exercise the exception-comparison path.
var pools = map[Extension][]instTemplate{
	ExtI: {
		t("add", opGPR, opGPR, opGPR), t("sub", opGPR, opGPR, opGPR),
		t("sll", opGPR, opGPR, opGPR), t("srl", opGPR, opGPR, opGPR),
		t("sra", opGPR, opGPR, opGPR), t("slt", opGPR, opGPR, opGPR),
		t("sltu", opGPR, opGPR, opGPR), t("xor", opGPR, opGPR, opGPR),
		t("or", opGPR, opGPR, opGPR), t("and", opGPR, opGPR, opGPR),
		t("addw", opGPR, opGPR, opGPR), t("subw", opGPR, opGPR, opGPR),
		t("sllw", opGPR, opGPR, opGPR), t("srlw", opGPR, opGPR, opGPR),
		t("sraw", opGPR, opGPR, opGPR),
		t("addi", opGPR, opGPR, opImm12), t("addiw", opGPR, opGPR, opImm12),
		t("xori", opGPR, opGPR, opImm12), t("ori", opGPR, opGPR, opImm12),
		t("andi", opGPR, opGPR, opImm12), t("slti", opGPR, opGPR, opImm12),
		t("sltiu", opGPR, opGPR, opImm12),
		t("slli", opGPR, opGPR, opShamt6), t("srli", opGPR, opGPR, opShamt6),
		t("srai", opGPR, opGPR, opShamt6),
		t("slliw", opGPR, opGPR, opShamt5), t("srliw", opGPR, opGPR, opShamt5),
		t("sraiw", opGPR, opGPR, opShamt5),
		t("lui", opGPR, opImm20), t("auipc", opGPR, opImm20),
		t("lb", opGPR, opMem), t("lh", opGPR, opMem), t("lw", opGPR, opMem),
		t("ld", opGPR, opMem), t("lbu", opGPR, opMem), t("lhu", opGPR, opMem),
		t("lwu", opGPR, opMem),
		t("sb", opGPR, opMem), t("sh", opGPR, opMem), t("sw", opGPR, opMem),
		t("sd", opGPR, opMem),
	},
	ExtM: {
		t("mul", opGPR, opGPR, opGPR), t("mulh", opGPR, opGPR, opGPR),
		t("mulhsu", opGPR, opGPR, opGPR), t("mulhu", opGPR, opGPR, opGPR),
		t("div", opGPR, opGPR, opGPR), t("divu", opGPR, opGPR, opGPR),
		t("rem", opGPR, opGPR, opGPR), t("remu", opGPR, opGPR, opGPR),
		t("mulw", opGPR, opGPR, opGPR), t("divw", opGPR, opGPR, opGPR),
		t("divuw", opGPR, opGPR, opGPR), t("remw", opGPR, opGPR, opGPR),
		t("remuw", opGPR, opGPR, opGPR),
	},
	ExtF: {
		t("fadd.s", opFPR, opFPR, opFPR), t("fsub.s", opFPR, opFPR, opFPR),
		t("fmul.s", opFPR, opFPR, opFPR), t("fdiv.s", opFPR, opFPR, opFPR),
		t("fsqrt.s", opFPR, opFPR),
		t("fmin.s", opFPR, opFPR, opFPR), t("fmax.s", opFPR, opFPR, opFPR),
		t("fsgnj.s", opFPR, opFPR, opFPR), t("fsgnjn.s", opFPR, opFPR, opFPR),
		t("fsgnjx.s", opFPR, opFPR, opFPR),
		t("fmadd.s", opFPR, opFPR, opFPR, opFPR),
		t("fmsub.s", opFPR, opFPR, opFPR, opFPR),
		t("fnmadd.s", opFPR, opFPR, opFPR, opFPR),
		t("fnmsub.s", opFPR, opFPR, opFPR, opFPR),
		t("fcvt.w.s", opGPR, opFPR), t("fcvt.wu.s", opGPR, opFPR),
		t("fcvt.l.s", opGPR, opFPR), t("fcvt.lu.s", opGPR, opFPR),
		t("fcvt.s.w", opFPR, opGPR), t("fcvt.s.wu", opFPR, opGPR),
		t("fcvt.s.l", opFPR, opGPR), t("fcvt.s.lu", opFPR, opGPR),
		t("fmv.x.w", opGPR, opFPR), t("fmv.w.x", opFPR, opGPR),
		t("feq.s", opGPR, opFPR, opFPR), t("flt.s", opGPR, opFPR, opFPR),
		t("fle.s", opGPR, opFPR, opFPR), t("fclass.s", opGPR, opFPR),
	},
	ExtD: {
		t("fadd.d", opFPR, opFPR, opFPR), t("fsub.d", opFPR, opFPR, opFPR),
		t("fmul.d", opFPR, opFPR, opFPR), t("fdiv.d", opFPR, opFPR, opFPR),
		t("fsqrt.d", opFPR, opFPR),
		t("fmin.d", opFPR, opFPR, opFPR), t("fmax.d", opFPR, opFPR, opFPR),
		t("fsgnj.d", opFPR, opFPR, opFPR), t("fsgnjn.d", opFPR, opFPR, opFPR),
		t("fsgnjx.d", opFPR, opFPR, opFPR),
		t("fmadd.d", opFPR, opFPR, opFPR, opFPR),
		t("fmsub.d", opFPR, opFPR, opFPR, opFPR),
		t("fcvt.w.d", opGPR, opFPR), t("fcvt.wu.d", opGPR, opFPR),
		t("fcvt.l.d", opGPR, opFPR), t("fcvt.lu.d", opGPR, opFPR),
		t("fcvt.d.w", opFPR, opGPR), t("fcvt.d.wu", opFPR, opGPR),
		t("fcvt.d.l", opFPR, opGPR), t("fcvt.d.lu", opFPR, opGPR),
		t("fcvt.d.s", opFPR, opFPR), t("fcvt.s.d", opFPR, opFPR),
		t("fmv.x.d", opGPR, opFPR), t("fmv.d.x", opFPR, opGPR),
		t("feq.d", opGPR, opFPR, opFPR), t("flt.d", opGPR, opFPR, opFPR),
		t("fle.d", opGPR, opFPR, opFPR), t("fclass.d", opGPR, opFPR),
	},
	ExtZba: {
		t("sh1add", opGPR, opGPR, opGPR), t("sh2add", opGPR, opGPR, opGPR),
		t("sh3add", opGPR, opGPR, opGPR), t("add.uw", opGPR, opGPR, opGPR),
		t("sh1add.uw", opGPR, opGPR, opGPR), t("sh2add.uw", opGPR, opGPR, opGPR),
		t("sh3add.uw", opGPR, opGPR, opGPR),
		t("slli.uw", opGPR, opGPR, opShamt6),
	},
	ExtZbb: {
		t("andn", opGPR, opGPR, opGPR), t("orn", opGPR, opGPR, opGPR),
		t("xnor", opGPR, opGPR, opGPR),
		t("clz", opGPR, opGPR), t("ctz", opGPR, opGPR), t("cpop", opGPR, opGPR),
		t("clzw", opGPR, opGPR), t("ctzw", opGPR, opGPR), t("cpopw", opGPR, opGPR),
		t("min", opGPR, opGPR, opGPR), t("max", opGPR, opGPR, opGPR),
		t("minu", opGPR, opGPR, opGPR), t("maxu", opGPR, opGPR, opGPR),
		t("sext.b", opGPR, opGPR), t("sext.h", opGPR, opGPR),
		t("zext.h", opGPR, opGPR),
		t("rol", opGPR, opGPR, opGPR), t("ror", opGPR, opGPR, opGPR),
		t("rolw", opGPR, opGPR, opGPR), t("rorw", opGPR, opGPR, opGPR),
		t("rori", opGPR, opGPR, opShamt6),
		t("orc.b", opGPR, opGPR), t("rev8", opGPR, opGPR),
	},
	ExtZbs: {
		t("bclr", opGPR, opGPR, opGPR), t("bset", opGPR, opGPR, opGPR),
		t("binv", opGPR, opGPR, opGPR), t("bext", opGPR, opGPR, opGPR),
		t("bclri", opGPR, opGPR, opShamt6), t("bseti", opGPR, opGPR, opShamt6),
		t("binvi", opGPR, opGPR, opShamt6), t("bexti", opGPR, opGPR, opShamt6),
	},
}

// March builds a RISC-V march string for the given extensions: the single
// letter extensions in canonical IMAFDQCV order, then the multi-letter ones
// sorted and joined with underscores. Implied extensions are added (D implies
// F; any extension implies I).
func March(extensions []Extension) string {
	if len(extensions) == 0 {
		return "rv64i"
	}

	std := make(map[byte]bool)
	other := make(map[string]bool)

	for _, ext := range extensions {
		switch ext {
		case ExtI:
			std['i'] = true
		case ExtM:
			std['m'] = true
		case ExtF:
			std['f'] = true
			other["zfa"] = true
		case ExtD:
			std['d'] = true
			std['f'] = true
			other["zfa"] = true
		case ExtZba, ExtZbb, ExtZbs:
			other[strings.ToLower(string(ext))] = true
		default:
			other[strings.ToLower(string(ext))] = true
		}
	}

	std['i'] = true

	var b strings.Builder
	b.WriteString("rv64")
	for _, c := range []byte("imafdqcv") {
		if std[c] {
			b.WriteByte(c)
		}
	}

	if len(other) > 0 {
		names := make([]string, 0, len(other))
		for name := range other {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteByte('_')
		b.WriteString(strings.Join(names, "_"))
	}

	return b.String()
}
