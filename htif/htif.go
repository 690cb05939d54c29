// Package htif decodes the HTIF-style binary output stream emitted by the
// simulated program. The stream interleaves free-form text with fixed-format
// records: an 8-byte little-endian magic marker followed by a fixed-length
// payload carrying a register dump or a trap's CSR snapshot.
package htif

// Magic marker constants, as emitted by the target program over its HTIF
// output channel.
const (
	// MarkerRegistersIntOnly precedes a 400-byte payload: 32 integer
	// registers followed by the 18 core CSRs.
	MarkerRegistersIntOnly uint64 = 0xFEEDC0DE2000

	// MarkerRegistersIntAndFloat precedes a 664-byte payload: the integer
	// payload, then fcsr, then 32 floating-point registers.
	MarkerRegistersIntAndFloat uint64 = 0xFEEDC0DE1000

	// MarkerExceptionCSR precedes a 72-byte payload of 9 trap CSRs.
	MarkerExceptionCSR uint64 = 0xBADC0DE1000
)

// Payload lengths in bytes for each known marker.
const (
	PayloadLenIntOnly      = 400
	PayloadLenIntAndFloat  = 664
	PayloadLenExceptionCSR = 72
)

// MarkerKind classifies an 8-byte magic marker.
type MarkerKind uint8

// Marker kinds.
const (
	MarkerUnknown MarkerKind = iota
	MarkerIntOnly
	MarkerIntAndFloat
	MarkerException
)

// String returns a human-readable name for the marker kind.
func (k MarkerKind) String() string {
	switch k {
	case MarkerIntOnly:
		return "integer register dump"
	case MarkerIntAndFloat:
		return "integer + floating-point register dump"
	case MarkerException:
		return "exception CSR dump"
	default:
		return "unknown marker"
	}
}

// markerKindOf maps a raw 8-byte value to its marker kind, or MarkerUnknown
// when the value is not one of the known constants.
func markerKindOf(value uint64) MarkerKind {
	switch value {
	case MarkerRegistersIntOnly:
		return MarkerIntOnly
	case MarkerRegistersIntAndFloat:
		return MarkerIntAndFloat
	case MarkerExceptionCSR:
		return MarkerException
	default:
		return MarkerUnknown
	}
}

// payloadLen returns the fixed payload length for a known marker kind, or 0
// for MarkerUnknown.
func payloadLen(kind MarkerKind) int {
	switch kind {
	case MarkerIntOnly:
		return PayloadLenIntOnly
	case MarkerIntAndFloat:
		return PayloadLenIntAndFloat
	case MarkerException:
		return PayloadLenExceptionCSR
	default:
		return 0
	}
}

// CoreCSRs holds the 18 machine-mode CSRs captured by a register dump, in
// their payload order.
type CoreCSRs struct {
	Mstatus    uint64
	Misa       uint64
	Medeleg    uint64
	Mideleg    uint64
	Mie        uint64
	Mtvec      uint64
	Mcounteren uint64
	Mscratch   uint64
	Mepc       uint64
	Mcause     uint64
	Mtval      uint64
	Mip        uint64
	Mcycle     uint64
	Minstret   uint64
	Mvendorid  uint64
	Marchid    uint64
	Mimpid     uint64
	Mhartid    uint64
}

// NamedCSR is a CSR name/value pair.
type NamedCSR struct {
	Name  string
	Value uint64
}

// Fields returns the CSRs as name/value pairs in payload order.
func (c CoreCSRs) Fields() []NamedCSR {
	return []NamedCSR{
		{"mstatus", c.Mstatus},
		{"misa", c.Misa},
		{"medeleg", c.Medeleg},
		{"mideleg", c.Mideleg},
		{"mie", c.Mie},
		{"mtvec", c.Mtvec},
		{"mcounteren", c.Mcounteren},
		{"mscratch", c.Mscratch},
		{"mepc", c.Mepc},
		{"mcause", c.Mcause},
		{"mtval", c.Mtval},
		{"mip", c.Mip},
		{"mcycle", c.Mcycle},
		{"minstret", c.Minstret},
		{"mvendorid", c.Mvendorid},
		{"marchid", c.Marchid},
		{"mimpid", c.Mimpid},
		{"mhartid", c.Mhartid},
	}
}

// ExceptionCSRs holds the 9 CSRs captured by the trap handler, in their
// payload order.
type ExceptionCSRs struct {
	Mstatus  uint64
	Mcause   uint64
	Mepc     uint64
	Mtval    uint64
	Mie      uint64
	Mip      uint64
	Mtvec    uint64
	Mscratch uint64
	Mhartid  uint64
}

// Fields returns the CSRs as name/value pairs in payload order.
func (c ExceptionCSRs) Fields() []NamedCSR {
	return []NamedCSR{
		{"mstatus", c.Mstatus},
		{"mcause", c.Mcause},
		{"mepc", c.Mepc},
		{"mtval", c.Mtval},
		{"mie", c.Mie},
		{"mip", c.Mip},
		{"mtvec", c.Mtvec},
		{"mscratch", c.Mscratch},
		{"mhartid", c.Mhartid},
	}
}

// DumpKind distinguishes the two register dump layouts.
type DumpKind uint8

// Register dump kinds.
const (
	// DumpIntOnly covers the 32 integer registers and the core CSRs.
	DumpIntOnly DumpKind = iota
	// DumpIntAndFloat additionally covers fcsr and the 32 float registers.
	DumpIntAndFloat
)

// String returns a human-readable name for the dump kind.
func (k DumpKind) String() string {
	if k == DumpIntAndFloat {
		return "int+float"
	}
	return "int-only"
}

// RegistersDump is the architectural register state captured by one register
// dump record. FloatRegisters and FloatCSR are non-nil iff Kind is
// DumpIntAndFloat.
type RegistersDump struct {
	Kind           DumpKind
	IntRegisters   [32]uint64
	CoreCSRs       CoreCSRs
	FloatRegisters *[32]uint64
	FloatCSR       *uint64

	// ByteOffset is where the dump's marker began in the raw stream.
	ByteOffset int
}

// InstructionTrace ties a trap PC back to the program source via a parsed
// disassembly listing.
type InstructionTrace struct {
	PC                  uint64
	Disassembly         string
	MachineCode         string
	OriginalInstruction string
}

// ExceptionDump is one trap's CSR snapshot. Trace is attached after parsing
// by a disassembly tracer keyed on CSRs.Mepc; everything else is immutable
// once decoded.
type ExceptionDump struct {
	CSRs       ExceptionCSRs
	ByteOffset int
	Trace      *InstructionTrace
}

// ExecutionOutput is the structured result of decoding one simulator run's
// raw output stream.
type ExecutionOutput struct {
	RawLength      int
	Items          []OutputItem
	RegisterDumps  []RegistersDump
	ExceptionDumps []ExceptionDump

	// TruncatedPayloads counts markers whose payload was cut short by the
	// end of the stream. The record is dropped; this counter is the only
	// trace it leaves.
	TruncatedPayloads int
}

// FinalRegisters returns the authoritative register state of the run: the
// last dump encountered. Nil when the run produced no register dump.
func (o *ExecutionOutput) FinalRegisters() *RegistersDump {
	if len(o.RegisterDumps) == 0 {
		return nil
	}
	return &o.RegisterDumps[len(o.RegisterDumps)-1]
}
