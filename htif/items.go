package htif

// OutputItem is one classified region of the raw output stream. Successive
// items cover the stream exactly once, in increasing offset order.
type OutputItem interface {
	// Offset is the byte position where the item began.
	Offset() int
	// Len is the number of raw bytes the item consumed.
	Len() int

	outputItem()
}

// AsciiText is a run of printable text, with any terminating NUL stripped.
type AsciiText struct {
	Text string
	Pos  int
	// Consumed is the raw byte count, including a trailing NUL if one
	// ended the run.
	Consumed int
}

// MagicMarker is an 8-byte value recognized as a record marker, either one
// of the known constants or a heuristic match (Kind == MarkerUnknown).
type MagicMarker struct {
	Value uint64
	Kind  MarkerKind
	Pos   int
}

// RegisterRecord is a register dump payload. Words holds the payload as
// little-endian 64-bit words in payload order.
type RegisterRecord struct {
	Kind  MarkerKind
	Words []uint64
	Pos   int
}

// ExceptionRecord is a trap CSR payload.
type ExceptionRecord struct {
	CSRs ExceptionCSRs
	Pos  int
}

// UnclassifiedBytes is a chunk (at most 8 bytes) that matched nothing.
type UnclassifiedBytes struct {
	Data []byte
	Pos  int
}

func (t AsciiText) Offset() int         { return t.Pos }
func (m MagicMarker) Offset() int       { return m.Pos }
func (r RegisterRecord) Offset() int    { return r.Pos }
func (e ExceptionRecord) Offset() int   { return e.Pos }
func (u UnclassifiedBytes) Offset() int { return u.Pos }

func (t AsciiText) Len() int         { return t.Consumed }
func (m MagicMarker) Len() int       { return 8 }
func (r RegisterRecord) Len() int    { return len(r.Words) * 8 }
func (e ExceptionRecord) Len() int   { return PayloadLenExceptionCSR }
func (u UnclassifiedBytes) Len() int { return len(u.Data) }

func (AsciiText) outputItem()         {}
func (MagicMarker) outputItem()       {}
func (RegisterRecord) outputItem()    {}
func (ExceptionRecord) outputItem()   {}
func (UnclassifiedBytes) outputItem() {}
