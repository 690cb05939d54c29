package htif

import (
	"encoding/binary"
)

// Well-known magic words that show up in the low half of stray 8-byte values.
// They are not record markers but are too deliberate to classify as noise.
var familiarMagics = [...]uint32{0xDEADBEEF, 0xCAFEBABE, 0xFEEDFACE, 0x0BADC0DE}

// Decode scans a raw output buffer and classifies every byte into output
// items. It never fails: regions that match nothing degrade to
// UnclassifiedBytes.
func Decode(data []byte) []OutputItem {
	return Parse(data).Items
}

// Parse scans a raw output buffer and additionally materializes the register
// and exception dumps found along the way.
func Parse(data []byte) *ExecutionOutput {
	out := &ExecutionOutput{RawLength: len(data)}

	pos := 0
	for pos < len(data) {
		// Text run first: printable ASCII plus NL/CR/TAB, terminated by
		// a NUL (consumed, stripped) or any other control byte.
		if text, consumed, ok := tryText(data[pos:]); ok {
			out.Items = append(out.Items, AsciiText{Text: text, Pos: pos, Consumed: consumed})
			pos += consumed
			continue
		}

		if pos+8 <= len(data) {
			word := binary.LittleEndian.Uint64(data[pos : pos+8])

			if kind := markerKindOf(word); kind != MarkerUnknown {
				out.Items = append(out.Items, MagicMarker{Value: word, Kind: kind, Pos: pos})
				markerPos := pos
				pos += 8

				need := payloadLen(kind)
				if len(data)-pos < need {
					// Truncated stream: the marker stands alone and the
					// record is dropped.
					out.TruncatedPayloads++
					continue
				}

				payload := data[pos : pos+need]
				switch kind {
				case MarkerException:
					dump := AssembleException(payload, markerPos)
					out.ExceptionDumps = append(out.ExceptionDumps, dump)
					out.Items = append(out.Items, ExceptionRecord{CSRs: dump.CSRs, Pos: pos})
				default:
					dump := AssembleRegisters(kind, payload, markerPos)
					out.RegisterDumps = append(out.RegisterDumps, dump)
					out.Items = append(out.Items, RegisterRecord{
						Kind:  kind,
						Words: payloadWords(payload),
						Pos:   pos,
					})
				}
				pos += need
				continue
			}

			if looksLikeMarker(word) {
				out.Items = append(out.Items, MagicMarker{Value: word, Kind: MarkerUnknown, Pos: pos})
				pos += 8
				continue
			}
		}

		chunk := len(data) - pos
		if chunk > 8 {
			chunk = 8
		}
		out.Items = append(out.Items, UnclassifiedBytes{Data: data[pos : pos+chunk], Pos: pos})
		pos += chunk
	}

	return out
}

// tryText accumulates a leading text run. ok is false when the run contains
// no printable byte, in which case the caller must not advance.
func tryText(data []byte) (text string, consumed int, ok bool) {
	end := 0
	hasPrintable := false

scan:
	for i, b := range data {
		switch {
		case b == 0:
			// NUL terminates the run and is consumed but stripped.
			end = i + 1
			break scan
		case b >= 32 && b <= 126, b == '\n', b == '\r', b == '\t':
			hasPrintable = true
			end = i + 1
		case b < 32:
			break scan
		case b >= 128:
			break scan
		default:
			// DEL: swallowed inside a run but not printable on its own.
			end = i + 1
		}
	}

	if end == 0 || !hasPrintable {
		return "", 0, false
	}

	raw := data[:end]
	if raw[len(raw)-1] == 0 {
		raw = raw[:len(raw)-1]
	}
	return string(raw), end, true
}

// looksLikeMarker is a best-effort heuristic for 8-byte values that are
// probably markers this decoder does not know about: very low byte diversity,
// or a familiar magic word in the low 32 bits. Kept behind one predicate so
// it can be tuned without touching the scan loop.
func looksLikeMarker(value uint64) bool {
	var bytes [8]byte
	binary.LittleEndian.PutUint64(bytes[:], value)

	seen := make(map[byte]struct{}, 8)
	for _, b := range bytes {
		seen[b] = struct{}{}
	}
	if len(seen) <= 3 {
		return true
	}

	low := uint32(value)
	for _, magic := range familiarMagics {
		if low == magic {
			return true
		}
	}
	return false
}

// AssembleRegisters decodes a register dump payload. kind must be
// MarkerIntOnly or MarkerIntAndFloat and the payload must carry the full
// fixed length for that kind; Parse guarantees both.
func AssembleRegisters(kind MarkerKind, payload []byte, offset int) RegistersDump {
	dump := RegistersDump{Kind: DumpIntOnly, ByteOffset: offset}

	for i := 0; i < 32; i++ {
		dump.IntRegisters[i] = binary.LittleEndian.Uint64(payload[i*8:])
	}
	dump.CoreCSRs = assembleCoreCSRs(payload[256:])

	if kind == MarkerIntAndFloat {
		dump.Kind = DumpIntAndFloat
		fcsr := binary.LittleEndian.Uint64(payload[400:])
		dump.FloatCSR = &fcsr

		var floats [32]uint64
		for i := 0; i < 32; i++ {
			floats[i] = binary.LittleEndian.Uint64(payload[408+i*8:])
		}
		dump.FloatRegisters = &floats
	}

	return dump
}

// AssembleException decodes a 72-byte trap CSR payload.
func AssembleException(payload []byte, offset int) ExceptionDump {
	word := func(i int) uint64 { return binary.LittleEndian.Uint64(payload[i*8:]) }
	return ExceptionDump{
		CSRs: ExceptionCSRs{
			Mstatus:  word(0),
			Mcause:   word(1),
			Mepc:     word(2),
			Mtval:    word(3),
			Mie:      word(4),
			Mip:      word(5),
			Mtvec:    word(6),
			Mscratch: word(7),
			Mhartid:  word(8),
		},
		ByteOffset: offset,
	}
}

func assembleCoreCSRs(payload []byte) CoreCSRs {
	word := func(i int) uint64 { return binary.LittleEndian.Uint64(payload[i*8:]) }
	return CoreCSRs{
		Mstatus:    word(0),
		Misa:       word(1),
		Medeleg:    word(2),
		Mideleg:    word(3),
		Mie:        word(4),
		Mtvec:      word(5),
		Mcounteren: word(6),
		Mscratch:   word(7),
		Mepc:       word(8),
		Mcause:     word(9),
		Mtval:      word(10),
		Mip:        word(11),
		Mcycle:     word(12),
		Minstret:   word(13),
		Mvendorid:  word(14),
		Marchid:    word(15),
		Mimpid:     word(16),
		Mhartid:    word(17),
	}
}

func payloadWords(payload []byte) []uint64 {
	words := make([]uint64, len(payload)/8)
	for i := range words {
		words[i] = binary.LittleEndian.Uint64(payload[i*8:])
	}
	return words
}
