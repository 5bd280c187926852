// Package wire describes the on-the-wire layout of the general-loader
// event stream: the signature preamble, the opcode enumeration, and the
// fixed-size portions of every event header and body record.
//
// Byte order is little-endian throughout, matching the signature's
// declared endianness. Nothing in this package performs I/O; it only
// knows how wide things are and how to pack/unpack the fixed-size
// fields once they have been read into memory by internal/reader.
package wire

import "encoding/binary"

// Dialect selects which framing rules an event stream follows.
type Dialect uint8

const (
	Unpacked Dialect = 0
	Packed   Dialect = 1
)

func (d Dialect) String() string {
	if d == Packed {
		return "packed"
	}
	return "unpacked"
}

// Opcode enumerates every event kind a stream may carry.
type Opcode uint8

const (
	EvtUseSchema     Opcode = 1
	EvtRemotePath    Opcode = 2
	EvtNewTable      Opcode = 3
	EvtNewColumn     Opcode = 4
	EvtOpenStream    Opcode = 5
	EvtEndStream     Opcode = 6
	EvtCellDefault   Opcode = 7
	EvtCellData      Opcode = 8
	EvtNextRow       Opcode = 9
	EvtMoveAhead     Opcode = 10
	EvtErrMsg        Opcode = 11
	EvtEmptyDefault  Opcode = 12
	EvtUseSchema2    Opcode = 13
	EvtRemotePath2   Opcode = 14
	EvtNewTable2     Opcode = 15
	EvtCellDefault2  Opcode = 16
	EvtCellData2     Opcode = 17
	EvtErrMsg2       Opcode = 18
)

var opcodeNames = map[Opcode]string{
	EvtUseSchema:    "use-schema",
	EvtRemotePath:   "remote-path",
	EvtNewTable:     "new-table",
	EvtNewColumn:    "new-column",
	EvtOpenStream:   "open-stream",
	EvtEndStream:    "end-stream",
	EvtCellDefault:  "cell-default",
	EvtCellData:     "cell-data",
	EvtNextRow:      "next-row",
	EvtMoveAhead:    "move-ahead",
	EvtErrMsg:       "error-message",
	EvtEmptyDefault: "empty-default",
	EvtUseSchema2:   "use-schema2",
	EvtRemotePath2:  "remote-path2",
	EvtNewTable2:    "new-table2",
	EvtCellDefault2: "cell-default2",
	EvtCellData2:    "cell-data2",
	EvtErrMsg2:      "error-message2",
}

// Name returns the opcode's diagnostic name, or "unknown" if it is not
// part of the enumeration.
func (o Opcode) Name() string {
	if n, ok := opcodeNames[o]; ok {
		return n
	}
	return "unknown"
}

// Known reports whether o is a member of the opcode enumeration.
func (o Opcode) Known() bool {
	_, ok := opcodeNames[o]
	return ok
}

// Magic is the 8-byte constant at the start of every stream.
var Magic = [8]byte{'g', 'e', 'n', 'l', 'o', 'a', 'd', 0}

const (
	// LittleEndianTag is the only endianness this decoder accepts.
	LittleEndianTag uint32 = 1
	bigEndianTag    uint32 = 2

	SupportedMajorVersion uint32 = 1

	SignatureSize = 8 + 4 + 4 + 4 + 1 + 3 // magic, endian, major, minor, dialect, pad
)

// Signature is the decoded form of the stream preamble.
type Signature struct {
	Major   uint32
	Minor   uint32
	Dialect Dialect
}

// DecodeSignature parses the fixed SignatureSize-byte preamble. It does
// not validate magic/version/endianness; callers check those explicitly
// so that each failure mode can be reported precisely.
func DecodeSignature(buf []byte) (sig Signature, magicOK bool, endianOK bool) {
	var magic [8]byte
	copy(magic[:], buf[0:8])
	magicOK = magic == Magic
	endian := binary.LittleEndian.Uint32(buf[8:12])
	endianOK = endian == LittleEndianTag
	sig.Major = binary.LittleEndian.Uint32(buf[12:16])
	sig.Minor = binary.LittleEndian.Uint32(buf[16:20])
	sig.Dialect = Dialect(buf[20])
	return sig, magicOK, endianOK
}

// EncodeSignature is the inverse of DecodeSignature, used by tests to
// build fixtures in place of the (external) general-writer.
func EncodeSignature(sig Signature, endian uint32) []byte {
	buf := make([]byte, SignatureSize)
	copy(buf[0:8], Magic[:])
	binary.LittleEndian.PutUint32(buf[8:12], endian)
	binary.LittleEndian.PutUint32(buf[12:16], sig.Major)
	binary.LittleEndian.PutUint32(buf[16:20], sig.Minor)
	buf[20] = byte(sig.Dialect)
	return buf
}

// UnpackedHeaderSize is the width, in bytes, of an event header in the
// unpacked dialect.
const UnpackedHeaderSize = 4

// PackedHeaderSize is the width, in bytes, of an event header in the
// packed dialect.
const PackedHeaderSize = 2

// packedOpcodeBits/packedIDShift split PackedHeaderSize*8 bits between the
// opcode and the entity id. 5 bits covers the 18-entry opcode
// enumeration with headroom; the remaining 11 bits of id comfortably
// cover realistic table/column counts for a single stream.
const (
	packedOpcodeBits = 5
	packedOpcodeMask = (1 << packedOpcodeBits) - 1
	packedIDShift    = packedOpcodeBits
)

// UnpackedHeader is the decoded form of a 4-byte unpacked event header:
// the low 8 bits carry the opcode, the high 24 bits carry the id.
type UnpackedHeader struct {
	Op Opcode
	ID uint32
}

func DecodeUnpackedHeader(buf []byte) UnpackedHeader {
	raw := binary.LittleEndian.Uint32(buf)
	return UnpackedHeader{Op: Opcode(raw & 0xFF), ID: raw >> 8}
}

func EncodeUnpackedHeader(h UnpackedHeader) []byte {
	buf := make([]byte, UnpackedHeaderSize)
	raw := uint32(h.Op) | (h.ID << 8)
	binary.LittleEndian.PutUint32(buf, raw)
	return buf
}

// PackedHeader is the decoded form of a 2-byte packed event header.
type PackedHeader struct {
	Op Opcode
	ID uint32
}

func DecodePackedHeader(buf []byte) PackedHeader {
	raw := binary.LittleEndian.Uint16(buf)
	return PackedHeader{Op: Opcode(raw & packedOpcodeMask), ID: uint32(raw >> packedIDShift)}
}

func EncodePackedHeader(h PackedHeader) []byte {
	buf := make([]byte, PackedHeaderSize)
	raw := uint16(h.Op)&packedOpcodeMask | uint16(h.ID)<<packedIDShift
	binary.LittleEndian.PutUint16(buf, raw)
	return buf
}

// ColumnFlags are the bits carried in a new-column event's flag_bits
// field.
type ColumnFlags uint32

const ColumnFlagCompressed ColumnFlags = 1 << 0

func (f ColumnFlags) Compressed() bool {
	return f&ColumnFlagCompressed != 0
}
