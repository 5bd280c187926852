package wire

import "encoding/binary"

// LenWidth is the byte width of a length field inside an event body
// record. The unpacked dialect always uses LenWidth4; the packed
// dialect uses LenWidth1 for its base opcodes and LenWidth2 for their
// "*2" 16-bit-length siblings.
type LenWidth int

const (
	LenWidth1 LenWidth = 1
	LenWidth2 LenWidth = 2
	LenWidth4 LenWidth = 4
)

// DecodeLenField reads one length field of the given width.
func DecodeLenField(buf []byte, width LenWidth) uint32 {
	switch width {
	case LenWidth1:
		return uint32(buf[0])
	case LenWidth2:
		return uint32(binary.LittleEndian.Uint16(buf))
	default:
		return binary.LittleEndian.Uint32(buf)
	}
}

// EncodeLenField is the inverse of DecodeLenField, used by tests.
func EncodeLenField(v uint32, width LenWidth) []byte {
	buf := make([]byte, width)
	switch width {
	case LenWidth1:
		buf[0] = byte(v)
	case LenWidth2:
		binary.LittleEndian.PutUint16(buf, uint16(v))
	default:
		binary.LittleEndian.PutUint32(buf, v)
	}
	return buf
}

// TwoStringBody carries the two length fields of a use-schema event.
// The field width is not stored; it is passed to Decode/Encode.
type TwoStringBody struct {
	Size1 uint32
	Size2 uint32
}

func TwoStringBodySize(width LenWidth) int { return int(width) * 2 }

func DecodeTwoStringBody(buf []byte, width LenWidth) TwoStringBody {
	w := int(width)
	return TwoStringBody{
		Size1: DecodeLenField(buf[0:w], width),
		Size2: DecodeLenField(buf[w:2*w], width),
	}
}

func EncodeTwoStringBody(b TwoStringBody, width LenWidth) []byte {
	w := int(width)
	out := make([]byte, 2*w)
	copy(out[0:w], EncodeLenField(b.Size1, width))
	copy(out[w:2*w], EncodeLenField(b.Size2, width))
	return out
}

// OneStringBody carries the single length field shared by remote-path,
// new-table and error-message events.
type OneStringBody struct {
	Size uint32
}

func OneStringBodySize(width LenWidth) int { return int(width) }

func DecodeOneStringBody(buf []byte, width LenWidth) OneStringBody {
	return OneStringBody{Size: DecodeLenField(buf, width)}
}

func EncodeOneStringBody(b OneStringBody, width LenWidth) []byte {
	return EncodeLenField(b.Size, width)
}

// DataBody carries a cell-data/cell-default event's single length
// field: a payload size in bytes in the packed dialect, an element
// count in the unpacked dialect.
type DataBody struct {
	Size uint32
}

func DataBodySize(width LenWidth) int { return int(width) }

func DecodeDataBody(buf []byte, width LenWidth) DataBody {
	return DataBody{Size: DecodeLenField(buf, width)}
}

func EncodeDataBody(b DataBody, width LenWidth) []byte {
	return EncodeLenField(b.Size, width)
}

// ColumnBody carries a new-column event's fixed fields; the column
// name follows in the trailing string payload. Unlike the other body
// families, new-column has no 16-bit-length "*2" sibling; each dialect
// has exactly one shape.
type ColumnBody struct {
	TableID  uint32
	ElemBits uint32
	FlagBits uint32
	NameSize uint32
}

const (
	UnpackedColumnBodySize = 4 + 4 + 4 + 4
	PackedColumnBodySize   = 2 + 1 + 1 + 1 // table_id(u16), elem_bits, flag_bits, name_size
)

func DecodeUnpackedColumnBody(buf []byte) ColumnBody {
	return ColumnBody{
		TableID:  binary.LittleEndian.Uint32(buf[0:4]),
		ElemBits: binary.LittleEndian.Uint32(buf[4:8]),
		FlagBits: binary.LittleEndian.Uint32(buf[8:12]),
		NameSize: binary.LittleEndian.Uint32(buf[12:16]),
	}
}

func EncodeUnpackedColumnBody(b ColumnBody) []byte {
	buf := make([]byte, UnpackedColumnBodySize)
	binary.LittleEndian.PutUint32(buf[0:4], b.TableID)
	binary.LittleEndian.PutUint32(buf[4:8], b.ElemBits)
	binary.LittleEndian.PutUint32(buf[8:12], b.FlagBits)
	binary.LittleEndian.PutUint32(buf[12:16], b.NameSize)
	return buf
}

func DecodePackedColumnBody(buf []byte) ColumnBody {
	return ColumnBody{
		TableID:  uint32(binary.LittleEndian.Uint16(buf[0:2])),
		ElemBits: uint32(buf[2]),
		FlagBits: uint32(buf[3]),
		NameSize: uint32(buf[4]),
	}
}

func EncodePackedColumnBody(b ColumnBody) []byte {
	buf := make([]byte, PackedColumnBodySize)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(b.TableID))
	buf[2] = byte(b.ElemBits)
	buf[3] = byte(b.FlagBits)
	buf[4] = byte(b.NameSize)
	return buf
}

// MoveAheadBody carries the row count for a move-ahead event. Identical
// in both dialects.
type MoveAheadBody struct {
	NRows uint64
}

const MoveAheadBodySize = 8

func DecodeMoveAheadBody(buf []byte) MoveAheadBody {
	return MoveAheadBody{NRows: binary.LittleEndian.Uint64(buf)}
}

func EncodeMoveAheadBody(b MoveAheadBody) []byte {
	buf := make([]byte, MoveAheadBodySize)
	binary.LittleEndian.PutUint64(buf, b.NRows)
	return buf
}
