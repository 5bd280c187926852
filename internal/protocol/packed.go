package protocol

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/snowflk/general-loader/internal/intcodec"
	"github.com/snowflk/general-loader/internal/loader"
	"github.com/snowflk/general-loader/internal/reader"
	"github.com/snowflk/general-loader/internal/wire"
)

// PackedParser consumes the packed dialect: unaligned
// headers, 8/16-bit length-field variants, and optional bit-tight and
// varint-compressed cell payloads.
type PackedParser struct {
	log *logrus.Entry
	sm  stateMachine

	// unpackingBuf holds the fixed-width little-endian re-serialization
	// of a compressed column's decoded values. Owned by the parser,
	// cleared at the start of every compressed decode.
	unpackingBuf []byte
}

func NewPackedParser(log *logrus.Entry) *PackedParser {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &PackedParser{log: log}
}

func (p *PackedParser) ParseEvents(r *reader.Reader, dbl loader.DatabaseLoader) error {
	for {
		var hdrBuf [wire.PackedHeaderSize]byte
		if err := r.ReadInto(hdrBuf[:]); err != nil {
			return err
		}
		hdr := wire.DecodePackedHeader(hdrBuf[:])

		if !hdr.Op.Known() {
			return errors.Wrapf(ErrUnknownOpcode, "offset %d: opcode %d", r.Offset(), hdr.Op)
		}
		if err := p.sm.before(hdr.Op); err != nil {
			return err
		}

		entry := p.log
		if hdr.ID != 0 {
			entry = entry.WithField("id", hdr.ID)
		}
		entry.Infof("event: %s", hdr.Op.Name())

		if err := p.dispatch(r, dbl, hdr); err != nil {
			return err
		}
		if hdr.Op == wire.EvtEndStream {
			return nil
		}
	}
}

func (p *PackedParser) dispatch(r *reader.Reader, dbl loader.DatabaseLoader, hdr wire.PackedHeader) error {
	switch hdr.Op {
	case wire.EvtUseSchema, wire.EvtUseSchema2:
		file, name, err := readTwoStringPayload(r, widthOf(hdr.Op))
		if err != nil {
			return err
		}
		return errors.Wrap(dbl.UseSchema(file, name), "use-schema")

	case wire.EvtRemotePath, wire.EvtRemotePath2:
		path, err := readOneStringPayload(r, widthOf(hdr.Op))
		if err != nil {
			return err
		}
		return errors.Wrap(dbl.RemotePath(path), "remote-path")

	case wire.EvtNewTable, wire.EvtNewTable2:
		name, err := readOneStringPayload(r, widthOf(hdr.Op))
		if err != nil {
			return err
		}
		return errors.Wrapf(dbl.NewTable(hdr.ID, name), "new-table id %d", hdr.ID)

	case wire.EvtNewColumn:
		bodyBuf, err := r.ReadStaged(wire.PackedColumnBodySize)
		if err != nil {
			return err
		}
		body := wire.DecodePackedColumnBody(bodyBuf)
		nameBuf, err := r.ReadStaged(int(body.NameSize))
		if err != nil {
			return err
		}
		name := string(nameBuf)
		return errors.Wrapf(dbl.NewColumn(hdr.ID, body.TableID, body.ElemBits, body.FlagBits, name), "new-column id %d", hdr.ID)

	case wire.EvtCellData, wire.EvtCellData2:
		return p.dispatchCell(r, dbl, hdr, false)

	case wire.EvtCellDefault, wire.EvtCellDefault2:
		return p.dispatchCell(r, dbl, hdr, true)

	case wire.EvtEmptyDefault:
		return errors.Wrapf(dbl.CellDefault(hdr.ID, nil, 0), "empty-default column %d", hdr.ID)

	case wire.EvtOpenStream:
		return errors.Wrap(dbl.OpenStream(), "open-stream")

	case wire.EvtEndStream:
		return errors.Wrap(dbl.CloseStream(), "close-stream")

	case wire.EvtNextRow:
		return errors.Wrapf(dbl.NextRow(hdr.ID), "next-row table %d", hdr.ID)

	case wire.EvtMoveAhead:
		nrows, err := readMoveAhead(r)
		if err != nil {
			return err
		}
		return errors.Wrapf(dbl.MoveAhead(hdr.ID, nrows), "move-ahead table %d", hdr.ID)

	case wire.EvtErrMsg, wire.EvtErrMsg2:
		msg, err := readOneStringPayload(r, widthOf(hdr.Op))
		if err != nil {
			return err
		}
		return errors.Wrap(dbl.ErrorMessage(msg), "error-message")

	default:
		return errors.Wrapf(ErrUnknownOpcode, "opcode %d", hdr.Op)
	}
}

// widthOf returns the length-field width a "*2" opcode's base family
// uses: 2 bytes for the *2 suffix, 1 byte otherwise.
func widthOf(op wire.Opcode) wire.LenWidth {
	switch op {
	case wire.EvtUseSchema2, wire.EvtRemotePath2, wire.EvtNewTable2,
		wire.EvtCellDefault2, wire.EvtCellData2, wire.EvtErrMsg2:
		return wire.LenWidth2
	default:
		return wire.LenWidth1
	}
}

func (p *PackedParser) dispatchCell(r *reader.Reader, dbl loader.DatabaseLoader, hdr wire.PackedHeader, isDefault bool) error {
	dataSize, err := readDataField(r, widthOf(hdr.Op))
	if err != nil {
		return err
	}
	col, ok := dbl.GetColumn(hdr.ID)
	if !ok {
		return errors.Wrapf(ErrUnknownColumn, "offset %d: column id %d", r.Offset(), hdr.ID)
	}

	raw, err := r.ReadStaged(int(dataSize))
	if err != nil {
		return err
	}

	var data []byte
	var elemCount uint32
	if col.Compressed {
		if err := p.uncompress(raw, col.ElemBits); err != nil {
			return err
		}
		data = p.unpackingBuf
		elemCount = uint32(len(p.unpackingBuf)) * 8 / col.ElemBits
	} else {
		data = raw
		elemCount = dataSize * 8 / col.ElemBits
	}

	if isDefault {
		return errors.Wrapf(dbl.CellDefault(hdr.ID, data, elemCount), "cell-default column %d", hdr.ID)
	}
	return errors.Wrapf(dbl.CellData(hdr.ID, data, elemCount), "cell-data column %d", hdr.ID)
}

// uncompress decodes raw as a sequence of varint-encoded unsigned
// integers of the given width and re-serializes them into p.unpackingBuf
// as fixed-width little-endian values.
func (p *PackedParser) uncompress(raw []byte, elemBits uint32) error {
	p.unpackingBuf = p.unpackingBuf[:0]
	if cap(p.unpackingBuf) < len(raw) {
		p.unpackingBuf = make([]byte, 0, len(raw)*int(elemBits)/8+8)
	}

	switch elemBits {
	case 16:
		for off := 0; off < len(raw); {
			v, n, ok := intcodec.DecodeUint16(raw[off:])
			if !ok {
				return errors.Wrapf(ErrCodec, "offset in payload %d, width 16", off)
			}
			p.unpackingBuf = appendLE16(p.unpackingBuf, v)
			off += n
		}
	case 32:
		for off := 0; off < len(raw); {
			v, n, ok := intcodec.DecodeUint32(raw[off:])
			if !ok {
				return errors.Wrapf(ErrCodec, "offset in payload %d, width 32", off)
			}
			p.unpackingBuf = appendLE32(p.unpackingBuf, v)
			off += n
		}
	case 64:
		for off := 0; off < len(raw); {
			v, n, ok := intcodec.DecodeUint64(raw[off:])
			if !ok {
				return errors.Wrapf(ErrCodec, "offset in payload %d, width 64", off)
			}
			p.unpackingBuf = appendLE64(p.unpackingBuf, v)
			off += n
		}
	default:
		return errors.Wrapf(ErrElementWidth, "elem_bits %d", elemBits)
	}
	return nil
}

func appendLE16(buf []byte, v uint16) []byte {
	return append(buf, byte(v), byte(v>>8))
}

func appendLE32(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func appendLE64(buf []byte, v uint64) []byte {
	return append(buf,
		byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
		byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}
