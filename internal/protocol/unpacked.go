package protocol

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/snowflk/general-loader/internal/loader"
	"github.com/snowflk/general-loader/internal/reader"
	"github.com/snowflk/general-loader/internal/wire"
)

// UnpackedParser consumes the unpacked dialect: fixed
// 4-byte headers on 4-byte alignment, 32-bit length fields, cell
// payloads delivered byte-for-byte with no integer compression.
type UnpackedParser struct {
	log *logrus.Entry
	sm  stateMachine
}

func NewUnpackedParser(log *logrus.Entry) *UnpackedParser {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &UnpackedParser{log: log}
}

// ParseEvents runs the main loop until end-stream, a hard error, or
// EOF. It returns nil only after end-stream successfully closes the
// loader.
func (p *UnpackedParser) ParseEvents(r *reader.Reader, dbl loader.DatabaseLoader) error {
	for {
		if err := r.AlignTo4(); err != nil {
			return err
		}

		var hdrBuf [wire.UnpackedHeaderSize]byte
		if err := r.ReadInto(hdrBuf[:]); err != nil {
			return err
		}
		hdr := wire.DecodeUnpackedHeader(hdrBuf[:])

		if hdr.Op < wire.EvtUseSchema || hdr.Op > wire.EvtEmptyDefault {
			return errors.Wrapf(ErrUnknownOpcode, "offset %d: opcode %d not valid in unpacked dialect", r.Offset(), hdr.Op)
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

func (p *UnpackedParser) dispatch(r *reader.Reader, dbl loader.DatabaseLoader, hdr wire.UnpackedHeader) error {
	switch hdr.Op {
	case wire.EvtUseSchema:
		file, name, err := readTwoStringPayload(r, wire.LenWidth4)
		if err != nil {
			return err
		}
		return errors.Wrap(dbl.UseSchema(file, name), "use-schema")

	case wire.EvtRemotePath:
		path, err := readOneStringPayload(r, wire.LenWidth4)
		if err != nil {
			return err
		}
		return errors.Wrap(dbl.RemotePath(path), "remote-path")

	case wire.EvtNewTable:
		name, err := readOneStringPayload(r, wire.LenWidth4)
		if err != nil {
			return err
		}
		return errors.Wrapf(dbl.NewTable(hdr.ID, name), "new-table id %d", hdr.ID)

	case wire.EvtNewColumn:
		bodyBuf, err := r.ReadStaged(wire.UnpackedColumnBodySize)
		if err != nil {
			return err
		}
		body := wire.DecodeUnpackedColumnBody(bodyBuf)
		nameBuf, err := r.ReadStaged(int(body.NameSize))
		if err != nil {
			return err
		}
		name := string(nameBuf)
		return errors.Wrapf(dbl.NewColumn(hdr.ID, body.TableID, body.ElemBits, body.FlagBits, name), "new-column id %d", hdr.ID)

	case wire.EvtCellData, wire.EvtCellDefault:
		return p.dispatchCell(r, dbl, hdr)

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

	case wire.EvtErrMsg:
		msg, err := readOneStringPayload(r, wire.LenWidth4)
		if err != nil {
			return err
		}
		return errors.Wrap(dbl.ErrorMessage(msg), "error-message")

	default:
		return errors.Wrapf(ErrUnknownOpcode, "opcode %d", hdr.Op)
	}
}

// dispatchCell handles cell-data and cell-default. In the unpacked
// dialect the data body's field is an element count, not a byte size;
// the byte size is derived bit-tight from the column's element width.
func (p *UnpackedParser) dispatchCell(r *reader.Reader, dbl loader.DatabaseLoader, hdr wire.UnpackedHeader) error {
	elemCount, err := readDataField(r, wire.LenWidth4)
	if err != nil {
		return err
	}
	col, ok := dbl.GetColumn(hdr.ID)
	if !ok {
		return errors.Wrapf(ErrUnknownColumn, "offset %d: column id %d", r.Offset(), hdr.ID)
	}
	data, err := r.ReadStaged(byteSizeForElems(col.ElemBits, elemCount))
	if err != nil {
		return err
	}
	if hdr.Op == wire.EvtCellData {
		return errors.Wrapf(dbl.CellData(hdr.ID, data, elemCount), "cell-data column %d", hdr.ID)
	}
	return errors.Wrapf(dbl.CellDefault(hdr.ID, data, elemCount), "cell-default column %d", hdr.ID)
}
