package protocol

import (
	"github.com/snowflk/general-loader/internal/reader"
	"github.com/snowflk/general-loader/internal/wire"
)

// The helpers below read one event body's trailing string/data payload
// out of the staged region of r. They are shared by the unpacked and
// packed parsers; the length-field width is the only framing detail
// that differs between the dialects for these body families, so it is
// a parameter rather than a reason to duplicate the switch.

func readTwoStringPayload(r *reader.Reader, width wire.LenWidth) (file, name string, err error) {
	bodyBuf, err := r.ReadStaged(wire.TwoStringBodySize(width))
	if err != nil {
		return "", "", err
	}
	body := wire.DecodeTwoStringBody(bodyBuf, width)

	strBuf, err := r.ReadStaged(int(body.Size1 + body.Size2))
	if err != nil {
		return "", "", err
	}
	file = string(strBuf[:body.Size1])
	name = string(strBuf[body.Size1:])
	return file, name, nil
}

func readOneStringPayload(r *reader.Reader, width wire.LenWidth) (string, error) {
	bodyBuf, err := r.ReadStaged(wire.OneStringBodySize(width))
	if err != nil {
		return "", err
	}
	body := wire.DecodeOneStringBody(bodyBuf, width)

	strBuf, err := r.ReadStaged(int(body.Size))
	if err != nil {
		return "", err
	}
	return string(strBuf), nil
}

// readDataField reads a data body's single length field. Its meaning
// is dialect-specific: in the unpacked dialect it is an element count;
// in the packed dialect it is a payload byte size. Callers interpret
// it accordingly.
func readDataField(r *reader.Reader, width wire.LenWidth) (uint32, error) {
	bodyBuf, err := r.ReadStaged(wire.DataBodySize(width))
	if err != nil {
		return 0, err
	}
	return wire.DecodeDataBody(bodyBuf, width).Size, nil
}

func readMoveAhead(r *reader.Reader) (uint64, error) {
	buf, err := r.ReadStaged(wire.MoveAheadBodySize)
	if err != nil {
		return 0, err
	}
	return wire.DecodeMoveAheadBody(buf).NRows, nil
}

// byteSizeForElems is the bit-tight payload size for a cell:
// ceil(elemBits*elemCount / 8).
func byteSizeForElems(elemBits, elemCount uint32) int {
	return int((uint64(elemBits)*uint64(elemCount) + 7) / 8)
}
