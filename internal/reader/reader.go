// Package reader provides the Byte Reader adaptor that both protocol
// parsers read through: ordered, monotonic, blocking reads over an
// underlying io.Reader, plus the staging buffer and alignment helper
// the framing layers need.
package reader

import (
	"io"

	"github.com/pkg/errors"
)

// ErrShortRead is returned (wrapped) when the underlying source runs
// out of bytes before a declared length is satisfied.
var ErrShortRead = errors.New("short read: unexpected end of input")

// Reader is a thin, single-reader-at-a-time adaptor over an io.Reader.
// It is not safe for concurrent use; the protocol is strictly
// single-threaded.
type Reader struct {
	src    io.Reader
	staged []byte
	offset uint64
}

// New wraps src. Callers typically pass a buffered reader (bufio.Reader)
// over standard input.
func New(src io.Reader) *Reader {
	return &Reader{src: src}
}

// Offset returns the total number of bytes consumed so far, for use in
// diagnostics and error messages.
func (r *Reader) Offset() uint64 {
	return r.offset
}

// ReadInto fills dst completely or returns a wrapped ErrShortRead. It
// never returns a partially filled dst alongside a nil error.
func (r *Reader) ReadInto(dst []byte) error {
	if len(dst) == 0 {
		return nil
	}
	n, err := io.ReadFull(r.src, dst)
	r.offset += uint64(n)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return errors.Wrapf(ErrShortRead, "offset %d: wanted %d bytes, got %d", r.offset-uint64(n), len(dst), n)
		}
		return errors.Wrapf(err, "offset %d: read failed", r.offset)
	}
	return nil
}

// ReadStaged reads n bytes into the reader's internal staging buffer
// and returns it as a borrowed view. The view is only valid until the
// next call to ReadStaged or ReadInto on this Reader.
func (r *Reader) ReadStaged(n int) ([]byte, error) {
	if cap(r.staged) < n {
		r.staged = make([]byte, n)
	} else {
		r.staged = r.staged[:n]
	}
	if err := r.ReadInto(r.staged); err != nil {
		return nil, err
	}
	return r.staged, nil
}

// View returns the most recently staged region. It is invalidated by
// the next Reader call.
func (r *Reader) View() []byte {
	return r.staged
}

// AlignTo4 discards 0-3 bytes so that Offset() becomes a multiple of 4.
// Used by the unpacked dialect only.
func (r *Reader) AlignTo4() error {
	if pad := int(r.offset % 4); pad != 0 {
		discard := make([]byte, 4-pad)
		return r.ReadInto(discard)
	}
	return nil
}
