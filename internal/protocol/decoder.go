// Package protocol implements the event-stream decoders: the common
// opcode dispatch helpers, the unpacked and packed parsers, and the
// Decoder facade that reads the stream signature and hands the rest of
// the stream to the matching parser.
package protocol

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/snowflk/general-loader/internal/loader"
	"github.com/snowflk/general-loader/internal/reader"
	"github.com/snowflk/general-loader/internal/wire"
)

// Decoder is the facade over one event stream. It owns the
// dialect selection; the per-event work is delegated to the parser the
// signature selects. One Decoder serves exactly one stream.
type Decoder struct {
	r   *reader.Reader
	dbl loader.DatabaseLoader
	log *logrus.Entry
}

func NewDecoder(r *reader.Reader, dbl loader.DatabaseLoader, log *logrus.Entry) *Decoder {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Decoder{r: r, dbl: dbl, log: log}
}

// Run reads the signature preamble, validates it, and parses events
// until end-stream (nil), a hard protocol error, or EOF.
func (d *Decoder) Run() error {
	sig, err := d.readSignature()
	if err != nil {
		return err
	}

	d.log.Infof("stream signature: version %d.%d, %s dialect", sig.Major, sig.Minor, sig.Dialect)

	switch sig.Dialect {
	case wire.Packed:
		return NewPackedParser(d.log).ParseEvents(d.r, d.dbl)
	default:
		return NewUnpackedParser(d.log).ParseEvents(d.r, d.dbl)
	}
}

func (d *Decoder) readSignature() (wire.Signature, error) {
	buf, err := d.r.ReadStaged(wire.SignatureSize)
	if err != nil {
		return wire.Signature{}, errors.Wrap(err, "stream signature")
	}
	sig, magicOK, endianOK := wire.DecodeSignature(buf)
	if !magicOK {
		return wire.Signature{}, errors.Wrap(ErrBadMagic, "stream signature")
	}
	if !endianOK {
		return wire.Signature{}, errors.Wrap(ErrBadEndian, "only little-endian producers are supported")
	}
	if sig.Major != wire.SupportedMajorVersion {
		return wire.Signature{}, errors.Wrapf(ErrUnsupportedVers, "stream major version %d, supported %d", sig.Major, wire.SupportedMajorVersion)
	}
	if sig.Dialect != wire.Unpacked && sig.Dialect != wire.Packed {
		return wire.Signature{}, errors.Wrapf(ErrBadDialect, "dialect flag %d", sig.Dialect)
	}
	return sig, nil
}
