package protocol

import "github.com/pkg/errors"

// Hard error kinds the decoder can surface. Each is wrapped with positional/opcode
// context via errors.Wrapf at the call site.
var (
	ErrUnknownOpcode   = errors.New("unknown opcode")
	ErrUnknownColumn   = errors.New("unknown column id")
	ErrCodec           = errors.New("variable-length integer codec failure")
	ErrElementWidth    = errors.New("element width unsupported for compressed payload")
	ErrBadMagic        = errors.New("stream signature magic mismatch")
	ErrBadEndian       = errors.New("stream signature endianness mismatch")
	ErrUnsupportedVers = errors.New("stream signature version unsupported")
	ErrBadDialect      = errors.New("stream signature dialect flag out of range")
	ErrProtocolState   = errors.New("event issued in an illegal stream state")
)
