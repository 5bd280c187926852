package intcodec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip16(t *testing.T) {
	cases := []uint16{0, 1, 63, 127, 128, 255, 16384, math.MaxUint16}
	for _, v := range cases {
		enc := EncodeUint16(v)
		got, n, ok := DecodeUint16(enc)
		require.True(t, ok, "value %d", v)
		assert.Equal(t, len(enc), n)
		assert.Equal(t, v, got)
	}
}

func TestRoundTrip32(t *testing.T) {
	cases := []uint32{0, 1, 127, 16384, 1 << 20, math.MaxUint32}
	for _, v := range cases {
		enc := EncodeUint32(v)
		got, n, ok := DecodeUint32(enc)
		require.True(t, ok)
		assert.Equal(t, len(enc), n)
		assert.Equal(t, v, got)
	}
}

func TestRoundTrip64(t *testing.T) {
	cases := []uint64{0, 1, 127, 1 << 40, math.MaxUint64}
	for _, v := range cases {
		enc := EncodeUint64(v)
		got, n, ok := DecodeUint64(enc)
		require.True(t, ok)
		assert.Equal(t, len(enc), n)
		assert.Equal(t, v, got)
	}
}

func TestDecodeTruncated(t *testing.T) {
	// a continuation byte with nothing after it
	_, _, ok := DecodeUint32([]byte{0x80})
	assert.False(t, ok)
}

func TestDecodeEmpty(t *testing.T) {
	_, _, ok := DecodeUint32(nil)
	assert.False(t, ok)
}

func TestDecodeExceedsWidth(t *testing.T) {
	// three bytes encode 21 bits of payload, which cannot fit in uint16
	enc := EncodeUint32(1 << 16)
	_, _, ok := DecodeUint16(enc)
	assert.False(t, ok)
}

func TestDecodeOverlong(t *testing.T) {
	// value 0 minimally fits in one byte; a second all-zero continuation
	// byte is an over-long form
	overlong := []byte{0x80, 0x00}
	_, _, ok := DecodeUint32(overlong)
	assert.False(t, ok)
}

func TestMaxBytes(t *testing.T) {
	assert.Equal(t, 3, MaxBytes(16))
	assert.Equal(t, 5, MaxBytes(32))
	assert.Equal(t, 10, MaxBytes(64))
}

func TestDecodeRunsPastMaxBytesForWidth(t *testing.T) {
	// 4 continuation bytes followed by a terminator: too many bytes for
	// a 16-bit value even though each byte is individually well-formed.
	buf := []byte{0x81, 0x82, 0x83, 0x84, 0x00}
	_, _, ok := DecodeUint16(buf)
	assert.False(t, ok)
}
