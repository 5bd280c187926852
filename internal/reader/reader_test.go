package reader

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadIntoExact(t *testing.T) {
	r := New(bytes.NewReader([]byte{1, 2, 3, 4}))
	dst := make([]byte, 4)
	require.NoError(t, r.ReadInto(dst))
	assert.Equal(t, []byte{1, 2, 3, 4}, dst)
	assert.Equal(t, uint64(4), r.Offset())
}

func TestReadIntoShort(t *testing.T) {
	r := New(bytes.NewReader([]byte{1, 2}))
	dst := make([]byte, 4)
	err := r.ReadInto(dst)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShortRead)
}

func TestReadStagedViewInvalidated(t *testing.T) {
	r := New(bytes.NewReader([]byte{1, 2, 3, 4, 5, 6}))
	first, err := r.ReadStaged(3)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, first)

	second, err := r.ReadStaged(3)
	require.NoError(t, err)
	assert.Equal(t, []byte{4, 5, 6}, second)
	// first and second alias the same backing array
	assert.Equal(t, second, r.View())
}

func TestAlignTo4(t *testing.T) {
	r := New(bytes.NewReader([]byte{1, 0, 0, 0, 9, 9, 9, 9}))
	require.NoError(t, r.ReadInto(make([]byte, 1)))
	assert.Equal(t, uint64(1), r.Offset())
	require.NoError(t, r.AlignTo4())
	assert.Equal(t, uint64(4), r.Offset())

	rest := make([]byte, 4)
	require.NoError(t, r.ReadInto(rest))
	assert.Equal(t, []byte{9, 9, 9, 9}, rest)
}

func TestAlignTo4NoOp(t *testing.T) {
	r := New(bytes.NewReader([]byte{1, 2, 3, 4}))
	require.NoError(t, r.ReadInto(make([]byte, 4)))
	require.NoError(t, r.AlignTo4())
	assert.Equal(t, uint64(4), r.Offset())
}

func TestAlignToShortRead(t *testing.T) {
	r := New(bytes.NewReader([]byte{1}))
	require.NoError(t, r.ReadInto(make([]byte, 1)))
	err := r.AlignTo4()
	assert.ErrorIs(t, err, ErrShortRead)
}
