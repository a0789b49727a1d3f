package record

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSinkWriter struct {
	bytes.Buffer
	closed bool
}

func (f *fakeSinkWriter) Close() error {
	f.closed = true
	return nil
}

func TestStreamWriter_WritesHeaderAndClosesDstOnEnd(t *testing.T) {
	dst := &fakeSinkWriter{}
	w, err := NewStreamWriter(dst, CompressionNone)
	require.NoError(t, err)

	require.NoError(t, w.BatchWriteBit(row(64, 1, 2, 3)))
	require.NoError(t, w.WriteEnd())

	assert.True(t, dst.closed)
	assert.Greater(t, dst.Len(), 8) // magic+version+flags header plus at least one block
}

func TestStreamWriter_ZstdOutputDiffersFromUncompressed(t *testing.T) {
	plainDst := &fakeSinkWriter{}
	zstdDst := &fakeSinkWriter{}

	plain, err := NewStreamWriter(plainDst, CompressionNone)
	require.NoError(t, err)
	zstd, err := NewStreamWriter(zstdDst, CompressionZstd)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		r := row(64, i)
		require.NoError(t, plain.BatchWriteBit(r))
		require.NoError(t, zstd.BatchWriteBit(r))
	}
	require.NoError(t, plain.WriteEnd())
	require.NoError(t, zstd.WriteEnd())

	assert.True(t, plainDst.closed)
	assert.True(t, zstdDst.closed)
	assert.NotEqual(t, plainDst.Bytes(), zstdDst.Bytes())
}

func TestStreamWriter_WriteEndWithoutCloserDstIsFine(t *testing.T) {
	var dst bytes.Buffer
	w, err := NewStreamWriter(&dst, CompressionNone)
	require.NoError(t, err)
	require.NoError(t, w.BatchWriteBit(row(64, 0)))
	require.NoError(t, w.WriteEnd())
	assert.Greater(t, dst.Len(), 0)
}
