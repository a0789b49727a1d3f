package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryWriter_RecordsEverythingWritten(t *testing.T) {
	w := NewMemoryWriter()
	require.NoError(t, w.BatchWriteBit(row(8, 0, 3)))
	require.NoError(t, w.BatchWriteBit(row(8, 1)))
	require.NoError(t, w.WriteEnd())

	assert.Len(t, w.Rows(), 2)
	assert.True(t, w.Ended())
	assert.True(t, w.Bit(0, 0))
	assert.True(t, w.Bit(0, 3))
	assert.False(t, w.Bit(1, 0))
	assert.True(t, w.Bit(1, 1))
}
