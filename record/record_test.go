package record

import (
	"errors"
	"testing"

	"github.com/hupe1980/stabframe/internal/simdbits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(n int, setBits ...int) simdbits.Ref {
	b := simdbits.NewBits(n)
	r := b.Ref()
	for _, i := range setBits {
		r.Set(i, true)
	}
	return r
}

func TestRecordResult_IncrementsStoredAndUnwritten(t *testing.T) {
	b := NewBatch(8, 4)
	b.RecordResult(row(8, 1, 2))
	b.RecordResult(row(8, 3))
	assert.Equal(t, 2, b.Stored())
	assert.Equal(t, 2, b.Unwritten())
}

func TestRecordResult_RespectsShotMask(t *testing.T) {
	b := NewBatch(8, 4)
	b.DeactivateShot(1)
	b.RecordResult(row(8, 0, 1, 2))
	got, err := b.Lookback(1)
	require.NoError(t, err)
	assert.True(t, got.Get(0))
	assert.False(t, got.Get(1), "deactivated shot must never be set in a stored row")
	assert.True(t, got.Get(2))
}

func TestLookback_ReturnsCorrectRow(t *testing.T) {
	b := NewBatch(8, 8)
	b.RecordResult(row(8, 0))
	b.RecordResult(row(8, 1))
	b.RecordResult(row(8, 2))

	r1, err := b.Lookback(1)
	require.NoError(t, err)
	assert.True(t, r1.Get(2))

	r3, err := b.Lookback(3)
	require.NoError(t, err)
	assert.True(t, r3.Get(0))
}

func TestLookback_PanicsOnZero(t *testing.T) {
	b := NewBatch(8, 8)
	b.RecordResult(row(8, 0))
	assert.Panics(t, func() { _, _ = b.Lookback(0) })
}

func TestLookback_PanicsAboveMaxLookback(t *testing.T) {
	b := NewBatch(8, 2)
	b.RecordResult(row(8, 0))
	assert.Panics(t, func() { _, _ = b.Lookback(3) })
}

func TestLookback_ReturnsErrorBeforeStart(t *testing.T) {
	b := NewBatch(8, 8)
	b.RecordResult(row(8, 0))
	_, err := b.Lookback(2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLookbackBeforeStart))
}

func TestRecordResult_GrowsPastInitialCapacity(t *testing.T) {
	b := NewBatch(8, 1)
	for i := 0; i < flushBlockRows+10; i++ {
		b.RecordResult(row(8, i%8))
	}
	assert.Equal(t, flushBlockRows+10, b.Stored())
	r, err := b.Lookback(1)
	require.NoError(t, err)
	assert.True(t, r.Get((flushBlockRows + 9) % 8))
}

func TestIntermediateFlush_WritesFullBlocksOnly(t *testing.T) {
	b := NewBatch(8, flushBlockRows)
	for i := 0; i < flushBlockRows+5; i++ {
		b.RecordResult(row(8, 0))
	}
	w := NewMemoryWriter()
	require.NoError(t, b.IntermediateWriteUnwrittenResultsTo(w, simdbits.Ref{}))
	assert.Len(t, w.Rows(), flushBlockRows)
	assert.Equal(t, flushBlockRows, b.Written())
	assert.Equal(t, 5, b.Unwritten())
}

func TestFinalFlush_WritesRemainderAndEnds(t *testing.T) {
	b := NewBatch(8, 8)
	for i := 0; i < 3; i++ {
		b.RecordResult(row(8, 0))
	}
	w := NewMemoryWriter()
	require.NoError(t, b.FinalWriteUnwrittenResultsTo(w, simdbits.Ref{}))
	assert.Len(t, w.Rows(), 3)
	assert.True(t, w.Ended())
	assert.Equal(t, 0, b.Unwritten())
}

func TestReferenceXOR_EquivalenceToZeroRefThenXOR(t *testing.T) {
	n := 64
	refBits := simdbits.NewBits(3)
	refBits.Set(1, true)

	withRef := NewBatch(n, 8)
	withoutRef := NewBatch(n, 8)
	for i := 0; i < 3; i++ {
		r := row(n, i)
		withRef.RecordResult(r)
		withoutRef.RecordResult(r)
	}

	wRef := NewMemoryWriter()
	require.NoError(t, withRef.FinalWriteUnwrittenResultsTo(wRef, refBits.Ref()))

	wZero := NewMemoryWriter()
	require.NoError(t, withoutRef.FinalWriteUnwrittenResultsTo(wZero, simdbits.Ref{}))

	mask := withRef.ShotMask()
	for i := 0; i < 3; i++ {
		expectXOR := refBits.Get(i)
		for shot := 0; shot < n; shot++ {
			got := wRef.Bit(i, shot)
			base := wZero.Bit(i, shot)
			want := base
			if expectXOR && mask.Get(shot) {
				want = !base
			}
			assert.Equal(t, want, got, "row %d shot %d", i, shot)
		}
	}
}

func TestClear_ResetsCounters(t *testing.T) {
	b := NewBatch(8, 8)
	b.RecordResult(row(8, 0))
	b.MarkAllAsWritten()
	b.Clear()
	assert.Equal(t, 0, b.Stored())
	assert.Equal(t, 0, b.Written())
	assert.Equal(t, 0, b.Unwritten())
}
