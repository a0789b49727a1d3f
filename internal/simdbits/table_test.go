package simdbits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_RowIsIndependentlyAddressable(t *testing.T) {
	tbl := NewTable(4, 70)
	tbl.Row(0).Set(5, true)
	tbl.Row(1).Set(69, true)

	assert.True(t, tbl.Row(0).Get(5))
	assert.False(t, tbl.Row(1).Get(5))
	assert.True(t, tbl.Row(1).Get(69))
}

func TestTable_SwapRows(t *testing.T) {
	tbl := NewTable(2, 10)
	tbl.Row(0).Set(1, true)
	tbl.Row(1).Set(2, true)

	tbl.SwapRows(0, 1)

	assert.False(t, tbl.Row(0).Get(1))
	assert.True(t, tbl.Row(0).Get(2))
	assert.True(t, tbl.Row(1).Get(1))
}

func TestTable_GrowPreservesRows(t *testing.T) {
	tbl := NewTable(2, 64)
	tbl.Row(0).Set(3, true)
	tbl.Row(1).Set(4, true)

	tbl.GrowDouble(5)
	require.Equal(t, 5, tbl.NumMajor())

	assert.True(t, tbl.Row(0).Get(3))
	assert.True(t, tbl.Row(1).Get(4))
	assert.False(t, tbl.Row(4).Get(0))
}

func TestTable_GrowDoublingStrategy(t *testing.T) {
	tbl := NewTable(4, 64)
	tbl.GrowDouble(5)
	assert.Equal(t, 8, tbl.NumMajor(), "doubling should win when it already covers the minimum")

	tbl2 := NewTable(4, 64)
	tbl2.GrowDouble(100)
	assert.Equal(t, 100, tbl2.NumMajor(), "explicit minimum should win when doubling isn't enough")
}

func TestTable_SliceMajSharesStorage(t *testing.T) {
	tbl := NewTable(10, 64)
	view := tbl.SliceMaj(2, 5)
	view.Row(0).Set(1, true)

	assert.True(t, tbl.Row(2).Get(1))
	assert.Equal(t, 3, view.NumMajor())
}

func TestTable_CopyRowsFrom(t *testing.T) {
	src := NewTable(4, 64)
	src.Row(2).Set(7, true)
	src.Row(3).Set(8, true)

	dst := NewTable(2, 64)
	dst.CopyRowsFrom(&src, 2, 2)

	assert.True(t, dst.Row(0).Get(7))
	assert.True(t, dst.Row(1).Get(8))
}
