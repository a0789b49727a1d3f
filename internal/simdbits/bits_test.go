package simdbits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBits_PaddingIsZero(t *testing.T) {
	for _, n := range []int{0, 1, 5, 63, 64, 65, 127, 200} {
		b := NewBits(n)
		r := b.Ref()
		for i := n; i < r.NumWords()*WordBits; i++ {
			wordIdx, bitIdx := i/WordBits, uint(i)%WordBits
			assert.Zero(t, r.words[wordIdx]&(uint64(1)<<bitIdx), "padding bit %d should be zero for n=%d", i, n)
		}
	}
}

func TestRef_SetGetFlip(t *testing.T) {
	b := NewBits(100)
	r := b.Ref()

	r.Set(3, true)
	r.Set(99, true)
	assert.True(t, r.Get(3))
	assert.True(t, r.Get(99))
	assert.False(t, r.Get(4))

	r.Flip(3)
	assert.False(t, r.Get(3))
}

func TestRef_XorAndOr(t *testing.T) {
	a := NewBits(130)
	b := NewBits(130)
	a.Set(0, true)
	a.Set(65, true)
	b.Set(65, true)
	b.Set(129, true)

	ra, rb := a.Ref(), b.Ref()
	ra.Xor(rb)

	assert.True(t, ra.Get(0))
	assert.False(t, ra.Get(65)) // 1 ^ 1 = 0
	assert.True(t, ra.Get(129))
}

func TestRef_LengthMismatchPanics(t *testing.T) {
	a := NewBits(64)
	b := NewBits(128)
	assert.Panics(t, func() { a.Ref().Xor(b.Ref()) })
}

func TestRef_OutOfRangeIndexPanics(t *testing.T) {
	a := NewBits(10)
	assert.Panics(t, func() { a.Ref().Get(10) })
	assert.Panics(t, func() { a.Ref().Set(-1, true) })
}

func TestRef_CloneIndependence(t *testing.T) {
	a := NewBits(64)
	a.Set(1, true)
	clone := a.Ref().Clone()
	a.Set(2, true)

	require.True(t, clone.Get(1))
	assert.False(t, clone.Get(2))
}

func TestRef_Popcount(t *testing.T) {
	a := NewBits(200)
	for _, i := range []int{1, 2, 3, 199} {
		a.Set(i, true)
	}
	assert.Equal(t, 4, a.Popcount())
}

func TestRef_WordRange(t *testing.T) {
	a := NewBits(256)
	a.Set(70, true)
	wr := a.Ref().WordRange(1, 1) // word 1 covers bits [64,128)
	assert.True(t, wr.Get(6))     // bit 70 - 64 = 6
}
