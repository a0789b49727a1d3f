package simdbits

import (
	"fmt"

	"github.com/hupe1980/stabframe/internal/mem"
)

// Ref is a borrowed view onto a word-aligned bit range: a logical length in
// bits plus the backing words. It never owns the storage it points into —
// mutating a Ref mutates whatever Bits or Table row it was sliced from.
//
// Ref is the primary argument type for bitwise arithmetic throughout the
// simulator (Pauli-string rows, tableau rows, frame-table rows, measurement
// rows are all Refs into a shared Table). Bits exists only to back
// long-lived, independently-owned data (a freestanding Pauli string, a
// scratch buffer).
type Ref struct {
	n     int // logical length in bits
	words []uint64
}

// NewRef wraps words as a Ref of the given logical bit length. words must
// have at least wordsFor(n) elements; padding bits beyond n are assumed
// zero and callers must not set them directly through any other alias.
func NewRef(words []uint64, n int) Ref {
	need := wordsFor(n)
	if len(words) < need {
		panic(fmt.Sprintf("simdbits: Ref of %d bits needs %d words, got %d", n, need, len(words)))
	}
	return Ref{n: n, words: words[:need]}
}

// Len returns the logical length in bits.
func (r Ref) Len() int { return r.n }

// Words returns the backing word storage. Mutating it mutates r.
func (r Ref) Words() []uint64 { return r.words }

// NumWords returns len(r.Words()).
func (r Ref) NumWords() int { return len(r.words) }

// Get returns the bit at index i.
func (r Ref) Get(i int) bool {
	r.checkIndex(i)
	return r.words[i/WordBits]&(uint64(1)<<(uint(i)%WordBits)) != 0
}

// Set sets the bit at index i to v.
func (r Ref) Set(i int, v bool) {
	r.checkIndex(i)
	mask := uint64(1) << (uint(i) % WordBits)
	if v {
		r.words[i/WordBits] |= mask
	} else {
		r.words[i/WordBits] &^= mask
	}
}

// Flip toggles the bit at index i.
func (r Ref) Flip(i int) {
	r.checkIndex(i)
	r.words[i/WordBits] ^= uint64(1) << (uint(i) % WordBits)
}

func (r Ref) checkIndex(i int) {
	if i < 0 || i >= r.n {
		panic(fmt.Sprintf("simdbits: index %d out of range for length %d", i, r.n))
	}
}

// requireSameLen panics if r and other have different logical lengths — all
// binary word operations (XOR/AND/OR) require equal padded length.
func (r Ref) requireSameLen(other Ref) {
	if r.n != other.n {
		panic(fmt.Sprintf("simdbits: length mismatch: %d vs %d", r.n, other.n))
	}
}

// Xor performs r ^= other, element-wise, with SIMD-style 4-word unrolling.
func (r Ref) Xor(other Ref) {
	r.requireSameLen(other)
	XorWords(r.words, other.words)
}

// And performs r &= other.
func (r Ref) And(other Ref) {
	r.requireSameLen(other)
	AndWords(r.words, other.words)
}

// AndNot performs r &^= other.
func (r Ref) AndNot(other Ref) {
	r.requireSameLen(other)
	AndNotWords(r.words, other.words)
}

// Or performs r |= other.
func (r Ref) Or(other Ref) {
	r.requireSameLen(other)
	OrWords(r.words, other.words)
}

// SetFrom overwrites r's contents with other's (r = other).
func (r Ref) SetFrom(other Ref) {
	r.requireSameLen(other)
	SetWords(r.words, other.words)
}

// Clear zeroes every bit.
func (r Ref) Clear() {
	ClearWords(r.words)
}

// IsZero reports whether every bit is 0.
func (r Ref) IsZero() bool {
	return !AnyWords(r.words)
}

// Popcount returns the number of set bits.
func (r Ref) Popcount() int {
	return PopcountWords(r.words)
}

// Equal reports whether r and other hold the same bits (lengths must match).
func (r Ref) Equal(other Ref) bool {
	r.requireSameLen(other)
	for i := range r.words {
		if r.words[i] != other.words[i] {
			return false
		}
	}
	return true
}

// WordRange returns a Ref over a sub-range of whole words [start, start+numWords),
// measured in words — the SIMD container's word_range_ref primitive, used by
// the measurement record batch to move whole blocks of rows at once.
func (r Ref) WordRange(start, numWords int) Ref {
	if start < 0 || numWords < 0 || start+numWords > len(r.words) {
		panic(fmt.Sprintf("simdbits: word range [%d,%d) out of bounds (len %d)", start, start+numWords, len(r.words)))
	}
	return Ref{n: numWords * WordBits, words: r.words[start : start+numWords]}
}

// Clone returns an owned, independent copy of r as Bits.
func (r Ref) Clone() Bits {
	b := NewBits(r.n)
	SetWords(b.Ref().words, r.words)
	return b
}

// String renders r as a string of '0'/'1' characters, MSB-last (index 0 first).
func (r Ref) String() string {
	buf := make([]byte, r.n)
	for i := 0; i < r.n; i++ {
		if r.Get(i) {
			buf[i] = '1'
		} else {
			buf[i] = '0'
		}
	}
	return string(buf)
}

// Bits is an owned, word-aligned bit vector. It is the allocation that backs
// a freestanding Ref; most call sites should work with Ref (via Bits.Ref())
// and only reach for Bits when they need to create and keep their own
// storage rather than borrow someone else's.
type Bits struct {
	n     int
	words []uint64
}

// NewBits allocates a zeroed bit vector of logical length n, padded up to a
// word boundary and 64-byte aligned for SIMD-friendly word-range ops.
func NewBits(n int) Bits {
	if n < 0 {
		panic(fmt.Sprintf("simdbits: negative length %d", n))
	}
	return Bits{n: n, words: mem.AllocAlignedUint64(wordsFor(n))}
}

// Len returns the logical length in bits.
func (b *Bits) Len() int { return b.n }

// Ref returns a borrowed view of the whole vector.
func (b *Bits) Ref() Ref {
	return Ref{n: b.n, words: b.words}
}

// Get, Set, Xor, ... are provided by delegating to Ref so Bits and Ref never
// drift out of sync with each other's semantics.
func (b *Bits) Get(i int) bool    { return b.Ref().Get(i) }
func (b *Bits) Set(i int, v bool) { b.Ref().Set(i, v) }
func (b *Bits) Clear()            { b.Ref().Clear() }
func (b *Bits) Popcount() int     { return b.Ref().Popcount() }
func (b *Bits) String() string    { return b.Ref().String() }
