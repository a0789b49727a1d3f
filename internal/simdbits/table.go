package simdbits

import (
	"fmt"

	"github.com/hupe1980/stabframe/internal/mem"
)

// Table is a rectangular bit matrix: numMajor rows (qubits, or measurement
// indices) by numMinor columns (shots). Rows are the unit of access — each
// row begins at a word-aligned offset into one contiguous backing
// allocation, so a Row() call returns a Ref rather than a copy, and whole
// rows can be XORed/swapped/moved with the same word-parallel ops as a
// plain Ref.
type Table struct {
	numMajor, numMinor       int
	majorPadded, minorPadded int
	wordsPerRow              int
	words                    []uint64
}

// NewTable allocates a zeroed Table with at least numMajor rows of at least
// numMinor bits each. Both axes are padded up to a word boundary.
func NewTable(numMajor, numMinor int) Table {
	if numMajor < 0 || numMinor < 0 {
		panic(fmt.Sprintf("simdbits: negative table dimensions (%d, %d)", numMajor, numMinor))
	}
	wordsPerRow := wordsFor(numMinor)
	return Table{
		numMajor:    numMajor,
		numMinor:    numMinor,
		majorPadded: numMajor,
		minorPadded: wordsPerRow * WordBits,
		wordsPerRow: wordsPerRow,
		words:       mem.AllocAlignedUint64(numMajor * wordsPerRow),
	}
}

// NumMajor returns the logical number of rows.
func (t *Table) NumMajor() int { return t.numMajor }

// NumMinor returns the logical number of columns (bits per row).
func (t *Table) NumMinor() int { return t.numMinor }

// NumMajorPadded returns the allocated row count (== NumMajor(); the major
// axis of a Table is never padded beyond the requested row count, only the
// minor axis is padded up to a word boundary).
func (t *Table) NumMajorPadded() int { return t.majorPadded }

// NumMinorPadded returns the padded column count (a multiple of WordBits).
func (t *Table) NumMinorPadded() int { return t.minorPadded }

// WordsPerRow returns the number of uint64 words backing one row.
func (t *Table) WordsPerRow() int { return t.wordsPerRow }

func (t *Table) checkMajor(i int) {
	if i < 0 || i >= t.numMajor {
		panic(fmt.Sprintf("simdbits: row %d out of range for table with %d rows", i, t.numMajor))
	}
}

// Row returns a Ref view of row i. The Ref is only valid until the next
// growth of the table (Grow invalidates every previously returned Row);
// callers must not retain a Row across a growing call.
func (t *Table) Row(i int) Ref {
	t.checkMajor(i)
	start := i * t.wordsPerRow
	return Ref{n: t.numMinor, words: t.words[start : start+t.wordsPerRow]}
}

// SwapRows exchanges the contents of rows i and j in place.
func (t *Table) SwapRows(i, j int) {
	if i == j {
		return
	}
	ri, rj := t.Row(i), t.Row(j)
	for k := range ri.words {
		ri.words[k], rj.words[k] = rj.words[k], ri.words[k]
	}
}

// SliceMaj returns a Table view over rows [begin, end) that shares the same
// backing storage — used by the measurement record batch to hand a
// contiguous run of rows to the writer without copying. Mutating the
// returned view mutates t.
func (t *Table) SliceMaj(begin, end int) Table {
	if begin < 0 || end < begin || end > t.numMajor {
		panic(fmt.Sprintf("simdbits: slice_maj [%d,%d) out of range for %d rows", begin, end, t.numMajor))
	}
	return Table{
		numMajor:    end - begin,
		numMinor:    t.numMinor,
		majorPadded: end - begin,
		minorPadded: t.minorPadded,
		wordsPerRow: t.wordsPerRow,
		words:       t.words[begin*t.wordsPerRow : end*t.wordsPerRow],
	}
}

// Grow replaces the table's storage with a new allocation of at least
// newNumMajor rows, copying existing rows over and zeroing the rest. Growth
// either leaves the table fully intact or fully replaced — there is no
// partially-grown state visible to the caller (growth happens into a new
// slice before the receiver's storage is swapped).
func (t *Table) Grow(newNumMajor int) {
	if newNumMajor <= t.numMajor {
		return
	}
	grown := NewTable(newNumMajor, t.numMinor)
	copy(grown.words, t.words)
	*t = grown
}

// GrowDouble doubles the major axis (or grows to minNumMajor if that's
// larger than double), matching the measurement record batch's amortized
// doubling growth strategy.
func (t *Table) GrowDouble(minNumMajor int) {
	newSize := t.numMajor * 2
	if newSize < minNumMajor {
		newSize = minNumMajor
	}
	if newSize < 1 {
		newSize = 1
	}
	t.Grow(newSize)
}

// CopyRowsFrom overwrites t's first n rows with src's first n rows,
// starting src at offset srcStart. Used when compacting a table down to its
// tail (dropping old rows past the lookback window).
func (t *Table) CopyRowsFrom(src *Table, srcStart, n int) {
	if n == 0 {
		return
	}
	srcWords := src.words[srcStart*src.wordsPerRow : (srcStart+n)*src.wordsPerRow]
	copy(t.words[:n*t.wordsPerRow], srcWords)
}

// Clone returns an independent deep copy of t.
func (t *Table) Clone() Table {
	out := NewTable(t.numMajor, t.numMinor)
	copy(out.words, t.words)
	return out
}
