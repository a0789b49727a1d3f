// Package record implements the measurement-record ring buffer: a growable
// (measurement x shot) bit table with a bounded lookback window and a
// streaming writer interface that flushes 1024-row blocks, optionally
// XORing against a reference sample.
package record

import (
	"errors"
	"fmt"

	"github.com/hupe1980/stabframe/internal/simdbits"
)

// flushBlockRows is the block size used for the bulk write path — 1024 bits
// is 128 bytes per shot, so a block write lands on a byte boundary for
// every output channel regardless of shot count.
const flushBlockRows = 1024

// Sentinel errors for record-batch usage. Out-of-range lookback bounded by
// the configured window is a programmer/usage error the caller should not
// be able to trigger via circuit content alone (Lookback panics for those);
// ErrLookbackBeforeStart is the one circuit-semantic case — the record
// simply doesn't have that many rows yet — and is returned, not panicked.
var ErrLookbackBeforeStart = errors.New("record: lookback references before the start of the record")

// Writer is the measurement output stream contract. The core never
// reinterprets the bytes it hands a Writer — bit-packed, ASCII '0'/'1',
// hex, or detection-event encoding are all the writer's choice.
type Writer interface {
	// BatchWriteBytes writes a contiguous run of rows (one row per
	// measurement index, all shots packed per row) to the sink. Called only
	// with blocks whose row count is a multiple of flushBlockRows.
	BatchWriteBytes(rows simdbits.Table) error
	// BatchWriteBit writes a single row.
	BatchWriteBit(row simdbits.Ref) error
	// WriteEnd finalizes the stream.
	WriteEnd() error
}

// Batch is the measurement record ring buffer.
type Batch struct {
	table       simdbits.Table
	base        int // logical index of physical row 0 in table
	stored      int
	unwritten   int
	written     int
	maxLookback int
	shotMask    simdbits.Bits
}

// NewBatch returns an empty record batch over numShots shots, retaining at
// least maxLookback rows of history for rec[-k] references.
func NewBatch(numShots, maxLookback int) *Batch {
	if maxLookback < 0 {
		panic(fmt.Sprintf("record: negative max lookback %d", maxLookback))
	}
	initialCapacity := maxLookback
	if initialCapacity < flushBlockRows {
		initialCapacity = flushBlockRows
	}
	mask := simdbits.NewBits(numShots)
	for i := 0; i < numShots; i++ {
		mask.Set(i, true)
	}
	return &Batch{
		table:       simdbits.NewTable(initialCapacity, numShots),
		maxLookback: maxLookback,
		shotMask:    mask,
	}
}

// NumShots returns the number of shots each row carries.
func (b *Batch) NumShots() int { return b.table.NumMinor() }

// Stored returns the total number of rows ever appended since the last Clear.
func (b *Batch) Stored() int { return b.stored }

// Written returns the number of rows already flushed to a writer.
func (b *Batch) Written() int { return b.written }

// Unwritten returns the number of stored-but-not-yet-flushed rows.
func (b *Batch) Unwritten() int { return b.unwritten }

// ShotMask returns the active-shot mask; rows are ANDed with it on insert.
func (b *Batch) ShotMask() simdbits.Ref { return b.shotMask.Ref() }

// DeactivateShot permanently excludes shot i from every future recorded row
// (used when a shot is abandoned mid-run, e.g. on a detected leakage event
// outside this module's scope but supported here at the data layer).
func (b *Batch) DeactivateShot(i int) { b.shotMask.Set(i, false) }

// rowAt returns the physical row holding logical row index idx. idx must
// be in [base, stored) — the table only ever holds the tail of the logical
// sequence since the last compaction.
func (b *Batch) rowAt(idx int) simdbits.Ref {
	return b.table.Row(idx - b.base)
}

// RecordResult appends row (masked with the shot mask) as the next
// measurement row, growing the backing table by doubling if it is full.
func (b *Batch) RecordResult(row simdbits.Ref) {
	if row.Len() != b.table.NumMinor() {
		panic(fmt.Sprintf("record: row has %d shots, batch has %d", row.Len(), b.table.NumMinor()))
	}
	if b.liveRows() >= b.table.NumMajor() {
		b.table.GrowDouble(b.liveRows() + 1)
	}
	dst := b.table.Row(b.liveRows())
	dst.SetFrom(row)
	dst.And(b.shotMask.Ref())
	b.stored++
	b.unwritten++
}

// liveRows returns how many rows the physical table currently holds (the
// tail of the logical sequence retained since the last compaction).
func (b *Batch) liveRows() int {
	return b.stored - b.base
}

// Lookback returns the row appended exactly k results ago. Panics if k is
// not a valid lookback per the configured window (k == 0 or k >
// max_lookback) — a caller-side bug, not a circuit-content problem.
// Returns ErrLookbackBeforeStart if the record simply doesn't have k rows
// yet (a legitimate circuit referencing rec[-k] too early).
func (b *Batch) Lookback(k int) (simdbits.Ref, error) {
	if k <= 0 {
		panic(fmt.Sprintf("record: lookback(%d): k must be >= 1", k))
	}
	if k > b.maxLookback {
		panic(fmt.Sprintf("record: lookback(%d) exceeds configured max lookback %d", k, b.maxLookback))
	}
	if k > b.stored {
		return simdbits.Ref{}, fmt.Errorf("record: lookback(%d) with only %d rows stored: %w", k, b.stored, ErrLookbackBeforeStart)
	}
	return b.rowAt(b.stored - k), nil
}

// MarkAllAsWritten resets the unwritten count to zero and compacts storage,
// dropping rows older than the lookback window once more than half the
// rows currently held are such rows.
func (b *Batch) MarkAllAsWritten() {
	b.written += b.unwritten
	b.unwritten = 0
	b.compactIfStale()
}

func (b *Batch) compactIfStale() {
	retain := b.maxLookback
	if b.unwritten > retain {
		retain = b.unwritten
	}
	if retain >= b.liveRows() {
		return
	}
	stale := b.liveRows() - retain
	if stale <= b.liveRows()/2 {
		return
	}
	compacted := simdbits.NewTable(b.table.NumMajor(), b.table.NumMinor())
	compacted.CopyRowsFrom(&b.table, stale, retain)
	b.table = compacted
	b.base += stale
}

// IntermediateWriteUnwrittenResultsTo flushes every full flushBlockRows-row
// block of unwritten rows to writer via BatchWriteBytes, XORing each
// flushed row against the shot mask wherever refSample has a set bit at
// that row's logical index (producing the deviation from the reference
// sample rather than the raw outcome). After flushing, storage is compacted
// to retain at least max(max_lookback, unwritten) tail rows.
func (b *Batch) IntermediateWriteUnwrittenResultsTo(w Writer, refSample simdbits.Ref) error {
	blocks := b.unwritten / flushBlockRows
	for i := 0; i < blocks; i++ {
		start := b.liveRows() - b.unwritten
		block := b.table.SliceMaj(start, start+flushBlockRows)
		b.applyRefXOR(&block, b.written, refSample)
		err := w.BatchWriteBytes(block)
		b.applyRefXOR(&block, b.written, refSample) // XOR is its own inverse: restores the stored rows
		if err != nil {
			return fmt.Errorf("record: flushing block at row %d: %w", b.written, err)
		}
		b.written += flushBlockRows
		b.unwritten -= flushBlockRows
	}
	b.compactIfStale()
	return nil
}

// applyRefXOR XORs every row in block against the shot mask wherever
// refSample has a set bit at the row's logical index (firstLogicalIndex +
// row offset), temporarily mutating the block in place; callers must only
// call this just before handing the block to a writer that copies or
// serializes it immediately.
func (b *Batch) applyRefXOR(block *simdbits.Table, firstLogicalIndex int, refSample simdbits.Ref) {
	if refSample.Len() == 0 {
		return
	}
	for i := 0; i < block.NumMajor(); i++ {
		logical := firstLogicalIndex + i
		if logical < refSample.Len() && refSample.Get(logical) {
			block.Row(i).Xor(b.shotMask.Ref())
		}
	}
}

// FinalWriteUnwrittenResultsTo writes every remaining unwritten row
// bit-by-bit via BatchWriteBit (applying the same reference-XOR rule as
// IntermediateWriteUnwrittenResultsTo), then emits end-of-stream.
func (b *Batch) FinalWriteUnwrittenResultsTo(w Writer, refSample simdbits.Ref) error {
	for b.unwritten > 0 {
		start := b.liveRows() - b.unwritten
		row := b.table.Row(start).Clone()
		if b.written < refSample.Len() && refSample.Get(b.written) {
			row.Ref().Xor(b.shotMask.Ref())
		}
		if err := w.BatchWriteBit(row.Ref()); err != nil {
			return fmt.Errorf("record: writing row %d: %w", b.written, err)
		}
		b.written++
		b.unwritten--
	}
	return w.WriteEnd()
}

// Clear resets the batch to empty, retaining its backing allocation.
func (b *Batch) Clear() {
	b.stored = 0
	b.unwritten = 0
	b.written = 0
	b.base = 0
}
