package record

import (
	"sync"

	"github.com/hupe1980/stabframe/internal/simdbits"
)

// MemoryWriter accumulates every flushed row in memory as packed words, one
// row per measurement index. It is the Writer used by tests and by callers
// who want the raw bytes without routing through a file or network sink.
type MemoryWriter struct {
	mu    sync.Mutex
	rows  [][]uint64 // one []uint64 per row, each wordsPerRow long
	ended bool
}

// NewMemoryWriter returns an empty MemoryWriter.
func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{}
}

// BatchWriteBytes implements Writer.
func (m *MemoryWriter) BatchWriteBytes(rows simdbits.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < rows.NumMajor(); i++ {
		m.rows = append(m.rows, append([]uint64(nil), rows.Row(i).Words()...))
	}
	return nil
}

// BatchWriteBit implements Writer.
func (m *MemoryWriter) BatchWriteBit(row simdbits.Ref) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, append([]uint64(nil), row.Words()...))
	return nil
}

// WriteEnd implements Writer.
func (m *MemoryWriter) WriteEnd() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ended = true
	return nil
}

// Rows returns every row written so far, in order. The returned slices are
// copies and safe for the caller to retain.
func (m *MemoryWriter) Rows() [][]uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]uint64(nil), m.rows...)
}

// Ended reports whether WriteEnd has been called.
func (m *MemoryWriter) Ended() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ended
}

// Bit returns the value of shot-column `shot` in row `row`, for assembling
// a per-shot measurement sequence in tests.
func (m *MemoryWriter) Bit(row, shot int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	words := m.rows[row]
	return words[shot/simdbits.WordBits]&(uint64(1)<<(uint(shot)%simdbits.WordBits)) != 0
}
