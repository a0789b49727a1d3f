package record

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/stabframe/internal/conv"
	"github.com/hupe1980/stabframe/internal/fs"
	"github.com/hupe1980/stabframe/internal/hash"
	"github.com/hupe1980/stabframe/internal/simdbits"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionType selects the per-block codec used by FileWriter, mirroring
// the dual zstd/LZ4 codec choice used elsewhere in this module's storage
// layer.
type CompressionType uint8

const (
	CompressionNone CompressionType = iota
	CompressionZstd
	CompressionLZ4
)

var fileMagic = [4]byte{'S', 'T', 'B', '1'}

const (
	fileHeaderVersion = uint16(1)
	blockKindBytes     = uint8(0)
	blockKindBit       = uint8(1)
	blockKindEnd       = uint8(2)
)

// FileWriter is a local-file record.Writer using the framed format
// [magic "STB1"][version u16][flags u16] followed by a sequence of blocks,
// each [kind u8][numRows u32][uncompressedLen u32][compressedLen
// u32][crc32c u32][payload], a segment-header-plus-per-record-checksum
// shape suited to the measurement record's row-oriented content.
type FileWriter struct {
	f           fs.File
	compression CompressionType
	numShots    int
	wroteHeader bool
}

// NewFileWriter opens (or creates) path on fsys and returns a FileWriter
// that will frame every flushed block with compression.
func NewFileWriter(fsys fs.FileSystem, path string, numShots int, compression CompressionType) (*FileWriter, error) {
	f, err := fsys.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("record: opening %s: %w", path, err)
	}
	w := &FileWriter{f: f, compression: compression, numShots: numShots}
	if err := w.writeHeader(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return w, nil
}

func (w *FileWriter) writeHeader() error {
	buf := make([]byte, 0, 8)
	buf = append(buf, fileMagic[:]...)
	var fixed [4]byte
	binary.LittleEndian.PutUint16(fixed[0:2], fileHeaderVersion)
	binary.LittleEndian.PutUint16(fixed[2:4], uint16(w.compression))
	buf = append(buf, fixed[:]...)
	if _, err := w.f.Write(buf); err != nil {
		return fmt.Errorf("record: writing file header: %w", err)
	}
	w.wroteHeader = true
	return nil
}

func (w *FileWriter) compress(raw []byte) ([]byte, error) {
	switch w.compression {
	case CompressionNone:
		return raw, nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(raw, nil), nil
	case CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, dst, nil)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			// lz4 reports 0 when the input is incompressible; the block
			// header's uncompressedLen/compressedLen equality signals this
			// to the reader, so falling back to raw bytes is safe.
			return raw, nil
		}
		return dst[:n], nil
	default:
		return nil, fmt.Errorf("record: unknown compression type %d", w.compression)
	}
}

func (w *FileWriter) writeBlock(kind uint8, numRows uint32, raw []byte) error {
	compressed, err := w.compress(raw)
	if err != nil {
		return fmt.Errorf("record: compressing block: %w", err)
	}
	header := make([]byte, 17)
	header[0] = kind
	binary.LittleEndian.PutUint32(header[1:5], numRows)
	binary.LittleEndian.PutUint32(header[5:9], uint32(len(raw)))
	binary.LittleEndian.PutUint32(header[9:13], uint32(len(compressed)))
	binary.LittleEndian.PutUint32(header[13:17], hash.CRC32C(compressed))
	if _, err := w.f.Write(header); err != nil {
		return fmt.Errorf("record: writing block header: %w", err)
	}
	if _, err := w.f.Write(compressed); err != nil {
		return fmt.Errorf("record: writing block payload: %w", err)
	}
	return nil
}

func rowsToBytes(rows ...simdbits.Ref) []byte {
	if len(rows) == 0 {
		return nil
	}
	wordsPerRow := rows[0].NumWords()
	out := make([]byte, 0, len(rows)*wordsPerRow*8)
	for _, r := range rows {
		for _, word := range r.Words() {
			var b [8]byte
			binary.LittleEndian.PutUint64(b[:], word)
			out = append(out, b[:]...)
		}
	}
	return out
}

// BatchWriteBytes implements Writer by framing the whole block as one
// compressed, checksummed payload.
func (w *FileWriter) BatchWriteBytes(rows simdbits.Table) error {
	refs := make([]simdbits.Ref, rows.NumMajor())
	for i := range refs {
		refs[i] = rows.Row(i)
	}
	numRows, err := conv.IntToUint32(rows.NumMajor())
	if err != nil {
		return fmt.Errorf("record: %w", err)
	}
	return w.writeBlock(blockKindBytes, numRows, rowsToBytes(refs...))
}

// BatchWriteBit implements Writer by framing a single row as its own block.
func (w *FileWriter) BatchWriteBit(row simdbits.Ref) error {
	return w.writeBlock(blockKindBit, 1, rowsToBytes(row))
}

// WriteEnd implements Writer by emitting an empty end-of-stream block and
// syncing+closing the file.
func (w *FileWriter) WriteEnd() error {
	if err := w.writeBlock(blockKindEnd, 0, nil); err != nil {
		return err
	}
	if err := w.f.Sync(); err != nil {
		return fmt.Errorf("record: syncing file: %w", err)
	}
	return w.f.Close()
}

var _ io.Closer = (*FileWriter)(nil)

// Close releases the underlying file without writing an end-of-stream
// block — for abandoning a run early; prefer WriteEnd for a normal finish.
func (w *FileWriter) Close() error {
	return w.f.Close()
}
