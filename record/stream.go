package record

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hupe1980/stabframe/internal/conv"
	"github.com/hupe1980/stabframe/internal/hash"
	"github.com/hupe1980/stabframe/internal/simdbits"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// StreamWriter adapts any blocking byte-stream destination (sink.S3Writer,
// sink.MinIOWriter, or a plain *os.File) into a record.Writer, using the
// same [magic][version][flags] + framed-block layout as FileWriter. Unlike
// FileWriter it does not own a local fs.File, so WriteEnd calls dst.Close
// instead of syncing and closing an fs.File directly — this is what lets a
// run stream samples straight to object storage instead of staging them on
// disk first.
type StreamWriter struct {
	dst         io.Writer
	compression CompressionType
	wroteHeader bool
}

// NewStreamWriter wraps dst (typically a sink.WriteCloser) as a
// record.Writer. dst.Close is invoked by WriteEnd; callers that abandon a
// run early should call dst.Close (or, for sinks implementing
// sink.Aborter, Abort) themselves rather than relying on this type.
func NewStreamWriter(dst io.Writer, compression CompressionType) (*StreamWriter, error) {
	w := &StreamWriter{dst: dst, compression: compression}
	if err := w.writeHeader(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *StreamWriter) writeHeader() error {
	buf := make([]byte, 0, 8)
	buf = append(buf, fileMagic[:]...)
	var fixed [4]byte
	binary.LittleEndian.PutUint16(fixed[0:2], fileHeaderVersion)
	binary.LittleEndian.PutUint16(fixed[2:4], uint16(w.compression))
	buf = append(buf, fixed[:]...)
	if _, err := w.dst.Write(buf); err != nil {
		return fmt.Errorf("record: writing stream header: %w", err)
	}
	w.wroteHeader = true
	return nil
}

func (w *StreamWriter) compress(raw []byte) ([]byte, error) {
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
			return raw, nil
		}
		return dst[:n], nil
	default:
		return nil, fmt.Errorf("record: unknown compression type %d", w.compression)
	}
}

func (w *StreamWriter) writeBlock(kind uint8, numRows uint32, raw []byte) error {
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
	if _, err := w.dst.Write(header); err != nil {
		return fmt.Errorf("record: writing block header: %w", err)
	}
	if _, err := w.dst.Write(compressed); err != nil {
		return fmt.Errorf("record: writing block payload: %w", err)
	}
	return nil
}

// BatchWriteBytes implements Writer.
func (w *StreamWriter) BatchWriteBytes(rows simdbits.Table) error {
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

// BatchWriteBit implements Writer.
func (w *StreamWriter) BatchWriteBit(row simdbits.Ref) error {
	return w.writeBlock(blockKindBit, 1, rowsToBytes(row))
}

// WriteEnd implements Writer by emitting an empty end-of-stream block and
// closing dst, if it implements io.Closer.
func (w *StreamWriter) WriteEnd() error {
	if err := w.writeBlock(blockKindEnd, 0, nil); err != nil {
		return err
	}
	if c, ok := w.dst.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

var _ Writer = (*StreamWriter)(nil)
