package stabframe

import "io"

// Close releases resources held by this Simulator: the resource-controller
// slot acquired by WithController (if any), and the configured Writer(s),
// for sinks that implement io.Closer (sink.S3Writer, sink.MinIOWriter,
// record.FileWriter) and weren't already ended by FinalFlush. Idempotent;
// safe to call more than once.
func (s *Simulator) Close() error {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true

	var firstErr error
	if !s.writerEnded {
		if c, ok := s.writer.(io.Closer); ok {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	if !s.detectorEnded && s.detectorWriter != nil && s.detectorWriter != s.writer {
		if c, ok := s.detectorWriter.(io.Closer); ok {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	if s.release != nil {
		s.release()
		s.release = nil
	}
	return firstErr
}
