package sink

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/minio/minio-go/v7"
)

// MinIOWriter streams a run's measurement bytes to an S3-compatible object
// store (MinIO, or any other implementation of the S3 API reachable without
// the full AWS SDK), for labs that run their own storage cluster rather than
// shipping samples to AWS. It implements sink.WriteCloser.
type MinIOWriter struct {
	pw     *io.PipeWriter
	done   chan error
	closed atomic.Bool
}

// NewMinIOWriter starts a background PutObject stream to bucket/key.
func NewMinIOWriter(ctx context.Context, client *minio.Client, bucket, key string) *MinIOWriter {
	pr, pw := io.Pipe()

	w := &MinIOWriter{
		pw:   pw,
		done: make(chan error, 1),
	}

	go func() {
		// size=-1 tells the client to stream with an unknown content length,
		// using the multipart upload path internally.
		_, err := client.PutObject(ctx, bucket, key, pr, -1, minio.PutObjectOptions{})
		_ = pr.CloseWithError(err)
		w.done <- err
	}()

	return w
}

func (w *MinIOWriter) Write(p []byte) (int, error) {
	if w.closed.Load() {
		return 0, io.ErrClosedPipe
	}
	return w.pw.Write(p)
}

func (w *MinIOWriter) Close() error {
	if !w.closed.CompareAndSwap(false, true) {
		return io.ErrClosedPipe
	}
	if err := w.pw.Close(); err != nil {
		return err
	}
	return <-w.done
}
