// Package sink provides streaming destinations for a simulator's measurement
// byte stream, for experiments that ship sample data off-box instead of (or
// in addition to) writing it to a local file.
package sink

import "context"

// WriteCloser is a blocking byte-stream destination. Close finalizes the
// upload; callers must call Close exactly once, even on error, so that any
// background upload goroutine is reaped.
type WriteCloser interface {
	Write(p []byte) (int, error)
	Close() error
}

// Aborter is implemented by sinks that support cancelling a
// partially-written object instead of completing it on Close.
type Aborter interface {
	Abort(ctx context.Context) error
}
