package sink

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"sync"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hupe1980/stabframe/internal/hash"
)

// S3Config configures the multipart uploader used to stream a sample run's
// measurement bytes to an S3 object.
type S3Config struct {
	// PartSize is the minimum part size for multipart uploads.
	// Default: 8MB.
	PartSize int64

	// Concurrency is the number of concurrent part uploads.
	// Default: 5.
	Concurrency int

	// EnableChecksum enables CRC32C integrity validation on each part.
	// Default: true.
	EnableChecksum bool
}

// DefaultS3Config returns production-sized upload settings.
func DefaultS3Config() S3Config {
	return S3Config{
		PartSize:       8 * 1024 * 1024,
		Concurrency:    5,
		EnableChecksum: true,
	}
}

// S3Client is the subset of *s3.Client an S3Writer needs; satisfied by
// *s3.Client and easily faked in tests.
type S3Client interface {
	manager.UploadAPIClient
	AbortMultipartUpload(ctx context.Context, params *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error)
}

// S3Writer streams a run's measurement bytes into a single S3 object via a
// multipart upload, so the simulator never has to buffer the whole sample
// stream in memory. It implements sink.WriteCloser and sink.Aborter.
type S3Writer struct {
	pw       *io.PipeWriter
	pr       *io.PipeReader
	uploader *manager.Uploader
	client   S3Client
	bucket   string
	key      string
	cfg      S3Config

	done     chan error
	uploadID atomic.Value // *string
	closed   atomic.Bool
	closeErr error
	closeMu  sync.Mutex
}

// NewS3Writer starts a background multipart upload of bucket/key and
// returns a writer whose Write calls feed that upload.
func NewS3Writer(ctx context.Context, client S3Client, bucket, key string, cfg S3Config) *S3Writer {
	pr, pw := io.Pipe()

	w := &S3Writer{
		pw:       pw,
		pr:       pr,
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			u.PartSize = cfg.PartSize
			u.Concurrency = cfg.Concurrency
		}),
		client: client,
		bucket: bucket,
		key:    key,
		cfg:    cfg,
		done:   make(chan error, 1),
	}

	go w.uploadLoop(ctx)

	return w
}

func (w *S3Writer) uploadLoop(ctx context.Context) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(w.bucket),
		Key:    aws.String(w.key),
		Body:   w.pr,
	}
	if w.cfg.EnableChecksum {
		input.ChecksumAlgorithm = types.ChecksumAlgorithmCrc32c
	}

	_, err := w.uploader.Upload(ctx, input)
	_ = w.pr.CloseWithError(err)
	w.done <- err
}

// Write feeds bytes to the in-flight multipart upload. It blocks while the
// uploader's internal buffer is full — sink.WriteCloser is a blocking
// byte-stream contract, not a fire-and-forget one.
func (w *S3Writer) Write(p []byte) (int, error) {
	if w.closed.Load() {
		return 0, io.ErrClosedPipe
	}
	return w.pw.Write(p)
}

// Close finalizes the multipart upload and waits for it to complete.
func (w *S3Writer) Close() error {
	w.closeMu.Lock()
	defer w.closeMu.Unlock()

	if !w.closed.CompareAndSwap(false, true) {
		return w.closeErr
	}
	if err := w.pw.Close(); err != nil {
		w.closeErr = err
		return err
	}
	w.closeErr = <-w.done
	return w.closeErr
}

// Abort cancels the in-progress multipart upload instead of completing it.
// Use this on a circuit-execution error so a partial sample stream never
// lands in the bucket under its final key.
//
// manager.Uploader (the high-level multipart client used by uploadLoop)
// doesn't surface the in-progress UploadId back to the caller, so Abort
// only issues an explicit AbortMultipartUpload call when w.uploadID was
// populated some other way (e.g. a future lower-level upload path); it
// otherwise degrades to unblocking the writer's pipe, which still causes
// the background upload to fail and S3 to garbage-collect the abandoned
// parts per the bucket's multipart-upload lifecycle policy.
func (w *S3Writer) Abort(ctx context.Context) error {
	w.closed.Store(true)
	_ = w.pw.CloseWithError(context.Canceled)

	idPtr := w.uploadID.Load()
	if idPtr == nil {
		return nil
	}
	uploadID, _ := idPtr.(*string)
	if uploadID == nil || *uploadID == "" {
		return nil
	}
	_, err := w.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(w.bucket),
		Key:      aws.String(w.key),
		UploadId: uploadID,
	})
	return err
}

// checksumCRC32C returns the S3-format (base64, big-endian) CRC32C checksum
// of data, for callers that upload a small manifest object with PutObject
// directly instead of streaming through an S3Writer.
func checksumCRC32C(data []byte) string {
	sum := hash.CRC32C(data)
	b := []byte{byte(sum >> 24), byte(sum >> 16), byte(sum >> 8), byte(sum)}
	return base64.StdEncoding.EncodeToString(b)
}

// PutSmallObject uploads data as a single PutObject call with a CRC32C
// integrity header, for small objects (run manifests) that don't warrant a
// multipart upload.
func PutSmallObject(ctx context.Context, client S3Client, bucket, key string, data []byte) error {
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:         aws.String(bucket),
		Key:            aws.String(key),
		Body:           bytes.NewReader(data),
		ContentLength:  aws.Int64(int64(len(data))),
		ChecksumCRC32C: aws.String(checksumCRC32C(data)),
	})
	return err
}
