package sink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksumCRC32C_StableAndBase64Encoded(t *testing.T) {
	data := []byte("stabilizer frame simulation sample stream")

	sum1 := checksumCRC32C(data)
	sum2 := checksumCRC32C(data)
	assert.Equal(t, sum1, sum2)
	assert.Len(t, sum1, 8) // 4 raw bytes, base64-encoded without padding removal

	empty := checksumCRC32C(nil)
	assert.NotEqual(t, sum1, empty)
}

func TestDefaultS3Config(t *testing.T) {
	cfg := DefaultS3Config()
	assert.Equal(t, int64(8*1024*1024), cfg.PartSize)
	assert.Equal(t, 5, cfg.Concurrency)
	assert.True(t, cfg.EnableChecksum)
}

// TestIntegration_S3Writer exercises S3Writer against a real bucket. It is
// skipped unless STABFRAME_S3_BUCKET names one reachable with the host's
// default AWS credential chain.
func TestIntegration_S3Writer(t *testing.T) {
	bucket := os.Getenv("STABFRAME_S3_BUCKET")
	if bucket == "" {
		t.Skip("Skipping S3 integration test: STABFRAME_S3_BUCKET not set")
	}

	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx)
	require.NoError(t, err)

	client := s3.NewFromConfig(cfg)
	key := fmt.Sprintf("stabframe-test-%d/samples.bin", time.Now().UnixNano())

	data := make([]byte, 1024*1024)
	rand.New(rand.NewSource(1)).Read(data)

	w := NewS3Writer(ctx, client, bucket, key, DefaultS3Config())
	_, err = io.Copy(w, bytes.NewReader(data))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	out, err := client.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	require.NoError(t, err)
	defer out.Body.Close()

	got, err := io.ReadAll(out.Body)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}
