package sink

import (
	"context"
	"io"
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/require"
)

// TestIntegration_MinIOWriter requires a running MinIO instance reachable at
// STABFRAME_MINIO_ENDPOINT with STABFRAME_MINIO_ACCESS_KEY /
// STABFRAME_MINIO_SECRET_KEY credentials. Skipped otherwise.
func TestIntegration_MinIOWriter(t *testing.T) {
	endpoint := os.Getenv("STABFRAME_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("Skipping MinIO integration test: STABFRAME_MINIO_ENDPOINT not set")
	}
	accessKey := os.Getenv("STABFRAME_MINIO_ACCESS_KEY")
	secretKey := os.Getenv("STABFRAME_MINIO_SECRET_KEY")
	bucket := os.Getenv("STABFRAME_MINIO_BUCKET")
	if bucket == "" {
		bucket = "stabframe-test"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()
	if _, err := client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	key := time.Now().Format("20060102150405") + "-samples.bin"
	data := make([]byte, 256*1024)
	rand.New(rand.NewSource(2)).Read(data)

	w := NewMinIOWriter(ctx, client, bucket, key)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	obj, err := client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	require.NoError(t, err)
	defer obj.Close()

	got, err := io.ReadAll(obj)
	require.NoError(t, err)
	require.Equal(t, data, got)

	_ = client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
}
