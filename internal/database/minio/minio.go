package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"parametric-insurance/internal/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ContentBucket holds trigger parameter and claim evidence blobs. Refs handed
// back to callers are "bucket/object" strings and are treated as opaque
// everywhere above this package.
const ContentBucket = "policy-content"

type MinioClient struct {
	client   *minio.Client
	location string
}

// NewMinioClient creates a MinIO client and makes sure the content bucket
// exists.
func NewMinioClient(cfg config.MinioConfig) (*MinioClient, error) {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.MinioURL, "https://"), "http://")
	secure := cfg.MinioSecure == "true"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	mc := &MinioClient{
		client:   client,
		location: cfg.MinioLocation,
	}

	if err := mc.ensureBucket(context.Background(), ContentBucket); err != nil {
		return nil, err
	}

	return mc, nil
}

func (m *MinioClient) ensureBucket(ctx context.Context, bucket string) error {
	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}

	err = m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: m.location})
	if err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}

	slog.Info("created content bucket", "bucket", bucket)
	return nil
}

// Put stores a blob and returns its ref.
func (m *MinioClient) Put(ctx context.Context, blob []byte) (string, error) {
	object := uuid.New().String()

	_, err := m.client.PutObject(ctx, ContentBucket, object,
		bytes.NewReader(blob), int64(len(blob)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", fmt.Errorf("failed to store content blob: %w", err)
	}

	return ContentBucket + "/" + object, nil
}

// Get retrieves a blob by the ref Put returned.
func (m *MinioClient) Get(ctx context.Context, ref string) ([]byte, error) {
	bucket, object, ok := strings.Cut(ref, "/")
	if !ok {
		return nil, fmt.Errorf("malformed content ref %q", ref)
	}

	obj, err := m.client.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get content blob %s: %w", ref, err)
	}
	defer obj.Close()

	blob, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read content blob %s: %w", ref, err)
	}

	return blob, nil
}
