package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore is what the prediction pipeline needs from blob storage:
// durable upload plus a signed, time-limited read reference.
type ObjectStore interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	PresignedURL(ctx context.Context, path string, expiry time.Duration) (string, error)
}

// ClientMinio is the slice of the minio client the S3 store uses,
// kept as an interface so tests can substitute it.
type ClientMinio interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (info minio.UploadInfo, err error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

type MinioS3Client struct {
	bucketName string
	client     ClientMinio
}

// NewMinioS3Client creates a new MinioS3Client instance.
func NewMinioS3Client(endpoint, accessKeyID, secretAccessKey, bucketName string, useSSL bool) (*MinioS3Client, error) {
	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio S3 client: %w", err)
	}

	return &MinioS3Client{
		bucketName: bucketName,
		client:     minioClient,
	}, nil
}

// EnsureBucket creates the bucket if it does not exist yet. Called
// once at bootstrap.
func (s3 *MinioS3Client) EnsureBucket(ctx context.Context) error {
	exists, err := s3.client.BucketExists(ctx, s3.bucketName)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", s3.bucketName, err)
	}
	if exists {
		return nil
	}
	if err := s3.client.MakeBucket(ctx, s3.bucketName, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %q: %w", s3.bucketName, err)
	}
	return nil
}

func (s3 *MinioS3Client) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	_, err := s3.client.PutObject(ctx,
		s3.bucketName,
		path,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put object %q: %w", path, err)
	}
	return nil
}

func (s3 *MinioS3Client) PresignedURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	presignedURL, err := s3.client.PresignedGetObject(ctx, s3.bucketName, path, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %q: %w", path, err)
	}
	return presignedURL.String(), nil
}
