package app

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"reefing/src/logger"
)

// ClientMinio is the part of *minio.Client the blob driver uses.
type ClientMinio interface {
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (info minio.UploadInfo, err error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	BucketExists(ctx context.Context, bucketName string) (bool, error)
}

// MinioS3Client stores blobs in any S3 compatible endpoint through minio-go.
type MinioS3Client struct {
	endpoint   string
	bucketName string
	client     ClientMinio
}

const defaultContentType = "application/octet-stream"

// NewMinioS3Client creates a new MinioS3Client instance.
func NewMinioS3Client(endpoint, accessKeyID, secretAccessKey, region, bucketName string, useSSL bool) (*MinioS3Client, error) {
	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for %s: %w", endpoint, err)
	}
	logger.Default().WithField("endpoint", endpoint).WithField("bucket", bucketName).Debug("minio blob store enabled")
	return newMinioS3Client(endpoint, bucketName, minioClient), nil
}

func newMinioS3Client(endpoint, bucketName string, client ClientMinio) *MinioS3Client {
	return &MinioS3Client{
		endpoint:   endpoint,
		bucketName: bucketName,
		client:     client,
	}
}

// Put uploads an object to the bucket.
func (s3 *MinioS3Client) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if contentType == "" {
		contentType = defaultContentType
	}
	_, err := s3.client.PutObject(ctx, s3.bucketName, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", s3.bucketName, key, err)
	}
	return nil
}

// SignedURL returns a presigned GET url valid for ttl.
func (s3 *MinioS3Client) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s3.client.PresignedGetObject(ctx, s3.bucketName, key, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s/%s: %w", s3.bucketName, key, err)
	}
	return u.String(), nil
}

func (s3 *MinioS3Client) Delete(ctx context.Context, key string) error {
	if err := s3.client.RemoveObject(ctx, s3.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s/%s: %w", s3.bucketName, key, err)
	}
	logger.FromContext(ctx).WithField("key", key).Debug("blob removed")
	return nil
}

// Ping checks that the bucket is reachable.
func (s3 *MinioS3Client) Ping(ctx context.Context) error {
	ok, err := s3.client.BucketExists(ctx, s3.bucketName)
	if err != nil {
		return fmt.Errorf("bucket %s on %s: %w", s3.bucketName, s3.endpoint, err)
	}
	if !ok {
		return fmt.Errorf("bucket %s does not exist on %s", s3.bucketName, s3.endpoint)
	}
	return nil
}
