package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type ClientMinio interface {
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (info minio.UploadInfo, err error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

type MinioS3Client struct {
	bucketName string
	client     ClientMinio
}

const (
	defaultContentType = "image/jpeg"

	// Presigned GET links stay valid for a week, long enough for a
	// gallery page to keep reusing them.
	publicURLExpiry = 7 * 24 * time.Hour
)

// NewMinioS3Client creates a new MinioS3Client instance.
func NewMinioS3Client(endpoint, accessKeyID, secretAccessKey, bucketName string, useSSL bool) (*MinioS3Client, error) {

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		log.Printf("can not create minio client %v for endpoint %s", err, endpoint)
		return nil, fmt.Errorf("Failed to create Minio S3 client: %v", err)
	}

	return &MinioS3Client{
		bucketName: bucketName,
		client:     minioClient,
	}, nil
}

// NewMinioS3ClientWith wraps an already constructed minio client. Used by
// tests to substitute a stub implementation of ClientMinio.
func NewMinioS3ClientWith(client ClientMinio, bucketName string) *MinioS3Client {
	return &MinioS3Client{bucketName: bucketName, client: client}
}

// ListKeys enumerates object keys under prefix, at most limit of them, in
// whatever order the bucket yields.
func (s3 *MinioS3Client) ListKeys(ctx context.Context, prefix string, limit int) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	result := make([]string, 0)
	objectCh := s3.client.ListObjects(ctx, s3.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
		MaxKeys:   limit,
	})
	for object := range objectCh {
		if object.Err != nil {
			log.Printf("list objects under %s: %v", prefix, object.Err)
			return result, object.Err
		}
		result = append(result, object.Key)
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

// PublicURL issues a presigned GET link for key that anyone can fetch.
func (s3 *MinioS3Client) PublicURL(ctx context.Context, key string) (string, error) {
	presignedURL, err := s3.client.PresignedGetObject(ctx, s3.bucketName, key, publicURLExpiry, url.Values{})
	if err != nil {
		log.Printf("presign %s: %v", key, err)
		return "", err
	}
	return presignedURL.String(), nil
}

// UploadFile writes object under key with the given content type. An existing
// object under the same key is overwritten.
func (s3 *MinioS3Client) UploadFile(ctx context.Context, key string, object io.Reader, size int64, contentType string) error {
	if contentType == "" {
		contentType = defaultContentType
	}
	_, err := s3.client.PutObject(ctx,
		s3.bucketName,
		key,
		object,
		size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("can not upload %s: %v", key, err)
	}
	return nil
}

func (s3 *MinioS3Client) DeleteFile(ctx context.Context, key string) error {
	err := s3.client.RemoveObject(ctx, s3.bucketName, key, minio.RemoveObjectOptions{})
	log.Printf("remove %s, %s", s3.bucketName, key)
	if err != nil {
		log.Printf("%v", err)
		return fmt.Errorf("can not delete %s: %v", key, err)
	}
	return nil
}
