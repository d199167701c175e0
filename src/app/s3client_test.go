package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMinioClient struct {
	mock.Mock
}

func (m *MockMinioClient) ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	args := m.Called(ctx, bucketName, opts)
	return args.Get(0).(<-chan minio.ObjectInfo)
}

func (m *MockMinioClient) PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error) {
	args := m.Called(ctx, bucketName, objectName, expires, reqParams)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*url.URL), args.Error(1)
}

func (m *MockMinioClient) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucketName, objectName, reader, objectSize, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func (m *MockMinioClient) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	args := m.Called(ctx, bucketName, objectName, opts)
	return args.Error(0)
}

func objectChannel(infos ...minio.ObjectInfo) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(infos))
	for _, info := range infos {
		ch <- info
	}
	close(ch)
	return ch
}

func TestMinioS3Client(t *testing.T) {
	t.Run("ListKeys", func(t *testing.T) {
		mockMinio := new(MockMinioClient)
		mockMinio.On("ListObjects", mock.Anything, "mockBucket", mock.Anything).
			Return(objectChannel(
				minio.ObjectInfo{Key: "user123/file1.jpg"},
				minio.ObjectInfo{Key: "user123/file2.png"},
			))
		s3 := NewMinioS3ClientWith(mockMinio, "mockBucket")

		keys, err := s3.ListKeys(context.Background(), "user123/", 100)
		assert.NoError(t, err, "ListKeys() returned an error")
		assert.Equal(t, []string{"user123/file1.jpg", "user123/file2.png"}, keys)
	})

	t.Run("ListKeysHonorsLimit", func(t *testing.T) {
		mockMinio := new(MockMinioClient)
		mockMinio.On("ListObjects", mock.Anything, "mockBucket", mock.Anything).
			Return(objectChannel(
				minio.ObjectInfo{Key: "user123/file1.jpg"},
				minio.ObjectInfo{Key: "user123/file2.png"},
				minio.ObjectInfo{Key: "user123/file3.png"},
			))
		s3 := NewMinioS3ClientWith(mockMinio, "mockBucket")

		keys, err := s3.ListKeys(context.Background(), "user123/", 2)
		assert.NoError(t, err)
		assert.Len(t, keys, 2)
	})

	t.Run("ListKeysPropagatesError", func(t *testing.T) {
		mockMinio := new(MockMinioClient)
		mockMinio.On("ListObjects", mock.Anything, "mockBucket", mock.Anything).
			Return(objectChannel(minio.ObjectInfo{Err: fmt.Errorf("bucket gone")}))
		s3 := NewMinioS3ClientWith(mockMinio, "mockBucket")

		_, err := s3.ListKeys(context.Background(), "user123/", 100)
		assert.ErrorContains(t, err, "bucket gone")
	})

	t.Run("PublicURL", func(t *testing.T) {
		mockMinio := new(MockMinioClient)
		mockMinio.On("PresignedGetObject", mock.Anything, "mockBucket", "user123/file1.jpg", publicURLExpiry, mock.Anything).
			Return(&url.URL{Scheme: "https", Host: "storage.local", Path: "/mockBucket/user123/file1.jpg"}, nil)
		s3 := NewMinioS3ClientWith(mockMinio, "mockBucket")

		publicURL, err := s3.PublicURL(context.Background(), "user123/file1.jpg")
		require.NoError(t, err)
		assert.Equal(t, "https://storage.local/mockBucket/user123/file1.jpg", publicURL)
	})

	t.Run("PublicURLError", func(t *testing.T) {
		mockMinio := new(MockMinioClient)
		mockMinio.On("PresignedGetObject", mock.Anything, "mockBucket", "user123/file1.jpg", publicURLExpiry, mock.Anything).
			Return(nil, fmt.Errorf("presign refused"))
		s3 := NewMinioS3ClientWith(mockMinio, "mockBucket")

		_, err := s3.PublicURL(context.Background(), "user123/file1.jpg")
		assert.ErrorContains(t, err, "presign refused")
	})

	t.Run("UploadFile", func(t *testing.T) {
		fileContent := []byte("Hello, World!")
		mockMinio := new(MockMinioClient)
		mockMinio.On("PutObject", mock.Anything, "mockBucket", "user123/test.jpg",
			mock.Anything, int64(len(fileContent)),
			minio.PutObjectOptions{ContentType: "image/png"}).
			Return(minio.UploadInfo{}, nil)
		s3 := NewMinioS3ClientWith(mockMinio, "mockBucket")

		err := s3.UploadFile(context.Background(), "user123/test.jpg",
			bytes.NewReader(fileContent), int64(len(fileContent)), "image/png")
		assert.NoError(t, err, "UploadFile() returned an error")
		mockMinio.AssertExpectations(t)
	})

	t.Run("UploadFileDefaultsContentType", func(t *testing.T) {
		mockMinio := new(MockMinioClient)
		mockMinio.On("PutObject", mock.Anything, "mockBucket", "user123/test.jpg",
			mock.Anything, mock.Anything,
			minio.PutObjectOptions{ContentType: defaultContentType}).
			Return(minio.UploadInfo{}, nil)
		s3 := NewMinioS3ClientWith(mockMinio, "mockBucket")

		err := s3.UploadFile(context.Background(), "user123/test.jpg",
			bytes.NewReader([]byte("x")), 1, "")
		assert.NoError(t, err)
		mockMinio.AssertExpectations(t)
	})

	t.Run("DeleteFile", func(t *testing.T) {
		mockMinio := new(MockMinioClient)
		mockMinio.On("RemoveObject", mock.Anything, "mockBucket", "user123/test.jpg", mock.Anything).
			Return(nil)
		s3 := NewMinioS3ClientWith(mockMinio, "mockBucket")

		err := s3.DeleteFile(context.Background(), "user123/test.jpg")
		assert.NoError(t, err, "DeleteFile() returned an error")
	})

	t.Run("DeleteFileError", func(t *testing.T) {
		mockMinio := new(MockMinioClient)
		mockMinio.On("RemoveObject", mock.Anything, "mockBucket", "user123/test.jpg", mock.Anything).
			Return(fmt.Errorf("remove refused"))
		s3 := NewMinioS3ClientWith(mockMinio, "mockBucket")

		err := s3.DeleteFile(context.Background(), "user123/test.jpg")
		assert.ErrorContains(t, err, "remove refused")
	})
}
