package app

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	tmock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	mocking "reefing/src/app/mock"
)

func TestMinioS3Client(t *testing.T) {
	ctx := context.Background()

	t.Run("Put", func(t *testing.T) {
		m := new(mocking.MockClient)
		client := newMinioS3Client("mockEndpoint", "mockBucket", m)
		body := bytes.NewReader([]byte("Hello, World!"))
		m.On("PutObject", ctx, "mockBucket", "aquariums/a1/1-abc-reef.jpg", body, int64(13),
			minio.PutObjectOptions{ContentType: "image/jpeg"}).Return(minio.UploadInfo{}, nil).Once()

		require.NoError(t, client.Put(ctx, "aquariums/a1/1-abc-reef.jpg", body, 13, "image/jpeg"))
		m.AssertExpectations(t)
	})

	t.Run("Put defaults content type", func(t *testing.T) {
		m := new(mocking.MockClient)
		client := newMinioS3Client("mockEndpoint", "mockBucket", m)
		m.On("PutObject", ctx, "mockBucket", "k", tmock.Anything, int64(0),
			minio.PutObjectOptions{ContentType: defaultContentType}).Return(minio.UploadInfo{}, errors.New("denied")).Once()

		err := client.Put(ctx, "k", bytes.NewReader(nil), 0, "")
		assert.ErrorContains(t, err, "denied")
	})

	t.Run("SignedURL", func(t *testing.T) {
		m := new(mocking.MockClient)
		client := newMinioS3Client("mockEndpoint", "mockBucket", m)
		signed, _ := url.Parse("https://mockEndpoint/mockBucket/k?X-Amz-Signature=abc")
		m.On("PresignedGetObject", ctx, "mockBucket", "k", time.Hour, url.Values(nil)).Return(signed, nil).Once()

		u, err := client.SignedURL(ctx, "k", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, signed.String(), u)
		m.AssertExpectations(t)
	})

	t.Run("SignedURL error", func(t *testing.T) {
		m := new(mocking.MockClient)
		client := newMinioS3Client("mockEndpoint", "mockBucket", m)
		m.On("PresignedGetObject", ctx, "mockBucket", "k", time.Hour, url.Values(nil)).Return(nil, errors.New("offline")).Once()

		_, err := client.SignedURL(ctx, "k", time.Hour)
		assert.ErrorContains(t, err, "offline")
	})

	t.Run("Delete", func(t *testing.T) {
		m := new(mocking.MockClient)
		client := newMinioS3Client("mockEndpoint", "mockBucket", m)
		m.On("RemoveObject", ctx, "mockBucket", "k", minio.RemoveObjectOptions{}).Return(nil).Once()

		require.NoError(t, client.Delete(ctx, "k"))
		m.AssertExpectations(t)
	})

	t.Run("Ping", func(t *testing.T) {
		m := new(mocking.MockClient)
		client := newMinioS3Client("mockEndpoint", "mockBucket", m)
		m.On("BucketExists", ctx, "mockBucket").Return(true, nil).Once()
		m.On("BucketExists", ctx, "mockBucket").Return(false, nil).Once()

		assert.NoError(t, client.Ping(ctx))
		assert.ErrorContains(t, client.Ping(ctx), "does not exist")
	})
}
