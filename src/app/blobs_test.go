package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mocking "reefing/src/app/mock"
)

func bytesUpload(key string, data []byte) Upload {
	return Upload{
		Key:         key,
		Filename:    key,
		ContentType: "image/png",
		Size:        int64(len(data)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func TestUploadAll(t *testing.T) {
	ctx := context.Background()
	store := mocking.NewMemoryStore()
	store.FailPut = func(key string) error {
		if strings.Contains(key, "bad") {
			return errors.New("quota exceeded")
		}
		return nil
	}

	keys, err := UploadAll(ctx, store, []Upload{
		bytesUpload("aquariums/a1/1", []byte("one")),
		bytesUpload("aquariums/a1/bad", []byte("two")),
		bytesUpload("aquariums/a1/3", []byte("three")),
	})
	assert.ErrorContains(t, err, "quota exceeded")
	assert.Equal(t, []string{"aquariums/a1/1", "aquariums/a1/3"}, keys)
	assert.Equal(t, []string{"aquariums/a1/1", "aquariums/a1/3"}, store.Keys())

	keys, err = UploadAll(ctx, store, nil)
	assert.NoError(t, err)
	assert.Empty(t, keys)
}

func TestCleanupRun(t *testing.T) {
	ctx := context.Background()
	store := mocking.NewMemoryStore()
	store.Seed("a", []byte("1"), "image/png")
	store.Seed("b", []byte("2"), "image/png")
	store.Seed("c", []byte("3"), "image/png")
	store.FailDelete = func(key string) error {
		if key == "b" {
			return errors.New("access denied")
		}
		return nil
	}
	log, hook := test.NewNullLogger()

	var c Cleanup
	empty := ""
	c = c.Add(nil).Add(&empty)
	for _, k := range []string{"a", "b", "c"} {
		k := k
		c = c.Add(&k)
	}
	require.Len(t, c, 3)

	c.Run(ctx, store, logrus.NewEntry(log))
	assert.Equal(t, []string{"b"}, store.Keys())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, 1, hook.LastEntry().Data["failed"])
}

func TestSigner(t *testing.T) {
	ctx := context.Background()
	store := mocking.NewMemoryStore()
	store.Seed("users/u1/me.png", []byte("x"), "image/png")
	signer := NewSigner(store, time.Hour)
	log, _ := test.NewNullLogger()
	entry := logrus.NewEntry(log)

	u, err := signer.URL(ctx, "users/u1/me.png")
	require.NoError(t, err)
	assert.Contains(t, u, "expires=3600")

	_, err = signer.URL(ctx, "missing")
	assert.Error(t, err)

	key := "users/u1/me.png"
	missing := "missing"
	assert.NotNil(t, signer.OptionalURL(ctx, &key, entry))
	assert.Nil(t, signer.OptionalURL(ctx, &missing, entry))
	assert.Nil(t, signer.OptionalURL(ctx, nil, entry))
}
