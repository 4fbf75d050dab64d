package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// BlobStore is the key addressed object store holding photos.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// Signer turns stored blob keys into time limited URLs.
type Signer struct {
	store BlobStore
	ttl   time.Duration
}

func NewSigner(store BlobStore, ttl time.Duration) *Signer {
	return &Signer{store: store, ttl: ttl}
}

func (s *Signer) URL(ctx context.Context, key string) (string, error) {
	u, err := s.store.SignedURL(ctx, key, s.ttl)
	if err != nil {
		return "", fmt.Errorf("signing %q: %w", key, err)
	}
	return u, nil
}

// OptionalURL resolves key when set. Failures are logged and yield nil.
func (s *Signer) OptionalURL(ctx context.Context, key *string, log *logrus.Entry) *string {
	if key == nil || *key == "" {
		return nil
	}
	u, err := s.URL(ctx, *key)
	if err != nil {
		log.WithError(err).Warn("could not sign blob url")
		return nil
	}
	return &u
}

// UploadAll puts every upload concurrently. Each upload stands on its own: the keys
// of those that made it are returned together with the combined error of the rest.
func UploadAll(ctx context.Context, store BlobStore, uploads []Upload) ([]string, error) {
	done := make([]bool, len(uploads))
	var (
		mu   sync.Mutex
		errs error
	)

	g, gctx := errgroup.WithContext(ctx)
	for i := range uploads {
		i, up := i, uploads[i]
		g.Go(func() error {
			if err := up.put(gctx, store); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("uploading %s: %w", up.Filename, err))
				mu.Unlock()
				return nil
			}
			done[i] = true
			return nil
		})
	}
	_ = g.Wait()

	keys := make([]string, 0, len(uploads))
	for i, ok := range done {
		if ok {
			keys = append(keys, uploads[i].Key)
		}
	}
	return keys, errs
}

// Cleanup is the list of blobs to drop once the rows pointing at them are gone.
type Cleanup []string

// Add appends key when it is set.
func (c Cleanup) Add(key *string) Cleanup {
	if key == nil || *key == "" {
		return c
	}
	return append(c, *key)
}

// Run deletes every key concurrently. Failures are logged and never returned:
// the rows are already gone and a stray blob is harmless.
func (c Cleanup) Run(ctx context.Context, store BlobStore, log *logrus.Entry) {
	if len(c) == 0 {
		return
	}
	var (
		mu   sync.Mutex
		errs error
	)
	var g errgroup.Group
	for _, key := range c {
		key := key
		g.Go(func() error {
			if err := store.Delete(ctx, key); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("deleting %s: %w", key, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if errs != nil {
		log.WithError(errs).
			WithField("failed", len(multierr.Errors(errs))).
			WithField("total", len(c)).
			Warn("blob cleanup incomplete")
		return
	}
	log.WithField("total", len(c)).Debug("blob cleanup done")
}
