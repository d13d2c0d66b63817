// Package noop provides a blob store that discards everything, used
// when artifact archiving is not configured.
package noop

import "context"

// BlobStore discards all writes.
type BlobStore struct{}

// New returns a noop blob store.
func New() *BlobStore { return &BlobStore{} }

// PutObject drops the data and returns an empty URI.
func (*BlobStore) PutObject(_ context.Context, _ string, _ string, _ []byte) (string, error) {
	return "", nil
}
