package blobstore

import (
	"context"
	"io"
)

// Object describes a stored blob. Path is the stable reference handed back
// to callers and later resolved by Open.
type Object struct {
	Path      string
	SizeBytes int64
	MimeType  string
}

// Store is the document store contract for saving and resolving binary
// artifacts (the submitted document and its rendered preview).
type Store interface {
	Upload(ctx context.Context, fileName string, r io.Reader) (Object, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}
