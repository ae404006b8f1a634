package kvstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("not found")

// Entry is one key/value pair returned by List. Value is empty when the
// caller did not ask for values.
type Entry struct {
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
}

// Store is the persistent record store contract: string keys mapping to
// opaque serialized values. List matches keys against a glob pattern
// ("resume:*") and returns an empty slice, not an error, when nothing
// matches.
type Store interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)
	List(ctx context.Context, pattern string, includeValues bool) ([]Entry, error)
	Delete(ctx context.Context, key string) error
}
