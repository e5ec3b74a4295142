// Package snapshot defines where backends persist container snapshots on
// flush and reload them from on refresh.
package snapshot

import (
	"context"
	"errors"
	"net/url"
)

// ErrNotFound is returned by Get when no snapshot exists for the key.
var ErrNotFound = errors.New("snapshot not found")

// Sink stores opaque snapshot blobs by key.
//
// Implementations must be safe for concurrent use. Put replaces any previous
// blob stored under the same key.
type Sink interface {
	// Name returns a short identifier for logs ("filesystem", "s3").
	Name() string

	// Put stores data under key.
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the blob stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
}

// Key maps a container name to a sink key. The name is path-escaped so every
// container lands in a single namespace level and distinct names never share
// a key; a ".snap" suffix is added.
//
// Example:
//
//	Key("data/run1.h5")  // "data%2Frun1.h5.snap"
//	Key("/a.h5")         // "%2Fa.h5.snap"
func Key(container string) string {
	return url.PathEscape(container) + ".snap"
}
