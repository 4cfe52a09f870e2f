// Package objectstore is the binary side of the document manager: an
// S3-compatible bucket addressed by "{dealId}/{category}/{millis}-{name}"
// keys.
package objectstore

import (
	"context"
	"io"
	"strings"
	"time"
)

// Store is the object store contract used by the services.
type Store interface {
	// Put writes size bytes from r at key.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// List returns the full keys of objects directly inside folder
	// (no recursion into sub-folders).
	List(ctx context.Context, folder string) ([]string, error)
	// Walk returns every key under prefix, recursively.
	Walk(ctx context.Context, prefix string) ([]string, error)
	Remove(ctx context.Context, key string) error
	// SignedURL returns a time-limited GET url for key.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// SplitKey splits an object key into its folder and file name at the last
// slash. A key without a slash lives in the root folder "".
func SplitKey(key string) (folder, name string) {
	i := strings.LastIndexByte(key, '/')
	if i < 0 {
		return "", key
	}
	return key[:i], key[i+1:]
}

func folderPrefix(folder string) string {
	if folder == "" || strings.HasSuffix(folder, "/") {
		return folder
	}
	return folder + "/"
}
