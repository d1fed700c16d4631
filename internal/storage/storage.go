package storage

import (
	"context"
	"io"
)

// ObjectStore is the remote collaborator mirroring staged import files under a
// per-tenant prefix. The pipeline only ever needs list-by-prefix, bulk delete
// and put; anything richer stays behind this interface.
type ObjectStore interface {
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, keys []string) error
	Put(ctx context.Context, key string, body io.Reader, size int64) error
}
