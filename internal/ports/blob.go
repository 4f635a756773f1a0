package ports

import "context"

// BlobStore is content-addressable document storage. Put returns the content
// hash that the ledger record references; the core never stores the bytes
// itself.
type BlobStore interface {
	Put(ctx context.Context, data []byte, contentType string) (string, error)
	Get(ctx context.Context, contentHash string) ([]byte, error)
}
