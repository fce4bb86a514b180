// Package blob abstracts durable artifact storage. Uploads are idempotent
// upserts: writing an existing key overwrites it and never errors with
// "already exists".
package blob

import (
	"context"
	"io"
)

type Storage interface {
	// Upsert writes r under key, overwriting any previous object.
	Upsert(ctx context.Context, key, contentType string, r io.Reader) error

	// PublicURL returns the durable public URL for an uploaded key.
	PublicURL(key string) string
}
