// Package blob defines the archive interface raw scraped documents are
// written to.
package blob

import (
	"context"
	"io"
)

// Store archives raw documents. Implementations return a URI locating
// the stored object.
type Store interface {
	PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error)
}
