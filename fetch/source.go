package fetch

import "context"

// Source reads a named resource from remote storage, starting at a byte
// offset. Implementations perform exactly one read attempt; retry and
// backoff belong to the Fetcher.
type Source interface {
	// Read returns the resource content from offset through end of
	// resource. Offset 0 reads the whole resource.
	//
	// Errors wrapping ErrNotFound are permanent; everything else is
	// treated as transient by the caller.
	Read(ctx context.Context, name string, offset int64) (string, error)
}
