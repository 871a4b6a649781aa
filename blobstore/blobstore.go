package blobstore

import (
	"context"
	"time"
)

// DefaultLeaseDuration is used when a caller doesn't specify one.
const DefaultLeaseDuration = 15 * time.Second

// Lease is a handle on an advisory lock acquired via BlobStore.LeaseBlob.
// Release is idempotent: releasing a lease that has already expired and been
// reacquired by another owner is a no-op, not an error.
type Lease interface {
	Release(ctx context.Context) error
}

// BlobStore is the external blob store contract: object I/O plus advisory
// lease acquire/release. Implementations outside this module back onto a
// real object storage service; InMemoryBlobStore and FileBlobStore here are
// reference adapters for tests.
type BlobStore interface {
	// Upload copies the file at localPath to container/blob. It returns
	// false (not an error) if localPath doesn't exist or blob already
	// exists — uploads never overwrite.
	Upload(ctx context.Context, container, blob, localPath string) (bool, error)
	// Download copies container/blob to localPath. Returns false if blob
	// does not exist.
	Download(ctx context.Context, container, blob, localPath string) (bool, error)
	// Exists reports whether container/blob is present.
	Exists(ctx context.Context, container, blob string) (bool, error)
	// Delete removes container/blob. Deleting a blob that doesn't exist is
	// not an error.
	Delete(ctx context.Context, container, blob string) error
	// CleanUp deletes every blob in container whose container-qualified id
	// ("container/blob") sorts lexicographically before leastBlobName, which
	// is compared in the same "container/blob" form, returning the deleted ids.
	CleanUp(ctx context.Context, container, leastBlobName string) ([]string, error)
	// LeaseBlob attempts to acquire an advisory, time-bounded exclusive
	// lease on container/blob. It returns (nil, nil) — not an error — if
	// the blob does not exist or the lease is already held by someone
	// else; callers must treat a nil Lease as "no lease available".
	LeaseBlob(ctx context.Context, container, blob string, duration time.Duration) (Lease, error)
}
