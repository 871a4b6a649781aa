// Package blobstore defines the leased blob/object store contract the batch
// job engine uses for dependency blobs and the advisory per-jobType lease,
// plus two reference implementations used by tests and local development.
package blobstore
