// Package jobdata is the domain layer over a rowstore.RowStore and a
// blobstore.BlobStore: JobInfo CRUD, append-only JobRun history, failure
// summarization, and the advisory per-jobType lease.
package jobdata
