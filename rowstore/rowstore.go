package rowstore

import (
	"context"
	"errors"
)

// UpdateMode controls how UpsertRow merges an existing row with a new one.
type UpdateMode int

const (
	// Replace overwrites the stored row entirely.
	Replace UpdateMode = iota
	// Merge overlays the new row's properties onto the stored row, leaving
	// properties the new row doesn't set untouched.
	Merge
)

// Sentinel errors returned by RowStore implementations.
var (
	// ErrRowNotFound is returned by GetRow when no row matches the given keys.
	ErrRowNotFound = errors.New("rowstore: row not found")
	// ErrRowExists is returned by InsertRow when a row with the same keys
	// already exists.
	ErrRowExists = errors.New("rowstore: row already exists")
)

// Row is a single partitioned record. Properties holds the row's payload as
// a plain map so that any schema (JobInfo, JobRun, or a caller-defined shape)
// can be layered on top without RowStore knowing about it.
type Row struct {
	PartitionKey string
	RowKey       string
	Properties   map[string]any
}

// Clone returns a deep copy of the row. Implementations return clones from
// reads so callers cannot mutate stored state by reference.
func (r *Row) Clone() *Row {
	if r == nil {
		return nil
	}
	props := make(map[string]any, len(r.Properties))
	for k, v := range r.Properties {
		props[k] = v
	}
	return &Row{PartitionKey: r.PartitionKey, RowKey: r.RowKey, Properties: props}
}

// RowStore is the external row store contract: a partitioned table
// supporting insert/upsert/get/query by (partition, row) and delete.
// Implementations outside this module back onto a real cloud table service;
// InMemoryRowStore and FileRowStore here are reference adapters for tests.
type RowStore interface {
	// CreateIfNotExist provisions the backing table if it does not already
	// exist. It is a no-op for stores that need no provisioning step.
	CreateIfNotExist(ctx context.Context) error
	// InsertRow adds a new row. It returns ErrRowExists if a row with the
	// same (PartitionKey, RowKey) is already present.
	InsertRow(ctx context.Context, row *Row) error
	// UpsertRow writes row, replacing or merging with any existing row at
	// the same keys according to mode.
	UpsertRow(ctx context.Context, row *Row, mode UpdateMode) error
	// GetRow returns the row at (partitionKey, rowKey), or ErrRowNotFound.
	GetRow(ctx context.Context, partitionKey, rowKey string) (*Row, error)
	// QueryRows returns all rows in partitionKey with RowKey strictly
	// greater than rowKeyGreaterThan (pass "" for all rows in the partition).
	QueryRows(ctx context.Context, partitionKey, rowKeyGreaterThan string) ([]*Row, error)
	// DeleteRow removes the row at (partitionKey, rowKey). Deleting a row
	// that does not exist is not an error.
	DeleteRow(ctx context.Context, partitionKey, rowKey string) error
}
